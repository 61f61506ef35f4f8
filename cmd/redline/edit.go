package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/service"
)

// editCmd runs one select/suggest cycle and optionally applies an option. The
// whole cycle runs in one process because sessions live in memory; multi-call
// flows go through the MCP server instead.
func editCmd(args []string) {
	flags := flag.NewFlagSet("edit", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	text := flags.String("text", "", "selected text (required)")
	start := flags.Int("start", -1, "selection start offset (optional)")
	end := flags.Int("end", -1, "selection end offset (optional)")
	instruction := flags.String("instruction", "", "edit instruction (required)")
	apply := flags.String("apply", "", "apply the option with this label (A|B|C)")
	flags.Parse(args)

	if *manuscript == "" || *text == "" || *instruction == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	sel, err := svc.SelectText(ctx, service.SelectRequest{
		ManuscriptID: *manuscript,
		Text:         *text,
		Start:        *start,
		End:          *end,
		HasOffsets:   *start >= 0 && *end >= 0,
		Instruction:  *instruction,
	})
	if err != nil {
		log.Fatalf("select: %v", err)
	}
	sess := sel.Session
	fmt.Printf("session=%s range=%d-%d\n", sess.ID, sess.TargetRange.Start, sess.TargetRange.End)

	sugg, err := svc.SuggestEdits(ctx, service.SuggestRequest{SessionID: sess.ID})
	if err != nil {
		log.Fatalf("suggest: %v", err)
	}
	for _, option := range sugg.Session.Options {
		fmt.Printf("\noption=%s severity=%s\n%s\n", option.Label, option.Severity, renderDiff(option.Diff))
	}

	if *apply == "" {
		return
	}
	option := optionByLabel(sugg.Session.Options, *apply)
	if option == nil {
		log.Fatalf("edit: no option labelled %q", *apply)
	}
	out, err := svc.ApplyEdit(ctx, service.ApplyRequest{SessionID: sess.ID, OptionID: option.OptionID})
	if err != nil {
		log.Fatalf("apply: %v", err)
	}
	fmt.Printf("\napplied=%s version=%s tag=%s\n", option.Label, out.Version.ID, out.Version.VersionTag)
}

func optionByLabel(options []schema.EditOption, label string) *schema.EditOption {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i := range options {
		if options[i].Label == label {
			return &options[i]
		}
	}
	return nil
}

// renderDiff prints hunks inline, [-deleted-] and {+inserted+}.
func renderDiff(hunks []schema.DiffHunk) string {
	var b strings.Builder
	for _, hunk := range hunks {
		switch hunk.Op {
		case schema.DiffDelete:
			b.WriteString("[-")
			b.WriteString(hunk.Text)
			b.WriteString("-]")
		case schema.DiffInsert:
			b.WriteString("{+")
			b.WriteString(hunk.Text)
			b.WriteString("+}")
		default:
			b.WriteString(hunk.Text)
		}
	}
	return b.String()
}
