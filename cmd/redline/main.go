package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/gops/agent"

	"github.com/redlinehq/redline/service"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create":
		createCmd(os.Args[2:])
	case "import":
		importCmd(os.Args[2:])
	case "list":
		listCmd(os.Args[2:])
	case "show":
		showCmd(os.Args[2:])
	case "history":
		historyCmd(os.Args[2:])
	case "revert":
		revertCmd(os.Args[2:])
	case "export":
		exportCmd(os.Args[2:])
	case "index":
		indexCmd(os.Args[2:])
	case "style":
		styleCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	case "delete":
		deleteCmd(os.Args[2:])
	case "edit":
		editCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: redline <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  create   Create a manuscript from a file or stdin")
	fmt.Fprintln(os.Stderr, "  import   Import a manuscript (md/txt/docx/pdf)")
	fmt.Fprintln(os.Stderr, "  list     List manuscripts")
	fmt.Fprintln(os.Stderr, "  show     Print a version's content")
	fmt.Fprintln(os.Stderr, "  history  List a manuscript's versions")
	fmt.Fprintln(os.Stderr, "  revert   Revert to an earlier version")
	fmt.Fprintln(os.Stderr, "  export   Export the current version as markdown")
	fmt.Fprintln(os.Stderr, "  index    Index the current version for context retrieval")
	fmt.Fprintln(os.Stderr, "  style    Set or list style preferences")
	fmt.Fprintln(os.Stderr, "  search   Query the context index")
	fmt.Fprintln(os.Stderr, "  delete   Delete a manuscript and its history")
	fmt.Fprintln(os.Stderr, "  edit     Select a passage, suggest rewrites, optionally apply one")
	fmt.Fprintln(os.Stderr, "  serve    Run the MCP server (streamable HTTP)")
}

func createCmd(args []string) {
	flags := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	title := flags.String("title", "", "manuscript title (required)")
	author := flags.String("author", "", "author name")
	file := flags.String("file", "-", "content file, - for stdin")
	flags.Parse(args)

	if *title == "" {
		flags.Usage()
		os.Exit(2)
	}
	content, err := readContent(*file)
	if err != nil {
		log.Fatalf("read content: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.CreateManuscript(ctx, service.CreateManuscriptRequest{Title: *title, Author: *author, Content: content})
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	fmt.Printf("manuscript=%s version=%s tag=%s\n", out.Manuscript.ID, out.Version.ID, out.Version.VersionTag)
}

func importCmd(args []string) {
	flags := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	location := flags.String("location", "", "source file location (required)")
	title := flags.String("title", "", "manuscript title (defaults to filename stem)")
	author := flags.String("author", "", "author name")
	flags.Parse(args)

	if *location == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.ImportManuscript(ctx, service.ImportManuscriptRequest{Location: *location, Title: *title, Author: *author})
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	fmt.Printf("manuscript=%s title=%q version=%s\n", out.Manuscript.ID, out.Manuscript.Title, out.Version.ID)
}

func listCmd(args []string) {
	flags := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	manuscripts, err := svc.Manuscripts(ctx)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	for _, m := range manuscripts {
		fmt.Printf("manuscript=%s title=%q author=%q current=%s\n", m.ID, m.Title, m.Author, m.CurrentVersionID)
	}
}

func showCmd(args []string) {
	flags := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	versionID := flags.String("version", "", "version id (defaults to current)")
	flags.Parse(args)

	if *manuscript == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.VersionContent(ctx, service.ContentRequest{ManuscriptID: *manuscript, VersionID: *versionID})
	if err != nil {
		log.Fatalf("show: %v", err)
	}
	fmt.Print(out.Version.Content)
}

func historyCmd(args []string) {
	flags := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	flags.Parse(args)

	if *manuscript == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.History(ctx, service.HistoryRequest{ManuscriptID: *manuscript})
	if err != nil {
		log.Fatalf("history: %v", err)
	}
	for _, info := range out.Versions {
		marker := " "
		if info.IsCurrent {
			marker = "*"
		}
		fmt.Printf("%s version=%s tag=%s created=%s\n", marker, info.ID, info.VersionTag, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func revertCmd(args []string) {
	flags := flag.NewFlagSet("revert", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	versionID := flags.String("version", "", "version id to revert to (required)")
	flags.Parse(args)

	if *manuscript == "" || *versionID == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.Revert(ctx, service.RevertRequest{ManuscriptID: *manuscript, VersionID: *versionID})
	if err != nil {
		log.Fatalf("revert: %v", err)
	}
	fmt.Printf("version=%s tag=%s parent=%s\n", out.Version.ID, out.Version.VersionTag, out.Version.ParentVersionID)
}

func exportCmd(args []string) {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	dest := flags.String("dest", "", "destination location (defaults to <title>.md)")
	flags.Parse(args)

	if *manuscript == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.Export(ctx, service.ExportRequest{ManuscriptID: *manuscript, Destination: *dest})
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("exported=%s\n", out.Location)
}

func indexCmd(args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	flags.Parse(args)

	if *manuscript == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.IndexContext(ctx, service.IndexContextRequest{ManuscriptID: *manuscript})
	if err != nil {
		log.Fatalf("index: %v", err)
	}
	fmt.Printf("indexed version=%s chunks=%d\n", out.VersionID, out.Chunks)
}

func styleCmd(args []string) {
	flags := flag.NewFlagSet("style", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	key := flags.String("key", "", "preference key (omit to list)")
	value := flags.String("value", "", "preference value")
	flags.Parse(args)

	if *manuscript == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	if *key != "" {
		if err := svc.SetStylePref(ctx, service.StylePrefRequest{ManuscriptID: *manuscript, Key: *key, Value: *value}); err != nil {
			log.Fatalf("style: %v", err)
		}
	}
	prefs, err := svc.StylePrefs(ctx, *manuscript)
	if err != nil {
		log.Fatalf("style: %v", err)
	}
	for k, v := range prefs {
		fmt.Printf("%s=%s\n", k, v)
	}
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	query := flags.String("query", "", "query text (required)")
	limit := flags.Int("limit", 6, "max chunks")
	flags.Parse(args)

	if *manuscript == "" || *query == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	out, err := svc.SearchContext(ctx, service.SearchContextRequest{ManuscriptID: *manuscript, Query: *query, K: *limit})
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	for _, chunk := range out.Chunks {
		text := chunk.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("score=%.4f range=%d-%d chapter=%q\n%s\n\n", chunk.Score, chunk.Start, chunk.End, chunk.Chapter, text)
	}
}

func deleteCmd(args []string) {
	flags := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	dbPath := flags.String("db", "", "store database path (overrides config)")
	manuscript := flags.String("manuscript", "", "manuscript id (required)")
	flags.Parse(args)

	if *manuscript == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc := openService(*configPath, *dbPath)
	defer func() { _ = svc.Close() }()

	if err := svc.DeleteManuscript(ctx, *manuscript); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Printf("deleted=%s\n", *manuscript)
}

func openService(configPath, dbPath string) *service.Service {
	cfg := resolveConfig(configPath)
	if dbPath != "" {
		cfg.Store.DSN = dbPath
	}
	svc, err := service.New(service.WithConfig(cfg), service.WithLogf(log.Printf))
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

func resolveConfig(configPath string) *service.Config {
	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".redline", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
			}
		}
	}
	if configPath == "" {
		return service.DefaultConfig()
	}
	cfg, err := service.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}

func readContent(file string) (string, error) {
	if file == "" || file == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(file)
	return string(b), err
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
