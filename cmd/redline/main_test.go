package main

import (
	"testing"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/service"
)

func TestResolveMCPAddr(t *testing.T) {
	if got := resolveMCPAddr("127.0.0.1:9999", nil); got != "127.0.0.1:9999" {
		t.Fatalf("flag addr: %s", got)
	}
	cfg := &service.Config{}
	cfg.MCPServer.Port = 7070
	if got := resolveMCPAddr("", cfg); got != "127.0.0.1:7070" {
		t.Fatalf("config port: %s", got)
	}
	cfg.MCPServer.Addr = "0.0.0.0:8080"
	if got := resolveMCPAddr("", cfg); got != "0.0.0.0:8080" {
		t.Fatalf("config addr: %s", got)
	}
	if got := resolveMCPAddr("", nil); got != "127.0.0.1:6161" {
		t.Fatalf("default addr: %s", got)
	}
}

func TestOptionByLabel(t *testing.T) {
	options := []schema.EditOption{
		{OptionID: "1", Label: "A"},
		{OptionID: "2", Label: "B"},
	}
	if got := optionByLabel(options, "b"); got == nil || got.OptionID != "2" {
		t.Fatalf("lookup b: %+v", got)
	}
	if got := optionByLabel(options, "C"); got != nil {
		t.Fatalf("expected nil for missing label, got %+v", got)
	}
}

func TestRenderDiff(t *testing.T) {
	hunks := []schema.DiffHunk{
		{Op: schema.DiffEqual, Text: "A "},
		{Op: schema.DiffDelete, Text: "cat"},
		{Op: schema.DiffInsert, Text: "dog"},
		{Op: schema.DiffEqual, Text: " sat."},
	}
	want := "A [-cat-]{+dog+} sat."
	if got := renderDiff(hunks); got != want {
		t.Fatalf("renderDiff = %q, want %q", got, want)
	}
}
