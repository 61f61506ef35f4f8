package sqliteutil

import "testing"

func TestEnsurePragmas(t *testing.T) {
	got := EnsurePragmas("/tmp/redline.db", true, 5000)
	want := "/tmp/redline.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEnsurePragmasKeepsExisting(t *testing.T) {
	dsn := "/tmp/redline.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(100)"
	got := EnsurePragmas(dsn, true, 5000)
	want := dsn + "&_pragma=synchronous(NORMAL)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEnsurePragmasMemory(t *testing.T) {
	for _, dsn := range []string{":memory:", "file::memory:?cache=shared", ""} {
		if got := EnsurePragmas(dsn, true, 5000); got != dsn {
			t.Fatalf("in-memory DSN changed: %q -> %q", dsn, got)
		}
	}
}
