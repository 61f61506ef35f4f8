package version

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/redlinehq/redline/store"
)

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.New(store.WithDSN(filepath.Join(t.TempDir(), "manuscripts.db")))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s), s
}

func TestCommitGrowsHistory(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	ms, err := s.CreateManuscript(ctx, "Draft", "", "one")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v2, err := m.Commit(ctx, ms.ID, ms.CurrentVersionID, "two")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	infos, err := m.History(ctx, ms.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(infos) != 2 || !infos[0].IsCurrent || infos[0].ID != v2.ID {
		t.Fatalf("unexpected history: %+v", infos)
	}
}

func TestRevertAppendsCopy(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	ms, err := s.CreateManuscript(ctx, "Draft", "", "original")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v1 := ms.CurrentVersionID
	v2, err := m.Commit(ctx, ms.ID, v1, "edited")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	v3, err := m.Revert(ctx, ms.ID, v1)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if v3.Content != "original" {
		t.Fatalf("reverted content = %q", v3.Content)
	}
	if v3.ParentVersionID != v2.ID {
		t.Fatalf("revert parent = %q, want %q", v3.ParentVersionID, v2.ID)
	}
	infos, err := m.History(ctx, ms.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// Revert grows history; nothing is erased. Newest first, so the revert
	// version leads.
	if len(infos) != 3 || !infos[0].IsCurrent || infos[0].ID != v3.ID {
		t.Fatalf("unexpected history: %+v", infos)
	}
	// The reverted-away version is still retrievable.
	old, err := m.Content(ctx, ms.ID, v2.ID)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if old.Content != "edited" {
		t.Fatalf("old content = %q", old.Content)
	}
}

func TestRevertToCurrentRejected(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	ms, err := s.CreateManuscript(ctx, "Draft", "", "one")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Revert(ctx, ms.ID, ms.CurrentVersionID); err == nil {
		t.Fatal("expected error reverting to current version")
	}
}

func TestConcurrentCommitsOneWinner(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	ms, err := s.CreateManuscript(ctx, "Draft", "", "base")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Commit(ctx, ms.ID, ms.CurrentVersionID, "contender")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, store.ErrStaleBase):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("winners = %d, want exactly 1", won)
	}
	infos, err := m.History(ctx, ms.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("history len = %d, want 2", len(infos))
	}
}
