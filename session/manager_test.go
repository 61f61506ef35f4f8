package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/selection"
	"github.com/redlinehq/redline/store"
	"github.com/redlinehq/redline/suggest"
	"github.com/redlinehq/redline/textdiff"
	"github.com/redlinehq/redline/version"
)

// rewriteSuggester replaces one word in the selection, deterministically.
type rewriteSuggester struct {
	old, new string
	err      error
	block    chan struct{} // when set, Suggest waits for it
}

func (r *rewriteSuggester) Suggest(ctx context.Context, req suggest.Request) ([]suggest.Proposal, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	after := strings.ReplaceAll(req.TargetText, r.old, r.new)
	return []suggest.Proposal{
		{Label: "A", Severity: schema.SeverityLight, Before: req.TargetText, After: after},
		{Label: "B", Severity: schema.SeverityMedium, Before: req.TargetText, After: after + "!"},
	}, nil
}

func newTestManager(t *testing.T, s suggest.Suggester) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.New(store.WithDSN(filepath.Join(t.TempDir(), "manuscripts.db")))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, version.New(st), s), st
}

func TestEditCycleEndToEnd(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{old: "cat", new: "feline"})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "A cat sat.")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}

	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "A cat sat.", Start: 0, End: 10, HasOffsets: true}, "make it fancier")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Status != schema.SessionCreated {
		t.Fatalf("status = %s", sess.Status)
	}

	sess, err = m.Suggest(ctx, sess.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sess.Status != schema.SessionOptionsReady || len(sess.Options) != 2 {
		t.Fatalf("unexpected session after suggest: %+v", sess)
	}
	opt := sess.Options[0]
	if opt.After != "A feline sat." {
		t.Fatalf("option after = %q", opt.After)
	}
	if got, err := textdiff.Apply(opt.Before, opt.Diff); err != nil || got != opt.After {
		t.Fatalf("option diff does not reproduce rewrite: %q %v", got, err)
	}

	v, err := m.Apply(ctx, sess.ID, opt.OptionID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v.Content != "A feline sat." {
		t.Fatalf("new content = %q", v.Content)
	}
	infos, err := st.ListVersions(ctx, ms.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 2 || !infos[0].IsCurrent {
		t.Fatalf("unexpected history: %+v", infos)
	}
	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != schema.SessionApplied {
		t.Fatalf("status = %s", got.Status)
	}
}

// mismatchedSuggester claims it rewrote text unrelated to the selection.
type mismatchedSuggester struct{}

func (mismatchedSuggester) Suggest(ctx context.Context, req suggest.Request) ([]suggest.Proposal, error) {
	return []suggest.Proposal{{
		Label:    "A",
		Severity: schema.SeverityLight,
		Before:   "totally different text",
		After:    strings.ReplaceAll(req.TargetText, "cat", "feline"),
	}}, nil
}

func TestSuggestPinsOptionBeforeToSelection(t *testing.T) {
	m, st := newTestManager(t, mismatchedSuggester{})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "A cat sat.")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "A cat sat."}, "rewrite")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err = m.Suggest(ctx, sess.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	opt := sess.Options[0]
	// The provider's before is discarded; options always describe the
	// selection as it stood at generation time.
	if opt.Before != "A cat sat." {
		t.Fatalf("option before = %q", opt.Before)
	}
	if got, err := textdiff.Apply("A cat sat.", opt.Diff); err != nil || got != opt.After {
		t.Fatalf("option diff does not rewrite the selection: %q %v", got, err)
	}
	v, err := m.Apply(ctx, sess.ID, opt.OptionID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v.Content != "A feline sat." {
		t.Fatalf("new content = %q", v.Content)
	}
}

func TestCreateRejectsUnresolvableSelection(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "Hello world")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	_, err = m.Create(ctx, ms.ID, selection.Reported{Text: "Howdy", Start: 0, End: 5, HasOffsets: true}, "x")
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestNewSessionSupersedesLive(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{old: "a", new: "b"})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "one two three")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	first, err := m.Create(ctx, ms.ID, selection.Reported{Text: "one"}, "x")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := m.Create(ctx, ms.ID, selection.Reported{Text: "two"}, "y")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	got, err := m.Get(first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if got.Status != schema.SessionDiscarded {
		t.Fatalf("superseded session status = %s", got.Status)
	}
	if got, _ := m.Get(second.ID); got.Status != schema.SessionCreated {
		t.Fatalf("new session status = %s", got.Status)
	}
}

func TestApplyConflictWhenVersionMoved(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{old: "cat", new: "feline"})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "A cat sat.")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "cat"}, "x")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err = m.Suggest(ctx, sess.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	// Another writer commits first.
	if _, err := st.AppendVersion(ctx, ms.ID, ms.CurrentVersionID, "A dog sat."); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err = m.Apply(ctx, sess.ID, sess.Options[0].OptionID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, _ := m.Get(sess.ID)
	if got.Status != schema.SessionDiscarded {
		t.Fatalf("conflicted session status = %s", got.Status)
	}
	// The concurrent edit stands.
	cur, err := st.CurrentVersion(ctx, ms.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.Content != "A dog sat." {
		t.Fatalf("content = %q", cur.Content)
	}
}

func TestSuggestFailureReturnsToCreated(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{err: fmt.Errorf("provider down")})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "Some text here.")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "Some text"}, "x")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	_, err = m.Suggest(ctx, sess.ID)
	if !errors.Is(err, ErrSuggestionUnavailable) {
		t.Fatalf("expected ErrSuggestionUnavailable, got %v", err)
	}
	got, _ := m.Get(sess.ID)
	if got.Status != schema.SessionCreated || len(got.Options) != 0 {
		t.Fatalf("session after failure: %+v", got)
	}
}

func TestSuggestCancellationLeavesNoPartialOptions(t *testing.T) {
	block := make(chan struct{})
	m, st := newTestManager(t, &rewriteSuggester{old: "a", new: "b", block: block})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "waiting text")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "waiting"}, "x")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		_, err := m.Suggest(cctx, sess.ID)
		done <- err
	}()
	cancel()
	if err := <-done; err == nil {
		t.Fatal("expected cancellation error")
	}
	close(block)
	got, _ := m.Get(sess.ID)
	if got.Status != schema.SessionCreated || len(got.Options) != 0 {
		t.Fatalf("session after cancel: %+v", got)
	}
	// The session is reusable.
	if _, err := m.Suggest(ctx, sess.ID); err != nil {
		t.Fatalf("re-suggest: %v", err)
	}
}

func TestApplyWrongStateAndMissingOption(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{old: "a", new: "b"})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "abc abc")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "abc"}, "x")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := m.Apply(ctx, sess.ID, "nope"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	sess, err = m.Suggest(ctx, sess.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if _, err := m.Apply(ctx, sess.ID, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAppliesExactlyOneWinner(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{old: "cat", new: "feline"})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "A cat sat.")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "cat"}, "x")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err = m.Suggest(ctx, sess.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	var wg sync.WaitGroup
	errs := make([]error, len(sess.Options))
	for i, opt := range sess.Options {
		wg.Add(1)
		go func(i int, optionID string) {
			defer wg.Done()
			_, errs[i] = m.Apply(ctx, sess.ID, optionID)
		}(i, opt.OptionID)
	}
	wg.Wait()
	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("winners = %d, want exactly 1", won)
	}
	infos, err := st.ListVersions(ctx, ms.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("history len = %d, want 2", len(infos))
	}
}

func TestDiscard(t *testing.T) {
	m, st := newTestManager(t, &rewriteSuggester{old: "a", new: "b"})
	ctx := context.Background()
	ms, err := st.CreateManuscript(ctx, "Draft", "", "abc")
	if err != nil {
		t.Fatalf("create manuscript: %v", err)
	}
	sess, err := m.Create(ctx, ms.ID, selection.Reported{Text: "abc"}, "x")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := m.Discard(sess.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if err := m.Discard(sess.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
