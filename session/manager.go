// Package session orchestrates the edit cycle: select a passage, request
// suggestions, apply one option as a new version. Sessions are ephemeral and
// in-memory; manuscripts and versions are the durable record. At most one live
// session exists per manuscript, a newer one implicitly supersedes the older.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redlinehq/redline/retrieval"
	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/selection"
	"github.com/redlinehq/redline/store"
	"github.com/redlinehq/redline/suggest"
	"github.com/redlinehq/redline/textdiff"
	"github.com/redlinehq/redline/version"
)

var (
	// ErrNotFound indicates the session or option does not exist.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidState indicates the operation does not apply to the session's
	// current status.
	ErrInvalidState = errors.New("session: invalid state")
	// ErrInvalidRange indicates the selection is empty or out of bounds.
	ErrInvalidRange = errors.New("session: invalid range")
	// ErrConflict indicates the manuscript changed under the session; the
	// session is discarded and the caller must re-select.
	ErrConflict = errors.New("session: base version conflict")
	// ErrSuggestionUnavailable indicates the suggestion provider failed.
	ErrSuggestionUnavailable = errors.New("session: suggestions unavailable")
)

// Retriever serves context chunks for suggestion prompts.
type Retriever interface {
	Retrieve(ctx context.Context, manuscriptID, query string, k int) ([]retrieval.ScoredChunk, error)
}

// Manager owns the session registry and state transitions.
type Manager struct {
	store     *store.Store
	versions  *version.Manager
	suggester suggest.Suggester
	retriever Retriever

	contextChars   int
	contextChunks  int
	numOptions     int
	suggestTimeout time.Duration
	logf           func(format string, args ...any)

	mu       sync.Mutex
	sessions map[string]*schema.EditSession
	live     map[string]string // manuscript id -> live session id
}

// Option configures the manager.
type Option func(*Manager)

// WithRetriever wires a context index; without one prompts carry only the
// surrounding text.
func WithRetriever(r Retriever) Option {
	return func(m *Manager) { m.retriever = r }
}

// WithContextChars sets how many bytes around the selection feed the prompt.
func WithContextChars(n int) Option {
	return func(m *Manager) { m.contextChars = n }
}

// WithContextChunks sets how many retrieved chunks feed the prompt.
func WithContextChunks(k int) Option {
	return func(m *Manager) { m.contextChunks = k }
}

// WithNumOptions sets how many rewrites are requested per session.
func WithNumOptions(n int) Option {
	return func(m *Manager) { m.numOptions = n }
}

// WithSuggestTimeout bounds one provider call.
func WithSuggestTimeout(d time.Duration) Option {
	return func(m *Manager) { m.suggestTimeout = d }
}

// WithLogf sets a log sink.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(m *Manager) { m.logf = logf }
}

// New creates a session manager.
func New(s *store.Store, v *version.Manager, suggester suggest.Suggester, opts ...Option) *Manager {
	m := &Manager{
		store:          s,
		versions:       v,
		suggester:      suggester,
		contextChars:   500,
		contextChunks:  6,
		numOptions:     3,
		suggestTimeout: 2 * time.Minute,
		sessions:       map[string]*schema.EditSession{},
		live:           map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create resolves the reported selection against the current version and opens
// a session in the created state. An existing live session for the manuscript
// is discarded.
func (m *Manager) Create(ctx context.Context, manuscriptID string, reported selection.Reported, instruction string) (*schema.EditSession, error) {
	current, err := m.versions.Current(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	resolved, err := selection.Resolve(current.Content, reported)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if strings.TrimSpace(resolved.Text) == "" {
		return nil, fmt.Errorf("%w: selection is blank", ErrInvalidRange)
	}

	sess := &schema.EditSession{
		ID:            uuid.NewString(),
		ManuscriptID:  manuscriptID,
		BaseVersionID: current.ID,
		TargetRange:   resolved.Range,
		SelectedText:  resolved.Text,
		Instruction:   instruction,
		Status:        schema.SessionCreated,
	}

	m.mu.Lock()
	if prevID, ok := m.live[manuscriptID]; ok {
		if prev := m.sessions[prevID]; prev != nil && !prev.Status.Terminal() {
			prev.Status = schema.SessionDiscarded
			if m.logf != nil {
				m.logf("session superseded manuscript=%s session=%s by=%s", manuscriptID, prevID, sess.ID)
			}
		}
	}
	m.sessions[sess.ID] = sess
	m.live[manuscriptID] = sess.ID
	m.mu.Unlock()

	if m.logf != nil {
		m.logf("session created manuscript=%s session=%s range=%d-%d", manuscriptID, sess.ID, sess.TargetRange.Start, sess.TargetRange.End)
	}
	return clone(sess), nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(sessionID string) (*schema.EditSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return clone(sess), nil
}

// Suggest asks the provider for rewrites of the session's selection. On
// success the session holds its options and is ready for apply. Provider
// failure or cancellation returns the session to the created state with no
// partial options.
func (m *Manager) Suggest(ctx context.Context, sessionID string) (*schema.EditSession, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if sess.Status != schema.SessionCreated {
		status := sess.Status
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot suggest in status %s", ErrInvalidState, status)
	}
	sess.Status = schema.SessionSuggesting
	req := suggest.Request{
		Instruction: sess.Instruction,
		TargetText:  sess.SelectedText,
		TargetRange: sess.TargetRange,
		NumOptions:  m.numOptions,
	}
	manuscriptID := sess.ManuscriptID
	baseVersionID := sess.BaseVersionID
	m.mu.Unlock()

	// The provider call runs without the lock; it may take a while.
	proposals, err := m.propose(ctx, manuscriptID, baseVersionID, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess.Status != schema.SessionSuggesting {
		// Superseded or discarded while the provider was running.
		return nil, fmt.Errorf("%w: session no longer suggesting", ErrInvalidState)
	}
	if err != nil {
		sess.Status = schema.SessionCreated
		sess.Options = nil
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSuggestionUnavailable, err)
	}
	options := make([]schema.EditOption, 0, len(proposals))
	for _, p := range proposals {
		// An option always rewrites the selection as it stood at generation
		// time; a provider-supplied before that differs is discarded.
		options = append(options, schema.EditOption{
			OptionID: uuid.NewString(),
			Label:    p.Label,
			Before:   sess.SelectedText,
			After:    p.After,
			Diff:     textdiff.Diff(sess.SelectedText, p.After),
			Severity: p.Severity,
		})
	}
	sess.Options = options
	sess.Status = schema.SessionOptionsReady
	if m.logf != nil {
		m.logf("session options manuscript=%s session=%s count=%d", sess.ManuscriptID, sess.ID, len(options))
	}
	return clone(sess), nil
}

func (m *Manager) propose(ctx context.Context, manuscriptID, baseVersionID string, req suggest.Request) ([]suggest.Proposal, error) {
	if m.suggestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.suggestTimeout)
		defer cancel()
	}
	prefs, err := m.store.StylePrefs(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	req.StylePrefs = prefs
	req.Context, err = m.buildContext(ctx, manuscriptID, baseVersionID, req)
	if err != nil {
		return nil, err
	}
	return m.suggester.Suggest(ctx, req)
}

// buildContext combines the text surrounding the selection with retrieved
// chunks from the context index.
func (m *Manager) buildContext(ctx context.Context, manuscriptID, baseVersionID string, req suggest.Request) (string, error) {
	base, err := m.versions.Content(ctx, manuscriptID, baseVersionID)
	if err != nil {
		return "", err
	}
	content := base.Content
	from := req.TargetRange.Start - m.contextChars
	if from < 0 {
		from = 0
	}
	to := req.TargetRange.End + m.contextChars
	if to > len(content) {
		to = len(content)
	}
	surrounding := content[from:to]

	if m.retriever == nil || m.contextChunks <= 0 {
		return surrounding, nil
	}
	query := req.Instruction + " " + req.TargetText
	chunks, err := m.retriever.Retrieve(ctx, manuscriptID, query, m.contextChunks)
	if err != nil {
		// Retrieval is best effort; the surrounding text still stands.
		if m.logf != nil {
			m.logf("session context manuscript=%s retrieval failed: %v", manuscriptID, err)
		}
		return surrounding, nil
	}
	if len(chunks) == 0 {
		return surrounding, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return surrounding + "\n\n--- Retrieved Context ---\n" + strings.Join(texts, "\n\n"), nil
}

// Apply re-validates the session against the live manuscript, splices the
// chosen option in and commits the result as a new version. Any drift
// discards the session and reports a conflict.
func (m *Manager) Apply(ctx context.Context, sessionID, optionID string) (*schema.Version, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if sess.Status != schema.SessionOptionsReady {
		status := sess.Status
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot apply in status %s", ErrInvalidState, status)
	}
	option := sess.Option(optionID)
	if option == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: option %s", ErrNotFound, optionID)
	}
	manuscriptID := sess.ManuscriptID
	baseVersionID := sess.BaseVersionID
	targetRange := sess.TargetRange
	selected := sess.SelectedText
	after := option.After
	m.mu.Unlock()

	discard := func(reason string) error {
		m.mu.Lock()
		if !sess.Status.Terminal() {
			sess.Status = schema.SessionDiscarded
		}
		m.mu.Unlock()
		if m.logf != nil {
			m.logf("session conflict manuscript=%s session=%s reason=%s", manuscriptID, sessionID, reason)
		}
		return fmt.Errorf("%w: %s", ErrConflict, reason)
	}

	current, err := m.versions.Current(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	if current.ID != baseVersionID {
		return nil, discard("current version moved")
	}
	if !targetRange.Valid(len(current.Content)) || current.Content[targetRange.Start:targetRange.End] != selected {
		return nil, discard("selected text changed")
	}

	next := current.Content[:targetRange.Start] + after + current.Content[targetRange.End:]
	v, err := m.versions.Commit(ctx, manuscriptID, baseVersionID, next)
	if errors.Is(err, store.ErrStaleBase) {
		return nil, discard("lost commit race")
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	sess.Status = schema.SessionApplied
	if m.live[manuscriptID] == sessionID {
		delete(m.live, manuscriptID)
	}
	m.mu.Unlock()
	if m.logf != nil {
		m.logf("session applied manuscript=%s session=%s option=%s version=%s", manuscriptID, sessionID, optionID, v.ID)
	}
	return v, nil
}

// Discard moves a non-terminal session to the discarded state.
func (m *Manager) Discard(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if sess.Status.Terminal() {
		return fmt.Errorf("%w: session already %s", ErrInvalidState, sess.Status)
	}
	sess.Status = schema.SessionDiscarded
	if m.live[sess.ManuscriptID] == sessionID {
		delete(m.live, sess.ManuscriptID)
	}
	return nil
}

func clone(sess *schema.EditSession) *schema.EditSession {
	out := *sess
	if sess.Options != nil {
		out.Options = make([]schema.EditOption, len(sess.Options))
		copy(out.Options, sess.Options)
	}
	return &out
}
