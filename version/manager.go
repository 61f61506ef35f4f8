// Package version implements the manuscript version-control operations:
// commit, history, revert. History is append-only; a revert never rewrites it,
// it appends a fresh version carrying the old content.
package version

import (
	"context"
	"fmt"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/store"
)

// Manager exposes version-control operations over the content store.
type Manager struct {
	store *store.Store
	logf  func(format string, args ...any)
}

// Option configures the manager.
type Option func(*Manager)

// WithLogf sets a log sink.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(m *Manager) { m.logf = logf }
}

// New creates a Manager.
func New(s *store.Store, opts ...Option) *Manager {
	m := &Manager{store: s}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the version the manuscript's pointer references.
func (m *Manager) Current(ctx context.Context, manuscriptID string) (*schema.Version, error) {
	return m.store.CurrentVersion(ctx, manuscriptID)
}

// Content returns the full text of one version, or of the current version when
// versionID is empty.
func (m *Manager) Content(ctx context.Context, manuscriptID, versionID string) (*schema.Version, error) {
	if versionID == "" {
		return m.store.CurrentVersion(ctx, manuscriptID)
	}
	return m.store.GetVersion(ctx, manuscriptID, versionID)
}

// Commit appends content as a new version derived from baseVersionID and moves
// the current pointer. Returns store.ErrStaleBase when baseVersionID is no
// longer current.
func (m *Manager) Commit(ctx context.Context, manuscriptID, baseVersionID, content string) (*schema.Version, error) {
	v, err := m.store.AppendVersion(ctx, manuscriptID, baseVersionID, content)
	if err != nil {
		return nil, err
	}
	if m.logf != nil {
		m.logf("commit manuscript=%s version=%s parent=%s bytes=%d", manuscriptID, v.ID, baseVersionID, len(content))
	}
	return v, nil
}

// History returns all versions newest first, with the current one flagged.
func (m *Manager) History(ctx context.Context, manuscriptID string) ([]schema.VersionInfo, error) {
	return m.store.ListVersions(ctx, manuscriptID)
}

// Revert appends a new version whose content is copied from targetVersionID
// and moves the current pointer to it. The target must belong to the
// manuscript; the new version's parent is whatever was current at revert time,
// so history stays linear and nothing is erased.
func (m *Manager) Revert(ctx context.Context, manuscriptID, targetVersionID string) (*schema.Version, error) {
	target, err := m.store.GetVersion(ctx, manuscriptID, targetVersionID)
	if err != nil {
		return nil, err
	}
	current, err := m.store.CurrentVersion(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	if current.ID == target.ID {
		return nil, fmt.Errorf("version: %s is already current", targetVersionID)
	}
	v, err := m.store.AppendVersion(ctx, manuscriptID, current.ID, target.Content)
	if err != nil {
		return nil, err
	}
	if m.logf != nil {
		m.logf("revert manuscript=%s to=%s new_version=%s", manuscriptID, targetVersionID, v.ID)
	}
	return v, nil
}
