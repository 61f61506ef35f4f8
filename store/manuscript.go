package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redlinehq/redline/schema"
)

// CreateManuscript inserts a manuscript together with its initial version in
// one transaction.
func (s *Store) CreateManuscript(ctx context.Context, title, author, content string) (*schema.Manuscript, error) {
	now := time.Now().UTC()
	m := &schema.Manuscript{
		ID:        uuid.NewString(),
		Title:     title,
		Author:    author,
		CreatedAt: now,
	}
	v := &schema.Version{
		ID:           uuid.NewString(),
		ManuscriptID: m.ID,
		Content:      content,
		VersionTag:   versionTag(now),
		ContentHash:  ContentHash(content),
		CreatedAt:    now,
	}
	m.CurrentVersionID = v.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO manuscript(id, title, author, created_at, current_version_id) VALUES(?,?,?,?,?)`,
		m.ID, m.Title, m.Author, formatTime(m.CreatedAt), m.CurrentVersionID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO version(id, manuscript_id, content, version_tag, content_hash, created_at, parent_version_id, seq) VALUES(?,?,?,?,?,?,?,1)`,
		v.ID, v.ManuscriptID, v.Content, v.VersionTag, v.ContentHash, formatTime(v.CreatedAt), ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetManuscript returns the manuscript row.
func (s *Store) GetManuscript(ctx context.Context, id string) (*schema.Manuscript, error) {
	m := &schema.Manuscript{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, created_at, current_version_id FROM manuscript WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &m.Author, &createdAt, &m.CurrentVersionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: manuscript %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// ListManuscripts returns all manuscripts ordered by creation time.
func (s *Store) ListManuscripts(ctx context.Context) ([]*schema.Manuscript, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, author, created_at, current_version_id FROM manuscript ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*schema.Manuscript
	for rows.Next() {
		m := &schema.Manuscript{}
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Title, &m.Author, &createdAt, &m.CurrentVersionID); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetVersion returns one version including its content.
func (s *Store) GetVersion(ctx context.Context, manuscriptID, versionID string) (*schema.Version, error) {
	v := &schema.Version{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, manuscript_id, content, version_tag, content_hash, created_at, parent_version_id
		 FROM version WHERE manuscript_id = ? AND id = ?`, manuscriptID, versionID).
		Scan(&v.ID, &v.ManuscriptID, &v.Content, &v.VersionTag, &v.ContentHash, &createdAt, &v.ParentVersionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: version %s", ErrNotFound, versionID)
	}
	if err != nil {
		return nil, err
	}
	v.CreatedAt = parseTime(createdAt)
	return v, nil
}

// CurrentVersion returns the version the manuscript's current pointer
// references.
func (s *Store) CurrentVersion(ctx context.Context, manuscriptID string) (*schema.Version, error) {
	m, err := s.GetManuscript(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	return s.GetVersion(ctx, manuscriptID, m.CurrentVersionID)
}

// AppendVersion appends a new version derived from expectedParent and moves
// the current pointer to it, in one transaction. When expectedParent is no
// longer current the append is rejected with ErrStaleBase and nothing is
// written.
func (s *Store) AppendVersion(ctx context.Context, manuscriptID, expectedParent, content string) (*schema.Version, error) {
	now := time.Now().UTC()
	v := &schema.Version{
		ID:              uuid.NewString(),
		ManuscriptID:    manuscriptID,
		Content:         content,
		VersionTag:      versionTag(now),
		ContentHash:     ContentHash(content),
		CreatedAt:       now,
		ParentVersionID: expectedParent,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The compare-and-set goes first: it takes the write lock up front, so
	// concurrent appenders serialize on busy_timeout instead of failing a
	// read-to-write upgrade.
	res, err := tx.ExecContext(ctx,
		`UPDATE manuscript SET current_version_id = ? WHERE id = ? AND current_version_id = ?`,
		v.ID, manuscriptID, expectedParent)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected != 1 {
		var current string
		err = tx.QueryRowContext(ctx, `SELECT current_version_id FROM manuscript WHERE id = ?`, manuscriptID).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: manuscript %s", ErrNotFound, manuscriptID)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: current is %s, expected %s", ErrStaleBase, current, expectedParent)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO version(id, manuscript_id, content, version_tag, content_hash, created_at, parent_version_id, seq)
		 VALUES(?,?,?,?,?,?,?, (SELECT COALESCE(MAX(seq),0)+1 FROM version WHERE manuscript_id = ?))`,
		v.ID, v.ManuscriptID, v.Content, v.VersionTag, v.ContentHash, formatTime(v.CreatedAt), v.ParentVersionID, manuscriptID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

// ListVersions returns history rows newest first, flagging the version the
// current pointer references.
func (s *Store) ListVersions(ctx context.Context, manuscriptID string) ([]schema.VersionInfo, error) {
	m, err := s.GetManuscript(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version_tag, created_at FROM version WHERE manuscript_id = ? ORDER BY seq DESC`, manuscriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []schema.VersionInfo
	for rows.Next() {
		var info schema.VersionInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &info.VersionTag, &createdAt); err != nil {
			return nil, err
		}
		info.CreatedAt = parseTime(createdAt)
		info.IsCurrent = info.ID == m.CurrentVersionID
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteManuscript removes the manuscript, its versions and style prefs.
func (s *Store) DeleteManuscript(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM manuscript WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: manuscript %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM version WHERE manuscript_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM style_pref WHERE manuscript_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func versionTag(t time.Time) string {
	return "v" + t.Format("20060102T150405.000000000")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
