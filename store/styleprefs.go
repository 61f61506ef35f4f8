package store

import (
	"context"
	"time"
)

// SetStylePref upserts one per-manuscript style preference (e.g. dialect,
// oxford_comma). Preferences feed suggestion prompts.
func (s *Store) SetStylePref(ctx context.Context, manuscriptID, key, value string) error {
	if _, err := s.GetManuscript(ctx, manuscriptID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO style_pref(manuscript_id, key, value, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(manuscript_id, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		manuscriptID, key, value, formatTime(time.Now().UTC()))
	return err
}

// StylePrefs returns all style preferences for a manuscript.
func (s *Store) StylePrefs(ctx context.Context, manuscriptID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM style_pref WHERE manuscript_id = ?`, manuscriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
