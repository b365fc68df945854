package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Episode is one qualifying video file observed on the remote.
type Episode struct {
	Path      string `json:"path"`
	ShowPath  string `json:"-"`
	Lang      string `json:"lang"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	LastMod   string `json:"lastmod"`
	ETag      string `json:"etag"`
	IsNew     bool   `json:"is_new,omitempty"`
	UpdatedAt int64  `json:"-"`
}

// UpsertEpisodes inserts or updates a batch of episodes keyed by path.
// Re-applying the same observation yields the same stored state.
func (s *Store) UpsertEpisodes(episodes []Episode) error {
	if len(episodes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO episodes (path, show_path, lang, filename, size, lastmod, etag, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			show_path = excluded.show_path,
			lang = excluded.lang,
			filename = excluded.filename,
			size = excluded.size,
			lastmod = excluded.lastmod,
			etag = excluded.etag,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i := range episodes {
		e := &episodes[i]
		if _, err := stmt.Exec(e.Path, e.ShowPath, e.Lang, e.Filename, e.Size, e.LastMod, e.ETag, now); err != nil {
			return fmt.Errorf("failed to upsert episode %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit episodes: %w", err)
	}
	return nil
}

// GetEpisode retrieves an episode by path, or nil when absent
func (s *Store) GetEpisode(path string) (*Episode, error) {
	e := &Episode{}
	err := s.db.QueryRow(`
		SELECT path, show_path, COALESCE(lang, ''), COALESCE(filename, ''),
		       COALESCE(size, 0), COALESCE(lastmod, ''), COALESCE(etag, ''), updated_at
		FROM episodes WHERE path = ?
	`, path).Scan(&e.Path, &e.ShowPath, &e.Lang, &e.Filename, &e.Size, &e.LastMod, &e.ETag, &e.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return e, nil
}

// CountEpisodes returns the number of stored episodes
func (s *Store) CountEpisodes() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM episodes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count episodes: %w", err)
	}
	return count, nil
}

// ShowEntry pairs a show path with the language of its most recent episode.
type ShowEntry struct {
	ShowPath string
	Lang     string
}

// ListShowEntries returns the distinct show paths recorded in the episodes
// table, each with the language of its most recently updated episode.
func (s *Store) ListShowEntries() ([]ShowEntry, error) {
	rows, err := s.db.Query(`
		SELECT e.show_path, COALESCE(e.lang, '') AS lang
		FROM episodes e
		INNER JOIN (
			SELECT show_path, MAX(updated_at) AS updated_at
			FROM episodes
			GROUP BY show_path
		) latest
		ON e.show_path = latest.show_path AND e.updated_at = latest.updated_at
		GROUP BY e.show_path
		ORDER BY e.show_path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query show entries: %w", err)
	}
	defer rows.Close()

	var entries []ShowEntry
	for rows.Next() {
		var entry ShowEntry
		if err := rows.Scan(&entry.ShowPath, &entry.Lang); err != nil {
			return nil, fmt.Errorf("failed to scan show entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
