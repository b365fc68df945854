package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ShowMetadata holds enrichment data for a show, fetched from an external
// catalog and cached here with an updated_at watermark.
type ShowMetadata struct {
	ShowPath  string
	Title     string
	Lang      string
	Rating    *float64
	Overview  string
	Genres    []string
	Source    string
	UpdatedAt int64
}

// GetShowMetadata retrieves cached metadata for a show, or nil when absent
func (s *Store) GetShowMetadata(showPath string) (*ShowMetadata, error) {
	m := &ShowMetadata{}
	var rating sql.NullFloat64
	var genresJSON string

	err := s.db.QueryRow(`
		SELECT show_path, COALESCE(title, ''), COALESCE(lang, ''), rating,
		       COALESCE(overview, ''), COALESCE(genres, '[]'), COALESCE(source, ''), updated_at
		FROM show_metadata WHERE show_path = ?
	`, showPath).Scan(&m.ShowPath, &m.Title, &m.Lang, &rating, &m.Overview, &genresJSON, &m.Source, &m.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get show metadata: %w", err)
	}

	if rating.Valid {
		m.Rating = &rating.Float64
	}
	if genresJSON != "" {
		// Unreadable genre lists degrade to empty rather than failing the row.
		var genres []string
		if err := json.Unmarshal([]byte(genresJSON), &genres); err == nil {
			m.Genres = genres
		}
	}
	return m, nil
}

// UpsertShowMetadata inserts or updates metadata keyed by show path
func (s *Store) UpsertShowMetadata(m *ShowMetadata) error {
	genresJSON := "[]"
	if len(m.Genres) > 0 {
		data, err := json.Marshal(m.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres: %w", err)
		}
		genresJSON = string(data)
	}

	var rating interface{}
	if m.Rating != nil {
		rating = *m.Rating
	}

	_, err := s.db.Exec(`
		INSERT INTO show_metadata (show_path, title, lang, rating, overview, genres, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(show_path) DO UPDATE SET
			title = excluded.title,
			lang = excluded.lang,
			rating = excluded.rating,
			overview = excluded.overview,
			genres = excluded.genres,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, m.ShowPath, m.Title, m.Lang, rating, m.Overview, genresJSON, m.Source, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to upsert show metadata: %w", err)
	}
	return nil
}
