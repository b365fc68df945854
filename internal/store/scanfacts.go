package store

import (
	"database/sql"
	"fmt"
)

// ScanFact records when and under what remote fingerprint a directory was
// last actually walked.
type ScanFact struct {
	Path        string
	LastScanTS  int64
	Fingerprint string
}

// GetScanFact retrieves the scan fact for a directory, or nil when the
// directory has never been walked.
func (s *Store) GetScanFact(path string) (*ScanFact, error) {
	fact := &ScanFact{Path: path}
	err := s.db.QueryRow(`
		SELECT last_scan_ts, COALESCE(last_remote_fingerprint, '')
		FROM shows WHERE path = ?
	`, path).Scan(&fact.LastScanTS, &fact.Fingerprint)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan fact: %w", err)
	}
	return fact, nil
}

// PutScanFact upserts the scan fact for a directory.
func (s *Store) PutScanFact(fact *ScanFact) error {
	_, err := s.db.Exec(`
		INSERT INTO shows (path, last_scan_ts, last_remote_fingerprint)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			last_scan_ts = excluded.last_scan_ts,
			last_remote_fingerprint = excluded.last_remote_fingerprint
	`, fact.Path, fact.LastScanTS, fact.Fingerprint)

	if err != nil {
		return fmt.Errorf("failed to put scan fact: %w", err)
	}
	return nil
}

// CountScanFacts returns the number of directories with a recorded scan
func (s *Store) CountScanFacts() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM shows").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scan facts: %w", err)
	}
	return count, nil
}
