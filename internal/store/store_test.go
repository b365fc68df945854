package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertEpisodesIdempotent(t *testing.T) {
	s := openTestStore(t)

	episode := Episode{
		Path:     "/tv/foreign/ShowA/e01.mkv",
		ShowPath: "/tv/foreign/ShowA",
		Lang:     "us",
		Filename: "e01.mkv",
		Size:     1234,
		LastMod:  "Mon, 02 Jan 2006 15:04:05 GMT",
		ETag:     `"abc"`,
	}

	for i := 0; i < 3; i++ {
		if err := s.UpsertEpisodes([]Episode{episode}); err != nil {
			t.Fatalf("UpsertEpisodes failed on pass %d: %v", i, err)
		}
	}

	count, err := s.CountEpisodes()
	if err != nil {
		t.Fatalf("CountEpisodes failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one row after repeated upserts, got %d", count)
	}

	stored, err := s.GetEpisode(episode.Path)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if stored == nil {
		t.Fatal("episode not found after upsert")
	}
	if stored.Size != 1234 || stored.Lang != "us" || stored.ETag != `"abc"` {
		t.Errorf("stored episode differs: %+v", stored)
	}
}

func TestUpsertEpisodesUpdatesValues(t *testing.T) {
	s := openTestStore(t)

	episode := Episode{Path: "/tv/ShowA/e01.mkv", ShowPath: "/tv/ShowA", Size: 100, ETag: `"v1"`}
	if err := s.UpsertEpisodes([]Episode{episode}); err != nil {
		t.Fatal(err)
	}

	episode.Size = 200
	episode.ETag = `"v2"`
	if err := s.UpsertEpisodes([]Episode{episode}); err != nil {
		t.Fatal(err)
	}

	stored, err := s.GetEpisode(episode.Path)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Size != 200 || stored.ETag != `"v2"` {
		t.Errorf("upsert should keep latest values, got %+v", stored)
	}
}

func TestScanFactsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	fact, err := s.GetScanFact("/tv/ShowA")
	if err != nil {
		t.Fatalf("GetScanFact failed: %v", err)
	}
	if fact != nil {
		t.Fatal("expected nil scan fact for unseen directory")
	}

	put := &ScanFact{Path: "/tv/ShowA", LastScanTS: 1700000000, Fingerprint: "L1"}
	if err := s.PutScanFact(put); err != nil {
		t.Fatalf("PutScanFact failed: %v", err)
	}

	fact, err = s.GetScanFact("/tv/ShowA")
	if err != nil {
		t.Fatal(err)
	}
	if fact == nil || fact.LastScanTS != 1700000000 || fact.Fingerprint != "L1" {
		t.Errorf("scan fact round trip failed: %+v", fact)
	}

	// Upsert replaces in place.
	put.Fingerprint = "L2"
	put.LastScanTS = 1700000100
	if err := s.PutScanFact(put); err != nil {
		t.Fatal(err)
	}
	count, err := s.CountScanFacts()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected one scan fact row, got %d", count)
	}
}

func TestShowMetadataRoundTrip(t *testing.T) {
	s := openTestStore(t)

	m, err := s.GetShowMetadata("/tv/ShowA")
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatal("expected nil metadata for unknown show")
	}

	rating := 8.2
	put := &ShowMetadata{
		ShowPath: "/tv/ShowA",
		Title:    "Show A",
		Lang:     "us",
		Rating:   &rating,
		Overview: "A show about testing.",
		Genres:   []string{"Drama", "Mystery"},
		Source:   "tmdb",
	}
	if err := s.UpsertShowMetadata(put); err != nil {
		t.Fatalf("UpsertShowMetadata failed: %v", err)
	}

	m, err = s.GetShowMetadata("/tv/ShowA")
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("metadata not found after upsert")
	}
	if m.Title != "Show A" || m.Rating == nil || *m.Rating != 8.2 {
		t.Errorf("metadata mismatch: %+v", m)
	}
	if len(m.Genres) != 2 || m.Genres[0] != "Drama" {
		t.Errorf("genres mismatch: %v", m.Genres)
	}
	if m.UpdatedAt == 0 {
		t.Error("updated_at watermark not set")
	}
}

func TestListShowEntries(t *testing.T) {
	s := openTestStore(t)

	episodes := []Episode{
		{Path: "/tv/ShowA/e01.mkv", ShowPath: "/tv/ShowA", Lang: "us"},
		{Path: "/tv/ShowA/e02.mkv", ShowPath: "/tv/ShowA", Lang: "us"},
		{Path: "/tv/ShowB/e01.mkv", ShowPath: "/tv/ShowB", Lang: "jp"},
	}
	if err := s.UpsertEpisodes(episodes); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListShowEntries()
	if err != nil {
		t.Fatalf("ListShowEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 shows, got %d: %+v", len(entries), entries)
	}
	if entries[0].ShowPath != "/tv/ShowA" || entries[0].Lang != "us" {
		t.Errorf("entry 0 mismatch: %+v", entries[0])
	}
	if entries[1].ShowPath != "/tv/ShowB" || entries[1].Lang != "jp" {
		t.Errorf("entry 1 mismatch: %+v", entries[1])
	}
}

func TestOpenIsReentrant(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s1.Close()

	// Reopening an already-migrated database must be a no-op.
	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	if err := s2.CheckIntegrity(); err != nil {
		t.Errorf("integrity check failed: %v", err)
	}
}
