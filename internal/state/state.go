package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
)

// Entry is the durable record of one previously observed file.
type Entry struct {
	Size     int64  `json:"size"`
	ETag     string `json:"etag"`
	LastMod  string `json:"lastmod"`
	Lang     string `json:"lang"`
	Filename string `json:"filename"`
	ShowPath string `json:"show_path"`
	SeenAt   int64  `json:"ts_seen"`
}

// Tracker answers "seen before?" against a snapshot loaded once per run.
// Entries are only added or refreshed, never deleted.
type Tracker struct {
	path     string
	entries  map[string]Entry
	firstRun bool
	now      func() time.Time
}

// Load reads the snapshot at path. A missing, unreadable or invalid snapshot
// yields an empty tracker with first-run semantics instead of an error.
func Load(path string) (*Tracker, error) {
	t := &Tracker{
		path:    path,
		entries: make(map[string]Entry),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			util.WarnLog("Seen-state %s unreadable (%v), starting from empty state", path, err)
		}
		t.firstRun = true
		return t, nil
	}

	if err := json.Unmarshal(data, &t.entries); err != nil {
		util.WarnLog("Seen-state %s corrupt (%v), starting from empty state", path, err)
		t.entries = make(map[string]Entry)
		t.firstRun = true
		return t, nil
	}

	t.firstRun = len(t.entries) == 0
	return t, nil
}

// FirstRun reports whether the snapshot was empty at load time. During a
// first run no file is reported new, which keeps a pre-existing library from
// being treated as entirely fresh.
func (t *Tracker) FirstRun() bool {
	return t.firstRun
}

// IsNew reports whether path is absent from the loaded snapshot.
func (t *Tracker) IsNew(path string) bool {
	_, seen := t.entries[path]
	return !seen
}

// MarkSeen upserts the snapshot entry for an episode.
func (t *Tracker) MarkSeen(e *store.Episode) {
	t.entries[e.Path] = Entry{
		Size:     e.Size,
		ETag:     e.ETag,
		LastMod:  e.LastMod,
		Lang:     e.Lang,
		Filename: e.Filename,
		ShowPath: e.ShowPath,
		SeenAt:   t.now().Unix(),
	}
}

// Len returns the number of tracked paths.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Save persists the snapshot by writing a temporary file in the same
// directory and renaming it over the target, so a crash mid-write cannot
// corrupt the durable file.
func (t *Tracker) Save() error {
	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode seen-state: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write seen-state: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace seen-state: %w", err)
	}
	return nil
}
