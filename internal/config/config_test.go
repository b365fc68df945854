package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"/tv/foreign", "/tv/foreign"},
		{"tv/foreign", "/tv/foreign"},
		{"/tv/foreign/", "/tv/foreign"},
		{"/tv/foreign///", "/tv/foreign"},
		{"  /tv ", "/tv"},
		{"/", "/"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.expected {
			t.Errorf("NormalizePath(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestMatchesSkipPath(t *testing.T) {
	skip := []string{"/tv/samples", "/archive"}

	tests := []struct {
		path     string
		expected bool
	}{
		{"/tv/samples", true},
		{"/tv/samples/", true},
		{"/tv/samples/ShowA", true},
		{"/tv/samples2", false},
		{"/tv", false},
		{"/archive/old/e01.mkv", true},
		{"/tv/foreign/ShowA", false},
	}

	for _, tt := range tests {
		if got := MatchesSkipPath(tt.path, skip); got != tt.expected {
			t.Errorf("MatchesSkipPath(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestLoadSkipPaths(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		paths, err := LoadSkipPaths(filepath.Join(dir, "absent.json"))
		if err != nil {
			t.Fatalf("missing file should not error: %v", err)
		}
		if len(paths) != 0 {
			t.Errorf("expected empty list, got %v", paths)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "skip.json")
		if err := os.WriteFile(path, []byte(`["/tv/samples/", "archive", ""]`), 0644); err != nil {
			t.Fatal(err)
		}
		paths, err := LoadSkipPaths(path)
		if err != nil {
			t.Fatalf("LoadSkipPaths failed: %v", err)
		}
		expected := []string{"/tv/samples", "/archive"}
		if len(paths) != len(expected) {
			t.Fatalf("expected %v, got %v", expected, paths)
		}
		for i := range expected {
			if paths[i] != expected[i] {
				t.Errorf("paths[%d] = %q, expected %q", i, paths[i], expected[i])
			}
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte(`{"not":"a list"}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadSkipPaths(path); err == nil {
			t.Error("malformed skip-paths file should be an error")
		}
	})
}
