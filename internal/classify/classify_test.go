package classify

import (
	"testing"

	"github.com/clem/episcan/internal/config"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(config.DefaultVideoExts, config.DefaultLangRules)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestIsVideo(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		filename string
		expected bool
	}{
		{"e01.mkv", true},
		{"e01.MKV", true}, // case insensitive
		{"movie.mp4", true},
		{"show.ts", true},
		{"notes.txt", false},
		{"poster.jpg", false},
		{"mkv", false},
		{".mkv", true},
	}

	for _, tt := range tests {
		if got := c.IsVideo(tt.filename); got != tt.expected {
			t.Errorf("IsVideo(%q) = %v, expected %v", tt.filename, got, tt.expected)
		}
	}
}

func TestDetectLang(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		text     string
		expected string
	}{
		{"/tv/美剧/ShowA/e01.mkv", "us"},
		{"/tv/日剧/ShowB/e01.mkv", "jp"},
		{"ShowA.S01E02.1080p.mkv", "us"},
		{"ShowB.JPN.e01.mkv", "jp"},
		{"showb.jpn.e01.mkv", "jp"}, // case insensitive
		{"/tv/random/untagged.mkv", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := c.DetectLang(tt.text); got != tt.expected {
			t.Errorf("DetectLang(%q) = %q, expected %q", tt.text, got, tt.expected)
		}
	}
}

func TestDetectLangPathOrName(t *testing.T) {
	c := newTestClassifier(t)

	// Marker in the path, not the filename.
	if got := c.DetectLangPathOrName("/tv/日剧/ShowB/e01.mkv", "e01.mkv"); got != "jp" {
		t.Errorf("expected path match to win, got %q", got)
	}

	// Marker only in the filename.
	if got := c.DetectLangPathOrName("/tv/misc/x.mkv", "ShowA.S01E02.mkv"); got != "us" {
		t.Errorf("expected filename fallback, got %q", got)
	}

	// No marker anywhere.
	if got := c.DetectLangPathOrName("/tv/misc/x.mkv", "x.mkv"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestRuleOrderWins(t *testing.T) {
	rules := []config.LangRule{
		{Lang: "first", Patterns: []string{`token`}},
		{Lang: "second", Patterns: []string{`token`}},
	}
	c, err := New([]string{".mkv"}, rules)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := c.DetectLang("a token b"); got != "first" {
		t.Errorf("expected first rule to win, got %q", got)
	}
}

func TestInvalidPatternIsError(t *testing.T) {
	_, err := New([]string{".mkv"}, []config.LangRule{
		{Lang: "bad", Patterns: []string{`[unclosed`}},
	})
	if err == nil {
		t.Error("invalid regex should be a configuration error")
	}
}
