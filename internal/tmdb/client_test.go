package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/tv/foreign/ShowA", "ShowA"},
		{"/tv/foreign/ShowA/", "ShowA"},
		{"/ShowB", "ShowB"},
		{"/tv/日剧/ある番組", "ある番組"},
		{"/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DeriveTitle(tt.path); got != tt.expected {
			t.Errorf("DeriveTitle(%q) = %q, expected %q", tt.path, got, tt.expected)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("empty API key should be an error")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/search/tv":
			if r.URL.Query().Get("query") != "ShowA" {
				fmt.Fprint(w, `{"results":[]}`)
				return
			}
			fmt.Fprint(w, `{"results":[{"id":42,"name":"Show A","overview":"search overview"}]}`)
		case "/tv/42":
			fmt.Fprint(w, `{"name":"Show A","overview":"full overview","vote_average":8.2,`+
				`"genres":[{"name":"Drama"},{"name":"Mystery"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewClient("test-key")
	if err != nil {
		t.Fatal(err)
	}
	client.baseURL = srv.URL

	metadata, err := client.Fetch(context.Background(), "ShowA", "us")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if metadata == nil {
		t.Fatal("expected metadata")
	}
	if metadata.Title != "Show A" || metadata.Overview != "full overview" {
		t.Errorf("metadata mismatch: %+v", metadata)
	}
	if metadata.Rating == nil || *metadata.Rating != 8.2 {
		t.Errorf("rating mismatch: %v", metadata.Rating)
	}
	if len(metadata.Genres) != 2 {
		t.Errorf("genres mismatch: %v", metadata.Genres)
	}
	if metadata.Source != "tmdb" {
		t.Errorf("source = %q", metadata.Source)
	}

	// Unknown title yields nil, not an error.
	metadata, err = client.Fetch(context.Background(), "Unknown", "us")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if metadata != nil {
		t.Errorf("expected nil for unknown show, got %+v", metadata)
	}
}

func TestFetchEmptyTitle(t *testing.T) {
	client, err := NewClient("test-key")
	if err != nil {
		t.Fatal(err)
	}
	metadata, err := client.Fetch(context.Background(), "", "us")
	if err != nil || metadata != nil {
		t.Errorf("empty title should return nil, nil; got %+v, %v", metadata, err)
	}
}
