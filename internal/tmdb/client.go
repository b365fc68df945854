package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
)

const (
	// DefaultBaseURL is the TMDB API base URL
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// minRequestInterval spaces out API requests to stay well inside the
	// TMDB rate limits
	minRequestInterval = 300 * time.Millisecond
)

// Client handles TMDB API requests
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	lastRequest time.Time
}

// NewClient creates a new TMDB API client
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("TMDB API key is required for metadata fetching")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

type searchResult struct {
	Results []struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Overview string `json:"overview"`
	} `json:"results"`
}

type tvDetail struct {
	Name        string   `json:"name"`
	Overview    string   `json:"overview"`
	VoteAverage *float64 `json:"vote_average"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Fetch looks up rating, overview and genres for a show title. It tries the
// language candidates derived from langHint in order and returns nil when no
// candidate yields usable metadata.
func (c *Client) Fetch(ctx context.Context, title, langHint string) (*store.ShowMetadata, error) {
	if title == "" {
		return nil, nil
	}

	for _, langCode := range languageCandidates(langHint) {
		var search searchResult
		err := c.get(ctx, "search/tv", url.Values{
			"query":         {title},
			"language":      {langCode},
			"page":          {"1"},
			"include_adult": {"false"},
		}, &search)
		if err != nil {
			return nil, fmt.Errorf("TMDB search failed: %w", err)
		}
		if len(search.Results) == 0 {
			continue
		}

		best := search.Results[0]
		if best.ID == 0 {
			continue
		}

		var detail tvDetail
		err = c.get(ctx, fmt.Sprintf("tv/%d", best.ID), url.Values{
			"language": {langCode},
		}, &detail)
		if err != nil {
			return nil, fmt.Errorf("TMDB detail failed: %w", err)
		}

		metadata := &store.ShowMetadata{
			Title:    firstNonEmpty(detail.Name, best.Name, title),
			Lang:     langHint,
			Rating:   detail.VoteAverage,
			Overview: firstNonEmpty(detail.Overview, best.Overview),
			Source:   "tmdb",
		}
		for _, g := range detail.Genres {
			if g.Name != "" {
				metadata.Genres = append(metadata.Genres, g.Name)
			}
		}

		if metadata.Overview != "" || metadata.Rating != nil || len(metadata.Genres) > 0 {
			return metadata, nil
		}
	}

	util.DebugLog("TMDB: no metadata found for %q", title)
	return nil, nil
}

// get performs one API request with rate limiting and transient-error retry
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	c.waitForRateLimit()

	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	body, err := util.RetryWithBackoff(nil, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			return nil, fmt.Errorf("service unavailable (status %d)", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
		}
		return io.ReadAll(resp.Body)
	}, "tmdb "+path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) waitForRateLimit() {
	if elapsed := time.Since(c.lastRequest); elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

// languageCandidates returns the ordered TMDB language codes to try for a
// detected language tag.
func languageCandidates(langHint string) []string {
	switch langHint {
	case "jp":
		return []string{"en-US", "ja-JP"}
	default:
		return []string{"en-US"}
	}
}

// DeriveTitle derives a show title from the last segment of its remote path.
func DeriveTitle(showPath string) string {
	trimmed := strings.TrimRight(showPath, "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
