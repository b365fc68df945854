package tmdb

import (
	"context"
	"time"

	"github.com/clem/episcan/internal/report"
	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
)

// Fetcher is the catalog lookup the updater depends on.
type Fetcher interface {
	Fetch(ctx context.Context, title, langHint string) (*store.ShowMetadata, error)
}

// Updater refreshes the show_metadata table from an external catalog. It
// talks to the rest of the system only through the store.
type Updater struct {
	store   *store.Store
	fetcher Fetcher
	ttl     time.Duration
	logger  *report.EventLogger
	now     func() time.Time
}

// NewUpdater creates an Updater with the given cache TTL.
func NewUpdater(s *store.Store, fetcher Fetcher, ttl time.Duration, logger *report.EventLogger) *Updater {
	if logger == nil {
		logger = report.NullLogger()
	}
	return &Updater{
		store:   s,
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// UpdateResult summarizes one updater run.
type UpdateResult struct {
	Total   int
	Updated int
	Skipped int
	Failed  int
}

// Run fetches metadata for every show recorded in the episodes table,
// skipping shows whose cached metadata is complete and fresh.
func (u *Updater) Run(ctx context.Context) (*UpdateResult, error) {
	shows, err := u.store.ListShowEntries()
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Total: len(shows)}
	if len(shows) == 0 {
		util.InfoLog("No shows recorded yet; run a scan first")
		return result, nil
	}

	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fetch, err := u.shouldFetch(show.ShowPath)
		if err != nil {
			return result, err
		}
		if !fetch {
			result.Skipped++
			continue
		}

		title := DeriveTitle(show.ShowPath)
		if title == "" {
			util.DebugLog("Cannot derive a title from %s, skipping", show.ShowPath)
			result.Skipped++
			continue
		}

		langHint := show.Lang
		if langHint == "" {
			langHint = "us"
		}

		metadata, err := u.fetcher.Fetch(ctx, title, langHint)
		if err != nil {
			util.WarnLog("Metadata fetch failed for %s: %v", show.ShowPath, err)
			u.logger.LogMetadata(show.ShowPath, title, err)
			result.Failed++
			continue
		}
		if metadata == nil {
			result.Failed++
			continue
		}

		metadata.ShowPath = show.ShowPath
		metadata.Lang = langHint
		if err := u.store.UpsertShowMetadata(metadata); err != nil {
			return result, err
		}
		u.logger.LogMetadata(show.ShowPath, metadata.Title, nil)
		result.Updated++

		util.InfoLog("Updated metadata for %q (%s)", metadata.Title, show.ShowPath)
	}

	util.InfoLog("Metadata run complete: %d total, %d updated, %d skipped, %d failed",
		result.Total, result.Updated, result.Skipped, result.Failed)
	return result, nil
}

// shouldFetch decides whether cached metadata needs a refresh: missing
// entirely, incomplete (no rating, overview or genres), or older than the TTL.
func (u *Updater) shouldFetch(showPath string) (bool, error) {
	cached, err := u.store.GetShowMetadata(showPath)
	if err != nil {
		return false, err
	}
	if cached == nil {
		return true, nil
	}

	if cached.Rating == nil || cached.Overview == "" || len(cached.Genres) == 0 {
		return true, nil
	}

	age := u.now().Unix() - cached.UpdatedAt
	return age >= int64(u.ttl.Seconds()), nil
}
