package scan

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/clem/episcan/internal/classify"
	"github.com/clem/episcan/internal/config"
	"github.com/clem/episcan/internal/report"
	"github.com/clem/episcan/internal/scancache"
	"github.com/clem/episcan/internal/state"
	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
	"github.com/clem/episcan/internal/webdav"
	"github.com/schollz/progressbar/v3"
)

// Scanner drives the per-show scan loop: skip-path filtering, the scan-cache
// decision, subtree walks, classification, novelty detection and persistence.
type Scanner struct {
	cfg        *config.Config
	client     *webdav.Client
	store      *store.Store
	tracker    *state.Tracker
	cache      *scancache.Cache
	classifier *classify.Classifier
	logger     *report.EventLogger
}

// Deps holds the collaborators a Scanner needs.
type Deps struct {
	Config     *config.Config
	Client     *webdav.Client
	Store      *store.Store
	Tracker    *state.Tracker
	Classifier *classify.Classifier
	Logger     *report.EventLogger
}

// New creates a Scanner from its collaborators.
func New(deps *Deps) *Scanner {
	logger := deps.Logger
	if logger == nil {
		logger = report.NullLogger()
	}
	return &Scanner{
		cfg:        deps.Config,
		client:     deps.Client,
		store:      deps.Store,
		tracker:    deps.Tracker,
		cache:      scancache.New(deps.Store),
		classifier: deps.Classifier,
		logger:     logger,
	}
}

// Result summarizes one scan run.
type Result struct {
	Episodes    []store.Episode // every qualifying file observed this run
	NewEpisodes []store.Episode // the subset not present in the seen-state
	DirsWalked  int
	DirsSkipped int
	FetchErrors int
	TotalBytes  int64
	FirstRun    bool
}

// Run executes the scan across all configured roots. Directories are
// processed one at a time; each directory's episodes are persisted and its
// scan fact updated before the next directory starts, so an interrupted run
// keeps everything already visited.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Episodes:    []store.Episode{},
		NewEpisodes: []store.Episode{},
		FirstRun:    s.tracker.FirstRun(),
	}

	if result.FirstRun {
		util.InfoLog("First run: nothing will be reported as new, the library is recorded as the baseline")
	}

	bar := s.newProgressBar()

	for _, root := range s.cfg.Roots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if config.MatchesSkipPath(root, s.cfg.SkipPaths) {
			util.InfoLog("Root %s is on the skip list, not scanning", root)
			s.logger.LogSkip(root, "skip-path")
			continue
		}

		util.InfoLog("Scanning root: %s", root)
		if err := s.scanRoot(ctx, root, result, bar); err != nil {
			return result, err
		}
	}

	if bar != nil {
		bar.Clear()
	}

	// One final snapshot write covers runs that matched nothing at all.
	if err := s.tracker.Save(); err != nil {
		return result, fmt.Errorf("failed to save seen-state: %w", err)
	}

	return result, nil
}

// scanRoot lists a root's immediate children and processes each one.
func (s *Scanner) scanRoot(ctx context.Context, root string, result *Result, bar *progressbar.ProgressBar) error {
	entries, err := s.client.ListDirectory(ctx, root, 1)
	if err != nil {
		util.WarnLog("Listing root %s failed: %v", root, err)
		s.logger.LogFetchError(root, err)
		result.FetchErrors++
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := config.NormalizePath(entry.Path)
		if entryPath == config.NormalizePath(root) {
			continue
		}
		if config.MatchesSkipPath(entryPath, s.cfg.SkipPaths) {
			s.logger.LogSkip(entryPath, "skip-path")
			continue
		}

		if entry.IsDir {
			if err := s.scanShow(ctx, entryPath, entry.Fingerprint(), result, bar); err != nil {
				return err
			}
			continue
		}

		// A bare file directly under the root: its parent is the show path.
		episodes := s.collectEpisodes([]webdav.Resource{entry}, path.Dir(entryPath))
		if err := s.commit(episodes, result); err != nil {
			return err
		}
	}
	return nil
}

// scanShow applies the scan-cache decision to one show directory and, when a
// walk is due, runs the full pipeline on its subtree.
func (s *Scanner) scanShow(ctx context.Context, showPath, fingerprint string, result *Result, bar *progressbar.ProgressBar) error {
	skip, err := s.cache.ShouldSkip(showPath, fingerprint, s.cfg.ScanCacheTTL)
	if err != nil {
		return fmt.Errorf("scan cache decision for %s: %w", showPath, err)
	}
	if skip {
		util.DebugLog("Skipping %s (scan cache fresh)", showPath)
		s.logger.LogSkip(showPath, "scan cache fresh")
		result.DirsSkipped++
		s.describeProgress(bar, result)
		return nil
	}

	s.logger.LogWalk(showPath, fingerprint)
	walk, err := s.client.Walk(ctx, []string{showPath})
	if err != nil {
		return err
	}
	result.FetchErrors += walk.FetchErrors

	// A directory that contributed nothing because its listing failed was
	// not actually walked, so its scan fact stays untouched.
	if walk.FetchErrors > 0 && len(walk.Resources) == 0 {
		s.logger.LogFetchError(showPath, fmt.Errorf("listing failed, directory skipped this pass"))
		return nil
	}

	episodes := s.collectEpisodes(walk.Resources, showPath)
	if err := s.commit(episodes, result); err != nil {
		return err
	}

	if err := s.cache.MarkScanned(showPath, fingerprint); err != nil {
		return fmt.Errorf("recording scan fact for %s: %w", showPath, err)
	}
	result.DirsWalked++
	s.describeProgress(bar, result)
	if bar != nil {
		bar.Add(1)
	}
	return nil
}

// collectEpisodes classifies walked resources into episodes for one show.
func (s *Scanner) collectEpisodes(resources []webdav.Resource, showPath string) []store.Episode {
	var episodes []store.Episode
	for _, item := range resources {
		if item.IsDir {
			continue
		}
		itemPath := config.NormalizePath(item.Path)
		if config.MatchesSkipPath(itemPath, s.cfg.SkipPaths) {
			continue
		}

		filename := itemPath[strings.LastIndex(itemPath, "/")+1:]
		if !s.classifier.IsVideo(filename) {
			continue
		}
		lang := s.classifier.DetectLangPathOrName(itemPath, filename)
		if lang == "" {
			continue
		}

		episodes = append(episodes, store.Episode{
			Path:     itemPath,
			ShowPath: showPath,
			Lang:     lang,
			Filename: filename,
			Size:     item.Size,
			LastMod:  item.LastMod,
			ETag:     item.ETag,
		})
	}
	return episodes
}

// commit runs novelty detection over a directory's episode batch, persists
// it, and saves the seen-state snapshot so the progress survives a crash.
func (s *Scanner) commit(episodes []store.Episode, result *Result) error {
	if len(episodes) == 0 {
		return nil
	}

	for i := range episodes {
		e := &episodes[i]
		if s.tracker.IsNew(e.Path) && !result.FirstRun {
			e.IsNew = true
			result.NewEpisodes = append(result.NewEpisodes, *e)
		}
		s.logger.LogEpisode(e.Path, e.ShowPath, e.Lang, e.IsNew)
		s.tracker.MarkSeen(e)
		result.Episodes = append(result.Episodes, *e)
		result.TotalBytes += e.Size
	}

	if err := s.store.UpsertEpisodes(episodes); err != nil {
		return fmt.Errorf("persisting episodes: %w", err)
	}
	if err := s.tracker.Save(); err != nil {
		return fmt.Errorf("saving seen-state: %w", err)
	}
	return nil
}

func (s *Scanner) newProgressBar() *progressbar.ProgressBar {
	if !util.IsTerminal(os.Stderr.Fd()) || util.IsQuiet() {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("dirs"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (s *Scanner) describeProgress(bar *progressbar.ProgressBar, result *Result) {
	if bar == nil {
		return
	}
	bar.Describe(fmt.Sprintf("Scanning | %d walked | %d cached | %d matched",
		result.DirsWalked, result.DirsSkipped, len(result.Episodes)))
}
