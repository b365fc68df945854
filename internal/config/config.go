package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clem/episcan/internal/util"
	"github.com/spf13/viper"
)

// LangRule maps a language tag to the ordered regex patterns that identify it.
// Rule order matters: the first tag whose any pattern matches wins.
type LangRule struct {
	Lang     string   `mapstructure:"lang"`
	Patterns []string `mapstructure:"patterns"`
}

// Config holds everything a scan run needs. It is built once at startup and
// passed into component constructors; nothing reads viper after Load returns.
type Config struct {
	BaseURL     string
	Username    string
	Password    string
	Roots       []string
	SkipPaths   []string
	VideoExts   []string
	LangRules   []LangRule
	OnlyNew     bool
	InsecureTLS bool

	StateFile    string
	DatabaseFile string

	Timeout       time.Duration
	ScanCacheTTL  time.Duration
	MetadataTTL   time.Duration
	TMDBAPIKey    string
	SkipPathsFile string
}

// DefaultVideoExts are the extensions treated as video files when the config
// does not override them.
var DefaultVideoExts = []string{
	".mp4", ".mkv", ".avi", ".mov", ".ts", ".m4v", ".wmv", ".webm",
}

// DefaultLangRules mirror a bilingual Alist library layout: CJK directory
// markers plus the usual release-name tokens.
var DefaultLangRules = []LangRule{
	{Lang: "us", Patterns: []string{
		`美剧`,
		`\bUS\b`,
		`\bUSA\b`,
		`\bEN\b`,
		`\bEng\b`,
		`\bS\d{1,2}E\d{1,2}\b`,
	}},
	{Lang: "jp", Patterns: []string{
		`日剧`,
		`\bJP\b`,
		`\bJPN\b`,
		`日本`,
		`日語|日语|JAP`,
	}},
}

// Load builds a Config from viper (flags, EPISCAN_* environment, optional
// YAML file). Explicitly supplied but invalid values are fatal; they are
// never silently replaced with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:      strings.TrimRight(viper.GetString("base-url"), "/"),
		Username:     viper.GetString("username"),
		Password:     viper.GetString("password"),
		OnlyNew:      viper.GetBool("only-new"),
		InsecureTLS:  viper.GetBool("insecure-tls"),
		StateFile:    viper.GetString("state-file"),
		DatabaseFile: viper.GetString("db"),
		TMDBAPIKey:   viper.GetString("tmdb-api-key"),
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base-url is required", util.ErrInvalidConfig)
	}

	roots := viper.GetStringSlice("roots")
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: at least one root path is required", util.ErrInvalidConfig)
	}
	for _, root := range roots {
		normalized := NormalizePath(root)
		if normalized == "" {
			return nil, fmt.Errorf("%w: empty root path", util.ErrInvalidConfig)
		}
		cfg.Roots = append(cfg.Roots, normalized)
	}

	timeoutSecs := viper.GetInt("timeout")
	if timeoutSecs <= 0 {
		return nil, fmt.Errorf("%w: timeout must be a positive number of seconds", util.ErrInvalidConfig)
	}
	cfg.Timeout = time.Duration(timeoutSecs) * time.Second

	scanCacheHours := viper.GetInt("scan-cache-hours")
	if scanCacheHours < 0 {
		return nil, fmt.Errorf("%w: scan-cache-hours must not be negative", util.ErrInvalidConfig)
	}
	cfg.ScanCacheTTL = time.Duration(scanCacheHours) * time.Hour

	metadataHours := viper.GetInt("metadata-cache-hours")
	if metadataHours < 0 {
		return nil, fmt.Errorf("%w: metadata-cache-hours must not be negative", util.ErrInvalidConfig)
	}
	cfg.MetadataTTL = time.Duration(metadataHours) * time.Hour

	cfg.VideoExts = viper.GetStringSlice("video-exts")
	if len(cfg.VideoExts) == 0 {
		cfg.VideoExts = DefaultVideoExts
	}
	for _, ext := range cfg.VideoExts {
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("%w: video extension %q must start with a dot", util.ErrInvalidConfig, ext)
		}
	}

	if viper.IsSet("langs") {
		if err := viper.UnmarshalKey("langs", &cfg.LangRules); err != nil {
			return nil, fmt.Errorf("%w: langs: %v", util.ErrInvalidConfig, err)
		}
		for _, rule := range cfg.LangRules {
			if rule.Lang == "" || len(rule.Patterns) == 0 {
				return nil, fmt.Errorf("%w: each lang rule needs a tag and at least one pattern", util.ErrInvalidConfig)
			}
		}
	}
	if len(cfg.LangRules) == 0 {
		cfg.LangRules = DefaultLangRules
	}

	cfg.SkipPathsFile = viper.GetString("skip-paths-file")
	if cfg.SkipPathsFile != "" {
		skip, err := LoadSkipPaths(cfg.SkipPathsFile)
		if err != nil {
			return nil, err
		}
		cfg.SkipPaths = skip
	}

	return cfg, nil
}

// LoadSkipPaths reads a JSON string-array file of path prefixes to exclude.
// A missing file yields an empty list; a present but malformed file is fatal.
func LoadSkipPaths(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: cannot read skip-paths file %s: %v", util.ErrInvalidConfig, path, err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: skip-paths file %s must be a JSON string array: %v", util.ErrInvalidConfig, path, err)
	}

	var normalized []string
	for _, item := range raw {
		p := NormalizePath(item)
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}
	return normalized, nil
}

// NormalizePath brings a remote path to the canonical leading-slash,
// no-trailing-slash form all comparisons use.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// MatchesSkipPath reports whether path falls under any configured skip prefix.
// A match is exact equality or the prefix followed by a path separator.
func MatchesSkipPath(path string, skipPaths []string) bool {
	normalized := NormalizePath(path)
	for _, skip := range skipPaths {
		if normalized == skip || strings.HasPrefix(normalized, skip+"/") {
			return true
		}
	}
	return false
}
