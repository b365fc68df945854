package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clem/episcan/internal/config"
)

// langMatcher is one language tag with its compiled patterns, in rule order.
type langMatcher struct {
	lang     string
	patterns []*regexp.Regexp
}

// Classifier decides whether a file is a target episode: a video extension
// plus a language marker somewhere in the path.
type Classifier struct {
	extensions map[string]bool
	rules      []langMatcher
}

// New compiles the configured extension set and language rules.
// Invalid regex patterns are configuration errors.
func New(videoExts []string, langRules []config.LangRule) (*Classifier, error) {
	extMap := make(map[string]bool, len(videoExts))
	for _, ext := range videoExts {
		extMap[strings.ToLower(ext)] = true
	}

	rules := make([]langMatcher, 0, len(langRules))
	for _, rule := range langRules {
		matcher := langMatcher{lang: rule.Lang}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q for lang %q: %w", pattern, rule.Lang, err)
			}
			matcher.patterns = append(matcher.patterns, re)
		}
		rules = append(rules, matcher)
	}

	return &Classifier{extensions: extMap, rules: rules}, nil
}

// IsVideo reports whether filename has a configured video extension.
func (c *Classifier) IsVideo(filename string) bool {
	lower := strings.ToLower(filename)
	for ext := range c.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DetectLang returns the tag of the first rule whose any pattern matches
// text, or "" when nothing matches.
func (c *Classifier) DetectLang(text string) string {
	for _, rule := range c.rules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				return rule.lang
			}
		}
	}
	return ""
}

// DetectLangPathOrName tries the full path first, then the bare filename.
func (c *Classifier) DetectLangPathOrName(path, filename string) string {
	if lang := c.DetectLang(path); lang != "" {
		return lang
	}
	return c.DetectLang(filename)
}
