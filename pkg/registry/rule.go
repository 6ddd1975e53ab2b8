package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/releasehub/pkg/integrations/github"
)

// TagFormat selects how a tag is split into package name and version.
type TagFormat string

const (
	TagLastAt       TagFormat = "last-at"
	TagLastHyphen   TagFormat = "last-hyphen"
	TagRepoName     TagFormat = "repo-name"
	TagAtOrRepoName TagFormat = "at-or-repo-name"
)

// Strategy is the per-repository behavior consulted while fetching and
// merging releases.
type Strategy interface {
	// ExtractMetadata maps a tag to its package name and version.
	ExtractMetadata(tag string) (name, version string)
	// FilterRelease reports whether the release belongs to this entry.
	FilterRelease(r github.Release) bool
	// RewriteChangelog fixes repository-specific changelog quirks.
	RewriteChangelog(text string) string
}

// Filter keeps releases by substring of their tag.
type Filter struct {
	Include string `toml:"include" json:"include,omitempty"`
	Exclude string `toml:"exclude" json:"exclude,omitempty"`
}

// Replacement is a multiline regexp substitution applied to changelog text.
type Replacement struct {
	Pattern string `toml:"pattern" json:"pattern"`
	With    string `toml:"with" json:"with"`
}

// Rule is the declarative form of a Strategy.
type Rule struct {
	TagFormat TagFormat     `toml:"tag_format" json:"tag_format"`
	Filter    Filter        `toml:"filter" json:"filter"`
	Replace   []Replacement `toml:"replace" json:"replace,omitempty"`
}

// Compile validates r and returns its Strategy. repoName backs the
// repo-name tag formats.
func (r Rule) Compile(repoName string) (Strategy, error) {
	switch r.TagFormat {
	case TagLastAt, TagLastHyphen, TagRepoName, TagAtOrRepoName:
	case "":
		return nil, fmt.Errorf("repository %s: missing tag_format", repoName)
	default:
		return nil, fmt.Errorf("repository %s: unknown tag_format %q", repoName, r.TagFormat)
	}

	s := &ruleStrategy{rule: r, repoName: repoName}
	for _, rep := range r.Replace {
		re, err := regexp.Compile("(?m)" + rep.Pattern)
		if err != nil {
			return nil, fmt.Errorf("repository %s: replace pattern %q: %w", repoName, rep.Pattern, err)
		}
		s.replacers = append(s.replacers, compiledReplacement{re: re, with: rep.With})
	}
	return s, nil
}

type compiledReplacement struct {
	re   *regexp.Regexp
	with string
}

type ruleStrategy struct {
	rule      Rule
	repoName  string
	replacers []compiledReplacement
}

func (s *ruleStrategy) ExtractMetadata(tag string) (string, string) {
	switch s.rule.TagFormat {
	case TagLastAt:
		return splitLast(tag, "@")
	case TagLastHyphen:
		return splitLast(tag, "-")
	case TagAtOrRepoName:
		if strings.Contains(tag, "@") {
			return splitLast(tag, "@")
		}
	}
	return s.repoName, strings.TrimPrefix(tag, "v")
}

func (s *ruleStrategy) FilterRelease(r github.Release) bool {
	if s.rule.Filter.Include != "" && !strings.Contains(r.TagName, s.rule.Filter.Include) {
		return false
	}
	if s.rule.Filter.Exclude != "" && strings.Contains(r.TagName, s.rule.Filter.Exclude) {
		return false
	}
	return true
}

func (s *ruleStrategy) RewriteChangelog(text string) string {
	for _, r := range s.replacers {
		text = r.re.ReplaceAllString(text, r.with)
	}
	return text
}

// splitLast splits s at the last sep. Without sep the name is empty and
// the whole string is the version.
func splitLast(s, sep string) (string, string) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+len(sep):]
}
