package diff

import (
	"regexp"
	"strings"

	apperr "github.com/prlens/prlens/internal/errors"
)

// Criteria is the filtering configuration. Patterns are regular expressions
// matched anywhere in the path (search semantics, not full-string match).
// Zero bounds mean unset.
type Criteria struct {
	Include    []string `yaml:"include" json:"include"`
	Exclude    []string `yaml:"exclude" json:"exclude"`
	MinChanges int      `yaml:"min_changes" json:"min_changes"`
	MaxChanges int      `yaml:"max_changes" json:"max_changes"`
}

// Filter decides per record whether it is eligible for review. Build one
// with Compile; a zero Filter accepts everything except the default
// exclusions.
type Filter struct {
	include    []*regexp.Regexp
	exclude    []*regexp.Regexp
	minChanges int
	maxChanges int
}

// Compile validates criteria and compiles its patterns. A malformed pattern
// or inverted bounds fail fast with a configuration error; no record is ever
// evaluated against partially compiled criteria.
func Compile(c Criteria) (*Filter, error) {
	if c.MinChanges < 0 || c.MaxChanges < 0 {
		return nil, apperr.Configuration("change bounds must be non-negative")
	}
	if c.MaxChanges > 0 && c.MinChanges > c.MaxChanges {
		return nil, apperr.Newf(apperr.ErrCodeConfiguration,
			"min_changes (%d) exceeds max_changes (%d)", c.MinChanges, c.MaxChanges)
	}

	include, err := compilePatterns(c.Include)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeConfiguration, "invalid include pattern")
	}
	exclude, err := compilePatterns(c.Exclude)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeConfiguration, "invalid exclude pattern")
	}

	return &Filter{
		include:    include,
		exclude:    exclude,
		minChanges: c.MinChanges,
		maxChanges: c.MaxChanges,
	}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply returns the records eligible for review, in input order. The input
// slice is not mutated. Lock files and minified assets are always rejected,
// even when they match an include pattern.
func (f *Filter) Apply(records []Record) []Record {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if f.accepts(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// accepts evaluates the decision chain in fixed order: default exclusions,
// exclude patterns, include patterns, then change bounds (inclusive).
func (f *Filter) accepts(r Record) bool {
	if DefaultExcluded(r.Path) {
		return false
	}
	for _, re := range f.exclude {
		if re.MatchString(r.Path) {
			return false
		}
	}
	if len(f.include) > 0 {
		matched := false
		for _, re := range f.include {
			if re.MatchString(r.Path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	total := r.ChangedLines()
	if f.minChanges > 0 && total < f.minChanges {
		return false
	}
	if f.maxChanges > 0 && total > f.maxChanges {
		return false
	}
	return true
}

// DefaultExcluded reports whether a path is never reviewable: dependency
// lock files and minified assets.
func DefaultExcluded(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	switch {
	case strings.HasSuffix(base, ".lock"):
		return true
	case base == "package-lock.json", base == "yarn.lock":
		return true
	case strings.Contains(path, ".min."):
		return true
	}
	return false
}
