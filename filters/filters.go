package filters

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// rule matches a token against one pattern. Patterns containing glob
// metacharacters are compiled with gobwas/glob, patterns starting with a
// dot match as suffixes and anything else matches as a substring.
type rule struct {
	pattern string
	glob    glob.Glob
}

func compileRule(pattern string) (rule, error) {
	r := rule{pattern: pattern}
	if strings.ContainsAny(pattern, "*?[]{}") {
		g, err := glob.Compile(pattern)
		if err != nil {
			return rule{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		r.glob = g
	}
	return r, nil
}

func (r rule) match(token string) bool {
	if r.glob != nil {
		return r.glob.Match(token)
	}
	if strings.HasPrefix(r.pattern, ".") {
		return strings.HasSuffix(token, r.pattern)
	}
	return strings.Contains(token, r.pattern)
}

// Matcher decides which tokens are admitted for interning. A nil Matcher
// admits everything.
type Matcher struct {
	include []rule
	exclude []rule
}

// NewMatcher compiles the include and exclude patterns. It returns nil when
// both lists are empty after trimming.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compileRules(include); err != nil {
		return nil, err
	}
	if m.exclude, err = compileRules(exclude); err != nil {
		return nil, err
	}
	if len(m.include) == 0 && len(m.exclude) == 0 {
		return nil, nil
	}
	return m, nil
}

func compileRules(patterns []string) ([]rule, error) {
	rules := make([]rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		r, err := compileRule(pattern)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Allow reports whether token matches at least one include pattern (or
// there are none) and no exclude pattern.
func (m *Matcher) Allow(token string) bool {
	if m == nil {
		return true
	}
	if len(m.include) > 0 && !matchAny(m.include, token) {
		return false
	}
	return !matchAny(m.exclude, token)
}

func matchAny(rules []rule, token string) bool {
	for _, r := range rules {
		if r.match(token) {
			return true
		}
	}
	return false
}
