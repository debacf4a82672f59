// Package selector resolves the set of projects to process from include and
// exclude patterns applied to the full project catalog.
package selector

import (
	"fmt"
	"regexp"

	"github.com/glexport/glexport/internal/errors"
	"github.com/glexport/glexport/internal/gitlab"
)

// Selection is the ordered sequence of projects chosen for processing.
// Order is include-pattern order outer, catalog order inner. It is a list,
// not a set: a path matched by two include patterns appears twice unless
// exclusion removes it again, and consumers iterate it as a sequence.
type Selection []gitlab.Project

// Select applies include patterns then exclude patterns to the catalog.
//
// Patterns are regular expressions anchored at the start of the namespaced
// path only: a pattern matches when it matches at position 0, without having
// to consume the whole path. Each exclude pattern is evaluated against the
// full catalog, and every catalog path it matches removes the first
// occurrence of that path from the working list.
//
// An empty catalog is an error (nothing visible to these credentials); an
// empty selection after filtering is not (no work to do).
func Select(catalog []gitlab.Project, includes, excludes []string) (Selection, error) {
	if len(catalog) == 0 {
		return nil, errors.ErrNoProjectsAvailable
	}

	includeRes, err := compileAll(includes)
	if err != nil {
		return nil, err
	}
	excludeRes, err := compileAll(excludes)
	if err != nil {
		return nil, err
	}

	var selected Selection
	for _, re := range includeRes {
		for _, project := range catalog {
			if re.MatchString(project.PathWithNamespace) {
				selected = append(selected, project)
			}
		}
	}

	for _, re := range excludeRes {
		for _, project := range catalog {
			if re.MatchString(project.PathWithNamespace) {
				selected = removeFirst(selected, project.PathWithNamespace)
			}
		}
	}

	return selected, nil
}

// compileAll compiles patterns with start-of-string anchoring. The (?:...)
// grouping keeps alternations inside the pattern from escaping the anchor.
func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid project pattern %q: %w", pattern, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// removeFirst removes the first occurrence of path from the selection,
// leaving later duplicates in place.
func removeFirst(s Selection, path string) Selection {
	for i, project := range s {
		if project.PathWithNamespace == path {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Paths returns the namespaced paths of the selection, in order.
func (s Selection) Paths() []string {
	paths := make([]string, len(s))
	for i, project := range s {
		paths[i] = project.PathWithNamespace
	}
	return paths
}
