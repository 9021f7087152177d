// Package exclusion implements prefix path matching used to decide whether
// a project directory should be watched and enriched at all.
//
// Claude Code also encodes a project's working directory as a "key-form"
// string by replacing path separators with dashes, e.g.
// "/Users/kyle/Code/proj" becomes "-Users-kyle-Code-proj" (see the on-disk
// session-transcript layout under ~/.claude/projects/<key-form>).
// ToKeyForm exposes that conversion for callers that need it (resolving a
// session's on-disk directory). Exclusion matching itself is deliberately
// done on the original slash-form path, never on the key-form encoding:
// key-form collapses both "/" and a literal "-" in a directory name to the
// same byte, so a boundary check performed after that conversion cannot
// tell "/home/ubuntu" + "/project" apart from "/home/ubuntu-other" — both
// encode to "-home-ubuntu" followed by "-". Matching on "/" directly has no
// such ambiguity, since a path segment can never itself contain "/".
package exclusion

import "strings"

// ToKeyForm converts a slash-form filesystem path to Claude Code's
// dash-encoded project-directory key form.
func ToKeyForm(path string) string {
	return strings.ReplaceAll(path, "/", "-")
}

// Matcher holds a compiled set of excluded slash-form path prefixes, ready
// for repeated matching.
type Matcher struct {
	prefixes []string
}

// NewMatcher compiles a Matcher from slash-form excluded path prefixes.
func NewMatcher(excludedPaths []string) *Matcher {
	prefixes := make([]string, 0, len(excludedPaths))
	for _, p := range excludedPaths {
		if p == "" {
			continue
		}
		prefixes = append(prefixes, p)
	}
	return &Matcher{prefixes: prefixes}
}

// IsExcluded reports whether projectPath (slash form) falls under any
// configured excluded prefix. The match is boundary-aware: a prefix only
// matches if it consumes projectPath up to a "/" separator or the end of
// the string, never mid-segment.
func (m *Matcher) IsExcluded(projectPath string) bool {
	for _, prefix := range m.prefixes {
		if matchesBoundary(prefix, projectPath) {
			return true
		}
	}
	return false
}

// matchesBoundary reports whether prefix is a boundary-aware prefix of s:
// s must start with prefix, and the character immediately following the
// matched prefix (if any) must be a "/" segment separator.
func matchesBoundary(prefix, s string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	return s[len(prefix)] == '/'
}
