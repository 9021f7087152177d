package exclusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToKeyForm(t *testing.T) {
	assert.Equal(t, "-Users-kyle-Code-proj", ToKeyForm("/Users/kyle/Code/proj"))
}

func TestMatcherExcludesExactAndNestedPaths(t *testing.T) {
	m := NewMatcher([]string{"/home/ubuntu"})

	assert.True(t, m.IsExcluded("/home/ubuntu"))
	assert.True(t, m.IsExcluded("/home/ubuntu/project"))
}

func TestMatcherDoesNotMatchSiblingWithSharedPrefix(t *testing.T) {
	m := NewMatcher([]string{"/home/ubuntu"})

	// "/home/ubuntu2" shares the literal prefix "/home/ubuntu" but the next
	// character is "2", not a "/" boundary, so it must not match.
	assert.False(t, m.IsExcluded("/home/ubuntu2"))
}

func TestMatcherBoundaryCaseFromMidStringNeverMatches(t *testing.T) {
	// the excluded prefix must never match a path where it only appears
	// mid-way through, e.g. "/var/lib/home/ubuntu/other".
	m := NewMatcher([]string{"/home/ubuntu"})

	assert.False(t, m.IsExcluded("/var/lib/home/ubuntu/other"))
}

func TestMatcherDoesNotMatchHyphenatedSiblingDirectory(t *testing.T) {
	// "/home/ubuntu-other" shares the literal prefix "/home/ubuntu" once
	// both are key-form encoded ("-home-ubuntu" followed by "-other"), but
	// in slash form the character after the prefix is "-", not "/", so this
	// must not match. A key-form-only boundary check cannot tell this case
	// apart from a real "/home/ubuntu/other" nested path.
	m := NewMatcher([]string{"/home/ubuntu"})

	assert.False(t, m.IsExcluded("/home/ubuntu-other"))
}

func TestMatcherEmptyExcludedPathsExcludesNothing(t *testing.T) {
	m := NewMatcher(nil)
	assert.False(t, m.IsExcluded("/any/path"))
}
