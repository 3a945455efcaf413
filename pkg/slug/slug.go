// Package slug derives URL-safe identifiers from product titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-+`)
	valid      = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Generate lowercases title, drops everything outside [a-z0-9\s-], turns
// whitespace runs (any Unicode space, NBSP included) into single hyphens,
// collapses repeated hyphens and trims hyphens from both ends.
// Generate(Generate(t)) == Generate(t).
//
//	Generate("Ankit & Divya — Name Ring") == "ankit-divya-name-ring"
func Generate(title string) string {
	s := strings.Map(asciiSpace, strings.ToLower(title))
	s = disallowed.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// asciiSpace folds Unicode whitespace to ' ', which RE2's \s would miss.
func asciiSpace(r rune) rune {
	if unicode.IsSpace(r) || r == '\ufeff' {
		return ' '
	}
	return r
}

// Valid reports whether s is a non-empty slug made of [a-z0-9-].
func Valid(s string) bool {
	return valid.MatchString(s)
}
