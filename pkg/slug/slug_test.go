package slug_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rainbowartistery/atelier/pkg/slug"
)

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"Ankit & Divya — Name Ring":             "ankit-divya-name-ring",
		"Jiya — Personalized Ring Wall Hanging": "jiya-personalized-ring-wall-hanging",
		"Diwali Décor Set":                      "diwali-dcor-set",
		"  Mini   Animal Magnets Set  ":         "mini-animal-magnets-set",
		"--Krishna--Motif--":                    "krishna-motif",
		"Aarav - Custom Name Plate":             "aarav-custom-name-plate",
		"Tabs\tand\nnewlines":                   "tabs-and-newlines",
		"!!!":                                   "",
		"":                                      "",
		"100% Cotton":                           "100-cotton",
		"Name\u00a0Ring":                        "name-ring",
		"Name\u2003Ring":                        "name-ring",
		"Name\vRing":                            "name-ring",
		"Name\ufeffRing":                        "name-ring",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug.Generate(in), "Generate(%q)", in)
	}
}

var shape = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestGenerateProperties(t *testing.T) {
	titles := []string{
		"Ankit & Divya — Name Ring", "— leading dash", "trailing dash —", "a -- b",
		"ÉLAN ⭐ Star", "x", " - - - ", "Rakhi/Janmashtami 2026", "UPPER lower 123",
	}
	for _, title := range titles {
		s := slug.Generate(title)
		assert.Regexp(t, shape, s, title)
		assert.False(t, strings.HasPrefix(s, "-"), title)
		assert.False(t, strings.HasSuffix(s, "-"), title)
		assert.NotContains(t, s, "--", title)
		assert.Equal(t, s, slug.Generate(s), "idempotent for %q", title)
		assert.Equal(t, s, slug.Generate(title), "deterministic for %q", title)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, slug.Valid("jiya-ring-wall-hanging"))
	assert.True(t, slug.Valid("set-2"))
	assert.False(t, slug.Valid(""))
	assert.False(t, slug.Valid("Has Caps"))
	assert.False(t, slug.Valid("under_score"))
}
