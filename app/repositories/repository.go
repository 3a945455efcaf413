// Package repositories wraps gorm queries for each model. Repositories take
// the request context and never cache; caching belongs to services.
package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// likeEscaper escapes LIKE wildcards; queries pair it with ESCAPE '!'.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
