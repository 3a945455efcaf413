package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/pkg/auth"
)

var (
	// ErrNotFound means the addressed product, slug or key does not exist.
	ErrNotFound = repositories.ErrNotFound

	// ErrDuplicateSlug means another product already uses the slug.
	ErrDuplicateSlug = errors.New("slug already exists")

	// ErrUnauthorized means no admin session was present. Nothing was
	// attempted.
	ErrUnauthorized = auth.ErrUnauthorized
)

// ValidationError carries one message per failing input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// CollaboratorError wraps a failed or timed-out call to blob storage or
// mail. Callers may retry it.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *CollaboratorError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
