// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/pkg/validate"
)

// ErrBodyTooLarge is returned (wrapped) when a body exceeds its limit.
var ErrBodyTooLarge = errors.New("request body too large")

// maxBodyBytes is the JSON body limit (MAX_BODY_BYTES, default 1 MB).
func maxBodyBytes() int64 {
	return config.Int64("MAX_BODY_BYTES", 1<<20)
}

// Decode reads r.Body as JSON into dest without validating it. Use it when
// the caller normalises input before validation.
func Decode(r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w (max %d bytes)", ErrBodyTooLarge, maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("invalid JSON: empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// JSON decodes r.Body as JSON into dest and runs validation.
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	if err = Decode(r, dest); err != nil {
		return nil, err
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

// File reads a single multipart file field. The whole request is capped at
// limit plus a small allowance for the multipart framing, and the file part
// itself must not exceed limit.
func File(r *http.Request, field string, limit int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, limit+64<<10)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("%w (max %d bytes)", ErrBodyTooLarge, limit)
		}
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("missing %q file: %w", field, err)
	}
	if header.Size > limit {
		file.Close()
		return nil, nil, fmt.Errorf("%w (max %d bytes)", ErrBodyTooLarge, limit)
	}
	return file, header, nil
}
