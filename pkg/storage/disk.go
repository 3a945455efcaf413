// Package storage abstracts the blob store that holds product photos and
// videos. Callers only ever see keys and public URLs; no driver's URL shape
// leaks past the Disk interface.
//
//	disk, _ := storage.Connect(ctx)
//	obj, err := disk.Put(ctx, "products/1700000000000-ab12cd.jpg", r, size, "image/jpeg")
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotExist is returned when a key is not present on the disk.
var ErrNotExist = errors.New("storage: object does not exist")

// ErrInvalidKey is returned for empty keys or keys escaping the disk root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Object describes one stored blob.
type Object struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Disk is implemented by every storage driver.
type Disk interface {
	// Put stores r under key. size is the exact byte length of r.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	URL(key string) string
	// KeyFromURL maps a URL produced by URL back to its key.
	KeyFromURL(url string) (string, bool)
	Name() string
}

// CleanKey normalizes key to a slash separated relative path and rejects
// keys that would escape the root.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimLeft(k, "/")
	if k == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(k, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	k = path.Clean(k)
	if k == "." {
		return "", ErrInvalidKey
	}
	return k, nil
}

func cleanPrefix(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func keyFromBaseURL(baseURL, url string) (string, bool) {
	base := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	k, err := CleanKey(strings.TrimPrefix(url, base))
	if err != nil {
		return "", false
	}
	return k, true
}
