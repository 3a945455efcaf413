package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/metrics"
	"github.com/rainbowartistery/atelier/pkg/storage"
)

// DefaultMediaPrefix is used when an upload names no folder.
const DefaultMediaPrefix = "products"

// allowedMedia maps accepted content types to the stored file extension.
var allowedMedia = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"image/gif":       "gif",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
}

// sniffBytes is how much of an upload is read to detect its real type.
const sniffBytes = 3072

// UploadInput is one file to store.
type UploadInput struct {
	Prefix      string
	Filename    string
	ContentType string // as declared by the client
	Size        int64
	Body        io.Reader
}

// MediaService uploads, lists and deletes product media on a storage.Disk.
// Each disk call is bounded by the collaborator timeout.
type MediaService struct {
	disk     storage.Disk
	gate     auth.Gate
	maxBytes int64
	timeout  time.Duration
	now      func() time.Time
}

func NewMediaService(disk storage.Disk, gate auth.Gate, maxBytes int64, timeout time.Duration) *MediaService {
	return &MediaService{disk: disk, gate: gate, maxBytes: maxBytes, timeout: timeout, now: time.Now}
}

// MaxBytes is the per-file upload limit.
func (s *MediaService) MaxBytes() int64 { return s.maxBytes }

// Upload checks the file's sniffed type and size, then stores it under
// <prefix>/<unix-ms>-<rand6>.<ext>.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (storage.Object, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return storage.Object{}, err
	}
	if in.Body == nil || in.Size == 0 {
		return storage.Object{}, invalid("file", "The file field is required.")
	}
	if in.Size > s.maxBytes {
		return storage.Object{}, invalid("file", fmt.Sprintf("The file may not be greater than %s.", humanBytes(s.maxBytes)))
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return storage.Object{}, fmt.Errorf("media: read upload: %w", err)
	}
	head = head[:n]

	contentType, ext, ok := detectMedia(head)
	if !ok {
		return storage.Object{}, invalid("file", "The file must be a JPEG, PNG, WebP or GIF image, or an MP4, WebM or MOV video.")
	}

	key := mediaKey(MediaPrefix(in.Prefix), s.now(), ext)
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), s.maxBytes)

	var obj storage.Object
	err = s.call(ctx, "upload", func(ctx context.Context) error {
		var err error
		obj, err = s.disk.Put(ctx, key, body, in.Size, contentType)
		return err
	})
	if err != nil {
		return storage.Object{}, err
	}

	logger.WithCtx(ctx).Info("media: uploaded", "key", obj.Key, "size", obj.Size, "type", contentType, "original", in.Filename)
	return obj, nil
}

// Delete removes a blob addressed by key or by a URL this disk produced.
func (s *MediaService) Delete(ctx context.Context, keyOrURL string) error {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return err
	}

	key := strings.TrimSpace(keyOrURL)
	if strings.Contains(key, "://") {
		k, ok := s.disk.KeyFromURL(key)
		if !ok {
			return invalid("key", "The URL does not belong to this media library.")
		}
		key = k
	}
	key, err := storage.CleanKey(key)
	if err != nil {
		return invalid("key", "The key field is required.")
	}

	return s.call(ctx, "delete", func(ctx context.Context) error {
		return s.disk.Delete(ctx, key)
	})
}

// List returns blobs under prefix whose file name contains search
// (case-insensitive), newest first.
func (s *MediaService) List(ctx context.Context, prefix, search string) ([]storage.Object, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return nil, err
	}

	var objects []storage.Object
	err := s.call(ctx, "list", func(ctx context.Context) error {
		var err error
		objects, err = s.disk.List(ctx, MediaPrefix(prefix))
		return err
	})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]storage.Object, 0, len(objects))
	for _, o := range objects {
		if needle == "" || strings.Contains(strings.ToLower(path.Base(o.Key)), needle) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].Key > out[j].Key
	})
	return out, nil
}

// call runs fn under the collaborator timeout and classifies its error.
func (s *MediaService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		metrics.RecordMedia(op, "ok")
		return nil
	case errors.Is(err, storage.ErrNotExist):
		metrics.RecordMedia(op, "not_found")
		return ErrNotFound
	case errors.Is(err, storage.ErrInvalidKey):
		metrics.RecordMedia(op, "invalid")
		return invalid("key", "The key is invalid.")
	}

	cerr := &CollaboratorError{Op: "storage/" + s.disk.Name() + ": " + op, Err: err}
	outcome := "error"
	if cerr.Timeout() {
		outcome = "timeout"
	}
	metrics.RecordMedia(op, outcome)
	logger.WithCtx(ctx).Error("media: storage call failed", "op", op, "disk", s.disk.Name(), "timeout", cerr.Timeout(), "error", err)
	return cerr
}

func detectMedia(head []byte) (contentType, ext string, ok bool) {
	m := mimetype.Detect(head)
	for ct, e := range allowedMedia {
		if m.Is(ct) {
			return ct, e, true
		}
	}
	return "", "", false
}

var prefixJunk = regexp.MustCompile(`[^a-z0-9/-]+`)

// MediaPrefix lowercases p and keeps only [a-z0-9/-], defaulting to
// DefaultMediaPrefix.
func MediaPrefix(p string) string {
	p = prefixJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(p)), "-")
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, seg := range parts {
		if seg = strings.Trim(seg, "-"); seg != "" {
			kept = append(kept, seg)
		}
	}
	if len(kept) == 0 {
		return DefaultMediaPrefix
	}
	return strings.Join(kept, "/")
}

const keyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func mediaKey(prefix string, now time.Time, ext string) string {
	return prefix + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomSuffix(6) + "." + ext
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("media: crypto/rand: %v", err))
	}
	for i := range b {
		b[i] = keyAlphabet[int(b[i])%len(keyAlphabet)]
	}
	return string(b)
}

func humanBytes(n int64) string {
	if n%(1<<20) == 0 {
		return strconv.FormatInt(n>>20, 10) + " MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
