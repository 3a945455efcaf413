package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk stores blobs on the filesystem under root. The HTTP kernel
// serves root under /storage/ so URLs resolve in development.
type LocalDisk struct {
	root    string
	baseURL string
}

func NewLocalDisk(root, baseURL string) (*LocalDisk, error) {
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir %s: %w", root, err)
	}
	return &LocalDisk{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *LocalDisk) Name() string { return "local" }

// Root is the absolute directory blobs are written to.
func (d *LocalDisk) Root() string { return d.root }

func (d *LocalDisk) abs(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

func (d *LocalDisk) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (Object, error) {
	k, err := CleanKey(key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	full := d.abs(k)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, fmt.Errorf("storage/local: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return Object{}, fmt.Errorf("storage/local: create %s: %w", k, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return Object{}, fmt.Errorf("storage/local: write %s: %w", k, err)
	}

	info, err := os.Stat(full)
	if err != nil {
		return Object{}, fmt.Errorf("storage/local: stat %s: %w", k, err)
	}
	return Object{Key: k, URL: d.URL(k), Size: n, ContentType: contentType, UploadedAt: info.ModTime().UTC()}, nil
}

func (d *LocalDisk) Delete(_ context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(d.abs(k)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("storage/local: delete %s: %w", k, err)
	}
	return nil
}

func (d *LocalDisk) List(ctx context.Context, prefix string) ([]Object, error) {
	pfx := cleanPrefix(prefix)
	dir := d.abs(pfx)

	var out []Object
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		k := filepath.ToSlash(rel)
		out = append(out, Object{
			Key:         k,
			URL:         d.URL(k),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(k)),
			UploadedAt:  info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipDir) {
		return nil, fmt.Errorf("storage/local: list %s: %w", prefix, err)
	}
	return out, nil
}

func (d *LocalDisk) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}

func (d *LocalDisk) KeyFromURL(url string) (string, bool) {
	return keyFromBaseURL(d.baseURL, url)
}
