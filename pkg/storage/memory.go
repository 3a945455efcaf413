package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryDisk keeps blobs in a map. Used by tests and by STORAGE_DISK=memory.
type MemoryDisk struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	now     func() time.Time

	// FailWith, when set, is returned by every call. Tests use it to
	// simulate an unavailable provider.
	FailWith error
}

type memoryObject struct {
	Object
	data []byte
}

func NewMemoryDisk(baseURL string) *MemoryDisk {
	return &MemoryDisk{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (d *MemoryDisk) Name() string { return "memory" }

func (d *MemoryDisk) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (Object, error) {
	if d.FailWith != nil {
		return Object{}, d.FailWith
	}
	k, err := CleanKey(key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("storage/memory: read: %w", err)
	}

	obj := Object{Key: k, URL: d.URL(k), Size: int64(len(data)), ContentType: contentType, UploadedAt: d.now().UTC()}
	d.mu.Lock()
	d.objects[k] = memoryObject{Object: obj, data: data}
	d.mu.Unlock()
	return obj, nil
}

func (d *MemoryDisk) Delete(ctx context.Context, key string) error {
	if d.FailWith != nil {
		return d.FailWith
	}
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.objects[k]; !ok {
		return ErrNotExist
	}
	delete(d.objects, k)
	return nil
}

func (d *MemoryDisk) List(ctx context.Context, prefix string) ([]Object, error) {
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	pfx := cleanPrefix(prefix)

	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Object, 0, len(d.objects))
	for k, o := range d.objects {
		if strings.HasPrefix(k, pfx) {
			out = append(out, o.Object)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Content returns the stored bytes for key.
func (d *MemoryDisk) Content(key string) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.objects[key]
	return bytes.Clone(o.data), ok
}

func (d *MemoryDisk) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}

func (d *MemoryDisk) KeyFromURL(url string) (string, bool) {
	return keyFromBaseURL(d.baseURL, url)
}
