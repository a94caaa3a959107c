package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

// Object is a stored snapshot kept by MemoryUploader.
type Object struct {
	ContentType string
	Body        []byte
}

// MemoryUploader keeps uploads in process. It backs the memory storage driver and tests.
type MemoryUploader struct {
	mu            sync.RWMutex
	objects       map[string]Object
	publicBaseURL string
}

func NewMemoryUploader(publicBaseURL string) *MemoryUploader {
	return &MemoryUploader{objects: make(map[string]Object), publicBaseURL: publicBaseURL}
}

func (u *MemoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload body (key: %s): %w", key, err)
	}
	sum := md5.Sum(body)

	u.mu.Lock()
	u.objects[key] = Object{ContentType: contentType, Body: body}
	u.mu.Unlock()

	return &UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: hex.EncodeToString(sum[:])}, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

func (u *MemoryUploader) GetPublicURL(key string) string {
	return joinPublicURL(u.publicBaseURL, key)
}

// Object returns a stored object.
func (u *MemoryUploader) Object(key string) (Object, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	obj, ok := u.objects[key]
	return obj, ok
}
