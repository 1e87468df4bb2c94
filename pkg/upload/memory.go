package upload

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BlobScheme prefixes MemoryStore locators.
const BlobScheme = "blob:spendsync/"

// MemoryStore keeps files in memory.
type MemoryStore struct {
	maxSize int64

	mu    sync.RWMutex
	files map[string]*memEntry
}

type memEntry struct {
	file File
	data []byte
}

// NewMemoryStore creates a MemoryStore. maxSize of zero means no limit.
func NewMemoryStore(maxSize int64) *MemoryStore {
	return &MemoryStore{
		maxSize: maxSize,
		files:   make(map[string]*memEntry),
	}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, filename, contentType string, r io.Reader) (*File, error) {
	data, err := readLimited(r, s.maxSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	f := File{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Locator:     BlobScheme + id,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.files[id] = &memEntry{file: f, data: data}
	s.mu.Unlock()

	return &f, nil
}

// Open implements Store.
func (s *MemoryStore) Open(_ context.Context, id string) (*File, error) {
	s.mu.RLock()
	e, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	f := e.file
	f.Reader = io.NopCloser(bytes.NewReader(e.data))
	return &f, nil
}

// Resolve opens the file a blob locator points to.
func (s *MemoryStore) Resolve(ctx context.Context, locator string) (*File, error) {
	id, ok := strings.CutPrefix(locator, BlobScheme)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Open(ctx, id)
}

// Revoke implements Store.
func (s *MemoryStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return ErrNotFound
	}
	delete(s.files, id)
	return nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(_ context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.files {
		if e.file.CreatedAt.Before(cutoff) {
			delete(s.files, id)
		}
	}
	return nil
}

// Len returns the number of stored files.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
