package upload

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DiskStore stores files on the local filesystem.
type DiskStore struct {
	dir     string
	maxSize int64

	mu    sync.RWMutex
	files map[string]*diskMeta
}

type diskMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDiskStore creates a new DiskStore.
//
// Parameters:
//   - dir: Directory to store files in; created if missing
//   - maxSize: Maximum file size in bytes (0 = no limit)
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, err
	}

	return &DiskStore{
		dir:     abs,
		maxSize: maxSize,
		files:   make(map[string]*diskMeta),
	}, nil
}

// Dir returns the absolute storage directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Put implements Store.
func (s *DiskStore) Put(ctx context.Context, filename, contentType string, r io.Reader) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	path := s.path(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}

	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return nil, ErrTooLarge
	}

	meta := &diskMeta{
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.files[id] = meta
	s.mu.Unlock()

	// The sidecar lets a new DiskStore on the same directory serve the file.
	if err := s.saveMeta(id, meta); err != nil {
		os.Remove(path)
		return nil, err
	}

	return s.file(id, meta), nil
}

// Open implements Store.
func (s *DiskStore) Open(_ context.Context, id string) (*File, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	meta, err := s.meta(id)
	if err != nil {
		return nil, ErrNotFound
	}

	rf, err := os.Open(s.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	f := s.file(id, meta)
	f.Reader = rf
	return f, nil
}

// Revoke implements Store.
func (s *DiskStore) Revoke(_ context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	s.mu.Lock()
	delete(s.files, id)
	s.mu.Unlock()

	err := os.Remove(s.path(id))
	os.Remove(s.metaPath(id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// Cleanup implements Store.
func (s *DiskStore) Cleanup(_ context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, meta := range s.files {
		if meta.CreatedAt.Before(cutoff) {
			delete(s.files, id)
			os.Remove(s.path(id))
			os.Remove(s.metaPath(id))
		}
	}

	// Files left behind by earlier processes.
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}

	return nil
}

func (s *DiskStore) file(id string, meta *diskMeta) *File {
	return &File{
		ID:          id,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Locator:     (&url.URL{Scheme: "file", Path: filepath.ToSlash(s.path(id))}).String(),
		CreatedAt:   meta.CreatedAt,
	}
}

func (s *DiskStore) meta(id string) (*diskMeta, error) {
	s.mu.RLock()
	meta, ok := s.files[id]
	s.mu.RUnlock()
	if ok {
		return meta, nil
	}
	return s.loadMeta(id)
}

func (s *DiskStore) path(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *DiskStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+".meta")
}

func (s *DiskStore) saveMeta(id string, meta *diskMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(id), data, 0644)
}

func (s *DiskStore) loadMeta(id string) (*diskMeta, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, err
	}
	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// validID rejects ids that could escape the storage directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
