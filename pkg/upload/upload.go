package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no file exists for an id.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// Store is the interface for attachment storage backends.
type Store interface {
	// Put stores the file and returns its metadata and locator.
	Put(ctx context.Context, filename, contentType string, r io.Reader) (*File, error)

	// Open returns the file with a Reader positioned at the start.
	// The caller must Close it.
	Open(ctx context.Context, id string) (*File, error)

	// Revoke deletes the file. Its locator stops resolving.
	Revoke(ctx context.Context, id string) error

	// Cleanup removes files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File is a stored attachment.
type File struct {
	// ID identifies the file within its store.
	ID string

	// Filename is the name the file was picked with.
	Filename string

	// ContentType is the MIME type.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Locator is a URI that resolves to the file's bytes:
	// blob:, file:// or https:// depending on the backend.
	Locator string

	// CreatedAt is when the file was stored.
	CreatedAt time.Time

	// Reader provides the contents. Only set by Open.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// readLimited reads all of r, failing with ErrTooLarge past maxSize.
// A maxSize of zero means no limit.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	var buf bytes.Buffer
	if maxSize > 0 {
		n, err := io.Copy(&buf, io.LimitReader(r, maxSize+1)) // +1 to detect overflow
		if err != nil {
			return nil, err
		}
		if n > maxSize {
			return nil, ErrTooLarge
		}
		return buf.Bytes(), nil
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
