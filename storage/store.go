// Package storage keeps the uploaded soil hardness archives. Keys are plain
// slash separated paths such as "uploads/<uuid>.zip".
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// Driver identifies a concrete archive backend.
type Driver string

const (
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	DriverS3         Driver = "s3" // S3 / MinIO compatible
)

// Info describes a stored archive.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ArchiveStore is the subset of S3 semantics the import flow needs.
type ArchiveStore interface {
	// Put stores a new archive at key. It fails with ErrExists if the key is taken.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	// Get opens an archive. A missing key yields ErrNotFound.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes an archive. It returns (false, nil) when nothing was stored.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns the archives whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	ErrExists   = errors.New("storage: archive already exists")
	ErrNotFound = errors.New("storage: archive not found")
)

// UploadPrefix is where uploaded archives are kept.
const UploadPrefix = "uploads/"

// NewArchiveKey returns a fresh key under UploadPrefix.
func NewArchiveKey() string {
	return UploadPrefix + uuid.NewString() + ".zip"
}
