// Package filestore abstracts blob storage for item images and attachments.
package filestore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a storage key does not resolve to a blob.
var ErrNotFound = errors.New("file not found")

// BlobStore persists uploaded files and serves them back by storage key.
type BlobStore interface {
	// Save writes the blob under the given folder and returns its storage
	// key. The original filename is only used to derive a readable key.
	Save(ctx context.Context, folder, filename, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
