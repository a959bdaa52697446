// Package storage keeps the original uploaded import files on disk, so a
// failed or partially-imported file can be inspected and reprocessed without
// asking the user to upload it again.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored import file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for import-file archival operations
type Storage interface {
	// Save stores an uploaded import file and returns its metadata
	Save(ctx context.Context, ownerID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for a stored file (for reprocessing)
	Open(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a stored file
	Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error

	// List returns all stored files for an owner
	List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error)
}
