// Package filestore provides an abstraction for the object store holding
// original images and generated thumbnails.
//
// Every failure is an apperr storage error.
package filestore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/result"
)

// FileStore defines the interface for file storage operations.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Upload stores the content of reader under path.
	// The content type is detected from the content.
	Upload(ctx context.Context, path string, reader io.Reader) result.Result[*FileInfo]

	// Download returns the content stored under path.
	// A missing path is a storage error with reason CodeFileNotFound.
	Download(ctx context.Context, path string) result.Result[[]byte]

	// Delete removes the file at path. A missing path is not an error.
	Delete(ctx context.Context, path string) result.Result[struct{}]

	// Exists checks if a file exists at the specified path.
	Exists(ctx context.Context, path string) result.Result[bool]

	// List returns the files whose path starts with prefix.
	List(ctx context.Context, prefix string) result.Result[[]FileInfo]
}

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	Path         string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// NotFound builds the error returned by Download for a missing path.
func NotFound(path string) error {
	return apperr.Storage(
		fmt.Sprintf("File not found: %s", path),
		nil,
		errx.D{"path": path, "reason": CodeFileNotFound},
	)
}

// IsNotFound reports whether err was built by NotFound.
func IsNotFound(err error) bool {
	e := errx.AsErrorX(err)
	if e == nil || !apperr.Is(err, apperr.KindStorage) {
		return false
	}
	return e.Details()["reason"] == CodeFileNotFound
}
