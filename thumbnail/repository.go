package thumbnail

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/result"
)

// Repository persists thumbnails.
//
// Every read except FindByIDWithDeleted excludes soft-deleted rows. Absence is
// an Ok nil, never an error. All store failures are database errors.
type Repository interface {
	// WithTx returns a copy bound to tx.
	WithTx(tx bun.IDB) Repository

	Create(ctx context.Context, in NewThumbnail) result.Result[*Thumbnail]
	FindByID(ctx context.Context, id string) result.Result[*Thumbnail]
	FindByIDWithDeleted(ctx context.Context, id string) result.Result[*Thumbnail]
	FindByJobID(ctx context.Context, jobID string) result.Result[*Thumbnail]
	// FindAll returns page (1-based) ordered by creation time, newest first.
	FindAll(ctx context.Context, page, pageSize int) result.Result[[]Thumbnail]
	Count(ctx context.Context) result.Result[int64]
	FindByStatus(ctx context.Context, status Status) result.Result[[]Thumbnail]

	// UpdateStatus fails when id does not resolve to a row.
	UpdateStatus(ctx context.Context, id string, status Status, upd StatusUpdate) result.Result[*Thumbnail]
	// Delete removes the row permanently. A missing id is not an error.
	Delete(ctx context.Context, id string) result.Result[struct{}]
	// SoftDelete reports whether an active row was marked deleted.
	SoftDelete(ctx context.Context, id string) result.Result[bool]
}
