// Package thumbnail holds the thumbnail job aggregate and its repository port.
package thumbnail

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/pg"
)

// Thumbnail is a tracked request to derive a resized image from a source URL.
//
// A new record is always pending with no thumbnail path and zero retries.
// DeletedAt is set once and never cleared.
type Thumbnail struct {
	bun.BaseModel `bun:"table:thumbnails,alias:t"`

	ID            string     `bun:"id,pk,type:varchar(36)"`
	URL           string     `bun:"url,notnull,type:text"`
	OriginalPath  *string    `bun:"original_path,type:varchar(512)"`
	ThumbnailPath *string    `bun:"thumbnail_path,type:varchar(512)"`
	Width         *int       `bun:"width,type:integer"`
	Height        *int       `bun:"height,type:integer"`
	Format        *Format    `bun:"format,type:varchar(10)"`
	Status        Status     `bun:"status,notnull,type:varchar(20),default:'pending'"`
	ErrorMessage  *string    `bun:"error_message,type:text"`
	JobID         *string    `bun:"job_id,type:varchar(255)"`
	RetryCount    int        `bun:"retry_count,notnull,default:0"`
	DeletedAt     *time.Time `bun:"deleted_at,type:timestamptz"`

	pg.Timestamps
}

var _ bun.BeforeAppendModelHook = (*Thumbnail)(nil)

// BeforeAppendModel assigns the identity and initial state of a new row.
func (t *Thumbnail) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.Status = StatusPending
		t.ThumbnailPath = nil
		t.ErrorMessage = nil
		t.RetryCount = 0
		t.DeletedAt = nil
	}
	return t.Timestamps.BeforeAppendModel(ctx, query)
}

// IsDeleted reports whether the record is soft-deleted.
func (t *Thumbnail) IsDeleted() bool {
	return t.DeletedAt != nil
}

// NewThumbnail is the input of Repository.Create.
type NewThumbnail struct {
	URL          string
	OriginalPath *string
	Width        *int
	Height       *int
	Format       *Format
}

// Row builds the record to be inserted.
func (n NewThumbnail) Row() *Thumbnail {
	return &Thumbnail{
		URL:          n.URL,
		OriginalPath: n.OriginalPath,
		Width:        n.Width,
		Height:       n.Height,
		Format:       n.Format,
		Status:       StatusPending,
	}
}

// StatusUpdate carries the optional columns written together with a status change.
// Nil fields are left untouched.
type StatusUpdate struct {
	ThumbnailPath *string
	ErrorMessage  *string
	RetryCount    *int
	JobID         *string
}
