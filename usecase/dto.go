package usecase

import (
	"time"

	"github.com/rise-and-shine/thumbnails/pagination"
	"github.com/rise-and-shine/thumbnails/thumbnail"
)

// GenerateRequest asks for a new thumbnail job.
type GenerateRequest struct {
	URL          string            `json:"url"                    validate:"required,url"`
	OriginalPath *string           `json:"originalPath,omitempty" validate:"omitempty,min=1,max=512"`
	Width        *int              `json:"width,omitempty"        validate:"omitempty,min=1,max=4096"`
	Height       *int              `json:"height,omitempty"       validate:"omitempty,min=1,max=4096"`
	Format       *thumbnail.Format `json:"format,omitempty"       validate:"omitempty,oneof=png jpg webp"`
}

// ThumbnailResponse is the plain-data view of a thumbnail. It is also the cached form.
type ThumbnailResponse struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	OriginalPath  *string           `json:"originalPath"`
	ThumbnailPath *string           `json:"thumbnailPath"`
	Width         *int              `json:"width"`
	Height        *int              `json:"height"`
	Format        *thumbnail.Format `json:"format"`
	Status        thumbnail.Status  `json:"status"`
	ErrorMessage  *string           `json:"errorMessage"`
	JobID         *string           `json:"jobId"`
	RetryCount    int               `json:"retryCount"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}

// ListResponse is one page of thumbnails.
type ListResponse = pagination.Response[ThumbnailResponse]

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}

func toResponse(t thumbnail.Thumbnail) ThumbnailResponse {
	return ThumbnailResponse{
		ID:            t.ID,
		URL:           t.URL,
		OriginalPath:  t.OriginalPath,
		ThumbnailPath: t.ThumbnailPath,
		Width:         t.Width,
		Height:        t.Height,
		Format:        t.Format,
		Status:        t.Status,
		ErrorMessage:  t.ErrorMessage,
		JobID:         t.JobID,
		RetryCount:    t.RetryCount,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// StartJobRequest claims a pending or failed job for processing.
type StartJobRequest struct {
	ID    string `json:"id"    validate:"required"`
	JobID string `json:"jobId" validate:"required,max=255"`
}

// CompleteJobRequest records the stored thumbnail of a processed job.
type CompleteJobRequest struct {
	JobID         string `json:"jobId"         validate:"required,max=255"`
	ThumbnailPath string `json:"thumbnailPath" validate:"required,max=512"`
}

// FailJobRequest records why a job failed.
type FailJobRequest struct {
	JobID        string `json:"jobId"        validate:"required,max=255"`
	ErrorMessage string `json:"errorMessage" validate:"required"`
}

// PurgeResponse lists what an administrative purge removed.
type PurgeResponse struct {
	ID           string   `json:"id"`
	RemovedFiles []string `json:"removedFiles"`
}
