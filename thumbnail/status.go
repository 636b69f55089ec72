package thumbnail

import (
	"slices"

	"github.com/rise-and-shine/thumbnails/filestore"
)

// Status is the processing state of a thumbnail job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

//nolint:gochecknoglobals // static transition table
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether a job in status s may move to next.
// Completed is terminal. Failed may be retried.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Format is the output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatWebP Format = "webp"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	switch f {
	case FormatPNG, FormatJPG, FormatWebP:
		return true
	}
	return false
}

// ContentType returns the MIME type used when storing a thumbnail of format f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return filestore.ContentTypePNG
	case FormatJPG:
		return filestore.ContentTypeJPEG
	case FormatWebP:
		return filestore.ContentTypeWebP
	}
	return filestore.ContentTypeOctetStream
}
