// Package pagination provides 1-based page/pageSize requests and a generic paged response.
package pagination

import (
	"github.com/code19m/errx"

	"github.com/rise-and-shine/thumbnails/apperr"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Request is a 1-based page request.
type Request struct {
	Page     int `json:"page"     query:"page"`
	PageSize int `json:"pageSize" query:"page_size"`
}

// NewRequest builds a request from the given options on top of the defaults.
func NewRequest(opts ...Option) Request {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return Request{Page: o.Page, PageSize: o.PageSize}
}

// Validate rejects a page below 1 and a page size outside [1, max].
// Values are never clamped.
func (r Request) Validate() error {
	if r.Page < 1 {
		return apperr.Validation("Page must be greater than 0", errx.D{"page": r.Page})
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		return apperr.Validation(
			"Page size must be between 1 and 100",
			errx.D{"pageSize": r.PageSize},
		)
	}
	return nil
}

// Offset returns the number of rows to skip.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Limit returns the page size.
func (r Request) Limit() int {
	return r.PageSize
}

// Response is one page of items with the echoed request and totals.
type Response[T any] struct {
	Items     []T   `json:"items"`
	Total     int64 `json:"total"`
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	PageCount int   `json:"pageCount"`
}

// NewResponse creates a paginated response from items and the total count.
func NewResponse[T any](items []T, total int64, req Request) Response[T] {
	pageCount := 0
	if req.PageSize > 0 {
		pageCount = int(total) / req.PageSize
		if int(total)%req.PageSize > 0 {
			pageCount++
		}
	}

	if items == nil {
		items = []T{}
	}

	return Response[T]{
		Items:     items,
		Total:     total,
		Page:      req.Page,
		PageSize:  req.PageSize,
		PageCount: pageCount,
	}
}
