package usecase

import (
	"context"

	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/tracing"
)

// traced runs fn inside a span named name and records its failure on the span.
func traced[T any](ctx context.Context, name string, fn func(ctx context.Context) result.Result[T]) result.Result[T] {
	ctx, span := tracing.Start(ctx, name)
	res := fn(ctx)
	_, err := res.Get()
	tracing.End(span, err)
	return res
}
