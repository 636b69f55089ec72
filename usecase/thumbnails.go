// Package usecase implements the thumbnail job operations on top of the
// repository, cache and object store ports.
//
// Use cases hold no mutable state and are safe for concurrent use.
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pagination"
	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/thumbnail"
	"github.com/rise-and-shine/thumbnails/val"
)

const (
	// CacheTTL bounds how long a cached read may lag behind the store.
	// Soft deletes and status updates do not evict.
	CacheTTL = 300 * time.Second

	cacheKeyPrefix = "thumbnail:"
	resource       = "Thumbnail"

	msgInvalidID = "Invalid thumbnail ID"
	msgDeleted   = "Thumbnail deleted successfully"
)

// CacheKey returns the cache key of the read response for id.
func CacheKey(id string) string {
	return cacheKeyPrefix + id
}

// Thumbnails serves generate, get, list and delete requests.
type Thumbnails struct {
	repo  thumbnail.Repository
	cache cache.Cache
	log   logger.Logger
}

// NewThumbnails creates the use case over already initialized collaborators.
func NewThumbnails(repo thumbnail.Repository, c cache.Cache, log logger.Logger) *Thumbnails {
	return &Thumbnails{repo: repo, cache: c, log: log.Named("thumbnails")}
}

// GenerateThumbnail validates req and stores a new pending job. The cache is not touched.
func (u *Thumbnails) GenerateThumbnail(ctx context.Context, req GenerateRequest) result.Result[ThumbnailResponse] {
	return traced(ctx, "Thumbnails.GenerateThumbnail", func(ctx context.Context) result.Result[ThumbnailResponse] {
		log := u.log.WithContext(ctx)
		log.With("url", req.URL).Info("Creating thumbnail request")

		if err := val.ValidateSchema(req); err != nil {
			return result.Err[ThumbnailResponse](err)
		}

		created := u.repo.Create(ctx, thumbnail.NewThumbnail{
			URL:          req.URL,
			OriginalPath: req.OriginalPath,
			Width:        req.Width,
			Height:       req.Height,
			Format:       req.Format,
		})

		return result.Map(created, func(t *thumbnail.Thumbnail) ThumbnailResponse {
			log.With("thumbnail_id", t.ID, "status", t.Status).
				Info("Thumbnail request created, awaiting worker processing")
			return toResponse(*t)
		})
	})
}

// GetThumbnailByID returns the thumbnail from the cache or, on a miss, from the
// repository, populating the cache for CacheTTL. Cache failures degrade to a miss.
func (u *Thumbnails) GetThumbnailByID(ctx context.Context, id string) result.Result[ThumbnailResponse] {
	return traced(ctx, "Thumbnails.GetThumbnailByID", func(ctx context.Context) result.Result[ThumbnailResponse] {
		log := u.log.WithContext(ctx).With("id", id)
		log.Info("Fetching thumbnail")

		if strings.TrimSpace(id) == "" {
			return result.Err[ThumbnailResponse](apperr.Validation(msgInvalidID, errx.D{"id": id}))
		}

		key := CacheKey(id)

		cached := cache.Get[ThumbnailResponse](ctx, u.cache, key)
		switch {
		case cached.IsErr():
			log.Warnx(cached.UnwrapErr())
		case cached.Unwrap() != nil && cached.Unwrap().ID == id:
			return result.Ok(*cached.Unwrap())
		case cached.Unwrap() != nil:
			log.Warn("Ignoring cached thumbnail with mismatched id")
		}

		return result.FlatMap(u.repo.FindByID(ctx, id), func(t *thumbnail.Thumbnail) result.Result[ThumbnailResponse] {
			if t == nil {
				return result.Err[ThumbnailResponse](apperr.NotFound(resource, id))
			}

			resp := toResponse(*t)
			if set := cache.Set(context.WithoutCancel(ctx), u.cache, key, resp, CacheTTL); set.IsErr() {
				log.Warnx(set.UnwrapErr())
			}
			return result.Ok(resp)
		})
	})
}

// ListThumbnails returns one page of active thumbnails, newest first.
// The page and the total count are fetched concurrently; either failure fails the call.
func (u *Thumbnails) ListThumbnails(ctx context.Context, opts ...pagination.Option) result.Result[ListResponse] {
	return traced(ctx, "Thumbnails.ListThumbnails", func(ctx context.Context) result.Result[ListResponse] {
		req := pagination.NewRequest(opts...)
		u.log.WithContext(ctx).With("page", req.Page, "page_size", req.PageSize).Info("Listing thumbnails")

		if err := req.Validate(); err != nil {
			return result.Err[ListResponse](err)
		}

		var (
			items []thumbnail.Thumbnail
			total int64
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			items, err = u.repo.FindAll(gctx, req.Page, req.PageSize).Get()
			return err
		})
		g.Go(func() error {
			var err error
			total, err = u.repo.Count(gctx).Get()
			return err
		})
		if err := g.Wait(); err != nil {
			return result.Err[ListResponse](err)
		}

		return result.Ok(pagination.NewResponse(
			lo.Map(items, func(t thumbnail.Thumbnail, _ int) ThumbnailResponse { return toResponse(t) }),
			total,
			req,
		))
	})
}

// DeleteThumbnail soft-deletes the thumbnail. A missing or already deleted id
// is a not found error. The cached read is left to expire.
func (u *Thumbnails) DeleteThumbnail(ctx context.Context, id string) result.Result[DeleteResponse] {
	return traced(ctx, "Thumbnails.DeleteThumbnail", func(ctx context.Context) result.Result[DeleteResponse] {
		u.log.WithContext(ctx).With("id", id).Info("Deleting thumbnail")

		if strings.TrimSpace(id) == "" {
			return result.Err[DeleteResponse](apperr.Validation(msgInvalidID, errx.D{"id": id}))
		}

		return result.FlatMap(u.repo.SoftDelete(ctx, id), func(affected bool) result.Result[DeleteResponse] {
			if !affected {
				return result.Err[DeleteResponse](apperr.NotFound(resource, id))
			}
			return result.Ok(DeleteResponse{Message: msgDeleted})
		})
	})
}
