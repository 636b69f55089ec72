package usecase

import (
	"context"
	"strings"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache"
	"github.com/rise-and-shine/thumbnails/filestore"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/thumbnail"
)

// Maintenance holds administrative operations.
type Maintenance struct {
	repo  thumbnail.Repository
	txm   pg.TxManager
	cache cache.Cache
	store filestore.FileStore
	log   logger.Logger
}

// NewMaintenance creates the administrative use case.
func NewMaintenance(
	repo thumbnail.Repository,
	txm pg.TxManager,
	c cache.Cache,
	store filestore.FileStore,
	log logger.Logger,
) *Maintenance {
	return &Maintenance{repo: repo, txm: txm, cache: c, store: store, log: log.Named("maintenance")}
}

// Purge permanently removes a thumbnail, deleted or not, together with its stored files.
//
// The row is deleted in a transaction that is rolled back when a file cannot
// be removed. The cached read is evicted after commit.
func (m *Maintenance) Purge(ctx context.Context, id string) result.Result[PurgeResponse] {
	return traced(ctx, "Maintenance.Purge", func(ctx context.Context) result.Result[PurgeResponse] {
		log := m.log.WithContext(ctx).With("id", id)
		log.Warn("Purging thumbnail")

		if strings.TrimSpace(id) == "" {
			return result.Err[PurgeResponse](apperr.Validation(msgInvalidID, errx.D{"id": id}))
		}

		purged := pg.RunInTransaction(ctx, m.txm, func(ctx context.Context, tx bun.IDB) result.Result[PurgeResponse] {
			repo := m.repo.WithTx(tx)

			return result.FlatMap(repo.FindByIDWithDeleted(ctx, id), func(t *thumbnail.Thumbnail) result.Result[PurgeResponse] {
				if t == nil {
					return result.Err[PurgeResponse](apperr.NotFound(resource, id))
				}

				if deleted := repo.Delete(ctx, id); deleted.IsErr() {
					return result.Err[PurgeResponse](deleted.UnwrapErr())
				}

				resp := PurgeResponse{ID: id, RemovedFiles: make([]string, 0, 2)}
				for _, path := range []*string{t.OriginalPath, t.ThumbnailPath} {
					if path == nil || *path == "" {
						continue
					}
					if removed := m.store.Delete(ctx, *path); removed.IsErr() {
						return result.Err[PurgeResponse](removed.UnwrapErr())
					}
					resp.RemovedFiles = append(resp.RemovedFiles, *path)
				}
				return result.Ok(resp)
			})
		})

		if purged.IsOk() {
			if evicted := m.cache.Delete(context.WithoutCancel(ctx), CacheKey(id)); evicted.IsErr() {
				log.Warnx(evicted.UnwrapErr())
			}
		}
		return purged
	})
}
