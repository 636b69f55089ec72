package usecase

import (
	"context"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/thumbnail"
	"github.com/rise-and-shine/thumbnails/val"
)

// Jobs drives thumbnails through their processing states on behalf of the worker.
//
// Each transition reads and updates the row inside one transaction. Status
// updates do not evict cached reads.
type Jobs struct {
	repo thumbnail.Repository
	txm  pg.TxManager
	log  logger.Logger
}

// NewJobs creates the worker-facing use case.
func NewJobs(repo thumbnail.Repository, txm pg.TxManager, log logger.Logger) *Jobs {
	return &Jobs{repo: repo, txm: txm, log: log.Named("jobs")}
}

// ListPending returns the jobs waiting for a worker, newest first.
func (j *Jobs) ListPending(ctx context.Context) result.Result[[]ThumbnailResponse] {
	return traced(ctx, "Jobs.ListPending", func(ctx context.Context) result.Result[[]ThumbnailResponse] {
		return result.Map(j.repo.FindByStatus(ctx, thumbnail.StatusPending), func(rows []thumbnail.Thumbnail) []ThumbnailResponse {
			return lo.Map(rows, func(t thumbnail.Thumbnail, _ int) ThumbnailResponse { return toResponse(t) })
		})
	})
}

// StartJob moves a pending or failed thumbnail to processing and attaches the job id.
// Restarting a failed job increments its retry count.
func (j *Jobs) StartJob(ctx context.Context, req StartJobRequest) result.Result[ThumbnailResponse] {
	return traced(ctx, "Jobs.StartJob", func(ctx context.Context) result.Result[ThumbnailResponse] {
		j.log.WithContext(ctx).With("id", req.ID, "job_id", req.JobID).Info("Starting thumbnail job")

		if err := val.ValidateSchema(req); err != nil {
			return result.Err[ThumbnailResponse](err)
		}

		return j.transition(ctx, req.ID,
			func(ctx context.Context, repo thumbnail.Repository) result.Result[*thumbnail.Thumbnail] {
				return repo.FindByID(ctx, req.ID)
			},
			thumbnail.StatusProcessing,
			func(cur *thumbnail.Thumbnail) thumbnail.StatusUpdate {
				upd := thumbnail.StatusUpdate{JobID: lo.ToPtr(req.JobID)}
				if cur.Status == thumbnail.StatusFailed {
					upd.RetryCount = lo.ToPtr(cur.RetryCount + 1)
				}
				return upd
			},
		)
	})
}

// CompleteJob moves the processing thumbnail of jobID to completed.
func (j *Jobs) CompleteJob(ctx context.Context, req CompleteJobRequest) result.Result[ThumbnailResponse] {
	return traced(ctx, "Jobs.CompleteJob", func(ctx context.Context) result.Result[ThumbnailResponse] {
		j.log.WithContext(ctx).With("job_id", req.JobID).Info("Completing thumbnail job")

		if err := val.ValidateSchema(req); err != nil {
			return result.Err[ThumbnailResponse](err)
		}

		return j.transition(ctx, req.JobID, j.byJobID(req.JobID), thumbnail.StatusCompleted,
			func(*thumbnail.Thumbnail) thumbnail.StatusUpdate {
				return thumbnail.StatusUpdate{ThumbnailPath: lo.ToPtr(req.ThumbnailPath)}
			},
		)
	})
}

// FailJob moves the processing thumbnail of jobID to failed with a reason.
func (j *Jobs) FailJob(ctx context.Context, req FailJobRequest) result.Result[ThumbnailResponse] {
	return traced(ctx, "Jobs.FailJob", func(ctx context.Context) result.Result[ThumbnailResponse] {
		j.log.WithContext(ctx).With("job_id", req.JobID).Warn("Failing thumbnail job")

		if err := val.ValidateSchema(req); err != nil {
			return result.Err[ThumbnailResponse](err)
		}

		return j.transition(ctx, req.JobID, j.byJobID(req.JobID), thumbnail.StatusFailed,
			func(*thumbnail.Thumbnail) thumbnail.StatusUpdate {
				return thumbnail.StatusUpdate{ErrorMessage: lo.ToPtr(req.ErrorMessage)}
			},
		)
	})
}

type finder func(ctx context.Context, repo thumbnail.Repository) result.Result[*thumbnail.Thumbnail]

func (j *Jobs) byJobID(jobID string) finder {
	return func(ctx context.Context, repo thumbnail.Repository) result.Result[*thumbnail.Thumbnail] {
		return repo.FindByJobID(ctx, jobID)
	}
}

func (j *Jobs) transition(
	ctx context.Context,
	identifier string,
	find finder,
	to thumbnail.Status,
	update func(cur *thumbnail.Thumbnail) thumbnail.StatusUpdate,
) result.Result[ThumbnailResponse] {
	return pg.RunInTransaction(ctx, j.txm, func(ctx context.Context, tx bun.IDB) result.Result[ThumbnailResponse] {
		repo := j.repo.WithTx(tx)

		return result.FlatMap(find(ctx, repo), func(cur *thumbnail.Thumbnail) result.Result[ThumbnailResponse] {
			if cur == nil {
				return result.Err[ThumbnailResponse](apperr.NotFound(resource, identifier))
			}
			if !cur.Status.CanTransitionTo(to) {
				return result.Err[ThumbnailResponse](apperr.Validation(
					"Illegal thumbnail status transition",
					errx.D{"id": cur.ID, "from": string(cur.Status), "to": string(to)},
				))
			}

			updated := repo.UpdateStatus(ctx, cur.ID, to, update(cur))
			return result.Map(updated, func(t *thumbnail.Thumbnail) ThumbnailResponse { return toResponse(*t) })
		})
	})
}
