// Package pgrepo implements thumbnail.Repository on PostgreSQL with bun.
package pgrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/thumbnail"
)

const activeRows = "?TableAlias.deleted_at IS NULL"

type whereQuery[Q any] interface {
	Where(query string, args ...any) Q
}

// active restricts q to rows that are not soft-deleted.
func active[Q whereQuery[Q]](q Q) Q {
	return q.Where(activeRows)
}

type execQuery interface {
	fmt.Stringer
	Exec(ctx context.Context, dest ...any) (sql.Result, error)
}

// Repo is the PostgreSQL thumbnail repository.
type Repo struct {
	idb bun.IDB
	log logger.Logger
}

var _ thumbnail.Repository = (*Repo)(nil)

// New returns a repository running its queries on idb.
func New(idb bun.IDB, log logger.Logger) *Repo {
	return &Repo{idb: idb, log: log.Named("thumbnail_repo")}
}

func (r *Repo) WithTx(tx bun.IDB) thumbnail.Repository {
	return &Repo{idb: tx, log: r.log}
}

func (r *Repo) Create(ctx context.Context, in thumbnail.NewThumbnail) result.Result[*thumbnail.Thumbnail] {
	row := in.Row()
	q := r.idb.NewInsert().Model(row).Returning("*")

	return result.FlatMap(
		r.exec(ctx, q, "Failed to create thumbnail"),
		func(n int64) result.Result[*thumbnail.Thumbnail] {
			if n == 0 {
				return result.Err[*thumbnail.Thumbnail](
					r.logged(apperr.Database("Failed to create thumbnail", nil, errx.D{"url": in.URL})),
				)
			}
			return result.Ok(row)
		},
	)
}

func (r *Repo) FindByID(ctx context.Context, id string) result.Result[*thumbnail.Thumbnail] {
	return r.findOne(ctx, "Failed to find thumbnail by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return active(q).Where("?TableAlias.id = ?", id)
	})
}

func (r *Repo) FindByIDWithDeleted(ctx context.Context, id string) result.Result[*thumbnail.Thumbnail] {
	return r.findOne(ctx, "Failed to find thumbnail by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	})
}

func (r *Repo) FindByJobID(ctx context.Context, jobID string) result.Result[*thumbnail.Thumbnail] {
	return r.findOne(ctx, "Failed to find thumbnail by job id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return active(q).Where("?TableAlias.job_id = ?", jobID)
	})
}

func (r *Repo) FindAll(ctx context.Context, page, pageSize int) result.Result[[]thumbnail.Thumbnail] {
	return r.findMany(ctx, "Failed to find thumbnails", func(q *bun.SelectQuery) *bun.SelectQuery {
		return active(q).
			OrderExpr("?TableAlias.created_at DESC").
			Limit(pageSize).
			Offset((page - 1) * pageSize)
	})
}

func (r *Repo) Count(ctx context.Context) result.Result[int64] {
	q := active(r.idb.NewSelect().Model((*thumbnail.Thumbnail)(nil)))

	return result.Do(ctx, func(ctx context.Context) (int64, error) {
		n, err := q.Count(ctx)
		return int64(n), err
	}, r.dbErr("Failed to count thumbnails", q))
}

func (r *Repo) FindByStatus(ctx context.Context, status thumbnail.Status) result.Result[[]thumbnail.Thumbnail] {
	return r.findMany(ctx, "Failed to find thumbnails by status", func(q *bun.SelectQuery) *bun.SelectQuery {
		return active(q).
			Where("?TableAlias.status = ?", status).
			OrderExpr("?TableAlias.created_at DESC")
	})
}

func (r *Repo) UpdateStatus(
	ctx context.Context,
	id string,
	status thumbnail.Status,
	upd thumbnail.StatusUpdate,
) result.Result[*thumbnail.Thumbnail] {
	row := new(thumbnail.Thumbnail)
	q := r.idb.NewUpdate().
		Model(row).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("?TableAlias.id = ?", id).
		Returning("*")

	if upd.ThumbnailPath != nil {
		q = q.Set("thumbnail_path = ?", *upd.ThumbnailPath)
	}
	if upd.RetryCount != nil {
		q = q.Set("retry_count = ?", *upd.RetryCount)
	}
	if upd.JobID != nil {
		q = q.Set("job_id = ?", *upd.JobID)
	}
	switch {
	case status != thumbnail.StatusFailed:
		q = q.Set("error_message = NULL")
	case upd.ErrorMessage != nil:
		q = q.Set("error_message = ?", *upd.ErrorMessage)
	}

	return result.FlatMap(
		r.exec(ctx, q, "Failed to update thumbnail status"),
		func(n int64) result.Result[*thumbnail.Thumbnail] {
			if n == 0 {
				return result.Err[*thumbnail.Thumbnail](r.logged(apperr.Database(
					"Failed to update thumbnail status",
					nil,
					errx.D{"id": id, "status": string(status)},
				)))
			}
			return result.Ok(row)
		},
	)
}

func (r *Repo) Delete(ctx context.Context, id string) result.Result[struct{}] {
	q := r.idb.NewDelete().
		Model((*thumbnail.Thumbnail)(nil)).
		Where("?TableAlias.id = ?", id)

	return result.Map(r.exec(ctx, q, "Failed to delete thumbnail"), func(int64) struct{} {
		return struct{}{}
	})
}

func (r *Repo) SoftDelete(ctx context.Context, id string) result.Result[bool] {
	now := time.Now().UTC()
	q := active(
		r.idb.NewUpdate().
			Model((*thumbnail.Thumbnail)(nil)).
			Set("deleted_at = ?", now).
			Set("updated_at = ?", now).
			Where("?TableAlias.id = ?", id),
	)

	return result.Map(r.exec(ctx, q, "Failed to soft delete thumbnail"), func(n int64) bool {
		return n > 0
	})
}

func (r *Repo) findOne(
	ctx context.Context,
	msg string,
	build func(q *bun.SelectQuery) *bun.SelectQuery,
) result.Result[*thumbnail.Thumbnail] {
	var rows []thumbnail.Thumbnail
	q := build(r.idb.NewSelect().Model(&rows)).Limit(1)

	return result.Do(ctx, func(ctx context.Context) (*thumbnail.Thumbnail, error) {
		if err := q.Scan(ctx); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil //nolint:nilnil // absence is not an error
		}
		return &rows[0], nil
	}, r.dbErr(msg, q))
}

func (r *Repo) findMany(
	ctx context.Context,
	msg string,
	build func(q *bun.SelectQuery) *bun.SelectQuery,
) result.Result[[]thumbnail.Thumbnail] {
	rows := make([]thumbnail.Thumbnail, 0)
	q := build(r.idb.NewSelect().Model(&rows))

	return result.Do(ctx, func(ctx context.Context) ([]thumbnail.Thumbnail, error) {
		if err := q.Scan(ctx); err != nil {
			return nil, err
		}
		return rows, nil
	}, r.dbErr(msg, q))
}

// exec runs q and returns the number of affected rows.
// A RETURNING query that matched nothing counts as zero rows.
func (r *Repo) exec(ctx context.Context, q execQuery, msg string) result.Result[int64] {
	return result.Do(ctx, func(ctx context.Context) (int64, error) {
		res, err := q.Exec(ctx)
		if pg.IsNotFound(err) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}, r.dbErr(msg, q))
}

func (r *Repo) dbErr(msg string, q fmt.Stringer) func(error) error {
	return func(err error) error {
		return r.logged(databaseError(msg, err, q))
	}
}

// databaseError builds the DatabaseError for a failed query. A unique
// violation names the thumbnail and the violated constraint.
func databaseError(msg string, err error, q fmt.Stringer) error {
	details := pg.GetPgErrorDetails(err, q)
	if pg.IsConflict(err) {
		details["constraint"] = pg.ConstraintName(err)
		return apperr.Database("Thumbnail already exists", err, details)
	}
	return apperr.Database(msg, err, details)
}

func (r *Repo) logged(err error) error {
	r.log.Errorx(err)
	return err
}
