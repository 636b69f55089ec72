package pgrepo

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/thumbnail"
)

//nolint:gochecknoglobals // static index list
var indexes = []struct {
	name   string
	column string
}{
	{name: "idx_thumbnails_status", column: "status"},
	{name: "idx_thumbnails_job_id", column: "job_id"},
	{name: "idx_thumbnails_created_at", column: "created_at"},
}

// CreateSchema creates the thumbnails table and its indexes if they do not exist.
func CreateSchema(ctx context.Context, idb bun.IDB) error {
	tq := idb.NewCreateTable().Model((*thumbnail.Thumbnail)(nil)).IfNotExists()
	if _, err := tq.Exec(ctx); err != nil {
		return apperr.Database("Failed to create thumbnails table", err, pg.GetPgErrorDetails(err, nil))
	}

	for _, idx := range indexes {
		iq := idb.NewCreateIndex().
			Model((*thumbnail.Thumbnail)(nil)).
			Index(idx.name).
			Column(idx.column).
			IfNotExists()
		if _, err := iq.Exec(ctx); err != nil {
			details := pg.GetPgErrorDetails(err, nil)
			details["index"] = idx.name
			return apperr.Database("Failed to create thumbnails index", err, details)
		}
	}

	return nil
}
