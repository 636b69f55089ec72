package pgrepo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/rise-and-shine/thumbnails/apperr"
)

func TestDatabaseError(t *testing.T) {
	conflict := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		TableName:      "thumbnails",
		ConstraintName: "thumbnails_pkey",
	})

	err := databaseError("Failed to create thumbnail", conflict, nil)
	assert.True(t, apperr.Is(err, apperr.KindDatabase))
	assert.Equal(t, "Thumbnail already exists", err.Error())
	assert.Equal(t, "thumbnails_pkey", errx.AsErrorX(err).Details()["constraint"])

	err = databaseError("Failed to create thumbnail", errors.New("connection reset"), nil)
	assert.Equal(t, "Failed to create thumbnail", err.Error())
	assert.NotContains(t, errx.AsErrorX(err).Details(), "constraint")
}
