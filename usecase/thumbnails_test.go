package usecase_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pagination"
	"github.com/rise-and-shine/thumbnails/thumbnail"
	"github.com/rise-and-shine/thumbnails/usecase"
)

func newThumbnails(t *testing.T) (*usecase.Thumbnails, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	_, c := newRedisCache(t)
	return usecase.NewThumbnails(repo, c, logger.Nop()), repo
}

func generate(t *testing.T, uc *usecase.Thumbnails) usecase.ThumbnailResponse {
	t.Helper()
	res := uc.GenerateThumbnail(t.Context(), usecase.GenerateRequest{URL: "https://example.com/a.png"})
	require.True(t, res.IsOk(), "%v", res)
	return res.Unwrap()
}

func TestGenerateThumbnail(t *testing.T) {
	uc, _ := newThumbnails(t)

	first := uc.GenerateThumbnail(t.Context(), usecase.GenerateRequest{
		URL:    "https://example.com/a.png",
		Width:  lo.ToPtr(320),
		Height: lo.ToPtr(240),
		Format: lo.ToPtr(thumbnail.FormatWebP),
	}).Unwrap()

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, thumbnail.StatusPending, first.Status)
	assert.Nil(t, first.ThumbnailPath)
	assert.Zero(t, first.RetryCount)
	assert.Equal(t, 320, *first.Width)

	second := generate(t, uc)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGenerateThumbnailValidation(t *testing.T) {
	uc, repo := newThumbnails(t)

	tests := []struct {
		name string
		req  usecase.GenerateRequest
	}{
		{name: "empty url", req: usecase.GenerateRequest{URL: ""}},
		{name: "malformed url", req: usecase.GenerateRequest{URL: "not-a-url"}},
		{name: "width too large", req: usecase.GenerateRequest{URL: "https://x/y.png", Width: lo.ToPtr(5000)}},
		{name: "height zero", req: usecase.GenerateRequest{URL: "https://x/y.png", Height: lo.ToPtr(0)}},
		{name: "unknown format", req: usecase.GenerateRequest{
			URL:    "https://x/y.png",
			Format: lo.ToPtr(thumbnail.Format("gif")),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := uc.GenerateThumbnail(t.Context(), tt.req)
			require.True(t, res.IsErr())
			assert.True(t, apperr.Is(res.UnwrapErr(), apperr.KindValidation))
		})
	}

	assert.Equal(t, int64(0), repo.Count(t.Context()).Unwrap())
}

func TestGenerateThumbnailDoesNotCache(t *testing.T) {
	repo := newMemRepo()
	mr, c := newRedisCache(t)
	uc := usecase.NewThumbnails(repo, c, logger.Nop())

	created := generate(t, uc)
	assert.False(t, mr.Exists(usecase.CacheKey(created.ID)))
}

func TestGenerateThumbnailPropagatesDatabaseError(t *testing.T) {
	uc, repo := newThumbnails(t)
	repo.failWith = errors.New("connection reset")

	res := uc.GenerateThumbnail(t.Context(), usecase.GenerateRequest{URL: "https://example.com/a.png"})
	require.True(t, res.IsErr())
	assert.True(t, apperr.Is(res.UnwrapErr(), apperr.KindDatabase))
}

func TestGetThumbnailByIDCacheRoundTrip(t *testing.T) {
	repo := newMemRepo()
	mr, c := newRedisCache(t)
	uc := usecase.NewThumbnails(repo, c, logger.Nop())
	created := generate(t, uc)

	cold := uc.GetThumbnailByID(t.Context(), created.ID).Unwrap()
	assert.Equal(t, int64(1), repo.findByIDCalls.Load())
	assert.True(t, mr.Exists(usecase.CacheKey(created.ID)))
	assert.Equal(t, usecase.CacheTTL, mr.TTL(usecase.CacheKey(created.ID)))

	warm := uc.GetThumbnailByID(t.Context(), created.ID).Unwrap()
	assert.Equal(t, int64(1), repo.findByIDCalls.Load(), "warm read must not reach the repository")

	coldJSON, err := json.Marshal(cold)
	require.NoError(t, err)
	warmJSON, err := json.Marshal(warm)
	require.NoError(t, err)
	assert.Equal(t, string(coldJSON), string(warmJSON))

	mr.FastForward(usecase.CacheTTL + time.Second)
	uc.GetThumbnailByID(t.Context(), created.ID).Unwrap()
	assert.Equal(t, int64(2), repo.findByIDCalls.Load())
}

func TestGetThumbnailByIDErrors(t *testing.T) {
	uc, repo := newThumbnails(t)

	empty := uc.GetThumbnailByID(t.Context(), "")
	assert.True(t, apperr.Is(empty.UnwrapErr(), apperr.KindValidation))
	assert.Equal(t, "Invalid thumbnail ID", empty.UnwrapErr().Error())

	missing := uc.GetThumbnailByID(t.Context(), "missing-id")
	require.True(t, missing.IsErr())
	assert.True(t, apperr.Is(missing.UnwrapErr(), apperr.KindNotFound))
	assert.Equal(t, 404, apperr.StatusCode(missing.UnwrapErr()))

	repo.failWith = errors.New("connection reset")
	failed := uc.GetThumbnailByID(t.Context(), "some-id")
	assert.True(t, apperr.Is(failed.UnwrapErr(), apperr.KindDatabase))
}

func TestGetThumbnailByIDSurvivesCacheOutage(t *testing.T) {
	repo := newMemRepo()
	writer := usecase.NewThumbnails(repo, brokenCache{}, logger.Nop())
	created := generate(t, writer)

	for range 2 {
		res := writer.GetThumbnailByID(t.Context(), created.ID)
		require.True(t, res.IsOk())
		assert.Equal(t, created.ID, res.Unwrap().ID)
	}
	assert.Equal(t, int64(2), repo.findByIDCalls.Load())
}

func TestGetThumbnailByIDIgnoresUndecodableEntry(t *testing.T) {
	repo := newMemRepo()
	mr, c := newRedisCache(t)
	uc := usecase.NewThumbnails(repo, c, logger.Nop())
	created := generate(t, uc)

	require.NoError(t, mr.Set(usecase.CacheKey(created.ID), "garbage"))

	res := uc.GetThumbnailByID(t.Context(), created.ID)
	require.True(t, res.IsOk())
	assert.Equal(t, created.ID, res.Unwrap().ID)
	assert.Equal(t, int64(1), repo.findByIDCalls.Load())
}

func TestGetThumbnailByIDIgnoresEmptyEntries(t *testing.T) {
	for _, payload := range []string{"null", "{}", ""} {
		t.Run("payload "+payload, func(t *testing.T) {
			repo := newMemRepo()
			mr, c := newRedisCache(t)
			uc := usecase.NewThumbnails(repo, c, logger.Nop())
			created := generate(t, uc)

			require.NoError(t, mr.Set(usecase.CacheKey(created.ID), payload))

			res := uc.GetThumbnailByID(t.Context(), created.ID)
			require.True(t, res.IsOk())
			assert.Equal(t, created.ID, res.Unwrap().ID)
			assert.Equal(t, thumbnail.StatusPending, res.Unwrap().Status)
			assert.Equal(t, int64(1), repo.findByIDCalls.Load())
		})
	}
}

func TestListThumbnails(t *testing.T) {
	uc, _ := newThumbnails(t)
	for range 120 {
		generate(t, uc)
	}

	first := uc.ListThumbnails(t.Context()).Unwrap()
	assert.Len(t, first.Items, 50)
	assert.Equal(t, int64(120), first.Total)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 50, first.PageSize)
	assert.Equal(t, 3, first.PageCount)

	last := uc.ListThumbnails(t.Context(), pagination.WithPage(3)).Unwrap()
	assert.Len(t, last.Items, 20)
	assert.Equal(t, int64(120), last.Total)

	assert.Greater(t, first.Items[0].CreatedAt, first.Items[1].CreatedAt)
}

func TestListThumbnailsValidation(t *testing.T) {
	uc, _ := newThumbnails(t)

	tests := []struct {
		name string
		opts []pagination.Option
	}{
		{name: "page size zero", opts: []pagination.Option{pagination.WithPageSize(0)}},
		{name: "page size over max", opts: []pagination.Option{pagination.WithPageSize(101)}},
		{name: "page zero", opts: []pagination.Option{pagination.WithPage(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := uc.ListThumbnails(t.Context(), tt.opts...)
			require.True(t, res.IsErr())
			assert.True(t, apperr.Is(res.UnwrapErr(), apperr.KindValidation))
		})
	}
}

func TestListThumbnailsFailsAsWhole(t *testing.T) {
	uc, repo := newThumbnails(t)
	generate(t, uc)
	repo.failWith = errors.New("connection reset")

	res := uc.ListThumbnails(t.Context())
	require.True(t, res.IsErr())
	assert.True(t, apperr.Is(res.UnwrapErr(), apperr.KindDatabase))
}

func TestDeleteThumbnail(t *testing.T) {
	uc, repo := newThumbnails(t)
	created := generate(t, uc)
	kept := generate(t, uc)

	res := uc.DeleteThumbnail(t.Context(), created.ID)
	require.True(t, res.IsOk())
	assert.Equal(t, "Thumbnail deleted successfully", res.Unwrap().Message)

	again := uc.DeleteThumbnail(t.Context(), created.ID)
	require.True(t, again.IsErr())
	assert.True(t, apperr.Is(again.UnwrapErr(), apperr.KindNotFound))

	list := uc.ListThumbnails(t.Context()).Unwrap()
	require.Len(t, list.Items, 1)
	assert.Equal(t, kept.ID, list.Items[0].ID)

	row := repo.FindByIDWithDeleted(t.Context(), created.ID).Unwrap()
	require.NotNil(t, row)
	assert.True(t, row.IsDeleted())

	assert.True(t, apperr.Is(uc.DeleteThumbnail(t.Context(), "").UnwrapErr(), apperr.KindValidation))
	assert.True(t, apperr.Is(uc.DeleteThumbnail(t.Context(), "missing").UnwrapErr(), apperr.KindNotFound))
}

func TestDeletedThumbnailStaysCachedUntilTTL(t *testing.T) {
	repo := newMemRepo()
	mr, c := newRedisCache(t)
	uc := usecase.NewThumbnails(repo, c, logger.Nop())
	created := generate(t, uc)

	uc.GetThumbnailByID(t.Context(), created.ID).Unwrap()
	require.True(t, uc.DeleteThumbnail(t.Context(), created.ID).IsOk())

	stale := uc.GetThumbnailByID(t.Context(), created.ID)
	require.True(t, stale.IsOk(), "cached read is served until it expires")
	assert.Equal(t, created.ID, stale.Unwrap().ID)

	mr.FastForward(usecase.CacheTTL + time.Second)
	expired := uc.GetThumbnailByID(t.Context(), created.ID)
	assert.True(t, apperr.Is(expired.UnwrapErr(), apperr.KindNotFound))
}

func TestCachedResponseIsPlainJSON(t *testing.T) {
	repo := newMemRepo()
	_, c := newRedisCache(t)
	uc := usecase.NewThumbnails(repo, c, logger.Nop())
	created := generate(t, uc)
	uc.GetThumbnailByID(t.Context(), created.ID).Unwrap()

	raw := c.GetRaw(t.Context(), usecase.CacheKey(created.ID)).Unwrap()
	require.NotNil(t, raw)
	assert.Contains(t, *raw, fmt.Sprintf(`"id":%q`, created.ID))
	assert.Contains(t, *raw, `"status":"pending"`)

	decoded := cache.Get[usecase.ThumbnailResponse](t.Context(), c, usecase.CacheKey(created.ID)).Unwrap()
	assert.Equal(t, created, *decoded)
}
