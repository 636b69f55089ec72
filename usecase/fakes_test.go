package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache"
	"github.com/rise-and-shine/thumbnails/cache/rediswr"
	"github.com/rise-and-shine/thumbnails/filestore"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/thumbnail"
)

// memRepo is an in-memory thumbnail.Repository with call counters.
type memRepo struct {
	mu    sync.Mutex
	rows  map[string]thumbnail.Thumbnail
	clock time.Time

	findByIDCalls atomic.Int64
	failWith      error
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:  make(map[string]thumbnail.Thumbnail),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memRepo) WithTx(bun.IDB) thumbnail.Repository { return r }

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) snapshot() map[string]thumbnail.Thumbnail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.rows)
}

func (r *memRepo) restore(rows map[string]thumbnail.Thumbnail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
}

func (r *memRepo) failure() error {
	if r.failWith == nil {
		return nil
	}
	return apperr.Database("Failed to query thumbnails", r.failWith, nil)
}

func (r *memRepo) Create(_ context.Context, in thumbnail.NewThumbnail) result.Result[*thumbnail.Thumbnail] {
	if err := r.failure(); err != nil {
		return result.Err[*thumbnail.Thumbnail](err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row := in.Row()
	row.ID = uuid.NewString()
	row.CreatedAt = r.tick()
	row.UpdatedAt = row.CreatedAt
	r.rows[row.ID] = *row

	out := *row
	return result.Ok(&out)
}

func (r *memRepo) find(pred func(thumbnail.Thumbnail) bool) result.Result[*thumbnail.Thumbnail] {
	if err := r.failure(); err != nil {
		return result.Err[*thumbnail.Thumbnail](err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if pred(row) {
			out := row
			return result.Ok(&out)
		}
	}
	return result.Ok[*thumbnail.Thumbnail](nil)
}

func (r *memRepo) FindByID(_ context.Context, id string) result.Result[*thumbnail.Thumbnail] {
	r.findByIDCalls.Add(1)
	return r.find(func(t thumbnail.Thumbnail) bool { return t.ID == id && !t.IsDeleted() })
}

func (r *memRepo) FindByIDWithDeleted(_ context.Context, id string) result.Result[*thumbnail.Thumbnail] {
	return r.find(func(t thumbnail.Thumbnail) bool { return t.ID == id })
}

func (r *memRepo) FindByJobID(_ context.Context, jobID string) result.Result[*thumbnail.Thumbnail] {
	return r.find(func(t thumbnail.Thumbnail) bool {
		return t.JobID != nil && *t.JobID == jobID && !t.IsDeleted()
	})
}

func (r *memRepo) active() []thumbnail.Thumbnail {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]thumbnail.Thumbnail, 0, len(r.rows))
	for _, row := range r.rows {
		if !row.IsDeleted() {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b thumbnail.Thumbnail) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return rows
}

func (r *memRepo) FindAll(_ context.Context, page, pageSize int) result.Result[[]thumbnail.Thumbnail] {
	if err := r.failure(); err != nil {
		return result.Err[[]thumbnail.Thumbnail](err)
	}
	rows := r.active()
	start := min((page-1)*pageSize, len(rows))
	end := min(start+pageSize, len(rows))
	return result.Ok(rows[start:end])
}

func (r *memRepo) Count(context.Context) result.Result[int64] {
	if err := r.failure(); err != nil {
		return result.Err[int64](err)
	}
	return result.Ok(int64(len(r.active())))
}

func (r *memRepo) FindByStatus(_ context.Context, status thumbnail.Status) result.Result[[]thumbnail.Thumbnail] {
	if err := r.failure(); err != nil {
		return result.Err[[]thumbnail.Thumbnail](err)
	}
	rows := slices.DeleteFunc(r.active(), func(t thumbnail.Thumbnail) bool { return t.Status != status })
	return result.Ok(rows)
}

func (r *memRepo) UpdateStatus(
	_ context.Context,
	id string,
	status thumbnail.Status,
	upd thumbnail.StatusUpdate,
) result.Result[*thumbnail.Thumbnail] {
	if err := r.failure(); err != nil {
		return result.Err[*thumbnail.Thumbnail](err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return result.Err[*thumbnail.Thumbnail](apperr.Database("Failed to update thumbnail status", nil, nil))
	}
	row.Status = status
	row.UpdatedAt = r.tick()
	if upd.ThumbnailPath != nil {
		row.ThumbnailPath = upd.ThumbnailPath
	}
	if upd.RetryCount != nil {
		row.RetryCount = *upd.RetryCount
	}
	if upd.JobID != nil {
		row.JobID = upd.JobID
	}
	if status != thumbnail.StatusFailed {
		row.ErrorMessage = nil
	} else if upd.ErrorMessage != nil {
		row.ErrorMessage = upd.ErrorMessage
	}
	r.rows[id] = row

	out := row
	return result.Ok(&out)
}

func (r *memRepo) Delete(_ context.Context, id string) result.Result[struct{}] {
	if err := r.failure(); err != nil {
		return result.Err[struct{}](err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return result.Ok(struct{}{})
}

func (r *memRepo) SoftDelete(_ context.Context, id string) result.Result[bool] {
	if err := r.failure(); err != nil {
		return result.Err[bool](err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok || row.IsDeleted() {
		return result.Ok(false)
	}
	now := r.tick()
	row.DeletedAt = &now
	row.UpdatedAt = now
	r.rows[id] = row
	return result.Ok(true)
}

// memTxManager restores the repository snapshot when fn fails.
type memTxManager struct {
	repo      *memRepo
	commits   int
	rollbacks int
}

func (m *memTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	snap := m.repo.snapshot()
	if err := fn(ctx, nil); err != nil {
		m.repo.restore(snap)
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

// memStore is an in-memory filestore.FileStore.
type memStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	failPaths map[string]bool
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte), failPaths: make(map[string]bool)}
}

func (s *memStore) Upload(_ context.Context, path string, reader io.Reader) result.Result[*filestore.FileInfo] {
	data, err := io.ReadAll(reader)
	if err != nil {
		return result.Err[*filestore.FileInfo](apperr.Storage("Failed to upload file", err, nil))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
	return result.Ok(&filestore.FileInfo{Path: path, Size: int64(len(data))})
}

func (s *memStore) Download(_ context.Context, path string) result.Result[[]byte] {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return result.Err[[]byte](filestore.NotFound(path))
	}
	return result.Ok(bytes.Clone(data))
}

func (s *memStore) Delete(_ context.Context, path string) result.Result[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPaths[path] {
		return result.Err[struct{}](apperr.Storage("Failed to delete file", errors.New("access denied"), nil))
	}
	delete(s.files, path)
	return result.Ok(struct{}{})
}

func (s *memStore) Exists(_ context.Context, path string) result.Result[bool] {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return result.Ok(ok)
}

func (s *memStore) List(_ context.Context, prefix string) result.Result[[]filestore.FileInfo] {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]filestore.FileInfo, 0)
	for path, data := range s.files {
		if strings.HasPrefix(path, prefix) {
			files = append(files, filestore.FileInfo{Path: path, Size: int64(len(data))})
		}
	}
	return result.Ok(files)
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) fail() error {
	return apperr.Cache("Failed to reach cache", errors.New("connection refused"), nil)
}

func (c brokenCache) GetRaw(context.Context, string) result.Result[*string] {
	return result.Err[*string](c.fail())
}

func (c brokenCache) SetRaw(context.Context, string, string, time.Duration) result.Result[struct{}] {
	return result.Err[struct{}](c.fail())
}

func (c brokenCache) Delete(context.Context, string) result.Result[bool] {
	return result.Err[bool](c.fail())
}

func (c brokenCache) Exists(context.Context, string) result.Result[bool] {
	return result.Err[bool](c.fail())
}

func (c brokenCache) Expire(context.Context, string, time.Duration) result.Result[bool] {
	return result.Err[bool](c.fail())
}

func (c brokenCache) Ping(context.Context) result.Result[string] {
	return result.Err[string](c.fail())
}

var _ cache.Cache = brokenCache{}

func newRedisCache(t *testing.T) (*miniredis.Miniredis, cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := rediswr.NewClient(rediswr.Config{Addrs: mr.Addr(), DialTimeout: time.Second})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rediswr.NewCache(rdb, "", logger.Nop())
}
