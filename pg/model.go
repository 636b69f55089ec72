package pg

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Timestamps provides creation and modification timestamps for embedding in models.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Timestamps)(nil)

// BeforeAppendModel stamps both fields on insert and UpdatedAt on update.
// UpdatedAt never moves behind CreatedAt.
func (m *Timestamps) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		m.CreatedAt = now
		m.UpdatedAt = now
	case *bun.UpdateQuery:
		if now.Before(m.CreatedAt) {
			now = m.CreatedAt
		}
		m.UpdatedAt = now
	}
	return nil
}
