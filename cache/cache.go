// Package cache defines the advisory key-value cache used for cache-aside reads.
//
// The cache is never authoritative: a miss or an undecodable value is a
// successful empty read, and callers on the read path degrade any failure to a miss.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/result"
)

// Cache is a string-valued cache. Every failure is a cache error.
type Cache interface {
	// GetRaw returns nil on a miss.
	GetRaw(ctx context.Context, key string) result.Result[*string]
	// SetRaw stores value. A zero ttl means no expiry.
	SetRaw(ctx context.Context, key, value string, ttl time.Duration) result.Result[struct{}]
	Delete(ctx context.Context, key string) result.Result[bool]
	Exists(ctx context.Context, key string) result.Result[bool]
	Expire(ctx context.Context, key string, ttl time.Duration) result.Result[bool]
	Ping(ctx context.Context) result.Result[string]
}

// Get reads key and decodes it as JSON into a T.
//
// A miss, an empty value and a JSON null are Ok(nil). A value that is not
// valid JSON is returned as the raw string when T is a string type and is
// treated as a miss otherwise.
func Get[T any](ctx context.Context, c Cache, key string) result.Result[*T] {
	return result.Map(c.GetRaw(ctx, key), func(raw *string) *T {
		if raw == nil || *raw == "" {
			return nil
		}

		decoded := result.Try(func() (*T, error) {
			var v *T
			return v, json.Unmarshal([]byte(*raw), &v)
		}, func(err error) error { return errx.Wrap(err) })
		if decoded.IsOk() {
			return decoded.Unwrap()
		}

		if s, ok := any(raw).(*T); ok {
			return s
		}
		return nil
	})
}

// Set stores value under key. Strings are stored as is, anything else as JSON.
func Set[T any](ctx context.Context, c Cache, key string, value T, ttl time.Duration) result.Result[struct{}] {
	if s, ok := any(value).(string); ok {
		return c.SetRaw(ctx, key, s, ttl)
	}

	encoded := result.Try(func() ([]byte, error) {
		return json.Marshal(value)
	}, func(err error) error {
		return apperr.Cache("Failed to encode cache value", err, errx.D{"key": key})
	})

	return result.FlatMap(encoded, func(b []byte) result.Result[struct{}] {
		return c.SetRaw(ctx, key, string(b), ttl)
	})
}
