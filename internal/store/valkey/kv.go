package valkey

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/veckey/internal/store"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	cmd := c.B().Get().Key(key).Build()
	data, err := c.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, &store.Error{Op: store.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}

	cmd := c.B().Set().Key(key).Value(string(value)).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		return &store.Error{Op: store.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}

	cmd := c.B().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		return &store.Error{Op: store.OpSet, Err: err}
	}
	return nil
}
