package valkey

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/veckey/internal/store"
)

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}

	cmd := c.B().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		return &store.Error{Op: store.OpJSONSet, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	args := make([]string, len(paths))
	copy(args, paths)

	cmd := c.B().Arbitrary("JSON.GET").Keys(key).Args(args...).Build()
	raw, err := c.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, &store.Error{Op: store.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, store.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// Del removes keys in a single round trip and returns how many existed.
func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	c, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	cmd := c.B().Del().Key(keys...).Build()
	n, err := c.Do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &store.Error{Op: store.OpDel, Err: err}
	}
	return n, nil
}
