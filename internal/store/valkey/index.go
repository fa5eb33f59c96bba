package valkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/veckey/internal/store"
)

// CreateIndex creates a search index over JSON documents. A reply other than
// OK (with no server error) is reported as store.ErrUnexpectedAck.
func (s *Store) CreateIndex(ctx context.Context, def *store.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	c, err := s.conn(ctx)
	if err != nil {
		return err
	}

	res := c.Do(ctx, c.B().Arbitrary("FT.CREATE").Args(args...).Build())
	if err := res.Error(); err != nil {
		if isValkeyErr(err, "index already exists") {
			return store.ErrIndexExists
		}
		return &store.Error{Op: store.OpCreateIndex, Err: err}
	}

	ack, err := res.ToString()
	if err != nil || ack != "OK" {
		return &store.Error{
			Op:  store.OpCreateIndex,
			Err: fmt.Errorf("%w: %q", store.ErrUnexpectedAck, ack),
		}
	}
	return nil
}

// DropIndex removes a search index by name; stored documents stay behind.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}

	cmd := c.B().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		if isValkeyErr(err, "unknown index name") {
			return store.ErrIndexNotFound
		}
		return &store.Error{Op: store.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means
// absent, anything else is a transport failure.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return false, err
	}

	cmd := c.B().Arbitrary("FT.INFO").Args(name).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		if isValkeyErr(err, "unknown index name") {
			return false, nil
		}
		return false, &store.Error{Op: store.OpIndexInfo, Err: err}
	}
	return true, nil
}

// IndexInfo returns index metadata. FT.INFO replies with an alternating
// name/value array; unknown attributes are skipped.
func (s *Store) IndexInfo(ctx context.Context, name string) (*store.IndexInfo, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	cmd := c.B().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := c.Do(ctx, cmd).ToArray()
	if err != nil {
		if isValkeyErr(err, "unknown index name") {
			return nil, store.ErrIndexNotFound
		}
		return nil, &store.Error{Op: store.OpIndexInfo, Err: err}
	}

	info := &store.IndexInfo{}
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		if key == "num_docs" {
			if v, err := raw[i+1].AsFloat64(); err == nil {
				info.NumDocs = int(v)
			}
		}
	}
	return info, nil
}

// ListIndexes enumerates every index known to the store.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	cmd := c.B().Arbitrary("FT._LIST").Build()
	names, err := c.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &store.Error{Op: store.OpListIndexes, Err: err}
	}
	return names, nil
}

func buildCreateArgs(def *store.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{def.Name, "ON", "JSON"}

	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fieldArgs, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *store.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	switch f.Type {
	case store.IndexFieldTag:
		return []string{f.Name, "TAG"}, nil

	case store.IndexFieldVector:
		if f.VectorDim <= 0 {
			return nil, errors.New("vector DIM must be positive")
		}
		attrs := []string{
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.VectorDim),
			"DISTANCE_METRIC", store.DistanceCosine,
		}
		if f.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.M))
		}
		if f.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruct))
		}
		args := make([]string, 0, 4+len(attrs))
		args = append(args, f.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
		args = append(args, attrs...)
		return args, nil

	default:
		return nil, errors.New("unknown field type")
	}
}
