package valkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/veckey/internal/store"
)

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *store.KNNQuery) (*store.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $query_vector]", q.K)

	args := []string{q.IndexName, queryStr}
	args = append(args, returnArgs(q.ReturnFields)...)
	args = append(args, "PARAMS", "2", "query_vector", vectorToBytes(q.Vector), "DIALECT", "2")

	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	cmd := c.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := c.Do(ctx, cmd).ToArray()
	if err != nil {
		if isValkeyErr(err, "unknown index name") {
			return nil, store.ErrIndexNotFound
		}
		return nil, &store.Error{Op: store.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// returnArgs renders RETURN for a field list. The count covers every token
// that follows, aliased fields contributing three (identifier, AS, alias).
func returnArgs(fields []store.ReturnField) []string {
	if len(fields) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(fields)*3)
	for _, f := range fields {
		tokens = append(tokens, f.Identifier)
		if f.Alias != "" {
			tokens = append(tokens, "AS", f.Alias)
		}
	}

	args := make([]string, 0, 2+len(tokens))
	args = append(args, "RETURN", strconv.Itoa(len(tokens)))
	return append(args, tokens...)
}

// parseKNNResult decodes the RESP2 reply [total, key1, fields1, key2,
// fields2, ...]. Malformed entries are skipped rather than failing the
// whole result.
func parseKNNResult(raw []rueidis.RedisMessage) (*store.SearchResult, error) {
	if len(raw) == 0 {
		return &store.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &store.SearchResult{}, nil
	}

	entries := make([]store.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, store.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &store.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// vectorToBytes packs float32 components little-endian for the PARAMS blob.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
