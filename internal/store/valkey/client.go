// Package valkey implements store.Store over rueidis against a Valkey
// instance with the valkey-search and valkey-json modules loaded.
package valkey

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/veckey/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Connection defaults matching the deployed Valkey profile.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 6379
	DefaultRequestTimeout = 5000 * time.Millisecond
	DefaultDialRetries    = 3
	DefaultDialBackoff    = 1000 * time.Millisecond
)

// Config holds connection parameters for a Valkey store.
type Config struct {
	// URL is scheme://host:port. Host defaults to localhost, port to 6379.
	URL      string
	Username string
	Password string
	DB       int

	// RequestTimeout bounds each request on the wire. Zero means the
	// 5000 ms default.
	RequestTimeout time.Duration
	// DialRetries and DialBackoff shape the bounded exponential redial on
	// connect: DialRetries extra attempts, DialBackoff doubling each time.
	// Zero means 3 retries starting at 1000 ms.
	DialRetries int
	DialBackoff time.Duration
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.DialRetries <= 0 {
		c.DialRetries = DefaultDialRetries
	}
	if c.DialBackoff <= 0 {
		c.DialBackoff = DefaultDialBackoff
	}
}

// Store implements store.Store via rueidis. The underlying client is created
// lazily on first use and cached until Close.
type Store struct {
	cfg  Config
	addr string

	mu        sync.Mutex
	client    rueidis.Client
	connected bool
}

// New parses the connection URL and returns an unconnected store. The first
// operation (or an explicit Connect) dials.
func New(cfg Config) (*Store, error) {
	addr, err := parseAddr(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", cfg.URL, err)
	}
	cfg.applyDefaults()
	return &Store{cfg: cfg, addr: addr}, nil
}

// Connect establishes the connection eagerly.
func (s *Store) Connect(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

// conn returns the cached client, dialing under the mutex on first use so
// concurrent callers share a single handle.
func (s *Store) conn(ctx context.Context) (rueidis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected && s.client != nil {
		return s.client, nil
	}

	client, err := s.dial(ctx)
	if err != nil {
		return nil, &store.Error{Op: store.OpConnect, Err: err}
	}
	s.client = client
	s.connected = true
	return client, nil
}

// dial attempts the connection with bounded exponential backoff.
func (s *Store) dial(ctx context.Context) (rueidis.Client, error) {
	delay := s.cfg.DialBackoff
	var lastErr error

	for attempt := 0; ; attempt++ {
		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress:       []string{s.addr},
			Username:          s.cfg.Username,
			Password:          s.cfg.Password,
			SelectDB:          s.cfg.DB,
			DisableCache:      true,
			AlwaysRESP2:       true, // FT.SEARCH result parsing expects RESP2 array format
			ForceSingleClient: true,
			ConnWriteTimeout:  s.cfg.RequestTimeout,
			Dialer:            net.Dialer{Timeout: s.cfg.RequestTimeout},
		})
		if err == nil {
			return client, nil
		}
		lastErr = err

		if attempt >= s.cfg.DialRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("dial %s after %d retries: %w", s.addr, s.cfg.DialRetries, lastErr)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
		return &store.Error{Op: store.OpPing, Err: err}
	}
	return nil
}

// Close shuts the client down and resets to disconnected. A closed store
// reconnects on the next operation.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Close()
	}
	s.client = nil
	s.connected = false
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// parseAddr extracts host:port from a connection URL, tolerating a bare
// host, host:port, or an empty string.
func parseAddr(raw string) (string, error) {
	host, port := DefaultHost, strconv.Itoa(DefaultPort)
	if raw == "" {
		return net.JoinHostPort(host, port), nil
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		if h := u.Hostname(); h != "" {
			host = h
		}
		if p := u.Port(); p != "" {
			port = p
		}
		return net.JoinHostPort(host, port), nil
	}

	// No scheme; treat raw as host[:port].
	if h, p, err := net.SplitHostPort(raw); err == nil {
		if h != "" {
			host = h
		}
		if p != "" {
			if _, err := strconv.Atoi(p); err != nil {
				return "", fmt.Errorf("invalid port %q", p)
			}
			port = p
		}
	} else {
		host = raw
	}
	return net.JoinHostPort(host, port), nil
}

// isValkeyErr checks if err is a server error containing substr (case-insensitive).
func isValkeyErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
