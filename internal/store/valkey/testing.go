package valkey

import "github.com/redis/rueidis"

// NewStoreForTest wires a Store around an injected rueidis client, bypassing
// Connect. Config defaults are applied so timeout-dependent paths behave.
func NewStoreForTest(c rueidis.Client) *Store {
	cfg := Config{}
	cfg.applyDefaults()
	return &Store{cfg: cfg, client: c, connected: true}
}
