package store

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound   = errors.New("store: key not found")
	ErrIndexNotFound = errors.New("store: index not found")
	ErrIndexExists   = errors.New("store: index already exists")
	// ErrUnexpectedAck signals a command that completed without a server
	// error but acknowledged with something other than OK.
	ErrUnexpectedAck = errors.New("store: unexpected acknowledgement")
)

// Op constants map to Valkey command names for error context.
const (
	OpConnect     = "CONNECT"
	OpPing        = "PING"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpListIndexes = "FT._LIST"
	OpSearch      = "FT.SEARCH"
	OpJSONSet     = "JSON.SET"
	OpJSONGet     = "JSON.GET"
	OpDel         = "DEL"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error wraps an underlying error with the command name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
