package state

import (
	"context"
	"strconv"
	"time"
)

// DefaultTTL is how long state and data survive without writes.
const DefaultTTL = 24 * time.Hour

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = ""

// String renders StateIdle as "default" for logs.
func (s State) String() string {
	if s == StateIdle {
		return "default"
	}
	return string(s)
}

// Data is the free-form session data bag.
type Data map[string]string

// String returns the value stored under key or "".
func (d Data) String(key string) string {
	return d[key]
}

// Bool reports whether key holds a true value.
func (d Data) Bool(key string) bool {
	v, err := strconv.ParseBool(d[key])
	return err == nil && v
}

// Int64 parses the value stored under key.
func (d Data) Int64(key string) (int64, bool) {
	v, err := strconv.ParseInt(d[key], 10, 64)
	return v, err == nil
}

// Store is the session state store contract. A missing or expired session reads
// as StateIdle with an empty data bag.
type Store interface {
	GetState(ctx context.Context, chatID int64) (State, error)
	SetState(ctx context.Context, chatID int64, st State) error
	GetData(ctx context.Context, chatID int64) (Data, error)
	// UpdateData merges patch into the stored bag.
	UpdateData(ctx context.Context, chatID int64, patch Data) error
	// Clear forgets both state and data.
	Clear(ctx context.Context, chatID int64) error
}
