// Package history keeps the most recent rankings of each client session.
package history

import (
	"carfit/internal/rank"
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session has no stored ranking.
var ErrNotFound = errors.New("history: session not found")

// Entry is one stored ranking.
type Entry struct {
	ID      string       `json:"id"`
	At      time.Time    `json:"at"`
	Request rank.Request `json:"request"`
	Result  rank.Result  `json:"result"`
}

// Repository stores a bounded list of entries per session.
type Repository interface {
	// Append adds e as the newest entry of session.
	Append(ctx context.Context, session string, e Entry) error
	// Last returns the newest entry of session or ErrNotFound.
	Last(ctx context.Context, session string) (Entry, error)
	// List returns the entries of session from oldest to newest, or ErrNotFound.
	List(ctx context.Context, session string) ([]Entry, error)
	Close() error
}
