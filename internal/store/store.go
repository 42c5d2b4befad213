// Package store persists debate snapshots by room code. Every write refreshes
// the record's expiry, so rooms are reclaimed implicitly once they go quiet.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/argumentor/internal/models"
)

// ErrNotFound is returned by Get when no live record exists for the room code.
var ErrNotFound = errors.New("debate not found")

const (
	DefaultTTL          = 30 * time.Minute
	DefaultEvaluatedTTL = 24 * time.Hour
)

// Store abstracts debate persistence. The in-memory implementation serves tests
// and single-instance runs; the Redis implementation is the production backend.
type Store interface {
	Get(ctx context.Context, roomCode string) (*models.Debate, error)
	Put(ctx context.Context, d models.Debate) error
	Delete(ctx context.Context, roomCode string) error
	Exists(ctx context.Context, roomCode string) (bool, error)
	// Codes lists the room codes of all live records.
	Codes(ctx context.Context) ([]string, error)
}

// TTLPolicy decides the expiry applied on each write.
type TTLPolicy struct {
	Default   time.Duration
	Evaluated time.Duration
}

// DefaultTTLPolicy is 30 minutes, extended to 24 hours once a verdict exists.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{Default: DefaultTTL, Evaluated: DefaultEvaluatedTTL}
}

// For returns the expiry for d.
func (p TTLPolicy) For(d models.Debate) time.Duration {
	if d.Status == models.StatusEvaluated {
		return p.Evaluated
	}
	return p.Default
}
