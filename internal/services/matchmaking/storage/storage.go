// Package storage defines persistence for completed match results.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates no archived result exists for the match id.
var ErrNotFound = errors.New("match result not found")

// MatchResult is the archived outcome of one completed match.
type MatchResult struct {
	MatchID      uint64
	WinningTeam  uint8
	DurationSecs uint32
}

// Archive stores match results for later lookup by match id.
type Archive interface {
	// RecordResult persists the result, replacing any earlier record for
	// the same match id.
	RecordResult(ctx context.Context, result MatchResult) error
	// GetResult returns the archived result or ErrNotFound.
	GetResult(ctx context.Context, matchID uint64) (MatchResult, error)
}
