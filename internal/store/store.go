// Package store defines the persistence interface for the leaderboard. Live
// session state never touches it; only finished pitches are written.
package store

import (
	"context"
	"errors"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MaxLeaderboardLimit caps how many entries one query may return.
const MaxLeaderboardLimit = 100

// DefaultLeaderboardLimit applies when a query does not set a limit.
const DefaultLeaderboardLimit = 50

// LeaderboardQuery filters a leaderboard read.
type LeaderboardQuery struct {
	VerifiedOnly bool
	Limit        int
}

// EffectiveLimit normalizes the limit to (0, MaxLeaderboardLimit].
func (q LeaderboardQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return q.Limit
}

// LeaderboardStore persists finished pitch runs and serves ranked queries.
type LeaderboardStore interface {
	// SavePitch records a finished pitch run.
	SavePitch(ctx context.Context, rec *model.PitchRecord) error

	// Leaderboard returns deal outcomes ranked by deal amount descending.
	// Rank is assigned by position, starting at 1.
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]*model.LeaderboardEntry, error)

	// UserBestPitch returns the user's highest deal, or ErrNotFound.
	UserBestPitch(ctx context.Context, userID string) (*model.PitchRecord, error)

	// Lifecycle
	Close() error
}
