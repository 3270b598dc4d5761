// Package ratelimit bounds how often a user can start a pitch. Limits live
// in memory only; a restart forgives everyone.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Default limits.
const (
	DefaultDailyLimit  = 3
	DefaultWeeklyLimit = 10
	DefaultCooldown    = 30 * time.Second
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed bool
	Message string
	Stats   Stats
}

// Stats reports a user's current standing against the limits.
type Stats struct {
	DailyUsed       int `json:"daily_used"`
	WeeklyUsed      int `json:"weekly_used"`
	DailyRemaining  int `json:"daily_remaining"`
	WeeklyRemaining int `json:"weekly_remaining"`
	DailyLimit      int `json:"daily_limit"`
	WeeklyLimit     int `json:"weekly_limit"`
	CooldownSecs    int `json:"cooldown,omitempty"`
}

// Limiter tracks pitch timestamps per user. Anonymous users (empty ID) are
// never limited; they cannot reach the leaderboard anyway.
type Limiter struct {
	dailyLimit  int
	weeklyLimit int
	cooldown    time.Duration

	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewLimiter returns a limiter with the default limits.
func NewLimiter() *Limiter {
	return &Limiter{
		dailyLimit:  DefaultDailyLimit,
		weeklyLimit: DefaultWeeklyLimit,
		cooldown:    DefaultCooldown,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Check reports whether the user may start a pitch right now. It does not
// record the attempt; call Record once the pitch actually starts.
func (l *Limiter) Check(userID string) Decision {
	if userID == "" {
		return Decision{Allowed: true, Stats: l.anonymousStats()}
	}

	now := l.now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropExpired(userID, weekAgo)
	stamps := l.requests[userID]

	daily := countSince(stamps, dayAgo)
	weekly := countSince(stamps, weekAgo)

	if len(stamps) > 0 {
		if elapsed := now.Sub(stamps[len(stamps)-1]); elapsed < l.cooldown {
			wait := int((l.cooldown - elapsed).Seconds())
			return Decision{
				Message: fmt.Sprintf("Please wait %d seconds before your next pitch", wait),
				Stats: Stats{
					DailyUsed: daily, WeeklyUsed: weekly,
					DailyRemaining: max(0, l.dailyLimit-daily), WeeklyRemaining: max(0, l.weeklyLimit-weekly),
					DailyLimit: l.dailyLimit, WeeklyLimit: l.weeklyLimit,
					CooldownSecs: wait,
				},
			}
		}
	}

	if daily >= l.dailyLimit {
		return Decision{
			Message: fmt.Sprintf("Daily limit reached (%d pitches/day). Try again tomorrow.", l.dailyLimit),
			Stats: Stats{
				DailyUsed: daily, WeeklyUsed: weekly,
				DailyLimit: l.dailyLimit, WeeklyLimit: l.weeklyLimit,
				WeeklyRemaining: max(0, l.weeklyLimit-weekly),
			},
		}
	}
	if weekly >= l.weeklyLimit {
		return Decision{
			Message: fmt.Sprintf("Weekly limit reached (%d pitches/week). Try again next week.", l.weeklyLimit),
			Stats: Stats{
				DailyUsed: daily, WeeklyUsed: weekly,
				DailyLimit: l.dailyLimit, WeeklyLimit: l.weeklyLimit,
				DailyRemaining: max(0, l.dailyLimit-daily),
			},
		}
	}

	return Decision{
		Allowed: true,
		Stats: Stats{
			DailyUsed: daily, WeeklyUsed: weekly,
			DailyRemaining: l.dailyLimit - daily - 1, WeeklyRemaining: l.weeklyLimit - weekly - 1,
			DailyLimit: l.dailyLimit, WeeklyLimit: l.weeklyLimit,
		},
	}
}

// Record logs a pitch start for the user.
func (l *Limiter) Record(userID string) {
	if userID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[userID] = append(l.requests[userID], l.now())
}

// UserStats returns the user's standing without gating anything.
func (l *Limiter) UserStats(userID string) Stats {
	if userID == "" {
		return l.anonymousStats()
	}

	now := l.now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropExpired(userID, weekAgo)
	stamps := l.requests[userID]

	daily := countSince(stamps, dayAgo)
	weekly := countSince(stamps, weekAgo)
	return Stats{
		DailyUsed: daily, WeeklyUsed: weekly,
		DailyRemaining: max(0, l.dailyLimit-daily), WeeklyRemaining: max(0, l.weeklyLimit-weekly),
		DailyLimit: l.dailyLimit, WeeklyLimit: l.weeklyLimit,
	}
}

func (l *Limiter) anonymousStats() Stats {
	return Stats{
		DailyRemaining: l.dailyLimit, WeeklyRemaining: l.weeklyLimit,
		DailyLimit: l.dailyLimit, WeeklyLimit: l.weeklyLimit,
	}
}

// dropExpired removes timestamps outside the weekly window. Caller holds the
// lock.
func (l *Limiter) dropExpired(userID string, weekAgo time.Time) {
	stamps := l.requests[userID]
	if len(stamps) == 0 {
		return
	}
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(weekAgo) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.requests, userID)
		return
	}
	l.requests[userID] = kept
}

func countSince(stamps []time.Time, since time.Time) int {
	n := 0
	for _, ts := range stamps {
		if ts.After(since) {
			n++
		}
	}
	return n
}
