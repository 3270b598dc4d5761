// Package presence tracks live founder activity for the activity board.
//
// The Tracker maintains an in-memory map of active pitch sessions, updated
// directly by the server as API calls arrive. A background reaper marks
// sessions idle after a configurable threshold and eventually evicts them,
// so the board only shows tanks with someone actually in them.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry represents a single session's live activity state.
type Entry struct {
	SessionID           string    `json:"session_id"`
	Company             string    `json:"company,omitempty"`
	UserID              string    `json:"user_id,omitempty"`
	LastSeen            time.Time `json:"last_seen"`
	FirstSeen           time.Time `json:"first_seen"`
	LastAction          string    `json:"last_action"` // e.g. "start", "message", "offer_response"
	Viewers             int       `json:"viewers"`     // open event streams
	IdleSecs            float64   `json:"idle_secs"`
	ActionCount         int64     `json:"action_count"`
	SessionDurationSecs float64   `json:"session_duration_secs"`
	Idle                bool      `json:"idle,omitempty"`
	IdleAt              time.Time `json:"idle_at,omitempty"`
}

// Touch is the data extracted from an API call that the tracker needs to
// update activity state.
type Touch struct {
	SessionID string
	Company   string
	UserID    string
	Action    string // "start", "pitch_complete", "message", "offer_response"
}

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// IdleThreshold is how long a session must be quiet before being marked idle.
	// Default: 15 minutes.
	IdleThreshold time.Duration

	// EvictAfter is how long after being marked idle before a session is
	// permanently removed from the in-memory map. Prevents unbounded growth
	// from abandoned pitches. Default: 30 minutes.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper scans for idle sessions.
	// Default: 60 seconds.
	SweepInterval time.Duration

	// OnIdle is called for each session newly marked idle.
	// Called outside the lock — safe to make blocking calls.
	OnIdle func(sessionID string)
}

// Tracker maintains an in-memory board of active pitch sessions.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	started  time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type sessionState struct {
	company     string
	userID      string
	firstSeen   time.Time
	lastSeen    time.Time
	lastAction  string
	viewers     int
	actionCount int64
	idle        bool
	idleAt      time.Time
}

// New creates a new activity tracker.
func New() *Tracker {
	return &Tracker{
		sessions: make(map[string]*sessionState),
		started:  time.Now(),
	}
}

// Record updates the activity state for a session based on an API call.
func (t *Tracker) Record(touch Touch) {
	if touch.SessionID == "" {
		return
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sessions[touch.SessionID]
	if !ok {
		state = &sessionState{firstSeen: now}
		t.sessions[touch.SessionID] = state
	}

	// Resurrect idle sessions that come back to life.
	if state.idle {
		slog.Info("presence: session resumed", "session_id", touch.SessionID)
		state.idle = false
		state.idleAt = time.Time{}
	}

	state.lastSeen = now
	state.lastAction = touch.Action
	state.actionCount++

	if touch.Company != "" {
		state.company = touch.Company
	}
	if touch.UserID != "" {
		state.userID = touch.UserID
	}
}

// StreamOpened records one more open event stream for the session.
func (t *Tracker) StreamOpened(sessionID string) {
	t.adjustViewers(sessionID, 1)
}

// StreamClosed records one fewer open event stream for the session.
func (t *Tracker) StreamClosed(sessionID string) {
	t.adjustViewers(sessionID, -1)
}

func (t *Tracker) adjustViewers(sessionID string, delta int) {
	if sessionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sessions[sessionID]
	if !ok {
		if delta < 0 {
			return
		}
		state = &sessionState{firstSeen: time.Now()}
		t.sessions[sessionID] = state
	}
	state.viewers += delta
	if state.viewers < 0 {
		state.viewers = 0
	}
	state.lastSeen = time.Now()
}

// Board returns a snapshot of all tracked sessions, sorted by most recently
// active. staleThreshold controls how long since the last touch before a
// session is excluded. Pass 0 to include every session still tracked.
func (t *Tracker) Board(staleThreshold time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.sessions))

	for id, state := range t.sessions {
		idle := now.Sub(state.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}

		firstSeen := state.firstSeen
		if firstSeen.IsZero() {
			firstSeen = t.started
		}

		entries = append(entries, Entry{
			SessionID:           id,
			Company:             state.company,
			UserID:              state.userID,
			LastSeen:            state.lastSeen,
			FirstSeen:           firstSeen,
			LastAction:          state.lastAction,
			Viewers:             state.viewers,
			IdleSecs:            idle.Seconds(),
			ActionCount:         state.actionCount,
			SessionDurationSecs: now.Sub(firstSeen).Seconds(),
			Idle:                state.idle,
			IdleAt:              state.idleAt,
		})
	}

	// Sort by last seen (most recent first).
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})

	return entries
}

// Remove drops a session from the board entirely, e.g. when the session
// store prunes it.
func (t *Tracker) Remove(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// StartReaper launches a background goroutine that periodically marks quiet
// sessions idle. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = 15 * time.Minute
	}
	if cfg.EvictAfter == 0 {
		cfg.EvictAfter = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"idle_threshold", cfg.IdleThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := time.Now()

	var newlyIdle []string

	t.mu.Lock()
	for id, state := range t.sessions {
		if state.idle {
			// Evict sessions idle for longer than EvictAfter. Low-activity
			// sessions (<5 touches) never got going — evict faster (5 min).
			evictThreshold := cfg.EvictAfter
			if state.actionCount < 5 {
				evictThreshold = 5 * time.Minute
			}
			if !state.idleAt.IsZero() && now.Sub(state.idleAt) > evictThreshold {
				delete(t.sessions, id)
			}
			continue
		}
		if now.Sub(state.lastSeen) > cfg.IdleThreshold {
			state.idle = true
			state.idleAt = now
			newlyIdle = append(newlyIdle, id)
		}
	}
	t.mu.Unlock()

	for _, id := range newlyIdle {
		slog.Info("presence: reaper marked session idle",
			"session_id", id,
			"threshold", cfg.IdleThreshold)
		if cfg.OnIdle != nil {
			cfg.OnIdle(id)
		}
	}
}
