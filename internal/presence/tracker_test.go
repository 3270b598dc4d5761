package presence

import (
	"testing"
	"time"
)

func TestRecord_BasicTracking(t *testing.T) {
	tr := New()

	tr.Record(Touch{
		SessionID: "st-1",
		Company:   "CloudKitchen",
		UserID:    "alice",
		Action:    "start",
	})

	board := tr.Board(0)
	if len(board) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(board))
	}

	e := board[0]
	if e.SessionID != "st-1" {
		t.Errorf("expected session st-1, got %s", e.SessionID)
	}
	if e.LastAction != "start" {
		t.Errorf("expected last_action start, got %s", e.LastAction)
	}
	if e.Company != "CloudKitchen" {
		t.Errorf("expected company CloudKitchen, got %s", e.Company)
	}
	if e.UserID != "alice" {
		t.Errorf("expected user alice, got %s", e.UserID)
	}
	if e.ActionCount != 1 {
		t.Errorf("expected action_count 1, got %d", e.ActionCount)
	}
}

func TestRecord_UpdatesExistingSession(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "st-1", Company: "CloudKitchen", Action: "start"})
	tr.Record(Touch{SessionID: "st-1", Action: "pitch_complete"})
	tr.Record(Touch{SessionID: "st-1", Action: "message"})

	board := tr.Board(0)
	if len(board) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(board))
	}

	e := board[0]
	if e.ActionCount != 3 {
		t.Errorf("expected 3 actions, got %d", e.ActionCount)
	}
	if e.LastAction != "message" {
		t.Errorf("expected last_action message, got %s", e.LastAction)
	}
	if e.Company != "CloudKitchen" {
		t.Errorf("company lost on update, got %q", e.Company)
	}
}

func TestRecord_IgnoresEmptySessionID(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "", Action: "start"})

	if board := tr.Board(0); len(board) != 0 {
		t.Fatalf("expected 0 entries for empty session, got %d", len(board))
	}
}

func TestStreamViewerCounts(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "st-1", Action: "start"})
	tr.StreamOpened("st-1")
	tr.StreamOpened("st-1")
	tr.StreamClosed("st-1")

	board := tr.Board(0)
	if len(board) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(board))
	}
	if board[0].Viewers != 1 {
		t.Errorf("expected 1 viewer, got %d", board[0].Viewers)
	}

	// Never goes negative.
	tr.StreamClosed("st-1")
	tr.StreamClosed("st-1")
	if v := tr.Board(0)[0].Viewers; v != 0 {
		t.Errorf("expected 0 viewers, got %d", v)
	}
}

func TestBoard_StaleThreshold(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "st-old", Action: "start"})
	tr.Record(Touch{SessionID: "st-new", Action: "start"})

	tr.mu.Lock()
	tr.sessions["st-old"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	// With 10-minute threshold, only the fresh session should appear.
	board := tr.Board(10 * time.Minute)
	if len(board) != 1 {
		t.Fatalf("expected 1 entry with threshold, got %d", len(board))
	}
	if board[0].SessionID != "st-new" {
		t.Errorf("expected st-new, got %s", board[0].SessionID)
	}

	// With 0 threshold, both should appear.
	if all := tr.Board(0); len(all) != 2 {
		t.Fatalf("expected 2 entries without threshold, got %d", len(all))
	}
}

func TestBoard_SortedByMostRecent(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "st-first", Action: "start"})
	time.Sleep(5 * time.Millisecond)
	tr.Record(Touch{SessionID: "st-second", Action: "start"})
	time.Sleep(5 * time.Millisecond)
	tr.Record(Touch{SessionID: "st-third", Action: "start"})

	board := tr.Board(0)
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].SessionID != "st-third" {
		t.Errorf("expected st-third first, got %s", board[0].SessionID)
	}
	if board[2].SessionID != "st-first" {
		t.Errorf("expected st-first last, got %s", board[2].SessionID)
	}
}

func TestSweep_MarksQuietSessionsIdle(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "st-quiet", Action: "start"})

	tr.mu.Lock()
	tr.sessions["st-quiet"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	var idleSessions []string
	cfg := &ReaperConfig{
		IdleThreshold: 15 * time.Minute,
		EvictAfter:    30 * time.Minute,
		SweepInterval: time.Second,
		OnIdle: func(id string) {
			idleSessions = append(idleSessions, id)
		},
	}

	tr.sweep(cfg)

	if len(idleSessions) != 1 || idleSessions[0] != "st-quiet" {
		t.Errorf("expected st-quiet to be marked idle, got %v", idleSessions)
	}

	for _, e := range tr.Board(0) {
		if e.SessionID == "st-quiet" && !e.Idle {
			t.Error("expected st-quiet to have idle=true")
		}
	}
}

func TestSweep_ResumedSessionNotIdle(t *testing.T) {
	tr := New()

	// Session goes quiet and gets marked idle...
	tr.Record(Touch{SessionID: "st-back", Action: "start"})
	tr.mu.Lock()
	tr.sessions["st-back"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	cfg := &ReaperConfig{IdleThreshold: 15 * time.Minute, EvictAfter: 30 * time.Minute}
	tr.sweep(cfg)

	// ...then the founder answers another question.
	tr.Record(Touch{SessionID: "st-back", Action: "message"})

	for _, e := range tr.Board(0) {
		if e.SessionID == "st-back" {
			if e.Idle {
				t.Error("expected st-back to be active again (idle=false)")
			}
			if e.ActionCount != 2 {
				t.Errorf("expected 2 actions, got %d", e.ActionCount)
			}
			return
		}
	}
	t.Error("st-back not found on board")
}

func TestSweep_EvictsAbandonedSessions(t *testing.T) {
	tr := New()

	// Session with few touches, idle for a while.
	tr.Record(Touch{SessionID: "st-ghost", Action: "start"})
	tr.mu.Lock()
	state := tr.sessions["st-ghost"]
	state.lastSeen = time.Now().Add(-30 * time.Minute)
	state.idle = true
	state.idleAt = time.Now().Add(-10 * time.Minute)
	state.actionCount = 2
	tr.mu.Unlock()

	cfg := &ReaperConfig{
		IdleThreshold: 15 * time.Minute,
		EvictAfter:    30 * time.Minute,
	}

	tr.sweep(cfg)

	// Sessions that never got going (<5 touches) are evicted after 5 min.
	tr.mu.RLock()
	_, exists := tr.sessions["st-ghost"]
	tr.mu.RUnlock()

	if exists {
		t.Error("expected st-ghost to be evicted (low action count, idle >5 min)")
	}
}

func TestRemove(t *testing.T) {
	tr := New()

	tr.Record(Touch{SessionID: "st-1", Action: "start"})
	tr.Remove("st-1")

	if board := tr.Board(0); len(board) != 0 {
		t.Fatalf("expected empty board after Remove, got %d entries", len(board))
	}
}

func TestStartReaper_StopsCleanly(t *testing.T) {
	tr := New()

	tr.StartReaper(&ReaperConfig{
		SweepInterval: 50 * time.Millisecond,
	})

	// Let it run a couple sweeps.
	time.Sleep(150 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()

	select {
	case <-done:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return within 2 seconds")
	}
}
