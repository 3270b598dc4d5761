package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// mockSource serves a fixed set of closed sessions.
type mockSource struct {
	sessions []*model.Session
}

func (s *mockSource) ClosedSessions() []*model.Session { return s.sessions }

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return nil
}

func closedSession(id, company string, amount int64) *model.Session {
	return &model.Session{
		ID:        id,
		Phase:     model.PhaseClosed,
		PitchData: model.PitchData{CompanyName: company, AmountRaising: amount},
		FinalDeal: &model.Offer{SharkID: "marcus", Amount: amount, Equity: 20, Status: model.OfferAccepted},
		CreatedAt: time.Now().UTC(),
	}
}

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.SessionCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_OneLinePerSession(t *testing.T) {
	sessions := []*model.Session{
		closedSession("st-aaa", "First Co", 100_000),
		closedSession("st-zzz", "Second Co", 250_000),
	}

	var buf bytes.Buffer
	if err := ExportJSONL(sessions, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 sessions = 3 lines
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.SessionCount != 2 {
		t.Fatalf("session count = %d, want 2", h.SessionCount)
	}

	for i, line := range lines[1:] {
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("unmarshal line %d: %v", i+1, err)
		}
		if rec.Type != "session" {
			t.Fatalf("line %d type = %q, want session", i+1, rec.Type)
		}
		data, _ := json.Marshal(rec.Data)
		var sess model.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			t.Fatalf("unmarshal session %d: %v", i+1, err)
		}
		if sess.ID != sessions[i].ID {
			t.Errorf("line %d session = %q, want %q", i+1, sess.ID, sessions[i].ID)
		}
		if sess.FinalDeal == nil || sess.FinalDeal.Amount != sessions[i].FinalDeal.Amount {
			t.Errorf("line %d deal not preserved", i+1)
		}
	}
}

func TestSchedulerStartStop(t *testing.T) {
	src := &mockSource{sessions: []*model.Session{closedSession("st-1", "Co", 100_000)}}
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(src, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial export + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	lines := nonEmptyLines(string(data))
	// 1 header + 1 session = 2
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(&mockSource{}, nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	src := &mockSource{}
	dest1 := &mockDestination{}
	dest2 := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(src, []Destination{dest1, dest2}, time.Second, logger)
	sched.Start()

	// Wait for the initial export.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 1 {
		t.Fatal("dest1 expected at least 1 write")
	}
	if dest2.writes.Load() < 1 {
		t.Fatal("dest2 expected at least 1 write")
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
