package ratelimit

import (
	"strings"
	"testing"
	"time"
)

// newTestLimiter returns a limiter with a controllable clock.
func newTestLimiter() (*Limiter, *time.Time) {
	l := NewLimiter()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheck_AnonymousUnlimited(t *testing.T) {
	l, _ := newTestLimiter()
	for i := 0; i < 100; i++ {
		d := l.Check("")
		if !d.Allowed {
			t.Fatal("anonymous user rate limited")
		}
		l.Record("")
	}
}

func TestCheck_Cooldown(t *testing.T) {
	l, now := newTestLimiter()

	if d := l.Check("u1"); !d.Allowed {
		t.Fatal("first pitch blocked")
	}
	l.Record("u1")

	*now = now.Add(10 * time.Second)
	d := l.Check("u1")
	if d.Allowed {
		t.Fatal("pitch allowed during cooldown")
	}
	if !strings.Contains(d.Message, "wait") {
		t.Errorf("message = %q", d.Message)
	}
	if d.Stats.CooldownSecs != 20 {
		t.Errorf("cooldown = %d, want 20", d.Stats.CooldownSecs)
	}

	*now = now.Add(21 * time.Second)
	if d := l.Check("u1"); !d.Allowed {
		t.Error("pitch blocked after cooldown elapsed")
	}
}

func TestCheck_DailyLimit(t *testing.T) {
	l, now := newTestLimiter()

	for i := 0; i < DefaultDailyLimit; i++ {
		if d := l.Check("u1"); !d.Allowed {
			t.Fatalf("pitch %d blocked: %s", i+1, d.Message)
		}
		l.Record("u1")
		*now = now.Add(time.Minute)
	}

	d := l.Check("u1")
	if d.Allowed {
		t.Fatal("pitch allowed past daily limit")
	}
	if !strings.Contains(d.Message, "Daily limit") {
		t.Errorf("message = %q", d.Message)
	}
	if d.Stats.DailyUsed != DefaultDailyLimit {
		t.Errorf("daily used = %d", d.Stats.DailyUsed)
	}

	// A day later the daily window clears.
	*now = now.Add(25 * time.Hour)
	if d := l.Check("u1"); !d.Allowed {
		t.Errorf("pitch blocked after daily window reset: %s", d.Message)
	}
}

func TestCheck_WeeklyLimit(t *testing.T) {
	l, now := newTestLimiter()

	// Spread pitches so the daily limit never trips: 2 per day for 5 days.
	for i := 0; i < DefaultWeeklyLimit; i++ {
		if d := l.Check("u1"); !d.Allowed {
			t.Fatalf("pitch %d blocked: %s", i+1, d.Message)
		}
		l.Record("u1")
		if i%2 == 1 {
			*now = now.Add(23 * time.Hour)
		} else {
			*now = now.Add(time.Hour)
		}
	}

	d := l.Check("u1")
	if d.Allowed {
		t.Fatal("pitch allowed past weekly limit")
	}
	if !strings.Contains(d.Message, "Weekly limit") {
		t.Errorf("message = %q", d.Message)
	}

	// Old entries expire out of the weekly window.
	*now = now.Add(8 * 24 * time.Hour)
	if d := l.Check("u1"); !d.Allowed {
		t.Errorf("pitch blocked after weekly window reset: %s", d.Message)
	}
}

func TestCheck_RemainingCounts(t *testing.T) {
	l, now := newTestLimiter()

	d := l.Check("u1")
	if d.Stats.DailyRemaining != DefaultDailyLimit-1 || d.Stats.WeeklyRemaining != DefaultWeeklyLimit-1 {
		t.Errorf("fresh user remaining = %d/%d, want %d/%d",
			d.Stats.DailyRemaining, d.Stats.WeeklyRemaining, DefaultDailyLimit-1, DefaultWeeklyLimit-1)
	}
	l.Record("u1")
	*now = now.Add(time.Minute)

	d = l.Check("u1")
	if d.Stats.DailyRemaining != DefaultDailyLimit-2 {
		t.Errorf("after one pitch remaining = %d, want %d", d.Stats.DailyRemaining, DefaultDailyLimit-2)
	}
}

func TestUserStats(t *testing.T) {
	l, now := newTestLimiter()

	s := l.UserStats("u1")
	if s.DailyUsed != 0 || s.DailyRemaining != DefaultDailyLimit {
		t.Errorf("fresh stats = %+v", s)
	}

	l.Record("u1")
	*now = now.Add(time.Minute)
	l.Record("u1")

	s = l.UserStats("u1")
	if s.DailyUsed != 2 || s.WeeklyUsed != 2 {
		t.Errorf("used = %d/%d, want 2/2", s.DailyUsed, s.WeeklyUsed)
	}
	if s.DailyRemaining != DefaultDailyLimit-2 {
		t.Errorf("daily remaining = %d", s.DailyRemaining)
	}

	// Stats never go negative even past the limit.
	for i := 0; i < 5; i++ {
		l.Record("u1")
	}
	s = l.UserStats("u1")
	if s.DailyRemaining != 0 || s.WeeklyRemaining != DefaultWeeklyLimit-7 {
		t.Errorf("overrun stats = %+v", s)
	}

	if s := l.UserStats(""); s.DailyRemaining != DefaultDailyLimit {
		t.Errorf("anonymous stats = %+v", s)
	}
}

func TestCheckDoesNotRecord(t *testing.T) {
	l, _ := newTestLimiter()

	// Checking repeatedly without recording never consumes quota.
	for i := 0; i < 20; i++ {
		if d := l.Check("u1"); !d.Allowed {
			t.Fatal("check alone consumed quota")
		}
	}
}
