package shark

import (
	"math/rand"
	"testing"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	return NewEngine(loadTestConfig(t), rand.New(rand.NewSource(seed)))
}

func TestShouldGoOut_NeverDuringPitch(t *testing.T) {
	e := newTestEngine(t, 1)
	for conf := 0; conf <= 100; conf += 10 {
		if e.ShouldGoOut("victor", conf, model.PhasePitch, DecisionContext{QuestionCount: 10}) {
			t.Fatalf("ShouldGoOut = true during pitch phase at confidence %d", conf)
		}
	}
}

func TestShouldGoOut_QuestionFloor(t *testing.T) {
	e := newTestEngine(t, 1)
	// Even at rock-bottom confidence, sharks ask questions first.
	if e.ShouldGoOut("marcus", 0, model.PhaseQA, DecisionContext{QuestionCount: 1}) {
		t.Fatal("ShouldGoOut = true with fewer than 2 questions asked")
	}
}

func TestShouldGoOut_ConfidenceThresholds(t *testing.T) {
	e := newTestEngine(t, 1)

	tests := []struct {
		name       string
		confidence int
		questions  int
		want       bool
	}{
		{"very low after 2 questions", 14, 2, true},
		{"low but above floor after 2 questions", 25, 2, false},
		{"low after 4 questions", 25, 4, true},
		{"healthy after many questions", 60, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ShouldGoOut("elena", tt.confidence, model.PhaseQA, DecisionContext{QuestionCount: tt.questions})
			if got != tt.want {
				t.Errorf("ShouldGoOut(conf=%d, q=%d) = %v, want %v", tt.confidence, tt.questions, got, tt.want)
			}
		})
	}
}

func TestShouldGoOut_RoyaltyTriggers(t *testing.T) {
	// Seeded runs make the probabilistic branches observable: over many draws
	// the victor/marcus triggers must fire sometimes but not always.
	e := newTestEngine(t, 42)

	victorExits, marcusExits := 0, 0
	const trials = 1000
	for range trials {
		if e.ShouldGoOut("victor", 50, model.PhaseQA, DecisionContext{QuestionCount: 3, RejectedRoyalty: true}) {
			victorExits++
		}
		if e.ShouldGoOut("marcus", 50, model.PhaseQA, DecisionContext{QuestionCount: 3, MentionedRoyalty: true}) {
			marcusExits++
		}
	}

	if victorExits < trials/2 || victorExits > trials*7/10 {
		t.Errorf("victor rejected-royalty exits = %d/%d, want ~60%%", victorExits, trials)
	}
	if marcusExits < trials*3/10 || marcusExits > trials/2 {
		t.Errorf("marcus mentioned-royalty exits = %d/%d, want ~40%%", marcusExits, trials)
	}

	// Other sharks ignore royalty context entirely.
	if e.ShouldGoOut("elena", 50, model.PhaseQA, DecisionContext{QuestionCount: 3, RejectedRoyalty: true, MentionedRoyalty: true}) {
		t.Error("elena exited on royalty context")
	}
}

func TestShouldMakeOffer_Gates(t *testing.T) {
	e := newTestEngine(t, 1)

	if e.ShouldMakeOffer("daniel", 95, model.PhasePitch, DecisionContext{}) {
		t.Error("offer made during pitch phase")
	}
	if e.ShouldMakeOffer("daniel", 95, model.PhaseClosed, DecisionContext{}) {
		t.Error("offer made after close")
	}
	if e.ShouldMakeOffer("daniel", 59, model.PhaseQA, DecisionContext{}) {
		t.Error("offer made below confidence 60")
	}
}

func TestShouldMakeOffer_ProbabilityBands(t *testing.T) {
	e := newTestEngine(t, 7)

	bands := []struct {
		confidence int
		lo, hi     float64
	}{
		{90, 0.7, 0.9},   // 0.8 band
		{80, 0.4, 0.6},   // 0.5 band
		{70, 0.2, 0.4},   // 0.3 band
		{62, 0.05, 0.25}, // 0.15 band
	}

	const trials = 2000
	for _, b := range bands {
		made := 0
		for range trials {
			if e.ShouldMakeOffer("richard", b.confidence, model.PhaseQA, DecisionContext{}) {
				made++
			}
		}
		rate := float64(made) / trials
		if rate < b.lo || rate > b.hi {
			t.Errorf("confidence %d: offer rate %.3f, want within [%.2f, %.2f]", b.confidence, rate, b.lo, b.hi)
		}
	}
}

func TestOfferTerms_PersonaShapes(t *testing.T) {
	e := newTestEngine(t, 11)
	pitch := model.PitchData{AmountRaising: 200_000, EquityPercent: 10}

	t.Run("victor always proposes royalty", func(t *testing.T) {
		for range 20 {
			o := e.OfferTerms("victor", pitch, 75)
			if o.Royalty == nil || o.RoyaltyUntil == nil {
				t.Fatal("victor offer missing royalty terms")
			}
			if *o.Royalty < 1.5 || *o.Royalty > 3.5 {
				t.Errorf("victor royalty = %v, want within [1.5, 3.5]", *o.Royalty)
			}
			if *o.RoyaltyUntil != pitch.AmountRaising {
				t.Errorf("victor royalty cap = %d, want %d", *o.RoyaltyUntil, pitch.AmountRaising)
			}
			if o.Equity != 5 {
				t.Errorf("victor equity = %v, want ask-5 = 5", o.Equity)
			}
		}
	})

	t.Run("marcus takes ask at high confidence", func(t *testing.T) {
		o := e.OfferTerms("marcus", pitch, 90)
		if o.Equity != 10 {
			t.Errorf("marcus equity at conf 90 = %v, want 10", o.Equity)
		}
		o = e.OfferTerms("marcus", pitch, 80)
		if o.Equity < 15 || o.Equity > 25 {
			t.Errorf("marcus equity at conf 80 = %v, want ask+[5,15]", o.Equity)
		}
	})

	t.Run("elena attaches exclusivity", func(t *testing.T) {
		o := e.OfferTerms("elena", pitch, 75)
		if len(o.Conditions) != 1 || o.Conditions[0] != "Exclusive retail/QVC rights" {
			t.Errorf("elena conditions = %v", o.Conditions)
		}
		if o.Equity < 13 || o.Equity > 18 {
			t.Errorf("elena equity = %v, want ask+[3,8]", o.Equity)
		}
	})

	t.Run("daniel mentors at high confidence", func(t *testing.T) {
		o := e.OfferTerms("daniel", pitch, 85)
		if len(o.Conditions) != 1 || o.Conditions[0] != "Mentorship and tech advisory" {
			t.Errorf("daniel conditions at conf 85 = %v", o.Conditions)
		}
		o = e.OfferTerms("daniel", pitch, 75)
		if len(o.Conditions) != 0 {
			t.Errorf("daniel conditions at conf 75 = %v, want none", o.Conditions)
		}
	})

	t.Run("low confidence equity penalty capped at 50", func(t *testing.T) {
		for range 20 {
			o := e.OfferTerms("marcus", pitch, 65)
			if o.Equity > 50 {
				t.Errorf("equity = %v, want <= 50", o.Equity)
			}
			// Ask+jitter then the flat +10 penalty.
			if o.Equity < 25 {
				t.Errorf("equity = %v, want >= ask+5+10", o.Equity)
			}
		}
	})

	t.Run("zero-value pitch gets defaults", func(t *testing.T) {
		o := e.OfferTerms("richard", model.PitchData{}, 90)
		if o.Amount != 100_000 {
			t.Errorf("amount = %d, want default 100000", o.Amount)
		}
		if o.Equity != 10 {
			t.Errorf("equity = %v, want default ask 10", o.Equity)
		}
	})
}

func TestOutReason_FromPersonaPool(t *testing.T) {
	e := newTestEngine(t, 3)
	p, _ := e.Config().Persona("victor")

	pool := make(map[string]bool, len(p.OutReasons))
	for _, r := range p.OutReasons {
		pool[r] = true
	}
	for range 50 {
		if r := e.OutReason("victor"); !pool[r] {
			t.Fatalf("OutReason returned line outside pool: %q", r)
		}
	}

	if r := e.OutReason("nobody"); r != "I'm out." {
		t.Errorf("unknown shark OutReason = %q", r)
	}
}

func TestPickResponder(t *testing.T) {
	e := newTestEngine(t, 5)

	if got := e.PickResponder(nil, ""); got != "" {
		t.Errorf("PickResponder(nil) = %q, want empty", got)
	}

	// Last speaker is avoided when alternatives exist.
	for range 50 {
		got := e.PickResponder([]string{"marcus", "elena"}, "marcus")
		if got != "elena" {
			t.Fatalf("PickResponder = %q, want elena", got)
		}
	}

	// Sole candidate may repeat.
	if got := e.PickResponder([]string{"marcus"}, "marcus"); got != "marcus" {
		t.Errorf("PickResponder sole candidate = %q, want marcus", got)
	}
}
