package shark

import (
	"math/rand"
	"sync"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// DecisionContext carries the interaction counters the policy reads.
type DecisionContext struct {
	// QuestionCount is how many questions the panel has asked so far.
	QuestionCount int
	// RejectedRoyalty is set once the user has declined a royalty-structured offer.
	RejectedRoyalty bool
	// MentionedRoyalty is set once royalty terms have come up at all.
	MentionedRoyalty bool
}

// Engine makes the probabilistic go-out / make-offer / offer-terms decisions.
// The random source is injected so tests can force deterministic branches.
type Engine struct {
	cfg *Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an Engine backed by the given random source.
func NewEngine(cfg *Config, rng *rand.Rand) *Engine {
	return &Engine{cfg: cfg, rng: rng}
}

// Config returns the persona configuration the engine decides against.
func (e *Engine) Config() *Config {
	return e.cfg
}

func (e *Engine) float() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// intn returns a uniform int in [0, n).
func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// intBetween returns a uniform int in [lo, hi].
func (e *Engine) intBetween(lo, hi int) int {
	return lo + e.intn(hi-lo+1)
}

// floatBetween returns a uniform float in [lo, hi).
func (e *Engine) floatBetween(lo, hi float64) float64 {
	return lo + e.float()*(hi-lo)
}

// ShouldGoOut decides whether a shark declares "I'm out". Sharks never exit
// during the pitch phase and must have asked at least two questions first.
func (e *Engine) ShouldGoOut(sharkID string, confidence int, phase model.Phase, ctx DecisionContext) bool {
	if phase == model.PhasePitch {
		return false
	}
	if ctx.QuestionCount < 2 {
		return false
	}

	if confidence < 15 {
		return true
	}
	if ctx.QuestionCount >= 4 && confidence < 30 {
		return true
	}

	// Shark-specific royalty triggers.
	if sharkID == "victor" && ctx.RejectedRoyalty {
		return e.float() < 0.6
	}
	if sharkID == "marcus" && ctx.MentionedRoyalty {
		return e.float() < 0.4
	}

	return false
}

// ShouldMakeOffer decides whether a shark extends an offer. The probability
// scales with confidence bands.
func (e *Engine) ShouldMakeOffer(sharkID string, confidence int, phase model.Phase, ctx DecisionContext) bool {
	if phase != model.PhaseQA && phase != model.PhaseOffers {
		return false
	}
	if confidence < 60 {
		return false
	}

	switch {
	case confidence > 85:
		return e.float() < 0.8
	case confidence > 75:
		return e.float() < 0.5
	case confidence > 65:
		return e.float() < 0.3
	}
	return e.float() < 0.15
}

// OfferTerms generates concrete offer terms for a shark. The base is the ask;
// each persona perturbs it in character, and low confidence worsens the terms.
func (e *Engine) OfferTerms(sharkID string, pitch model.PitchData, confidence int) *model.Offer {
	askAmount := pitch.AmountRaising
	if askAmount == 0 {
		askAmount = 100_000
	}
	askEquity := pitch.EquityPercent
	if askEquity == 0 {
		askEquity = 10
	}

	offer := &model.Offer{
		SharkID:    sharkID,
		SharkName:  e.cfg.Name(sharkID),
		Amount:     askAmount,
		Equity:     askEquity,
		Conditions: []string{},
	}

	switch sharkID {
	case "victor":
		// Victor always structures a royalty and eases the equity ask.
		royalty := round2(e.floatBetween(1.5, 3.5))
		offer.Royalty = &royalty
		until := askAmount
		offer.RoyaltyUntil = &until
		offer.Equity = max(askEquity-5, 5)

	case "marcus":
		if confidence <= 85 {
			offer.Equity = min(askEquity+float64(e.intBetween(5, 15)), 50)
		}

	case "elena":
		offer.Conditions = append(offer.Conditions, "Exclusive retail/QVC rights")
		offer.Equity = askEquity + float64(e.intBetween(3, 8))

	case "richard":
		if confidence <= 80 {
			offer.Equity = askEquity + float64(e.intBetween(2, 7))
		}

	case "daniel":
		offer.Equity = askEquity + float64(e.intBetween(0, 10))
		if confidence > 80 {
			offer.Conditions = append(offer.Conditions, "Mentorship and tech advisory")
		}
	}

	if confidence < 70 {
		offer.Equity = min(offer.Equity+10, 50)
	}

	return offer
}

// OutReason picks a persona-appropriate exit line.
func (e *Engine) OutReason(sharkID string) string {
	p, ok := e.cfg.Persona(sharkID)
	if !ok || len(p.OutReasons) == 0 {
		return "I'm out."
	}
	return p.OutReasons[e.intn(len(p.OutReasons))]
}

// PickResponder chooses which live shark answers next, avoiding the previous
// speaker when possible.
func (e *Engine) PickResponder(candidates []string, lastSpeaker string) string {
	if len(candidates) == 0 {
		return ""
	}
	filtered := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if id != lastSpeaker {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		filtered = candidates
	}
	return filtered[e.intn(len(filtered))]
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
