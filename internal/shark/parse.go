package shark

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// Offer-indicator phrases that suggest a response carries concrete terms.
var offerIndicators = []string{
	"offer", "i'll give you", "deal:", "here's what i'll do",
	"i'm in for", "investment of",
}

var (
	amountRe  = regexp.MustCompile(`\$?([\d,]+)\s*(?:thousand|k)?`)
	equityRe  = regexp.MustCompile(`(\d+)\s*(?:%|percent)`)
	royaltyRe = regexp.MustCompile(`\$?([\d.]+)\s*(?:per unit|royalty)`)
)

// ParseOffer attempts a best-effort lexical extraction of offer terms from a
// shark's generated dialogue. It is a heuristic, not authoritative parsing:
// the text is free-form natural language and extraction is inherently lossy.
// Returns nil when neither an amount nor an equity percentage was found.
func (c *Config) ParseOffer(sharkID, response string, pitch model.PitchData) *model.Offer {
	lower := strings.ToLower(response)

	if !containsAny(lower, offerIndicators) {
		return nil
	}

	var amount int64
	if m := amountRe.FindStringSubmatchIndex(response); m != nil {
		raw := strings.ReplaceAll(response[m[2]:m[3]], ",", "")
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			amount = v
			// "$250k" or "250 thousand" style shorthand.
			tail := lower[m[1]:min(len(lower), m[1]+5)]
			if strings.Contains(lower, "thousand") || strings.Contains(tail, "k") {
				amount *= 1000
			}
		}
	}

	var equity float64
	if m := equityRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			equity = float64(v)
		}
	}

	var royalty *float64
	var royaltyUntil *int64
	if sharkID == "victor" || strings.Contains(lower, "royalty") {
		if m := royaltyRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				cap := pitch.AmountRaising
				if cap == 0 {
					cap = 100_000
				}
				royalty = &v
				royaltyUntil = &cap
			}
		}
	}

	if amount == 0 && equity == 0 {
		return nil
	}

	if amount == 0 {
		amount = pitch.AmountRaising
		if amount == 0 {
			amount = 100_000
		}
	}
	if equity == 0 {
		equity = pitch.EquityPercent
		if equity == 0 {
			equity = 10
		}
		equity += 5
	}

	return &model.Offer{
		SharkID:      sharkID,
		SharkName:    c.Name(sharkID),
		Amount:       amount,
		Equity:       equity,
		Royalty:      royalty,
		RoyaltyUntil: royaltyUntil,
		Conditions:   []string{},
	}
}
