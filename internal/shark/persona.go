// Package shark implements the judge panel: persona configuration, the
// confidence model, the decision policy, and the lexical classifiers that
// interpret generated dialogue.
package shark

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed personas.toml
var personasTOML []byte

// Persona is the per-shark configuration record. Branching behavior lives in
// these tables rather than in code.
type Persona struct {
	ID                string   `toml:"id"`
	Name              string   `toml:"name"`
	VoiceID           string   `toml:"voice_id"`
	Prompt            string   `toml:"prompt"`
	OutReasons        []string `toml:"out_reasons"`
	FallbackQuestions []string `toml:"fallback_questions"`
	DeclineFallback   string   `toml:"decline_fallback"`
	CounterFallback   string   `toml:"counter_fallback"`
}

type personaFile struct {
	Keywords  map[string][]string `toml:"keywords"`
	Modifiers struct {
		Positive map[string]map[string]int `toml:"positive"`
		Negative map[string]map[string]int `toml:"negative"`
	} `toml:"modifiers"`
	Sharks []Persona `toml:"sharks"`
}

// Config holds the loaded panel configuration: five personas plus the
// confidence modifier tables keyed by signal name.
type Config struct {
	sharks   []Persona
	byID     map[string]*Persona
	keywords map[string][]string
	positive map[string]map[string]int
	negative map[string]map[string]int
}

// LoadConfig parses the embedded persona configuration.
func LoadConfig() (*Config, error) {
	var f personaFile
	if err := toml.Unmarshal(personasTOML, &f); err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}
	if len(f.Sharks) == 0 {
		return nil, fmt.Errorf("parse personas: no sharks defined")
	}

	c := &Config{
		sharks:   f.Sharks,
		byID:     make(map[string]*Persona, len(f.Sharks)),
		keywords: f.Keywords,
		positive: f.Modifiers.Positive,
		negative: f.Modifiers.Negative,
	}
	for i := range c.sharks {
		p := &c.sharks[i]
		if p.ID == "" {
			return nil, fmt.Errorf("parse personas: shark %d has no id", i)
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

// IDs returns the shark IDs in panel order.
func (c *Config) IDs() []string {
	ids := make([]string, len(c.sharks))
	for i := range c.sharks {
		ids[i] = c.sharks[i].ID
	}
	return ids
}

// Persona returns the configuration for a shark ID.
func (c *Config) Persona(id string) (*Persona, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Name returns the display name for a shark, falling back to the ID.
func (c *Config) Name(id string) string {
	if p, ok := c.byID[id]; ok {
		return p.Name
	}
	return id
}

// positiveMod looks up a positive modifier for (signal, shark), with a default
// for sharks missing from the table.
func (c *Config) positiveMod(signal, sharkID string, def int) int {
	if row, ok := c.positive[signal]; ok {
		if v, ok := row[sharkID]; ok {
			return v
		}
	}
	return def
}

// negativeMod looks up a negative modifier for (signal, shark).
func (c *Config) negativeMod(signal, sharkID string, def int) int {
	if row, ok := c.negative[signal]; ok {
		if v, ok := row[sharkID]; ok {
			return v
		}
	}
	return def
}
