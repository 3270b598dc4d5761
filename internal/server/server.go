// Package server exposes the pitch simulator over HTTP and drives the
// background shark reactions.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/events"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/presence"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/ratelimit"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/session"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/shark"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/store"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/stream"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/tts"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/verify"
)

// backgroundTimeout bounds every fire-and-forget reaction task.
const backgroundTimeout = 60 * time.Second

// Generator produces shark dialogue. It never fails; implementations fall
// back to canned persona lines.
type Generator interface {
	GenerateResponse(ctx context.Context, sharkID string, sess *model.Session, confidence int, userMessage string) string
	GenerateDecline(ctx context.Context, sharkID string, offer model.Offer) string
	GenerateCounterReply(ctx context.Context, sharkID string, offer model.Offer, counter model.CounterTerms) (string, bool)
}

// Synthesizer converts shark lines to speech. Implementations degrade to
// duration-only results when synthesis is unavailable.
type Synthesizer interface {
	SynthesizeForShark(ctx context.Context, sharkID, text string) tts.Result
	Synthesize(ctx context.Context, text, voiceID string) tts.Result
}

// TankServer wires the session store, decision engine, and collaborators
// behind the HTTP surface.
type TankServer struct {
	sessions  *session.Store
	broker    *stream.Broker
	engine    *shark.Engine
	generator Generator
	speech    Synthesizer
	publisher events.Publisher
	limiter   *ratelimit.Limiter
	activity  *presence.Tracker

	// leaderboard is nil when persistence is not configured.
	leaderboard store.LeaderboardStore
	llama       *verify.LlamaClient
	mrr         *verify.MRRClient
}

// Deps carries the collaborators for NewTankServer. Sessions, Engine,
// Generator, and Speech are required; the rest default to in-memory or noop
// implementations.
type Deps struct {
	Sessions    *session.Store
	Broker      *stream.Broker
	Engine      *shark.Engine
	Generator   Generator
	Speech      Synthesizer
	Publisher   events.Publisher
	Limiter     *ratelimit.Limiter
	Activity    *presence.Tracker
	Leaderboard store.LeaderboardStore
	Llama       *verify.LlamaClient
	MRR         *verify.MRRClient
}

// NewTankServer returns a server wired to the given collaborators.
func NewTankServer(d Deps) *TankServer {
	if d.Broker == nil {
		d.Broker = stream.NewBroker()
	}
	if d.Publisher == nil {
		d.Publisher = &events.NoopPublisher{}
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewLimiter()
	}
	if d.Activity == nil {
		d.Activity = presence.New()
	}
	return &TankServer{
		sessions:    d.Sessions,
		broker:      d.Broker,
		engine:      d.Engine,
		generator:   d.Generator,
		speech:      d.Speech,
		publisher:   d.Publisher,
		limiter:     d.Limiter,
		activity:    d.Activity,
		leaderboard: d.Leaderboard,
		llama:       d.Llama,
		mrr:         d.MRR,
	}
}

// Broker returns the stream broker so the reaper can tear down queues for
// pruned sessions.
func (s *TankServer) Broker() *stream.Broker {
	return s.broker
}

// Activity returns the session activity tracker so the reaper can drop
// pruned sessions from the board.
func (s *TankServer) Activity() *presence.Tracker {
	return s.activity
}

// mirror publishes an event to the external bus. Mirroring is best effort;
// failures are logged but never block the caller.
func (s *TankServer) mirror(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to mirror event", "topic", topic, "error", err)
	}
}

// emit pushes a frame onto the session's stream queue.
func (s *TankServer) emit(sessionID string, typ model.EventType, data any) {
	s.broker.Publish(sessionID, model.Event{Type: typ, Data: data})
}

// inputError indicates invalid user input. The HTTP layer maps it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// decodeJSON decodes a request body into v, mapping malformed JSON to an
// inputError.
func decodeJSON(r *json.Decoder, v any) error {
	if err := r.Decode(v); err != nil {
		return inputError("invalid JSON body: " + err.Error())
	}
	return nil
}
