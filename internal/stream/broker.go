// Package stream fans session events out to connected viewers. Each session
// has its own set of subscriber queues; events are fire-and-forget with no
// replay after delivery.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

const (
	// subscriberBuffer is the per-subscriber channel depth. A viewer that
	// falls this far behind starts losing events rather than blocking the
	// publisher.
	subscriberBuffer = 64

	// HeartbeatInterval is how long a stream must stay quiet before a
	// subscriber receives a heartbeat frame so intermediaries keep the
	// connection open. Delivered events push the next heartbeat back.
	HeartbeatInterval = 30 * time.Second

	// dedupCapacity caps the per-session set of recently seen shark lines.
	// When an insert pushes the set past it, the set is trimmed to the
	// dedupKeep newest entries.
	dedupCapacity = 50
	dedupKeep     = 25

	// dedupPrefixLen is how much of the message text participates in the
	// dedup key. Near-duplicate lines that share a long prefix collapse to
	// one event.
	dedupPrefixLen = 50
)

// Broker routes events to per-session subscribers and suppresses duplicate
// shark lines. Safe for concurrent use.
type Broker struct {
	mu       sync.Mutex
	sessions map[string]*sessionStream

	// heartbeatEvery is the quiet period before a heartbeat frame.
	// Shortened in tests.
	heartbeatEvery time.Duration
}

type sessionStream struct {
	subs map[chan model.Event]struct{}

	// seen holds dedup keys for shark_message events in insertion order so
	// trimming can discard the oldest half.
	seen  map[string]struct{}
	order []string
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		sessions:       make(map[string]*sessionStream),
		heartbeatEvery: HeartbeatInterval,
	}
}

func (b *Broker) stream(sessionID string) *sessionStream {
	st, ok := b.sessions[sessionID]
	if !ok {
		st = &sessionStream{
			subs: make(map[chan model.Event]struct{}),
			seen: make(map[string]struct{}),
		}
		b.sessions[sessionID] = st
	}
	return st
}

// Publish delivers an event to every subscriber of the session. Duplicate
// shark_message events (same shark, same leading text) are dropped. Slow
// subscribers lose the event instead of stalling delivery to the rest.
func (b *Broker) Publish(sessionID string, evt model.Event) {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stream(sessionID)

	if evt.Type == model.EventSharkMessage {
		if msg, ok := evt.Data.(model.SharkMessageData); ok {
			key := dedupKey(sessionID, msg.SharkID, msg.Text)
			if _, dup := st.seen[key]; dup {
				slog.Debug("suppressing duplicate shark line", "session_id", sessionID, "shark_id", msg.SharkID)
				return
			}
			st.remember(key)
		}
	}

	for ch := range st.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (st *sessionStream) remember(key string) {
	st.seen[key] = struct{}{}
	st.order = append(st.order, key)
	if len(st.order) > dedupCapacity {
		cut := len(st.order) - dedupKeep
		for _, old := range st.order[:cut] {
			delete(st.seen, old)
		}
		st.order = append(st.order[:0], st.order[cut:]...)
	}
}

func dedupKey(sessionID, sharkID, text string) string {
	if len(text) > dedupPrefixLen {
		text = text[:dedupPrefixLen]
	}
	return sessionID + "-" + sharkID + "-" + text
}

// Subscribe attaches a new viewer to the session stream. The returned channel
// yields a connected frame first, then live events, with heartbeats when the
// stream is quiet. The channel closes when ctx is cancelled or the session is
// torn down. Events published before Subscribe are not replayed.
func (b *Broker) Subscribe(ctx context.Context, sessionID string) <-chan model.Event {
	ch := make(chan model.Event, subscriberBuffer)

	b.mu.Lock()
	st := b.stream(sessionID)
	st.subs[ch] = struct{}{}
	// Queued under the lock so a concurrent teardown cannot close ch first.
	ch <- model.Event{
		Type:      model.EventConnected,
		Data:      map[string]string{"sessionId": sessionID},
		Timestamp: time.Now().UnixMilli(),
	}
	b.mu.Unlock()

	out := make(chan model.Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer b.unsubscribe(sessionID, ch)

		heartbeat := time.NewTimer(b.heartbeatEvery)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
				// A delivered event counts as liveness; start the quiet
				// period over.
				if !heartbeat.Stop() {
					select {
					case <-heartbeat.C:
					default:
					}
				}
				heartbeat.Reset(b.heartbeatEvery)
			case <-heartbeat.C:
				select {
				case out <- model.Event{Type: model.EventHeartbeat, Timestamp: time.Now().UnixMilli()}:
				default:
				}
				heartbeat.Reset(b.heartbeatEvery)
			}
		}
	}()
	return out
}

func (b *Broker) unsubscribe(sessionID string, ch chan model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.sessions[sessionID]
	if !ok {
		return
	}
	delete(st.subs, ch)
	if len(st.subs) == 0 && len(st.seen) == 0 {
		delete(b.sessions, sessionID)
	}
}

// RemoveSession tears down all subscriber queues and dedup state for a
// session. Called when the reaper prunes the session record.
func (b *Broker) RemoveSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.sessions[sessionID]
	if !ok {
		return
	}
	for ch := range st.subs {
		close(ch)
	}
	delete(b.sessions, sessionID)
}

// Subscribers reports how many viewers are attached to a session.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(st.subs)
}
