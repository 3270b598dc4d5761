// Package session holds the authoritative in-memory record of pitch runs.
// Sessions are not durable; a process restart loses them, and a TTL reaper
// bounds memory for abandoned runs.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/idgen"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// ErrNotFound is returned when a session ID is absent from the store.
var ErrNotFound = errors.New("session not found")

// ErrClosed is returned for operations against an already-closed session.
var ErrClosed = errors.New("session already closed")

// DefaultTTL is how long an abandoned session survives before the reaper
// prunes it.
const DefaultTTL = 24 * time.Hour

// defaultPitchDuration is the pitch clock in seconds.
const defaultPitchDuration = 180

// Store owns all live sessions. All access goes through operation-level
// methods; the session map and every session's mutable fields are guarded by
// a single mutex so concurrent background tasks cannot interleave partial
// updates. Mutations against pruned sessions are no-ops.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*model.Session)}
}

// Create registers a new session for the given pitch and returns its ID.
func (s *Store) Create(pitch model.PitchData, userID, twitterHandle string) (string, error) {
	id, err := idgen.Generate()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &model.Session{
		ID:            id,
		UserID:        userID,
		TwitterHandle: twitterHandle,
		PitchData:     pitch,
		Phase:         model.PhasePitch,
		Transcript:    []model.TranscriptLine{},
		QATranscript:  []model.QAMessage{},
		Sharks:        make(map[string]*model.SharkState),
		Offers:        []*model.Offer{},
		CounterOffers: []*model.CounterOffer{},
		CreatedAt:     time.Now(),
		PitchDuration: defaultPitchDuration,
	}
	return id, nil
}

// Get returns a snapshot copy of a session. The snapshot shares no mutable
// slices or maps with the stored record, so callers can read it without
// holding the store lock.
func (s *Store) Get(id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(sess), nil
}

func snapshot(sess *model.Session) *model.Session {
	cp := *sess
	cp.Transcript = append([]model.TranscriptLine(nil), sess.Transcript...)
	cp.QATranscript = append([]model.QAMessage(nil), sess.QATranscript...)
	cp.Offers = make([]*model.Offer, len(sess.Offers))
	for i, o := range sess.Offers {
		oc := *o
		cp.Offers[i] = &oc
	}
	cp.CounterOffers = append([]*model.CounterOffer(nil), sess.CounterOffers...)
	cp.Sharks = make(map[string]*model.SharkState, len(sess.Sharks))
	for id, st := range sess.Sharks {
		sc := *st
		cp.Sharks[id] = &sc
	}
	if sess.FinalDeal != nil {
		fd := *sess.FinalDeal
		cp.FinalDeal = &fd
	}
	if sess.Verification != nil {
		v := *sess.Verification
		cp.Verification = &v
	}
	return &cp
}

// SetPhase advances the session phase. Backward transitions are refused:
// phases are monotonic and closed is terminal.
func (s *Store) SetPhase(id string, phase model.Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	if !sess.Phase.CanAdvanceTo(phase) {
		slog.Warn("refusing phase regression", "session_id", id, "from", sess.Phase, "to", phase)
		return false
	}
	sess.Phase = phase
	return true
}

// SetTranscript stores the pitch transcript.
func (s *Store) SetTranscript(id string, transcript []model.TranscriptLine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Transcript = append([]model.TranscriptLine(nil), transcript...)
	return true
}

// SetPitchDuration records the reported length of the pitch in seconds.
func (s *Store) SetPitchDuration(id string, seconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	if seconds > 0 {
		sess.PitchDuration = seconds
	}
	return true
}

// SetVerification attaches a third-party verification result to the session.
func (s *Store) SetVerification(id string, v *model.Verification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Verification = v
	return true
}

// AddQAMessage appends a message to the Q&A transcript, stamping it.
func (s *Store) AddQAMessage(id string, msg model.QAMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	msg.Timestamp = time.Now().UnixMilli()
	sess.QATranscript = append(sess.QATranscript, msg)
	return true
}

// PutShark installs or replaces a shark's state record.
func (s *Store) PutShark(id string, state *model.SharkState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sc := *state
	sess.Sharks[state.ID] = &sc
	return true
}

// Shark returns a copy of one shark's state.
func (s *Store) Shark(id, sharkID string) (model.SharkState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.SharkState{}, false
	}
	st, ok := sess.Sharks[sharkID]
	if !ok {
		return model.SharkState{}, false
	}
	return *st, true
}

// UpdateShark applies fn to a shark's state under the store lock. Reads and
// writes of confidence/status are atomic relative to each other because every
// mutation funnels through here.
func (s *Store) UpdateShark(id, sharkID string, fn func(*model.SharkState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	st, ok := sess.Sharks[sharkID]
	if !ok {
		return false
	}
	fn(st)
	st.Confidence = clamp(st.Confidence)
	return true
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// LiveSharks returns copies of all sharks still in the negotiation.
func (s *Store) LiveSharks(id string) []model.SharkState {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	var live []model.SharkState
	for _, st := range sess.Sharks {
		if st.Status == model.SharkLive {
			live = append(live, *st)
		}
	}
	return live
}

// AddOffer stamps and appends an offer, returning its assigned ID.
func (s *Store) AddOffer(id string, offer *model.Offer) (string, error) {
	offerID, err := idgen.GenerateWithPrefix("of-")
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", ErrNotFound
	}
	oc := *offer
	oc.ID = offerID
	oc.Status = model.OfferPending
	oc.Timestamp = time.Now().UnixMilli()
	sess.Offers = append(sess.Offers, &oc)
	if st, ok := sess.Sharks[oc.SharkID]; ok {
		st.HasOffered = true
		cur := oc
		st.CurrentOffer = &cur
	}
	return offerID, nil
}

// Offer returns a copy of one offer.
func (s *Store) Offer(id, offerID string) (model.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.Offer{}, false
	}
	for _, o := range sess.Offers {
		if o.ID == offerID {
			return *o, true
		}
	}
	return model.Offer{}, false
}

// SetOfferStatus updates an offer's lifecycle state.
func (s *Store) SetOfferStatus(id, offerID string, status model.OfferStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	for _, o := range sess.Offers {
		if o.ID == offerID {
			o.Status = status
			return true
		}
	}
	return false
}

// AddCounterOffer stamps and appends a user counter-offer.
func (s *Store) AddCounterOffer(id string, counter *model.CounterOffer) (string, error) {
	counterID, err := idgen.GenerateWithPrefix("co-")
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", ErrNotFound
	}
	cc := *counter
	cc.ID = counterID
	cc.Timestamp = time.Now().UnixMilli()
	sess.CounterOffers = append(sess.CounterOffers, &cc)
	return counterID, nil
}

// CloseDeal records the final accepted offer and closes the session. Once a
// deal is set the session never reopens; a second close fails with ErrClosed
// and leaves the original deal untouched.
func (s *Store) CloseDeal(id string, deal *model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.Phase == model.PhaseClosed || sess.FinalDeal != nil {
		return ErrClosed
	}
	dc := *deal
	dc.Status = model.OfferAccepted
	sess.FinalDeal = &dc
	sess.Phase = model.PhaseClosed
	return nil
}

// Delete removes a session. In-flight background tasks holding the ID will
// find their subsequent mutations become no-ops.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// PruneOlderThan deletes sessions created before the cutoff age and returns
// the pruned IDs so callers can tear down attached resources (event queues).
func (s *Store) PruneOlderThan(maxAge time.Duration) []string {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned []string
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			pruned = append(pruned, id)
		}
	}
	return pruned
}

// ClosedSessions returns snapshots of every session that has reached the
// closed phase, sorted by ID.
func (s *Store) ClosedSessions() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var closed []*model.Session
	for _, sess := range s.sessions {
		if sess.Phase == model.PhaseClosed {
			closed = append(closed, snapshot(sess))
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].ID < closed[j].ID })
	return closed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RunReaper prunes expired sessions every interval until ctx is cancelled.
// onPrune (optional) is invoked with each pruned ID.
func (s *Store) RunReaper(ctx context.Context, ttl, interval time.Duration, onPrune func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := s.PruneOlderThan(ttl)
			if len(pruned) > 0 {
				slog.Info("reaped expired sessions", "count", len(pruned), "ttl", ttl)
			}
			if onPrune != nil {
				for _, id := range pruned {
					onPrune(id)
				}
			}
		}
	}
}
