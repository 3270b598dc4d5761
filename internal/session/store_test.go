package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

func testPitch() model.PitchData {
	return model.PitchData{
		CompanyName:   "CloudKitchen",
		AmountRaising: 150_000,
		EquityPercent: 12,
		ProofType:     model.ProofRevenue,
		ProofValue:    "250000",
	}
}

func mustCreate(t *testing.T, s *Store) string {
	t.Helper()
	id, err := s.Create(testPitch(), "user-1", "@founder")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return id
}

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)

	sess, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if sess.Phase != model.PhasePitch {
		t.Errorf("new session phase = %v, want pitch", sess.Phase)
	}
	if sess.PitchData.CompanyName != "CloudKitchen" {
		t.Errorf("pitch data not stored: %+v", sess.PitchData)
	}
	if sess.TwitterHandle != "@founder" {
		t.Errorf("twitter handle = %q", sess.TwitterHandle)
	}

	if _, err := s.Get("st-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	s.PutShark(id, &model.SharkState{ID: "marcus", Name: "Marcus Cole", Status: model.SharkLive, Confidence: 50})

	snap, _ := s.Get(id)
	snap.Sharks["marcus"].Confidence = 0
	snap.QATranscript = append(snap.QATranscript, model.QAMessage{Text: "tampered"})

	fresh, _ := s.Get(id)
	if fresh.Sharks["marcus"].Confidence != 50 {
		t.Error("snapshot mutation leaked into store")
	}
	if len(fresh.QATranscript) != 0 {
		t.Error("snapshot transcript append leaked into store")
	}
}

func TestSetPhase_Monotonic(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)

	if !s.SetPhase(id, model.PhaseQA) {
		t.Fatal("pitch -> qa refused")
	}
	if !s.SetPhase(id, model.PhaseOffers) {
		t.Fatal("qa -> offers refused")
	}
	if s.SetPhase(id, model.PhaseQA) {
		t.Error("offers -> qa allowed, want refused")
	}
	if !s.SetPhase(id, model.PhaseClosed) {
		t.Fatal("offers -> closed refused")
	}
	if s.SetPhase(id, model.PhaseOffers) {
		t.Error("closed -> offers allowed, want refused")
	}

	sess, _ := s.Get(id)
	if sess.Phase != model.PhaseClosed {
		t.Errorf("final phase = %v, want closed", sess.Phase)
	}
}

func TestSetPhase_SkipAllowed(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	// A session can close straight from pitch (abandoned or timed out).
	if !s.SetPhase(id, model.PhaseClosed) {
		t.Error("pitch -> closed refused")
	}
}

func TestUpdateShark_ClampsConfidence(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	s.PutShark(id, &model.SharkState{ID: "victor", Status: model.SharkLive, Confidence: 10})

	s.UpdateShark(id, "victor", func(st *model.SharkState) { st.Confidence -= 15 })
	if st, _ := s.Shark(id, "victor"); st.Confidence != 0 {
		t.Errorf("confidence = %d, want clamped to 0", st.Confidence)
	}

	s.UpdateShark(id, "victor", func(st *model.SharkState) { st.Confidence = 250 })
	if st, _ := s.Shark(id, "victor"); st.Confidence != 100 {
		t.Errorf("confidence = %d, want clamped to 100", st.Confidence)
	}
}

func TestLiveSharks(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	s.PutShark(id, &model.SharkState{ID: "marcus", Status: model.SharkLive})
	s.PutShark(id, &model.SharkState{ID: "victor", Status: model.SharkOut})
	s.PutShark(id, &model.SharkState{ID: "elena", Status: model.SharkLive})

	live := s.LiveSharks(id)
	if len(live) != 2 {
		t.Fatalf("LiveSharks = %d sharks, want 2", len(live))
	}
	for _, st := range live {
		if st.Status != model.SharkLive {
			t.Errorf("shark %s status = %v", st.ID, st.Status)
		}
	}
}

func TestOfferLifecycle(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	s.PutShark(id, &model.SharkState{ID: "marcus", Status: model.SharkLive})

	offerID, err := s.AddOffer(id, &model.Offer{SharkID: "marcus", SharkName: "Marcus Cole", Amount: 150_000, Equity: 20})
	if err != nil {
		t.Fatalf("AddOffer() error: %v", err)
	}

	o, ok := s.Offer(id, offerID)
	if !ok {
		t.Fatal("offer not found after add")
	}
	if o.Status != model.OfferPending {
		t.Errorf("new offer status = %v, want pending", o.Status)
	}
	if o.Timestamp == 0 {
		t.Error("offer timestamp not stamped")
	}

	st, _ := s.Shark(id, "marcus")
	if !st.HasOffered || st.CurrentOffer == nil {
		t.Error("shark state not updated with offer")
	}

	if !s.SetOfferStatus(id, offerID, model.OfferDeclined) {
		t.Fatal("SetOfferStatus failed")
	}
	if o, _ = s.Offer(id, offerID); o.Status != model.OfferDeclined {
		t.Errorf("offer status = %v, want declined", o.Status)
	}

	if s.SetOfferStatus(id, "of-missing", model.OfferAccepted) {
		t.Error("SetOfferStatus on unknown offer succeeded")
	}
}

func TestCloseDeal_Idempotent(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)

	first := &model.Offer{ID: "of-1", SharkID: "marcus", Amount: 150_000, Equity: 20}
	if err := s.CloseDeal(id, first); err != nil {
		t.Fatalf("CloseDeal() error: %v", err)
	}

	second := &model.Offer{ID: "of-2", SharkID: "elena", Amount: 999_999, Equity: 5}
	if err := s.CloseDeal(id, second); !errors.Is(err, ErrClosed) {
		t.Fatalf("second CloseDeal() error = %v, want ErrClosed", err)
	}

	sess, _ := s.Get(id)
	if sess.Phase != model.PhaseClosed {
		t.Errorf("phase = %v, want closed", sess.Phase)
	}
	if sess.FinalDeal == nil || sess.FinalDeal.ID != "of-1" {
		t.Errorf("final deal = %+v, want first offer preserved", sess.FinalDeal)
	}
	if sess.FinalDeal.Status != model.OfferAccepted {
		t.Errorf("final deal status = %v, want accepted", sess.FinalDeal.Status)
	}
}

func TestMutationsAgainstPrunedSession(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	s.Delete(id)

	if s.SetPhase(id, model.PhaseQA) {
		t.Error("SetPhase on pruned session returned true")
	}
	if s.AddQAMessage(id, model.QAMessage{Text: "anyone there?"}) {
		t.Error("AddQAMessage on pruned session returned true")
	}
	if s.UpdateShark(id, "marcus", func(*model.SharkState) {}) {
		t.Error("UpdateShark on pruned session returned true")
	}
	if _, err := s.AddOffer(id, &model.Offer{SharkID: "marcus"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddOffer error = %v, want ErrNotFound", err)
	}
	if err := s.CloseDeal(id, &model.Offer{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CloseDeal error = %v, want ErrNotFound", err)
	}
}

func TestPruneOlderThan(t *testing.T) {
	s := NewStore()
	oldID := mustCreate(t, s)
	newID := mustCreate(t, s)

	s.mu.Lock()
	s.sessions[oldID].CreatedAt = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	pruned := s.PruneOlderThan(DefaultTTL)
	if len(pruned) != 1 || pruned[0] != oldID {
		t.Fatalf("pruned = %v, want [%s]", pruned, oldID)
	}
	if _, err := s.Get(oldID); !errors.Is(err, ErrNotFound) {
		t.Error("expired session still retrievable")
	}
	if _, err := s.Get(newID); err != nil {
		t.Errorf("fresh session pruned: %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	id := mustCreate(t, s)
	s.PutShark(id, &model.SharkState{ID: "marcus", Status: model.SharkLive, Confidence: 50})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AddQAMessage(id, model.QAMessage{Speaker: "You", Text: "question"})
			s.UpdateShark(id, "marcus", func(st *model.SharkState) { st.QuestionCount++ })
		}()
		go func() {
			defer wg.Done()
			s.Get(id)
			s.LiveSharks(id)
		}()
	}
	wg.Wait()

	sess, _ := s.Get(id)
	if len(sess.QATranscript) != 20 {
		t.Errorf("qa transcript = %d lines, want 20", len(sess.QATranscript))
	}
	if sess.Sharks["marcus"].QuestionCount != 20 {
		t.Errorf("question count = %d, want 20", sess.Sharks["marcus"].QuestionCount)
	}
}
