package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	err := pub.Publish(context.Background(), TopicSessionStarted, SessionStarted{})
	if err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
}

func TestNoopPublisher_Close(t *testing.T) {
	pub := &NoopPublisher{}
	err := pub.Close()
	if err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestNoopPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
}

func TestNATSPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	// Subscribe to capture published messages.
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(TopicOfferMade, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := OfferMade{
		SessionID: "st-pub1",
		Offer:     &model.Offer{ID: "of-1", SharkID: "marcus", Amount: 150_000, Equity: 20},
	}
	if err := pub.Publish(context.Background(), TopicOfferMade, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		var got OfferMade
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.SessionID != "st-pub1" || got.Offer.ID != "of-1" {
			t.Errorf("got session=%q offer=%q, want st-pub1/of-1", got.SessionID, got.Offer.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_PublishMultipleTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe("tank.>", ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	for _, tc := range []struct {
		topic string
		event any
	}{
		{TopicSessionStarted, SessionStarted{SessionID: "st-1"}},
		{TopicPhaseChanged, PhaseChanged{SessionID: "st-1", Phase: model.PhaseQA}},
		{TopicSharkOut, SharkOut{SessionID: "st-1", SharkID: "victor", Reason: "I'm out."}},
		{TopicDealClosed, DealClosed{SessionID: "st-1", Deal: &model.Offer{ID: "of-9"}}},
	} {
		if err := pub.Publish(context.Background(), tc.topic, tc.event); err != nil {
			t.Fatalf("Publish(%s): %v", tc.topic, err)
		}
	}
	pub.conn.Flush()

	for i := 0; i < 4; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Publishing after close should fail.
	err = pub.Publish(context.Background(), TopicSessionStarted, SessionStarted{})
	if err == nil {
		t.Error("expected error publishing after close")
	}
}

func TestNATSPublisher_RejectsForeignTopic(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	err = pub.Publish(context.Background(), "orders.created", SessionStarted{SessionID: "st-x"})
	if err == nil {
		t.Fatal("expected error for topic outside the tank namespace")
	}

	// Every declared topic lives under the namespace the publisher enforces.
	for _, topic := range []string{
		TopicSessionStarted, TopicPhaseChanged, TopicSharkMessage, TopicSharkOut,
		TopicOfferMade, TopicOfferDeclined, TopicOfferCountered, TopicDealClosed,
		TopicSessionEnded,
	} {
		if err := pub.Publish(context.Background(), topic, SessionStarted{SessionID: "st-x"}); err != nil {
			t.Errorf("Publish(%s) error: %v", topic, err)
		}
	}
}
