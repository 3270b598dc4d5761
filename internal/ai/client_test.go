package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/shark"
)

func testPersonas(t *testing.T) *shark.Config {
	t.Helper()
	cfg, err := shark.LoadConfig()
	if err != nil {
		t.Fatalf("loading personas: %v", err)
	}
	return cfg
}

func textResponse(text string) string {
	resp := map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testPersonas(t), Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		RetryDelay: time.Millisecond,
	})
}

func testSession() *model.Session {
	return &model.Session{
		ID: "st-test",
		PitchData: model.PitchData{
			CompanyName:   "CloudKitchen",
			AmountRaising: 150_000,
			EquityPercent: 12,
			ProofType:     model.ProofRevenue,
			ProofValue:    "250000",
		},
		Phase: model.PhaseQA,
		Transcript: []model.TranscriptLine{
			{Text: "We make ghost kitchens profitable."},
		},
		QATranscript: []model.QAMessage{
			{Speaker: "Marcus Cole", Text: "What are your margins?", IsShark: true},
			{Speaker: "You", Text: "Forty percent gross."},
		},
	}
}

func TestGenerateResponse_Success(t *testing.T) {
	var gotReq messagesRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("anthropic-version header missing")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(textResponse("  What's your customer acquisition cost?  ")))
	})

	got := c.GenerateResponse(context.Background(), "marcus", testSession(), 62, "We spend nothing on ads.")
	if got != "What's your customer acquisition cost?" {
		t.Errorf("response = %q", got)
	}

	if gotReq.System == "" {
		t.Error("system prompt not sent")
	}
	if len(gotReq.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(gotReq.Messages))
	}
	prompt := gotReq.Messages[0].Content
	for _, want := range []string{"CloudKitchen", "$150000", "62/100", "We spend nothing on ads."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateResponse_NoAPIKey(t *testing.T) {
	c := NewClient(testPersonas(t), Options{})

	got := c.GenerateResponse(context.Background(), "victor", testSession(), 50, "")
	p, _ := testPersonas(t).Persona("victor")
	found := false
	for _, q := range p.FallbackQuestions {
		if got == q {
			found = true
		}
	}
	if !found {
		t.Errorf("fallback %q not from victor's pool", got)
	}
}

func TestGenerateResponse_RetriesTransportErrors(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			// Kill the connection mid-request to force a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("hijacking unsupported")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
			return
		}
		w.Write([]byte(textResponse("Third time lucky.")))
	})

	got := c.GenerateResponse(context.Background(), "marcus", testSession(), 50, "")
	if got != "Third time lucky." {
		t.Errorf("response = %q, want success on third attempt", got)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestGenerateResponse_ExhaustedRetriesFallBack(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	})

	got := c.GenerateResponse(context.Background(), "elena", testSession(), 50, "")
	if got == "" {
		t.Fatal("expected fallback response")
	}
	if n := attempts.Load(); n != defaultMaxRetries {
		t.Errorf("attempts = %d, want %d", n, defaultMaxRetries)
	}
}

func TestGenerateResponse_FailFastStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests} {
		var attempts atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(status)
		})

		got := c.GenerateResponse(context.Background(), "daniel", testSession(), 50, "")
		if got == "" {
			t.Errorf("status %d: expected fallback response", status)
		}
		if n := attempts.Load(); n != 1 {
			t.Errorf("status %d: attempts = %d, want 1 (no retry)", status, n)
		}
	}
}

func TestGenerateDecline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textResponse("You're walking away from a great partner. Good luck.")))
	})

	offer := model.Offer{SharkID: "marcus", Amount: 200_000, Equity: 25}
	got := c.GenerateDecline(context.Background(), "marcus", offer)
	if !strings.Contains(got, "walking away") {
		t.Errorf("decline = %q", got)
	}
}

func TestGenerateDecline_FallbackOnServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := c.GenerateDecline(context.Background(), "victor", model.Offer{})
	p, _ := testPersonas(t).Persona("victor")
	if got != p.DeclineFallback {
		t.Errorf("decline = %q, want persona fallback %q", got, p.DeclineFallback)
	}
}

func TestGenerateCounterReply_Classification(t *testing.T) {
	tests := []struct {
		reply       string
		wantAccepts bool
	}{
		{"You've got a deal! Let's make some money.", true},
		{"No deal. My original terms stand.", false},
		{"I need to see more traction before I move.", false},
	}

	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(textResponse(tt.reply)))
		})
		text, accepts := c.GenerateCounterReply(context.Background(), "richard",
			model.Offer{Amount: 200_000, Equity: 20}, model.CounterTerms{Amount: 200_000, Equity: 15})
		if text != tt.reply {
			t.Errorf("text = %q, want %q", text, tt.reply)
		}
		if accepts != tt.wantAccepts {
			t.Errorf("accepts(%q) = %v, want %v", tt.reply, accepts, tt.wantAccepts)
		}
	}
}

func TestGenerateCounterReply_FailureNeverAccepts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	text, accepts := c.GenerateCounterReply(context.Background(), "daniel",
		model.Offer{Amount: 100_000, Equity: 10}, model.CounterTerms{})
	if accepts {
		t.Error("accepts = true on generation failure")
	}
	if text == "" {
		t.Error("expected fallback text")
	}
}

func TestPromptFormatting(t *testing.T) {
	sess := testSession()
	prompt := buildReactionPrompt(sess, 70, "")

	if strings.Contains(prompt, "JUST SAID") {
		t.Error("empty user message leaked into prompt")
	}
	if !strings.Contains(prompt, "- We make ghost kitchens profitable.") {
		t.Error("transcript line missing")
	}
	if !strings.Contains(prompt, "Marcus Cole: What are your margins?") {
		t.Error("conversation context missing")
	}

	empty := buildReactionPrompt(&model.Session{}, 50, "")
	if !strings.Contains(empty, "(No transcript available)") {
		t.Error("empty transcript placeholder missing")
	}
	if !strings.Contains(empty, "(Start of Q&A session)") {
		t.Error("empty context placeholder missing")
	}
}

func TestFormatContext_Window(t *testing.T) {
	qa := make([]model.QAMessage, 15)
	for i := range qa {
		qa[i] = model.QAMessage{Speaker: "You", Text: strings.Repeat("x", i+1)}
	}
	got := formatContext(qa)
	if n := strings.Count(got, "\n") + 1; n != contextWindow {
		t.Errorf("context lines = %d, want %d", n, contextWindow)
	}
	// The oldest messages fall out of the window, the newest stays.
	if strings.Contains(got, "You: x\n") {
		t.Error("oldest message survived the window")
	}
	if !strings.Contains(got, strings.Repeat("x", 15)) {
		t.Error("newest message missing from the window")
	}
}
