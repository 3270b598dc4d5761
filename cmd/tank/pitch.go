package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/client"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/ui"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/verify"
)

var (
	pitchCompany     string
	pitchAsk         int64
	pitchEquity      float64
	pitchDescription string
	pitchProofType   string
	pitchProofValue  string
	pitchWhyNow      string
	pitchUserID      string
	pitchTwitter     string
)

var pitchCmd = &cobra.Command{
	Use:   "pitch",
	Short: "Run an interactive pitch session against the panel",
	Long: `Starts a session, reads your pitch from stdin one line at a time
(finish with a single "." on its own line), then drops into Q&A.

During Q&A, plain lines are sent to the sharks. Commands:
  /offers                     list pending offers
  /panel                      show the panel and confidence scores
  /accept <offer-id>          accept an offer
  /decline <offer-id>         decline an offer
  /counter <offer-id> <amount> <equity%>   counter an offer
  /quit                       leave the tank`,
	RunE: runPitch,
}

func init() {
	pitchCmd.Flags().StringVar(&pitchCompany, "company", "", "company name (required)")
	pitchCmd.Flags().Int64Var(&pitchAsk, "ask", 0, "amount raising in dollars (required)")
	pitchCmd.Flags().Float64Var(&pitchEquity, "equity", 0, "equity offered, percent")
	pitchCmd.Flags().StringVar(&pitchDescription, "description", "", "what the company does")
	pitchCmd.Flags().StringVar(&pitchProofType, "proof-type", "idea", "traction proof: revenue, users, customers, idea")
	pitchCmd.Flags().StringVar(&pitchProofValue, "proof-value", "", "traction figure, e.g. \"12000 MRR\"")
	pitchCmd.Flags().StringVar(&pitchWhyNow, "why-now", "", "why this is the moment")
	pitchCmd.Flags().StringVar(&pitchUserID, "user", "", "user ID for rate limiting and the leaderboard")
	pitchCmd.Flags().StringVar(&pitchTwitter, "twitter", "", "Twitter handle for verification")
	pitchCmd.MarkFlagRequired("company")
	pitchCmd.MarkFlagRequired("ask")
}

func runPitch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resp, err := tank.StartSession(ctx, &client.StartSessionRequest{
		PitchData: model.PitchData{
			CompanyName:        pitchCompany,
			AmountRaising:      pitchAsk,
			EquityPercent:      pitchEquity,
			CompanyDescription: pitchDescription,
			ProofType:          model.ProofType(pitchProofType),
			ProofValue:         pitchProofValue,
			WhyNow:             pitchWhyNow,
		},
		UserID:        pitchUserID,
		TwitterHandle: pitchTwitter,
	})
	if err != nil {
		return err
	}
	sessionID := resp.SessionID

	fmt.Printf("Session %s. The panel:\n", sessionID)
	for _, s := range resp.Sharks {
		fmt.Printf("  %s\n", ui.RenderShark(s.Name))
	}

	events, err := tank.StreamEvents(ctx, sessionID)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range events {
			printEvent(evt)
		}
	}()

	// Deliver the pitch.
	fmt.Println("\nDeliver your pitch. End with a single \".\" on its own line.")
	scanner := bufio.NewScanner(os.Stdin)
	var transcript []model.TranscriptLine
	start := time.Now()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "." {
			break
		}
		if line == "" {
			continue
		}
		transcript = append(transcript, model.TranscriptLine{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(transcript) == 0 {
		return fmt.Errorf("no pitch delivered")
	}

	complete, err := tank.PitchComplete(ctx, sessionID, &client.PitchCompleteRequest{
		Transcript:    transcript,
		PitchDuration: int(time.Since(start).Seconds()),
	})
	if err != nil {
		return err
	}
	fmt.Println("\nThe sharks have heard your pitch.")
	for id, score := range complete.ConfidenceScores {
		fmt.Printf("  %-12s %3d %s\n", id, score, ui.ConfidenceBar(score))
	}
	fmt.Println("\nQ&A is open. Type to answer, /quit to leave.")

	// Q&A loop.
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := runPitchCommand(ctx, sessionID, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if quit {
				break
			}
			continue
		}
		if err := tank.SendUserMessage(ctx, sessionID, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return scanner.Err()
}

// runPitchCommand handles a /slash command during Q&A. It returns true when
// the session should end.
func runPitchCommand(ctx context.Context, sessionID, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true, nil

	case "/panel":
		sess, err := tank.GetSession(ctx, sessionID)
		if err != nil {
			return false, err
		}
		printPanel(sess.Sharks)
		return false, nil

	case "/offers":
		sess, err := tank.GetSession(ctx, sessionID)
		if err != nil {
			return false, err
		}
		pending := 0
		for _, o := range sess.Offers {
			if o.Status == model.OfferPending {
				printOffer(o)
				pending++
			}
		}
		if pending == 0 {
			fmt.Println("No pending offers.")
		}
		return false, nil

	case "/accept", "/decline":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: %s <offer-id>", fields[0])
		}
		result, err := tank.RespondToOffer(ctx, sessionID, &client.OfferResponseRequest{
			OfferID: fields[1],
			Action:  strings.TrimPrefix(fields[0], "/"),
		})
		if err != nil {
			return false, err
		}
		if result.Result == "deal_closed" {
			return true, nil
		}
		fmt.Printf("Offer %s: %s\n", fields[1], result.Result)
		return false, nil

	case "/counter":
		if len(fields) != 4 {
			return false, fmt.Errorf("usage: /counter <offer-id> <amount> <equity%%>")
		}
		amount, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return false, fmt.Errorf("bad amount %q", fields[2])
		}
		equity, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "%"), 64)
		if err != nil {
			return false, fmt.Errorf("bad equity %q", fields[3])
		}
		result, err := tank.RespondToOffer(ctx, sessionID, &client.OfferResponseRequest{
			OfferID:      fields[1],
			Action:       "counter",
			CounterTerms: model.CounterTerms{Amount: amount, Equity: equity},
		})
		if err != nil {
			return false, err
		}
		fmt.Printf("Countered with %s for %.1f%%: %s\n", verify.FormatUSD(float64(amount)), equity, result.Result)
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}

// printEvent renders one stream frame for the terminal.
func printEvent(evt model.Event) {
	switch evt.Type {
	case model.EventConnected, model.EventHeartbeat, model.EventSharkSpeaking:
		return

	case model.EventSharkThinking:
		var d struct {
			SharkName string `json:"sharkName"`
		}
		decodeEventData(evt, &d)
		fmt.Println(ui.RenderMuted(fmt.Sprintf("  %s is thinking...", d.SharkName)))

	case model.EventSharkMessage:
		var d model.SharkMessageData
		decodeEventData(evt, &d)
		fmt.Printf("%s: %s\n", ui.RenderShark(d.SharkName), d.Text)

	case model.EventSharkOffer:
		var d struct {
			Offer *model.Offer `json:"offer"`
		}
		decodeEventData(evt, &d)
		if d.Offer != nil {
			fmt.Print(ui.RenderDeal("OFFER  "))
			printOffer(d.Offer)
		}

	case model.EventSharkOut:
		var d struct {
			SharkName string `json:"sharkName"`
			Message   string `json:"message"`
		}
		decodeEventData(evt, &d)
		fmt.Printf("%s %s: %s\n", ui.RenderOut("OUT"), d.SharkName, d.Message)

	case model.EventDealClosed:
		var d struct {
			SharkName string       `json:"sharkName"`
			Offer     *model.Offer `json:"offer"`
		}
		decodeEventData(evt, &d)
		if d.Offer != nil {
			fmt.Printf("%s %s invests %s for %.1f%% equity. Congratulations.\n",
				ui.RenderDeal("DEAL"), d.SharkName, verify.FormatUSD(float64(d.Offer.Amount)), d.Offer.Equity)
		} else {
			fmt.Printf("%s with %s\n", ui.RenderDeal("DEAL"), d.SharkName)
		}
	}
}

// decodeEventData round-trips an event's loosely typed payload into dst.
func decodeEventData(evt model.Event, dst any) {
	raw, err := json.Marshal(evt.Data)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, dst)
}
