package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/events"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/ui"
)

var (
	watchTopic   string
	watchSession string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch live tank activity",
	Long: `Watches session events as they happen.

With TANK_NATS_URL set, subscribes to the server's event bus and prints
every mirrored event (all sessions). With --session, streams a single
session's events over HTTP instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if watchSession != "" {
			return watchHTTP(ctx, watchSession)
		}

		natsURL := os.Getenv("TANK_NATS_URL")
		if natsURL == "" {
			return fmt.Errorf("set TANK_NATS_URL or pass --session <id>")
		}
		return watchNATS(ctx, natsURL, watchTopic)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchTopic, "topic", events.SessionWildcard, "NATS subject filter")
	watchCmd.Flags().StringVar(&watchSession, "session", "", "stream one session over HTTP instead of NATS")
}

// watchNATS tails mirrored events from the bus across all sessions.
func watchNATS(ctx context.Context, natsURL, topic string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Printf("Watching %s on %s. Ctrl-C to stop.\n", topic, natsURL)
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			printBusEvent(payload)
		}
	}
}

// watchHTTP streams one session's event frames over the HTTP API.
func watchHTTP(ctx context.Context, sessionID string) error {
	ch, err := tank.StreamEvents(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("Watching session %s. Ctrl-C to stop.\n", sessionID)
	for evt := range ch {
		if jsonOutput {
			printJSON(evt)
			continue
		}
		printEvent(evt)
	}
	return nil
}

// printBusEvent renders one raw payload from the NATS mirror. Payloads are
// plain event JSON; the session ID is pulled out for the prefix when present.
func printBusEvent(payload []byte) {
	if jsonOutput {
		fmt.Println(string(payload))
		return
	}
	var fields struct {
		SessionID string `json:"session_id"`
	}
	_ = json.Unmarshal(payload, &fields)
	ts := time.Now().Format(time.TimeOnly)
	if fields.SessionID != "" {
		fmt.Printf("%s %s %s\n", ui.RenderMuted(ts), ui.RenderShark(fields.SessionID), string(payload))
		return
	}
	fmt.Printf("%s %s\n", ui.RenderMuted(ts), string(payload))
}
