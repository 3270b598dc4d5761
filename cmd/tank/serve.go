package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/ai"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/archive"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/config"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/events"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/server"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/session"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/shark"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/store"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/store/postgres"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/stream"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/tts"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/verify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tank server",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		// Load .env if present, then configuration.
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		personas, err := shark.LoadConfig()
		if err != nil {
			return err
		}
		engine := shark.NewEngine(personas, rand.New(rand.NewSource(time.Now().UnixNano())))

		sessions := session.NewStore()
		broker := stream.NewBroker()

		// Event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("event mirroring enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("event mirroring disabled (TANK_NATS_URL not set)")
		}

		// Leaderboard persistence.
		var leaderboard store.LeaderboardStore
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				publisher.Close()
				return err
			}
			leaderboard = pg
			logger.Info("leaderboard persistence enabled")
		} else {
			logger.Info("leaderboard disabled (TANK_DATABASE_URL not set)")
		}

		generator := ai.NewClient(personas, ai.Options{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		})
		if !generator.Enabled() {
			logger.Info("AI generation disabled, persona fallback lines in use")
		}
		speech := tts.NewClient(personas, tts.Options{APIKey: cfg.ElevenLabsAPIKey})
		if !speech.Enabled() {
			logger.Info("speech synthesis disabled, duration estimates only")
		}

		tankServer := server.NewTankServer(server.Deps{
			Sessions:    sessions,
			Broker:      broker,
			Engine:      engine,
			Generator:   generator,
			Speech:      speech,
			Publisher:   publisher,
			Leaderboard: leaderboard,
			Llama:       verify.NewLlamaClient("", nil),
			MRR:         verify.NewMRRClient("", nil),
		})

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: tankServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Reap abandoned sessions and tear down their event queues.
		reaperCtx, stopReaper := context.WithCancel(context.Background())
		go sessions.RunReaper(reaperCtx, cfg.SessionTTL, cfg.ReaperInterval, func(id string) {
			broker.RemoveSession(id)
			tankServer.Activity().Remove(id)
			_ = publisher.Publish(context.Background(), events.TopicSessionEnded, events.SessionEnded{
				SessionID: id,
				Outcome:   "expired",
			})
		})

		// Keep the activity board fresh.
		tankServer.Activity().StartReaper(nil)

		// Archive closed sessions to S3 when configured.
		var scheduler *archive.Scheduler
		if cfg.ArchiveInterval > 0 && cfg.ArchiveS3Bucket != "" {
			dest, err := archive.NewS3Destination(
				context.Background(),
				cfg.ArchiveS3Bucket,
				cfg.ArchiveS3Key,
				cfg.ArchiveS3Region,
				cfg.ArchiveS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 archive destination", "err", err)
			} else {
				scheduler = archive.NewScheduler(sessions, []archive.Destination{dest}, cfg.ArchiveInterval, logger)
				scheduler.Start()
				logger.Info("archive scheduler started", "interval", cfg.ArchiveInterval, "bucket", cfg.ArchiveS3Bucket)
			}
		}

		logger.Info("tank server started", "http_addr", cfg.HTTPAddr, "session_ttl", cfg.SessionTTL)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		stopReaper()
		tankServer.Activity().Stop()
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("archive scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if leaderboard != nil {
			if err := leaderboard.Close(); err != nil {
				logger.Error("error closing leaderboard store", "err", err)
			}
		}

		logger.Info("shutdown complete")
		return nil
	},
}
