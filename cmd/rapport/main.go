package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/api"
	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/collect"
	"github.com/rapport-labs/rapport/internal/config"
	"github.com/rapport-labs/rapport/internal/events"
	"github.com/rapport-labs/rapport/internal/llm"
	"github.com/rapport-labs/rapport/internal/oracle"
	"github.com/rapport-labs/rapport/internal/qa"
	"github.com/rapport-labs/rapport/internal/selfvalue"
	"github.com/rapport-labs/rapport/internal/store"
	"github.com/rapport-labs/rapport/internal/workers"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("rapport starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// LLM client
	if cfg.LLMAPIKey == "" {
		slog.Error("LLM_API_KEY is required")
		os.Exit(1)
	}
	client := llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMChatModel, cfg.LLMReasonerModel)
	slog.Info("llm client ready", "chat_model", cfg.LLMChatModel, "reasoner_model", cfg.LLMReasonerModel)

	// Oracle
	orc := oracle.New(client, slog.Default())

	// NATS event bus
	bus, err := events.Connect(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Background pool and scorer
	pool := workers.NewPool(cfg.ScoreWorkers, slog.Default())
	scorer := selfvalue.NewCalculator(client, slog.Default())

	// Collection engines, one per perspective
	engines := api.Engines{
		Contact: collect.NewEngine(catalog.New(catalog.PerspectiveContact), orc, db, db, scorer, bus, pool, slog.Default()),
		Self:    collect.NewEngine(catalog.New(catalog.PerspectiveSelf), orc, db, db, scorer, bus, pool, slog.Default()),
	}

	// QA service
	qaSvc := qa.NewService(orc, db, db, bus, pool, slog.Default())

	// A supplement rewrite changes the description the self value was
	// scored from, so rescore it. Finalize events are skipped: finalize
	// schedules its own scoring pass.
	if err := bus.Subscribe(events.SubjectDescriptionUpdated, func(_ string, data []byte) {
		var ev events.DescriptionUpdated
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("bad description event payload", "error", err)
			return
		}
		if ev.Source != events.SourceSupplement {
			return
		}
		entityID, err := uuid.Parse(ev.EntityID)
		if err != nil {
			slog.Warn("bad entity id in description event", "entity_id", ev.EntityID)
			return
		}
		pool.Submit("self-value-rescore", func() {
			sv := scorer.FromDescription(context.Background(), ev.Description)
			if err := db.UpdateProfileSelfValue(context.Background(), ev.EntityKind, entityID, sv.Format()); err != nil {
				slog.Error("failed to store rescored self value", "entity_id", entityID, "error", err)
			}
		})
	}); err != nil {
		slog.Error("failed to subscribe to description events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, engines, qaSvc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("rapport ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := pool.Shutdown(drainCtx); err != nil {
		slog.Warn("background tasks did not drain", "error", err)
	}
	slog.Info("rapport stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
