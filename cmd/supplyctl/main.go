// Command supplyctl is a demonstration harness for the orchestration
// engine. It is not a product surface: real chat-transport wiring,
// spreadsheet ingestion and credential storage live elsewhere.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amalgammas/ozon-slotbot/internal/clock"
	"github.com/amalgammas/ozon-slotbot/internal/config"
	"github.com/amalgammas/ozon-slotbot/internal/draftctl"
	"github.com/amalgammas/ozon-slotbot/internal/events"
	"github.com/amalgammas/ozon-slotbot/internal/events/streamserver"
	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/persistence"
	"github.com/amalgammas/ozon-slotbot/internal/preflight"
	"github.com/amalgammas/ozon-slotbot/internal/ratelimit"
	"github.com/amalgammas/ozon-slotbot/internal/registry"
	"github.com/amalgammas/ozon-slotbot/internal/supply"
	"github.com/amalgammas/ozon-slotbot/internal/task"
	"github.com/amalgammas/ozon-slotbot/internal/timeslot"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	clk := clock.New()
	mktClient := marketplace.NewHTTPClient(cfg.MarketplaceBaseURL, cfg.HTTPTimeout, cfg.HTTPRetryAttempts, cfg.HTTPRetryBase)
	limiter := ratelimit.New(ratelimit.Config{
		PerSecond: cfg.RateLimitSecond,
		PerMinute: cfg.RateLimitPerMinute,
		PerHour:   cfg.RateLimitPerHour,
	}, clk)

	store, closeStore := setupStore(ctx, cfg)
	defer closeStore()

	stream := streamserver.New(streamserver.DefaultConfig())
	bus, closeBus := setupEventBus(cfg, stream)
	defer closeBus()

	orch := supply.New(supply.Deps{
		Client:   mktClient,
		Limiter:  limiter,
		Clock:    clk,
		Bus:      bus,
		Store:    store,
		Registry: registry.New(),
	}, supply.Params{
		Draft: draftctl.Params{
			PollInterval:        cfg.DraftPollInterval,
			PollMaxAttempts:     cfg.DraftPollMaxAttempts,
			RecreateMaxAttempts: cfg.DraftRecreateMaxAttempts,
			RecreateBackoff:     cfg.DraftRecreateBackoff,
			DraftLifetime:       cfg.DraftLifetime,
		},
		Timeslot: timeslot.Params{
			PollInterval:  cfg.TimeslotPollInterval,
			WindowMaxDays: cfg.TimeslotWindowMaxDays,
		},
		OrderIDPollAttempts: cfg.OrderIDPollAttempts,
		OrderIDPollDelay:    cfg.OrderIDPollDelay,
		ReadyDaysMin:        cfg.ReadyDaysMin,
		ReadyDaysMax:        cfg.ReadyDaysMax,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/ws/events", stream)

	handler := cors.Default().Handler(mux)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("supplyctl http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("supplyctl http server terminated unexpectedly")
		}
	}()

	if taskFile := os.Getenv("TASK_FILE"); taskFile != "" {
		go runDemoTask(ctx, mktClient, orch, taskFile)
	} else {
		log.Info().Msg("TASK_FILE not set; supplyctl is running as a bare server with no task loaded")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("supplyctl http server shutdown failed")
	}
}

// runDemoTask reads a single Task definition from a local JSON file, a
// stand-in for the spreadsheet-ingestion collaborator, and drives it to
// completion through the Supply Orchestrator.
func runDemoTask(ctx context.Context, mktClient marketplace.Client, orch *supply.Orchestrator, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read task file")
		return
	}

	var t task.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to parse task file")
		return
	}

	creds := marketplace.Credentials{
		ClientID: os.Getenv("OZON_CLIENT_ID"),
		APIKey:   os.Getenv("OZON_API_KEY"),
	}
	if creds.ClientID == "" || creds.APIKey == "" {
		log.Error().Msg("OZON_CLIENT_ID/OZON_API_KEY must be set to run a task")
		return
	}

	clusters, err := config.LoadClusters(clustersFile())
	if err != nil {
		log.Warn().Err(err).Msg("failed to load clusters allowlist, proceeding without it")
	}
	preflight.Check(ctx, mktClient, creds, clusters, t)

	log.Info().Str("task_id", t.TaskID).Msg("starting supply orchestrator run")
	if err := orch.Run(ctx, t, creds); err != nil {
		log.Error().Err(err).Str("task_id", t.TaskID).Msg("task run ended with an error")
		return
	}
	log.Info().Str("task_id", t.TaskID).Msg("task completed")
}

// clustersFile returns the path to the optional operator-curated
// clusters.yaml allowlist, defaulting to a file alongside the binary's
// working directory.
func clustersFile() string {
	if path := os.Getenv("CLUSTERS_FILE"); path != "" {
		return path
	}
	return "clusters.yaml"
}

func setupStore(ctx context.Context, cfg config.Config) (persistence.Store, func()) {
	if cfg.PersistenceDriver == "postgres" {
		store, err := persistence.OpenSQLStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open postgres persistence store")
		}
		return store, func() { _ = store.Close() }
	}
	log.Info().Msg("using in-memory persistence store")
	return persistence.NewMemoryStore(), func() {}
}

func setupEventBus(cfg config.Config, stream *streamserver.Server) (events.Bus, func()) {
	if cfg.NATSURL != "" {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		bus, err := events.NewNATSBus(jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS event bus")
		}
		return bus, bus.Close
	}

	chanBus := events.NewChannelBus(1024)
	go stream.Pump(chanBus.Events())
	return chanBus, func() { chanBus.Close() }
}
