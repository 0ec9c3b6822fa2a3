package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkazmirchuk/workbot/internal/chat"
	"github.com/pkazmirchuk/workbot/internal/config"
	"github.com/pkazmirchuk/workbot/internal/currency"
	"github.com/pkazmirchuk/workbot/internal/files"
	"github.com/pkazmirchuk/workbot/internal/httpapi"
	"github.com/pkazmirchuk/workbot/internal/logging"
	"github.com/pkazmirchuk/workbot/internal/observability"
	"github.com/pkazmirchuk/workbot/internal/state"
	"github.com/pkazmirchuk/workbot/internal/store"
	"github.com/pkazmirchuk/workbot/internal/workflow"
	"github.com/pkazmirchuk/workbot/internal/worksection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()

	var gateway store.Gateway
	var ready httpapi.ReadyCheck
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := store.NewPostgresGateway(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("persistence gateway init failed: %v", err)
		}
		gateway = pg
		ready = func(ctx context.Context) error { return pg.Pool().Ping(ctx) }
		logger.Info("persistence gateway: postgres")
	} else {
		gateway = store.NewMemoryGateway()
		logger.Warn("persistence gateway: in-memory (DATABASE_URL not set, records will not survive restarts)")
	}
	defer gateway.Close()

	var drafts state.Store
	backend := strings.ToLower(strings.TrimSpace(cfg.StateBackend))
	if pg, ok := gateway.(*store.PostgresGateway); ok && (backend == "auto" || backend == "postgres") {
		// Share the gateway's pool instead of opening a second connection set.
		drafts, err = state.NewPostgresStoreWithPool(ctx, pg.Pool())
	} else {
		drafts, err = state.NewStore(ctx, state.Options{
			Backend:     cfg.StateBackend,
			DatabaseURL: cfg.DatabaseURL,
			NATSURL:     cfg.NATSURL,
			NATSBucket:  cfg.StateBucket,
			NATSTTL:     cfg.DraftTTL,
		})
	}
	if err != nil {
		log.Fatalf("draft store init failed: %v", err)
	}
	defer drafts.Close()

	remote := worksection.New(cfg.WorksectionURL, cfg.WorksectionSecret, cfg.RemoteTimeout, logger)
	downloader := files.NewDownloader(cfg.DownloadDir, cfg.MaxAttachmentBytes(), cfg.DownloadTimeout)

	var rates workflow.RateLookup
	if cfg.CurrencyEnabled {
		rates = currency.New(cfg.CurrencyEndpoint, 10*time.Second)
	}

	var fallback chat.Sender
	if strings.TrimSpace(cfg.ChatCallbackURL) != "" {
		fallback = chat.NewHTTPSender(cfg.ChatCallbackURL, cfg.SendTimeout)
	}
	registry := httpapi.NewPromptRegistry(fallback)

	orchestrator := workflow.NewOrchestrator(
		drafts,
		gateway,
		remote,
		downloader,
		rates,
		registry,
		metrics,
		logger,
		cfg.RemoteTimeout,
		cfg.DownloadTimeout,
	)

	dispatcher := workflow.NewDispatcher(orchestrator, logger, cfg.QueueSize, cfg.SessionIdleAfter)

	api := httpapi.New(dispatcher, registry, metrics, logger, ready)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	dispatcher.Start(runCtx, 30*time.Second)

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}

	runCancel()
	dispatcher.Close()

	logger.Info("shutdown complete")
}
