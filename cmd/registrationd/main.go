package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/eventdesk/registration-ingest/constants"
	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/export"
	"github.com/eventdesk/registration-ingest/internal/extraction"
	"github.com/eventdesk/registration-ingest/internal/history"
	"github.com/eventdesk/registration-ingest/internal/ledger"
	"github.com/eventdesk/registration-ingest/internal/pipeline"
	"github.com/eventdesk/registration-ingest/internal/records"
	"github.com/eventdesk/registration-ingest/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Extraction.APIKey))
	if err != nil {
		logger.Error("create extraction client", "err", err)
		os.Exit(1)
	}
	defer genaiClient.Close()

	uploader := extraction.NewClient(genaiClient, logger)
	extractor := extraction.NewSchemaExtractor(genaiClient, extraction.ExtractorConfig{
		Model:           cfg.Extraction.Model,
		Temperature:     cfg.Extraction.Temperature,
		ExampleGuidance: extraction.DefaultExampleGuidance,
	}, logger)

	var catalog *constants.EventCatalog
	if cfg.Extraction.EventCatalogPath != "" {
		catalog, err = constants.LoadEventCatalog(cfg.Extraction.EventCatalogPath)
		if err != nil {
			logger.Error("load event catalog", "path", cfg.Extraction.EventCatalogPath, "err", err)
			os.Exit(1)
		}
	}

	parser, err := records.NewParser(catalog, logger)
	if err != nil {
		logger.Error("build record parser", "err", err)
		os.Exit(1)
	}

	sheetsLedger, err := ledger.NewSheetsLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		logger.Error("connect to ledger", "err", err)
		os.Exit(1)
	}

	store, err := history.Open(cfg.History.DBPath, logger)
	if err != nil {
		logger.Error("open history store", "path", cfg.History.DBPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	pipe := pipeline.New(uploader, extractor, parser, sheetsLedger, store, pipeline.Config{
		PollInterval:     cfg.Extraction.PollInterval,
		MaxWait:          cfg.Extraction.MaxWait,
		EventListPath:    cfg.Extraction.EventListPath,
		OperatorIdentity: cfg.Operator.Identity,
	}, logger)

	exporter := export.NewService(sheetsLedger, logger)
	handler := server.NewHandler(pipe, store, exporter, logger)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.New(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "err", err)
		}
	}()

	logger.Info("registrationd.listening", "addr", cfg.Server.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("registrationd.stopped")
}
