package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

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
)

// printError prints to stderr, falling back to stdout if stderr fails.
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file = flag.String("file", "", "scanned receipt book PDF to ingest (required)")
		book = flag.String("book", "", "receipt book number stamped into every row (required)")
		out  = flag.String("out", "", "write the ledger as XLSX to this path after ingesting (optional)")
	)
	flag.Parse()

	if *file == "" || *book == "" {
		printError("Error: --file and --book are required\n")
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Extraction.APIKey))
	if err != nil {
		printError("Error: create extraction client: %v\n", err)
		os.Exit(1)
	}
	defer genaiClient.Close()

	var catalog *constants.EventCatalog
	if cfg.Extraction.EventCatalogPath != "" {
		if catalog, err = constants.LoadEventCatalog(cfg.Extraction.EventCatalogPath); err != nil {
			printError("Error: load event catalog: %v\n", err)
			os.Exit(1)
		}
	}

	parser, err := records.NewParser(catalog, logger)
	if err != nil {
		printError("Error: build record parser: %v\n", err)
		os.Exit(1)
	}

	sheetsLedger, err := ledger.NewSheetsLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		printError("Error: connect to ledger: %v\n", err)
		os.Exit(1)
	}

	store, err := history.Open(cfg.History.DBPath, logger)
	if err != nil {
		printError("Error: open history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	pipe := pipeline.New(
		extraction.NewClient(genaiClient, logger),
		extraction.NewSchemaExtractor(genaiClient, extraction.ExtractorConfig{
			Model:           cfg.Extraction.Model,
			Temperature:     cfg.Extraction.Temperature,
			ExampleGuidance: extraction.DefaultExampleGuidance,
		}, logger),
		parser, sheetsLedger, store,
		pipeline.Config{
			PollInterval:     cfg.Extraction.PollInterval,
			MaxWait:          cfg.Extraction.MaxWait,
			EventListPath:    cfg.Extraction.EventListPath,
			OperatorIdentity: cfg.Operator.Identity,
		}, logger)

	doc, err := os.Open(*file)
	if err != nil {
		printError("Error: open document: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close()

	res, err := pipe.Run(ctx, pipeline.SubmitRequest{
		Document:          doc,
		MIMEType:          "application/pdf",
		Filename:          filepath.Base(*file),
		ReceiptBookNumber: *book,
	})
	if err != nil {
		printError("Error: ingest failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("submission %s: %d records extracted, %d rows appended\n",
		res.SubmissionID, res.RecordCount, res.RowsWritten)

	if *out != "" {
		data, err := export.NewService(sheetsLedger, logger).ExportLedgerXLSX(ctx)
		if err != nil {
			printError("Error: export ledger: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			printError("Error: write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("ledger exported to %s\n", *out)
	}
}
