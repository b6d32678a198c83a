package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
)

// ExtractorConfig holds the model configuration for structured extraction.
type ExtractorConfig struct {
	Model       string
	Temperature float32
	// ExampleGuidance optionally seeds the chat with a prior model turn
	// demonstrating the expected output shape. Empty disables the few-shot
	// turn entirely; DefaultExampleGuidance is what production uses.
	ExampleGuidance string
}

// SchemaExtractor issues the structured-extraction request against one or
// more ready documents. The response MIME type is constrained to JSON at
// model-configuration time; if the service ignores it, the failure surfaces
// in the record parser, not here.
type SchemaExtractor struct {
	model    *genai.GenerativeModel
	guidance string
	logger   *slog.Logger
}

func NewSchemaExtractor(client *genai.Client, cfg ExtractorConfig, logger *slog.Logger) *SchemaExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(8192)
	model.ResponseMIMEType = "application/json"

	return &SchemaExtractor{
		model:    model,
		guidance: cfg.ExampleGuidance,
		logger:   logger,
	}
}

// Extract references all ready handles plus the field instruction in a single
// request and returns the raw structured text. Identical inputs may yield
// different phrasing across calls; callers must treat the output as a
// fallible parse input, never as schema-guaranteed.
func (e *SchemaExtractor) Extract(ctx context.Context, handles []*entity.DocumentHandle) (string, error) {
	for _, h := range handles {
		if !h.Ready() {
			return "", fmt.Errorf("document %s not ready (state %s)", h.Identity, h.State)
		}
	}

	parts := make([]genai.Part, 0, len(handles)+1)
	for _, h := range handles {
		parts = append(parts, genai.FileData{MIMEType: h.MIMEType, URI: h.URI})
	}
	parts = append(parts, genai.Text(FieldInstruction))

	session := e.model.StartChat()
	session.History = []*genai.Content{{Role: "user", Parts: parts}}
	if e.guidance != "" {
		session.History = append(session.History, &genai.Content{
			Role:  "model",
			Parts: []genai.Part{genai.Text(e.guidance)},
		})
	}

	start := time.Now()
	resp, err := session.SendMessage(ctx, genai.Text(ExtractionRequest))
	if err != nil {
		e.logger.Error("extraction.extract.failed", "documents", len(handles), "error", err)
		return "", fmt.Errorf("structured extraction: %w: %w", common.ErrTransport, err)
	}

	text := responseText(resp)
	if text == "" {
		e.logger.Error("extraction.extract.empty", "documents", len(handles))
		return "", common.ErrEmptyResponse
	}

	e.logger.Info("extraction.extract.ok",
		"documents", len(handles),
		"bytes", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
