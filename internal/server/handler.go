package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
	"github.com/eventdesk/registration-ingest/internal/pipeline"
)

// maxUploadBytes caps the multipart form size for a submission. Scanned
// receipt books are a few MB; anything near this limit is a mistake.
const maxUploadBytes = 32 << 20

// Runner runs one submission through the ingestion pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.SubmitRequest) (pipeline.Result, error)
}

// Historian lists past submissions, newest first.
type Historian interface {
	List(ctx context.Context, limit int) ([]entity.Submission, error)
}

// Exporter renders the ledger as an XLSX workbook.
type Exporter interface {
	ExportLedgerXLSX(ctx context.Context) ([]byte, error)
}

// Handler holds the service dependencies for all routes.
type Handler struct {
	runner   Runner
	history  Historian
	exporter Exporter
	logger   *slog.Logger
}

func NewHandler(runner Runner, history Historian, exporter Exporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, history: history, exporter: exporter, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (h *Handler) createSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	receiptBook := r.FormValue("receipt_book_number")
	if receiptBook == "" {
		http.Error(w, "receipt_book_number field is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	res, err := h.runner.Run(r.Context(), pipeline.SubmitRequest{
		Document:          file,
		MIMEType:          mimeType,
		Filename:          header.Filename,
		ReceiptBookNumber: receiptBook,
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	logEncodeError(h.logger, json.NewEncoder(w).Encode(res))
}

// writeRunError maps pipeline failures onto HTTP statuses: bad model output
// is the document's fault (422), a slow extraction service is a gateway
// timeout, and transport faults are bad gateways.
func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrMalformedResponse),
		errors.Is(err, common.ErrEmptyResponse):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, common.ErrTransport),
		errors.Is(err, common.ErrProcessingFailed):
		status = http.StatusBadGateway
	}

	resp := errorResponse{Error: err.Error()}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		resp.Stage = string(se.Stage)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	logEncodeError(h.logger, json.NewEncoder(w).Encode(resp))
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	subs, err := h.history.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []entity.Submission{}
	}

	w.Header().Set("Content-Type", "application/json")
	logEncodeError(h.logger, json.NewEncoder(w).Encode(subs))
}

func (h *Handler) exportLedger(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.ExportLedgerXLSX(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, common.ErrTransport) {
			status = http.StatusBadGateway
		}
		http.Error(w, err.Error(), status)
		return
	}

	filename := fmt.Sprintf("registrations-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		h.logger.Error("server.export_write_failed", "err", err)
	}
}
