// Package server exposes the ingestion pipeline over HTTP for the operator
// desk: submit a scanned document, review local history, and download the
// ledger as a workbook.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New builds the HTTP handler for the service.
func New(h *Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/submissions", func(r chi.Router) {
			r.Post("/", h.createSubmission)
			r.Get("/", h.listSubmissions)
		})
		r.Get("/ledger/export", h.exportLedger)
	})

	return router
}

func logEncodeError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("server.encode_response_failed", "err", err)
	}
}
