package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/registration-ingest/constants"
	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
	"github.com/eventdesk/registration-ingest/internal/pipeline"
)

type fakeRunner struct {
	req pipeline.SubmitRequest
	res pipeline.Result
	err error
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.SubmitRequest) (pipeline.Result, error) {
	f.req = req
	return f.res, f.err
}

type fakeHistorian struct {
	subs  []entity.Submission
	limit int
	err   error
}

func (f *fakeHistorian) List(_ context.Context, limit int) ([]entity.Submission, error) {
	f.limit = limit
	return f.subs, f.err
}

type fakeExporter struct {
	data []byte
	err  error
}

func (f *fakeExporter) ExportLedgerXLSX(context.Context) ([]byte, error) {
	return f.data, f.err
}

func newTestServer(runner Runner, hist Historian, exp Exporter) http.Handler {
	return New(NewHandler(runner, hist, exp, nil))
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateSubmission(t *testing.T) {
	runner := &fakeRunner{res: pipeline.Result{
		SubmissionID: uuid.New(),
		RecordCount:  2,
		RowsWritten:  2,
	}}
	srv := newTestServer(runner, &fakeHistorian{}, &fakeExporter{})

	body, contentType := multipartBody(t,
		map[string]string{"receipt_book_number": "RB-7"},
		"file", "book.pdf", []byte("%PDF-1.4 fake"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "RB-7", runner.req.ReceiptBookNumber)
	assert.Equal(t, "book.pdf", runner.req.Filename)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.RowsWritten)
}

func TestCreateSubmissionMissingFields(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeHistorian{}, &fakeExporter{})

	tests := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{"missing book number", nil, "file"},
		{"missing file", map[string]string{"receipt_book_number": "RB-7"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.fields, tt.file, "book.pdf", []byte("data"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateSubmissionErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"malformed response", &pipeline.StageError{Stage: constants.StageParsing, Err: fmt.Errorf("decode: %w", common.ErrMalformedResponse)}, http.StatusUnprocessableEntity},
		{"validation", &pipeline.StageError{Stage: constants.StageValidating, Err: common.ErrValidation}, http.StatusUnprocessableEntity},
		{"timeout", &pipeline.StageError{Stage: constants.StageWaitingReady, Err: common.ErrTimeout}, http.StatusGatewayTimeout},
		{"transport", &pipeline.StageError{Stage: constants.StageWriting, Err: common.ErrTransport}, http.StatusBadGateway},
		{"processing failed", &pipeline.StageError{Stage: constants.StageWaitingReady, Err: common.ErrProcessingFailed}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeRunner{err: tt.err}, &fakeHistorian{}, &fakeExporter{})

			body, contentType := multipartBody(t,
				map[string]string{"receipt_book_number": "RB-7"},
				"file", "book.pdf", []byte("data"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)

			var resp struct {
				Error string `json:"error"`
				Stage string `json:"stage"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.Stage)
		})
	}
}

func TestListSubmissions(t *testing.T) {
	hist := &fakeHistorian{subs: []entity.Submission{
		{ID: uuid.New(), ReceiptBookNumber: "RB-7", Stage: constants.StageDone, Status: constants.StatusSucceeded},
	}}
	srv := newTestServer(&fakeRunner{}, hist, &fakeExporter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions?limit=5", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, hist.limit)

	var subs []entity.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "RB-7", subs[0].ReceiptBookNumber)
}

func TestListSubmissionsBadLimit(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeHistorian{}, &fakeExporter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions?limit=nope", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSubmissionsEmptyIsJSONArray(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeHistorian{}, &fakeExporter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestExportLedger(t *testing.T) {
	exp := &fakeExporter{data: []byte("xlsx-bytes")}
	srv := newTestServer(&fakeRunner{}, &fakeHistorian{}, exp)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/export", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestExportLedgerTransportError(t *testing.T) {
	exp := &fakeExporter{err: fmt.Errorf("read ledger: %w", common.ErrTransport)}
	srv := newTestServer(&fakeRunner{}, &fakeHistorian{}, exp)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/export", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeHistorian{}, &fakeExporter{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
