package extraction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
)

// fileAPI is the slice of the extraction service we need for document
// lifecycle management. *genai.Client satisfies it.
type fileAPI interface {
	UploadFile(ctx context.Context, name string, r io.Reader, opts *genai.UploadFileOptions) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
}

// Client submits raw document bytes to the extraction service and polls
// readiness.
type Client struct {
	files  fileAPI
	logger *slog.Logger
}

func NewClient(files fileAPI, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{files: files, logger: logger}
}

// Submit registers one document with the remote service. The returned handle
// is not yet safe to reference in an extraction request; pass it through
// AwaitReady first.
func (c *Client) Submit(ctx context.Context, r io.Reader, mimeType, displayName string) (*entity.DocumentHandle, error) {
	start := time.Now()
	f, err := c.files.UploadFile(ctx, "", r, &genai.UploadFileOptions{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		c.logger.Error("extraction.submit.failed", "display_name", displayName, "error", err)
		return nil, fmt.Errorf("upload %s: %w: %w", displayName, common.ErrTransport, err)
	}

	h := &entity.DocumentHandle{
		Identity: f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		State:    handleState(f.State),
	}
	c.logger.Info("extraction.submit.ok",
		"display_name", displayName,
		"identity", h.Identity,
		"state", h.State,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return h, nil
}

// AwaitReady blocks until every handle is ACTIVE, polling each handle's state
// at pollInterval. It fails the first time any handle reaches FAILED, and
// fails with common.ErrTimeout once maxWait elapses with handles still
// processing. Partial success is not a valid return: on any error the whole
// submission must be restarted by the caller. Cancelling ctx aborts the wait
// without touching remote state.
func (c *Client) AwaitReady(ctx context.Context, handles []*entity.DocumentHandle, pollInterval, maxWait time.Duration) ([]*entity.DocumentHandle, error) {
	wait, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	start := time.Now()
	for {
		pending := 0
		for _, h := range handles {
			if h.Ready() {
				continue
			}
			f, err := c.files.GetFile(wait, h.Identity)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if wait.Err() != nil {
					return nil, fmt.Errorf("%w after %s", common.ErrTimeout, maxWait)
				}
				return nil, fmt.Errorf("poll %s: %w: %w", h.Identity, common.ErrTransport, err)
			}
			h.State = handleState(f.State)
			if h.State == entity.HandleFailed {
				c.logger.Error("extraction.await.document_failed", "identity", h.Identity)
				return nil, fmt.Errorf("document %s: %w", h.Identity, common.ErrProcessingFailed)
			}
			if !h.Ready() {
				pending++
			}
		}
		if pending == 0 {
			c.logger.Info("extraction.await.ready",
				"documents", len(handles),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return handles, nil
		}

		select {
		case <-wait.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w after %s (%d documents still processing)", common.ErrTimeout, maxWait, pending)
		case <-time.After(pollInterval):
		}
	}
}

func handleState(s genai.FileState) entity.HandleState {
	switch s {
	case genai.FileStateActive:
		return entity.HandleActive
	case genai.FileStateFailed:
		return entity.HandleFailed
	case genai.FileStateProcessing:
		return entity.HandleProcessing
	default:
		return entity.HandleSubmitted
	}
}
