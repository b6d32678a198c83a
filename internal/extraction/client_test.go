package extraction

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
)

// fakeFileAPI scripts per-document state sequences for the polling loop.
type fakeFileAPI struct {
	mu        sync.Mutex
	uploadErr error
	states    map[string][]genai.FileState // consumed one per GetFile; last repeats
	getErr    error
	polls     int
}

func (f *fakeFileAPI) UploadFile(_ context.Context, _ string, _ io.Reader, opts *genai.UploadFileOptions) (*genai.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &genai.File{
		Name:     "files/" + opts.DisplayName,
		URI:      "https://files.example/" + opts.DisplayName,
		MIMEType: opts.MIMEType,
		State:    genai.FileStateProcessing,
	}, nil
}

func (f *fakeFileAPI) GetFile(_ context.Context, name string) (*genai.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	seq := f.states[name]
	state := seq[0]
	if len(seq) > 1 {
		f.states[name] = seq[1:]
	}
	return &genai.File{Name: name, State: state}, nil
}

func (f *fakeFileAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func TestSubmit(t *testing.T) {
	api := &fakeFileAPI{}
	c := NewClient(api, nil)

	h, err := c.Submit(context.Background(), strings.NewReader("%PDF"), "application/pdf", "book.pdf")
	require.NoError(t, err)
	assert.Equal(t, "files/book.pdf", h.Identity)
	assert.Equal(t, "application/pdf", h.MIMEType)
	assert.Equal(t, entity.HandleProcessing, h.State)
	assert.False(t, h.Ready())
}

func TestSubmitTransportError(t *testing.T) {
	api := &fakeFileAPI{uploadErr: errors.New("connection refused")}
	c := NewClient(api, nil)

	_, err := c.Submit(context.Background(), strings.NewReader("x"), "application/pdf", "book.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestAwaitReadyAllActive(t *testing.T) {
	api := &fakeFileAPI{states: map[string][]genai.FileState{
		"files/a": {genai.FileStateProcessing, genai.FileStateProcessing, genai.FileStateActive},
		"files/b": {genai.FileStateActive},
	}}
	c := NewClient(api, nil)
	handles := []*entity.DocumentHandle{
		{Identity: "files/a", State: entity.HandleProcessing},
		{Identity: "files/b", State: entity.HandleProcessing},
	}

	got, err := c.AwaitReady(context.Background(), handles, time.Millisecond, time.Second)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, h := range got {
		assert.True(t, h.Ready())
	}
}

func TestAwaitReadyProcessingFailed(t *testing.T) {
	api := &fakeFileAPI{states: map[string][]genai.FileState{
		"files/a": {genai.FileStateProcessing, genai.FileStateFailed},
	}}
	c := NewClient(api, nil)
	handles := []*entity.DocumentHandle{{Identity: "files/a", State: entity.HandleProcessing}}

	_, err := c.AwaitReady(context.Background(), handles, time.Millisecond, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProcessingFailed)
	assert.Contains(t, err.Error(), "files/a")
}

func TestAwaitReadyTimeout(t *testing.T) {
	api := &fakeFileAPI{states: map[string][]genai.FileState{
		"files/a": {genai.FileStateProcessing},
	}}
	c := NewClient(api, nil)
	handles := []*entity.DocumentHandle{{Identity: "files/a", State: entity.HandleProcessing}}

	_, err := c.AwaitReady(context.Background(), handles, 5*time.Millisecond, 30*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTimeout)

	// No further polls once the wait has been abandoned.
	polls := api.pollCount()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, polls, api.pollCount())
}

func TestAwaitReadyCallerCancelled(t *testing.T) {
	api := &fakeFileAPI{states: map[string][]genai.FileState{
		"files/a": {genai.FileStateProcessing},
	}}
	c := NewClient(api, nil)
	handles := []*entity.DocumentHandle{{Identity: "files/a", State: entity.HandleProcessing}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.AwaitReady(ctx, handles, 2*time.Millisecond, time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrTimeout)
}

func TestAwaitReadyPollTransportError(t *testing.T) {
	api := &fakeFileAPI{
		states: map[string][]genai.FileState{"files/a": {genai.FileStateProcessing}},
		getErr: errors.New("503"),
	}
	c := NewClient(api, nil)
	handles := []*entity.DocumentHandle{{Identity: "files/a", State: entity.HandleProcessing}}

	_, err := c.AwaitReady(context.Background(), handles, time.Millisecond, time.Second)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("{\"a\":1}\n"),
				genai.Text("{\"b\":2}"),
			}},
		}},
	}
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}", responseText(resp))
}
