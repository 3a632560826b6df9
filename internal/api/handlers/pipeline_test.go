package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/srt-flow/backend/internal/pipeline"
	"github.com/srt-flow/backend/internal/srt"
	"github.com/srt-flow/backend/internal/translate"
)

const testDoc = "1\n00:00:01,000 --> 00:00:02,000\nhello\n\n" +
	"2\n00:00:03,000 --> 00:00:04,000\nworld\n"

type stubSettings map[string]string

func (s stubSettings) GetSetting(key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

// parkedCall exposes one in-flight Translate call to the test.
type parkedCall struct {
	ctx    context.Context
	result chan map[int]string
}

type parkedService struct {
	calls chan *parkedCall
}

func newParkedService() *parkedService {
	return &parkedService{calls: make(chan *parkedCall, 1)}
}

func (s *parkedService) Translate(ctx context.Context, blocks []srt.Block, onProgress translate.ProgressFunc, logf translate.LogFunc) (map[int]string, error) {
	call := &parkedCall{ctx: ctx, result: make(chan map[int]string, 1)}
	s.calls <- call
	select {
	case r := <-call.result:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitForStatus(t *testing.T, p *pipeline.Pipeline, want pipeline.Status) pipeline.View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if view := p.Snapshot(); view.Status == want {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("pipeline never reached %s (currently %s)", want, p.Snapshot().Status)
	return pipeline.View{}
}

// A run must outlive the request that started it: the handler returns 202 and
// net/http cancels the request context, while the engine keeps translating.
func TestTranslateOutlivesRequestContext(t *testing.T) {
	service := newParkedService()
	pipe := pipeline.New(pipeline.Config{Service: service, Settings: stubSettings{}})
	h := NewPipelineHandler(pipe, nil)

	if err := pipe.SelectFile("movie.srt", []byte(testDoc)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("POST", "/api/pipeline/translate", nil).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	h.Translate(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Translate status = %d, want 202", rec.Code)
	}
	// The server tears the request context down once the handler returns.
	cancel()

	var call *parkedCall
	select {
	case call = <-service.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("translation service was not invoked")
	}

	waitForStatus(t, pipe, pipeline.StatusTranslating)
	select {
	case <-call.ctx.Done():
		t.Fatalf("run context cancelled with the request: %v", call.ctx.Err())
	default:
	}

	call.result <- map[int]string{1: "HELLO", 2: "WORLD"}
	view := waitForStatus(t, pipe, pipeline.StatusDone)
	if view.Error != "" {
		t.Errorf("run failed after the request ended: %q", view.Error)
	}
	if _, _, ok := pipe.Output(); !ok {
		t.Error("completed run has no output")
	}
}

// Reset through the handler aborts the in-flight run's engine requests.
func TestResetAbortsRunningTranslation(t *testing.T) {
	service := newParkedService()
	pipe := pipeline.New(pipeline.Config{Service: service, Settings: stubSettings{}})
	h := NewPipelineHandler(pipe, nil)

	if err := pipe.SelectFile("movie.srt", []byte(testDoc)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	rec := httptest.NewRecorder()
	h.Translate(rec, httptest.NewRequest("POST", "/api/pipeline/translate", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Translate status = %d, want 202", rec.Code)
	}

	var call *parkedCall
	select {
	case call = <-service.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("translation service was not invoked")
	}
	waitForStatus(t, pipe, pipeline.StatusTranslating)

	rec = httptest.NewRecorder()
	h.Reset(rec, httptest.NewRequest("POST", "/api/pipeline/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Reset status = %d", rec.Code)
	}

	select {
	case <-call.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reset did not cancel the run context")
	}
	if got := pipe.Snapshot().Status; got != pipeline.StatusIdle {
		t.Errorf("status after reset = %s, want idle", got)
	}
}
