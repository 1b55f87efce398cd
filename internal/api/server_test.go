package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tactilab/dotplate/pkg/pipeline"
)

func newTestServer() *Server {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(pipeline.NewRunner(nil, nil, logger), logger)
}

func requestBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"rows":     []map[string]string{{"braille": "⠁", "indicator": "a"}},
		"surface":  map[string]any{"kind": "flat", "width": 90, "height": 50, "thickness": 2},
		"segments": 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestSpecEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/spec", bytes.NewReader(requestBody(t)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Spec-Hash") == "" {
		t.Error("missing X-Spec-Hash header")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("response is not a JSON document: %v", err)
	}
	if doc["plate_type"] != "embossing" {
		t.Errorf("plate_type = %v, want embossing", doc["plate_type"])
	}
}

func TestMeshEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/mesh", bytes.NewReader(requestBody(t)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "model/stl" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() <= 84 {
		t.Errorf("stl body too small: %d bytes", rec.Body.Len())
	}
}

func TestSpecEndpointBadBody(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"unknown field", `{"bogus": 1}`, http.StatusBadRequest},
		{"missing surface", `{"rows": [{"braille": "⠁"}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/spec", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body.Error == "" {
				t.Error("error body missing message")
			}
		})
	}
}

func TestGridOverflowMapsTo422(t *testing.T) {
	srv := newTestServer()

	body, err := json.Marshal(map[string]any{
		"rows":            []map[string]string{{"braille": "⠁⠃⠉⠙⠑⠋⠛⠓⠊⠚⠅⠇⠍⠝⠕⠏", "indicator": "a"}},
		"surface":         map[string]any{"kind": "flat", "width": 90, "height": 50, "thickness": 2},
		"strict_overflow": true,
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/spec", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestJobTableSupersedes(t *testing.T) {
	jobs := newJobTable()

	ctx1, release1 := jobs.begin(context.Background(), "client")
	defer release1()

	ctx2, release2 := jobs.begin(context.Background(), "client")
	defer release2()

	if ctx1.Err() == nil {
		t.Error("first job should be canceled by the second")
	}
	if ctx2.Err() != nil {
		t.Error("second job should still be live")
	}

	// Releasing the superseded job must not evict the live one.
	release1()
	ctx3, release3 := jobs.begin(context.Background(), "client")
	defer release3()
	if ctx2.Err() == nil {
		t.Error("second job should be canceled by the third")
	}
	_ = ctx3
}

func TestJobTableIsolatesClients(t *testing.T) {
	jobs := newJobTable()

	ctxA, releaseA := jobs.begin(context.Background(), "a")
	defer releaseA()
	_, releaseB := jobs.begin(context.Background(), "b")
	defer releaseB()

	if ctxA.Err() != nil {
		t.Error("jobs for different clients should not cancel each other")
	}
}

func TestJobTableConcurrentBegin(t *testing.T) {
	jobs := newJobTable()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release := jobs.begin(context.Background(), "client")
			release()
		}()
	}
	wg.Wait()

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	if len(jobs.jobs) != 0 {
		t.Errorf("job table not drained: %d entries", len(jobs.jobs))
	}
}
