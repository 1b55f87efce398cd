// Package api implements the dotplate HTTP geometry API.
//
// The API exposes the same pipeline the CLI uses:
//
//	GET  /healthz   - liveness probe
//	POST /v1/spec   - build a plate and return the canonical spec JSON
//	POST /v1/mesh   - build a plate and return the assembled binary STL
//
// Request bodies are pipeline options encoded as JSON. Interactive
// clients regenerate plates on every edit, so at most one mesh build is
// in flight per client: a newer request from the same client (identified
// by the X-Client-ID header) cancels the older one.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tactilab/dotplate/pkg/buildinfo"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/observability"
	"github.com/tactilab/dotplate/pkg/pipeline"
)

// maxBodyBytes bounds request bodies; plate definitions are small.
const maxBodyBytes = 1 << 20

// Server serves the geometry API on top of a pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	jobs   *jobTable
	router chi.Router
}

// New creates a server around the given runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		logger: logger,
		jobs:   newJobTable(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/spec", s.handleSpec)
	r.Post("/v1/mesh", s.handleMesh)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// instrument assigns a request ID and reports request/response events.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		ctx := r.Context()
		observability.API().OnRequest(ctx, r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		dur := time.Since(start)
		observability.API().OnResponse(ctx, r.Method, r.URL.Path, ww.Status(), dur)
		s.logger.Debug("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", dur.Round(time.Millisecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleSpec builds a plate and returns the canonical spec document.
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}
	opts.Formats = []string{pipeline.FormatJSON}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Spec-Hash", result.SpecHash)
	setCacheHeader(w, result.CacheInfo.SpecHit)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Document)
}

// handleMesh builds a plate and returns the assembled binary STL. A newer
// request from the same client supersedes any build still in flight.
func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}
	opts.Formats = []string{pipeline.FormatJSON, pipeline.FormatSTL}

	ctx, release := s.jobs.begin(r.Context(), clientKey(r))
	defer release()

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		if ctx.Err() != nil && r.Context().Err() == nil {
			// Canceled by a newer request, not by the client going away.
			writeJSON(w, http.StatusConflict, errorBody{
				Error: "superseded by a newer request",
				Code:  string(errors.ErrCodeInvalidInput),
			})
			return
		}
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "model/stl")
	w.Header().Set("X-Spec-Hash", result.SpecHash)
	setCacheHeader(w, result.CacheInfo.MeshHit)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[pipeline.FormatSTL])
}

// decodeOptions parses the request body. On failure it writes a 400 and
// returns ok=false.
func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, bool) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: "invalid request body: " + err.Error(),
			Code:  string(errors.ErrCodeInvalidInput),
		})
		return pipeline.Options{}, false
	}
	return opts, true
}

// clientKey identifies the requesting client for job superseding.
func clientKey(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	return r.RemoteAddr
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps pipeline error codes to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeConfiguration, errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeGridOverflow, errors.ErrCodeDegeneratePrimitive, errors.ErrCodeUnsupported:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeAssemblyFailure:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: string(errors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}
