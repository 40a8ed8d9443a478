package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	xerrors "StreamForge/internal/errors"
	"StreamForge/internal/pipeline"
	"StreamForge/internal/record"
	"StreamForge/internal/sink"
	"StreamForge/pkg/plugin"
)

// DeadLetterSource exposes stored dead-letter envelopes for inspection.
type DeadLetterSource interface {
	ListLatest(ctx context.Context, limit int) ([]sink.Envelope, error)
}

// Server exposes the REST interface for submitting records and inspecting
// pipeline state.
type Server struct {
	addr        string
	service     *pipeline.Service
	plugins     *plugin.Manager
	deadLetters DeadLetterSource
}

// NewServer constructs the API server. plugins and deadLetters may be nil
// when the deployment does not expose them.
func NewServer(addr string, service *pipeline.Service, plugins *plugin.Manager, deadLetters DeadLetterSource) *Server {
	return &Server{addr: addr, service: service, plugins: plugins, deadLetters: deadLetters}
}

// Start runs the HTTP server until the context is cancelled or an error
// occurs.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/records", s.handleRecords)
	mux.HandleFunc("/api/v1/records/", s.handleRecordDetail)
	mux.HandleFunc("/api/v1/deadletter", s.handleDeadLetters)
	mux.HandleFunc("/api/v1/plugins", s.handlePlugins)
	return mux
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitRecord(w, r)
	case http.MethodGet:
		s.handleListRecords(w, r)
	default:
		http.Error(w, "only GET/POST supported", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmitRecord(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		http.Error(w, "record service not initialized", http.StatusServiceUnavailable)
		return
	}

	var req pipeline.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "failed to parse request body", http.StatusBadRequest)
		return
	}

	rec, err := s.service.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		http.Error(w, "record service not initialized", http.StatusServiceUnavailable)
		return
	}

	records, err := s.service.List(r.Context(), parseLimit(r, 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

func (s *Server) handleRecordDetail(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		http.Error(w, "record service not initialized", http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/records/")
	if rest == "" {
		http.Error(w, "record id is required", http.StatusBadRequest)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/replay"); ok {
		s.handleReplayRecord(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "only GET supported", http.StatusMethodNotAllowed)
		return
	}
	if strings.Contains(rest, "/") {
		http.Error(w, "invalid record path", http.StatusBadRequest)
		return
	}

	rec, err := s.service.Get(r.Context(), rest)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleReplayRecord(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST supported", http.StatusMethodNotAllowed)
		return
	}
	if id == "" {
		http.Error(w, "record id is required", http.StatusBadRequest)
		return
	}

	rec, err := s.service.Replay(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET supported", http.StatusMethodNotAllowed)
		return
	}
	if s.deadLetters == nil {
		http.Error(w, "dead-letter inspection not available for this sink", http.StatusServiceUnavailable)
		return
	}

	envelopes, err := s.deadLetters.ListLatest(r.Context(), parseLimit(r, 20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if envelopes == nil {
		envelopes = []sink.Envelope{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelopes)
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET supported", http.StatusMethodNotAllowed)
		return
	}
	if s.plugins == nil {
		http.Error(w, "plugin manager not initialized", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.plugins.List())
}

func parseLimit(r *http.Request, fallback int) int {
	limit := fallback
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}

// writeServiceError maps unified error codes onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch xerrors.CodeOf(err) {
	case record.CodeRecordNotFound:
		status = http.StatusNotFound
	case record.CodeRecordValidation, xerrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case record.CodeRecordConflict, xerrors.CodeConflict:
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

// withContext makes request handling aware of root context cancellation.
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
