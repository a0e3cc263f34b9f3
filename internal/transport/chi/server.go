package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
	logpkg "github.com/kailas-cloud/edsanalytics/internal/logger"
	"github.com/kailas-cloud/edsanalytics/internal/repository/namespace"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 32 << 20

// Error codes returned in error bodies.
const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeAlreadyExists = "already_exists"
	codeConflict      = "conflict"
	codeInvalidSchema = "invalid_schema"
	codeInternal      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// namespaces resolves the repository for a tenant namespace.
type namespaces interface {
	Get(tenant, ns string) *namespace.Repo
}

// Server serves the type/stream/data REST surface of the store from memory.
type Server struct {
	namespaces    namespaces
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates a store stub server.
func NewServer(ns namespaces, logger *zap.Logger) *Server {
	return &Server{
		namespaces: ns,
		logger:     logger,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
			sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
			sentinelHandler(domain.ErrConflict, http.StatusConflict, codeConflict),
			sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, codeInvalidSchema),
		},
	}
}

func (s *Server) repo(r *http.Request) *namespace.Repo {
	return s.namespaces.Get(chi.URLParam(r, "tenant"), chi.URLParam(r, "namespace"))
}

// CreateType handles POST .../Types/{typeID}.
func (s *Server) CreateType(w http.ResponseWriter, r *http.Request) {
	var t schema.Type
	if !decodeBody(w, r, &t) {
		return
	}
	id := chi.URLParam(r, "typeID")
	if t.ID == "" {
		t.ID = id
	}
	if t.ID != id {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("body id %q does not match path id %q", t.ID, id))
		return
	}

	created, err := s.repo(r).CreateType(r.Context(), t)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, createdStatus(created), t)
}

// GetType handles GET .../Types/{typeID}.
func (s *Server) GetType(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo(r).GetType(r.Context(), chi.URLParam(r, "typeID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteType handles DELETE .../Types/{typeID}.
func (s *Server) DeleteType(w http.ResponseWriter, r *http.Request) {
	if err := s.repo(r).DeleteType(r.Context(), chi.URLParam(r, "typeID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateStream handles POST .../Streams/{streamID}.
func (s *Server) CreateStream(w http.ResponseWriter, r *http.Request) {
	var st stream.Stream
	if !decodeBody(w, r, &st) {
		return
	}
	id := chi.URLParam(r, "streamID")
	if st.ID == "" {
		st.ID = id
	}
	if st.ID != id {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("body id %q does not match path id %q", st.ID, id))
		return
	}

	created, err := s.repo(r).CreateStream(r.Context(), st)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, createdStatus(created), st)
}

// GetStream handles GET .../Streams/{streamID}.
func (s *Server) GetStream(w http.ResponseWriter, r *http.Request) {
	st, err := s.repo(r).GetStream(r.Context(), chi.URLParam(r, "streamID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteStream handles DELETE .../Streams/{streamID}.
func (s *Server) DeleteStream(w http.ResponseWriter, r *http.Request) {
	if err := s.repo(r).DeleteStream(r.Context(), chi.URLParam(r, "streamID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WriteData handles POST .../Streams/{streamID}/Data.
func (s *Server) WriteData(w http.ResponseWriter, r *http.Request) {
	var records []json.RawMessage
	if !decodeBody(w, r, &records) {
		return
	}
	if err := s.repo(r).Write(r.Context(), chi.URLParam(r, "streamID"), records); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReadData handles GET .../Streams/{streamID}/Data?startIndex=&endIndex=&count=.
func (s *Server) ReadData(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	records, err := s.repo(r).Range(r.Context(), chi.URLParam(r, "streamID"), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// ReadSummaries handles GET .../Streams/{streamID}/Data/Summaries?startIndex=&endIndex=&count=.
func (s *Server) ReadSummaries(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if q.Start.IsZero() || q.End.IsZero() || !q.End.After(q.Start) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "startIndex and endIndex are required and must form a non-empty window")
		return
	}
	if q.Count <= 0 {
		q.Count = 1
	}
	if q.Count > maxSummaryIntervals || time.Duration(q.Count) > q.End.Sub(q.Start) {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			fmt.Sprintf("count must be at most %d and no larger than the window in nanoseconds", maxSummaryIntervals))
		return
	}

	points, err := s.repo(r).Points(r.Context(), chi.URLParam(r, "streamID"), q.Start, q.End)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(points, q.Start, q.End, q.Count))
}

func parseQuery(r *http.Request) (namespace.Query, error) {
	var q namespace.Query
	values := r.URL.Query()

	if v := values.Get("startIndex"); v != "" {
		t, err := sample.ParseTimestamp(v)
		if err != nil {
			return q, fmt.Errorf("invalid startIndex: %w", err)
		}
		q.Start = t
	}
	if v := values.Get("endIndex"); v != "" {
		t, err := sample.ParseTimestamp(v)
		if err != nil {
			return q, fmt.Errorf("invalid endIndex: %w", err)
		}
		q.End = t
	}
	if v := values.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid count %q", v)
		}
		q.Count = n
	}
	return q, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// writeJSON writes compact JSON; the summaries scanner on the client side depends on it.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"code":"internal_error","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	if errors.Is(err, context.Canceled) {
		log.Debug("request canceled", zap.Error(err))
		return
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
