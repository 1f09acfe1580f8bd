// Package chi is the HTTP API of the engine.
package chi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	domusage "github.com/kailas-cloud/semdex/internal/domain/usage"
	"github.com/kailas-cloud/semdex/internal/logger"
	healthuc "github.com/kailas-cloud/semdex/internal/usecase/health"
)

// maxBodyBytes caps request bodies; descriptors are small.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Services groups the use cases served over HTTP.
type Services struct {
	Search    Searcher
	Recommend Recommender
	Reindex   Reindexer
	Items     ItemService
	Health    HealthChecker
	Usage     UsageReporter
	Embedders EmbedderSelector
}

// Server implements the HTTP handlers.
type Server struct {
	svc           Services
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	s := &Server{svc: svc, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidKey, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidDescriptor, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrItemNotFound, http.StatusNotFound, codeItemNotFound),
		sentinelHandler(domain.ErrStoreQueryFailed, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
	}
	return s
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}

	embed, kind, ok := s.embedder(w, r, req.providerFields)
	if !ok {
		return
	}
	searchReq, err := request.New(req.Query, req.Limit, kind, req.Model)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp := s.svc.Search.Search(ctx, &searchReq, embed)

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:      searchResultsToDTO(resp.Results),
		Count:        len(resp.Results),
		VectorSearch: resp.VectorSearch,
	})
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !s.decode(w, r, &req) {
		return
	}

	embed, _, ok := s.embedder(w, r, req.providerFields)
	if !ok {
		return
	}
	useVector := req.UseVector == nil || *req.UseVector

	ctx, usage := domain.NewContextWithUsage(r.Context())
	recs, err := s.svc.Recommend.RecommendFor(ctx, req.TargetKey, useVector, embed)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, RecommendResponse{Recommendations: recommendationsToDTO(recs)})
}

// Reindex handles POST /reindex.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	var req ReindexRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	embed, _, ok := s.embedder(w, r, req.providerFields)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rep, err := s.svc.Reindex.Run(ctx, embed)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, reindexReportToDTO(rep))
}

// PutItem handles PUT /items/{key}.
func (s *Server) PutItem(w http.ResponseWriter, r *http.Request) {
	key, ok := s.itemKey(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if !s.decode(w, r, &req) {
		return
	}

	kind, err := content.ParseKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	desc, err := content.FromFields(kind, &req.Descriptor)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	it, err := s.svc.Items.Put(ctx, key, desc, req.Analyzed)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, itemToDTO(it))
}

// GetItem handles GET /items/{key}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	key, ok := s.itemKey(w, r)
	if !ok {
		return
	}
	it, err := s.svc.Items.Get(r.Context(), key)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToDTO(it))
}

// HealthCheck handles GET /health. A degraded provider still answers 200,
// since search and recommendation keep working through their fallbacks.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthToDTO(report))
}

// Usage handles GET /usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "period must be one of [day month]")
		return
	}
	writeJSON(w, http.StatusOK, usageToDTO(s.svc.Usage.GetReport(r.Context(), period)))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// embedder resolves the request's provider once, at the boundary.
func (s *Server) embedder(
	w http.ResponseWriter, r *http.Request, p providerFields,
) (domain.Embedder, domain.ProviderKind, bool) {
	kind, err := domain.ParseProviderKind(p.Provider, s.svc.Embedders.Default())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return nil, "", false
	}
	embed, err := s.svc.Embedders.Select(kind, p.Model)
	if err != nil {
		// a model that cannot even be configured still leaves the keyword path
		s.requestLogger(r).Warn("Embedding provider unavailable",
			zap.String("provider", string(kind)), zap.String("model", p.Model), zap.Error(err))
		return unavailableEmbedder{err: err}, kind, true
	}
	return embed, kind, true
}

func (s *Server) itemKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(gochi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid item key encoding")
		return "", false
	}
	return key, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, false)
}

// decodeOptional accepts an empty body and leaves v at its zero value.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return true
			}
			writeError(w, http.StatusBadRequest, codeBadRequest, "Request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validateStruct(v); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// requestLogger prefers the request-scoped logger set by the middleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l := logger.FromContext(r.Context()); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return s.logger
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	if usage.Provider != "" {
		w.Header().Set("X-Embedding-Provider", string(usage.Provider))
	}
	if usage.FellBack {
		w.Header().Set("X-Embedding-Fallback", "true")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors carry client input only, so their full text is returned.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrInvalidQuery, domain.ErrInvalidKey, domain.ErrInvalidDescriptor} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	sentinels := []error{
		domain.ErrItemNotFound,
		domain.ErrStoreQueryFailed,
		domain.ErrRateLimited,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// unavailableEmbedder stands in for a provider that could not be built.
// Every call fails as "no embedding", so the caller falls through.
type unavailableEmbedder struct {
	err error
}

func (u unavailableEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, u.err)
}
