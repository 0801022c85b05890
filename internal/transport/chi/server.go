package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	"github.com/kailas-cloud/catalogchat/internal/logger"
	chatuc "github.com/kailas-cloud/catalogchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/catalogchat/internal/usecase/health"
	retrieveruc "github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
)

const (
	maxChatBodyBytes    = 64 << 10
	maxCatalogBodyBytes = 8 << 20
	maxPromptBodyBytes  = 64 << 10
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest          = "bad_request"
	CodeValidationFailed    = "validation_failed"
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeCatalogNotFound     = "catalog_not_found"
	CodeInvalidCatalog      = "invalid_catalog"
	CodeMemoryUnavailable   = "memory_unavailable"
	CodeEmbeddingProvider   = "embedding_provider_error"
	CodeLLMProvider         = "llm_provider_error"
	CodeInternalError       = "internal_error"
	CodeRequestBodyTooLarge = "request_too_large"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Deps are the services the HTTP API exposes.
type Deps struct {
	Chat         ChatService
	Retriever    Retriever
	Indexer      Indexer
	Catalog      CatalogStore
	Health       HealthChecker
	Prompts      PromptStore
	AdminAPIKeys []string
}

// Server serves the chat, catalog search and admin endpoints.
type Server struct {
	chat          ChatService
	retriever     Retriever
	indexer       Indexer
	catalog       CatalogStore
	health        HealthChecker
	prompts       PromptStore
	adminKeys     []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		chat:      deps.Chat,
		retriever: deps.Retriever,
		indexer:   deps.Indexer,
		catalog:   deps.Catalog,
		health:    deps.Health,
		prompts:   deps.Prompts,
		adminKeys: deps.AdminAPIKeys,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidMessage, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidCatalog, http.StatusBadRequest, CodeInvalidCatalog),
		sentinelHandler(domain.ErrCatalogNotFound, http.StatusNotFound, CodeCatalogNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrMemoryUnavailable, http.StatusServiceUnavailable, CodeMemoryUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProvider),
	}
	return s
}

// Register mounts every route on r. Admin routes sit behind bearer auth.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.Chat)
		r.Get("/catalog/search", s.SearchCatalog)
		r.Get("/sessions/{sessionID}/messages", s.SessionMessages)

		r.Route("/admin", func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.adminKeys))
			r.Post("/reindex", s.Reindex)
			r.Delete("/index/cache", s.ClearIndexCache)
			r.Get("/catalog", s.GetCatalog)
			r.Put("/catalog", s.ReplaceCatalog)
			r.Get("/prompt", s.GetPrompt)
			r.Put("/prompt", s.UpdatePrompt)
			r.Delete("/prompt", s.ResetPrompt)
		})
	})
}

type chatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"sessionId"`
	TopK       *int   `json:"topK"`
	UseCatalog *bool  `json:"useCatalog"`
}

type chatResponse struct {
	Reply           string         `json:"reply"`
	SessionID       string         `json:"sessionId"`
	MemoryProvider  string         `json:"memoryProvider"`
	HistoryDegraded bool           `json:"historyDegraded"`
	CatalogDegraded bool           `json:"catalogDegraded"`
	RAGResults      []catalog.Fact `json:"ragResults"`
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decodeBody(w, r, maxChatBodyBytes, &req) {
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "message is required")
		return
	}
	topK := 0
	if req.TopK != nil {
		if *req.TopK < 1 || *req.TopK > chatuc.MaxTopK {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("topK must be between 1 and %d", chatuc.MaxTopK))
			return
		}
		topK = *req.TopK
	}
	useCatalog := true
	if req.UseCatalog != nil {
		useCatalog = *req.UseCatalog
	}

	resp, err := s.chat.Reply(r.Context(), chatuc.Request{
		SessionID:  req.SessionID,
		Message:    req.Message,
		TopK:       topK,
		UseCatalog: useCatalog,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:           resp.Reply,
		SessionID:       resp.SessionID,
		MemoryProvider:  resp.MemoryProvider,
		HistoryDegraded: resp.HistoryDegraded,
		CatalogDegraded: resp.CatalogDegraded,
		RAGResults:      catalog.ToFacts(resp.Results),
	})
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []catalog.Fact `json:"results"`
}

// SearchCatalog handles GET /api/catalog/search.
func (s *Server) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "q is required")
		return
	}

	opts := retrieveruc.DefaultOptions()
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 || k > chatuc.MaxTopK {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("k must be an integer between 1 and %d", chatuc.MaxTopK))
			return
		}
		opts.TopK = k
	}

	facts, err := s.retriever.Facts(r.Context(), q, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if facts == nil {
		facts = []catalog.Fact{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: facts})
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type historyResponse struct {
	SessionID string            `json:"sessionId"`
	Messages  []messageResponse `json:"messages"`
}

// SessionMessages handles GET /api/sessions/{sessionID}/messages.
func (s *Server) SessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "session id is required")
		return
	}

	msgs, err := s.chat.History(r.Context(), sessionID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		SessionID: sessionID,
		Messages:  messagesToResponse(msgs),
	})
}

// Reindex handles POST /api/admin/reindex.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexer.Reseed(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.retriever.Purge()

	writeJSON(w, http.StatusOK, report)
}

// ClearIndexCache handles DELETE /api/admin/index/cache.
func (s *Server) ClearIndexCache(w http.ResponseWriter, _ *http.Request) {
	s.indexer.ClearCache()
	s.retriever.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// GetCatalog handles GET /api/admin/catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	doc, err := s.catalog.Read(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if doc.Items == nil {
		doc.Items = []catalog.Item{}
	}
	writeJSON(w, http.StatusOK, doc)
}

// ReplaceCatalog handles PUT /api/admin/catalog.
// The new document is written, then the index is rebuilt so a stale snapshot is never served.
func (s *Server) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	var doc catalog.Document
	if !s.decodeBody(w, r, maxCatalogBodyBytes, &doc) {
		return
	}
	for i, item := range doc.Items {
		if strings.TrimSpace(item.Name) == "" {
			writeError(w, http.StatusBadRequest, CodeInvalidCatalog,
				fmt.Sprintf("productos[%d]: nombre is required", i))
			return
		}
	}

	if err := s.catalog.Replace(r.Context(), doc); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report, err := s.indexer.Reseed(r.Context())
	s.retriever.Purge()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type promptRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// GetPrompt handles GET /api/admin/prompt.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request) {
	profile, err := s.prompts.Get(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdatePrompt handles PUT /api/admin/prompt. The new prompt applies from the next chat turn.
func (s *Server) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !s.decodeBody(w, r, maxPromptBodyBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "prompt is required")
		return
	}

	profile, err := s.prompts.Update(r.Context(), req.Name, req.Description, req.Prompt)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// ResetPrompt handles DELETE /api/admin/prompt and returns the configured default.
func (s *Server) ResetPrompt(w http.ResponseWriter, r *http.Request) {
	profile, err := s.prompts.Reset(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func messagesToResponse(msgs []conversation.Message) []messageResponse {
	out := make([]messageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = messageResponse{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}
	return out
}

// decodeBody decodes a JSON body into v, writing a 400/413 and returning false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeRequestBodyTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidMessage,
		domain.ErrInvalidRequest,
		domain.ErrInvalidCatalog,
		domain.ErrCatalogNotFound,
		domain.ErrNotFound,
		domain.ErrMemoryUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrLLMProviderError,
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

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
