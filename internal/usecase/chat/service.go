package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	"github.com/kailas-cloud/catalogchat/internal/logger"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
	"github.com/kailas-cloud/catalogchat/internal/usecase/memory"
	"github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
)

// MaxTopK bounds the per-request catalog result count.
const MaxTopK = 10

// Config holds orchestrator settings.
type Config struct {
	SystemPrompt string
	Prompts      PromptSource // read on every turn; SystemPrompt is used when nil or empty
	MaxInputLen  int          // runes, default 4000
	MaxHistory   int          // messages sent to the LLM, 0 = all
}

// Request is a single user turn.
type Request struct {
	SessionID  string
	Message    string
	TopK       int // 0 = retriever default
	UseCatalog bool
}

// Response is the outcome of a turn.
type Response struct {
	Reply           string
	SessionID       string
	MemoryProvider  string
	HistoryDegraded bool // memory backend failed; the turn ran without (or without saving) history
	CatalogDegraded bool // retrieval failed; the turn ran without catalog context
	Results         []catalog.ScoredEntry
}

// Service runs chat turns: retrieval, history, LLM call and history update.
type Service struct {
	retriever Retriever
	completer Completer
	memory    memory.Memory
	backend   memory.Backend
	cfg       Config
	locks     *sessionLocks
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// New creates the chat orchestrator.
func New(r Retriever, c Completer, mem memory.Resolved, cfg Config, logger *zap.Logger) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxInputLen <= 0 {
		cfg.MaxInputLen = 4000
	}
	return &Service{
		retriever: r,
		completer: c,
		memory:    mem.Memory,
		backend:   mem.Backend,
		cfg:       cfg,
		locks:     newSessionLocks(),
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// MemoryProvider returns the active memory backend label.
func (s *Service) MemoryProvider() string {
	return s.backend.String()
}

// History returns the stored messages of a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	msgs, err := s.memory.GetMessages(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return msgs, nil
}

// Reply runs one turn. Turns on the same session are serialized.
func (s *Service) Reply(ctx context.Context, req Request) (Response, error) {
	message := sanitize(req.Message, s.cfg.MaxInputLen)
	if message == "" {
		return Response{}, fmt.Errorf("message is empty: %w", domain.ErrInvalidMessage)
	}
	if req.TopK < 0 || req.TopK > MaxTopK {
		return Response{}, fmt.Errorf("topK must be between 1 and %d: %w", MaxTopK, domain.ErrInvalidRequest)
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.newID()
	}
	ctx = logger.WithSession(ctx, sessionID)
	log := logger.FromContextOr(ctx, s.logger.With(zap.String("session_id", sessionID)))

	unlock := s.locks.lock(sessionID)
	defer unlock()

	resp := Response{SessionID: sessionID, MemoryProvider: s.backend.String()}
	turnStart := s.now()

	history, err := s.memory.GetMessages(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrMemoryUnavailable) {
			return Response{}, fmt.Errorf("get history: %w", err)
		}
		resp.HistoryDegraded = true
		history = nil
	}

	if req.UseCatalog {
		results, err := s.retriever.Retrieve(ctx, message, retriever.Options{TopK: req.TopK, UseCache: true})
		if err != nil {
			log.Warn("Catalog retrieval failed, answering without context", zap.Error(err))
			resp.CatalogDegraded = true
		} else {
			resp.Results = results
		}
	}

	prompt := buildPrompt(s.systemPrompt(ctx), resp.Results, history, s.cfg.MaxHistory, message)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
		if !errors.Is(err, domain.ErrLLMProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrLLMProviderError, err)
		}
		return Response{}, fmt.Errorf("complete turn: %w", err)
	}
	resp.Reply = reply

	if err := s.remember(ctx, sessionID, message, reply, turnStart); err != nil {
		if !errors.Is(err, domain.ErrMemoryUnavailable) {
			return Response{}, err
		}
		resp.HistoryDegraded = true
	}

	status := "ok"
	if resp.HistoryDegraded || resp.CatalogDegraded {
		status = "degraded"
	}
	metrics.ChatTurnsTotal.WithLabelValues(status).Inc()

	log.Debug("Chat turn completed",
		zap.Int("history", len(history)),
		zap.Int("catalog_results", len(resp.Results)),
		zap.Bool("history_degraded", resp.HistoryDegraded),
		zap.Bool("catalog_degraded", resp.CatalogDegraded),
	)
	return resp, nil
}

func (s *Service) systemPrompt(ctx context.Context) string {
	if s.cfg.Prompts != nil {
		if p := s.cfg.Prompts.SystemPrompt(ctx); p != "" {
			return p
		}
	}
	return s.cfg.SystemPrompt
}

// remember appends the user message and then the reply. A failed user append skips the reply
// so the log never holds an answer without its question.
func (s *Service) remember(ctx context.Context, sessionID, message, reply string, turnStart time.Time) error {
	user := conversation.Message{Role: conversation.RoleUser, Content: message, CreatedAt: turnStart}
	if err := s.memory.AddMessage(ctx, sessionID, user); err != nil {
		return fmt.Errorf("store user message: %w", err)
	}

	assistant := conversation.Message{Role: conversation.RoleAssistant, Content: reply, CreatedAt: s.now()}
	if err := s.memory.AddMessage(ctx, sessionID, assistant); err != nil {
		return fmt.Errorf("store assistant message: %w", err)
	}
	return nil
}
