package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
)

// Service serves the current assistant profile. Without a store edits live in memory only.
type Service struct {
	store    Store
	fallback agent.Profile
	last     atomic.Pointer[agent.Profile]
	logger   *zap.Logger
}

// New creates the profile service. fallback is served until an operator saves a profile
// and again after Reset.
func New(store Store, fallback agent.Profile, logger *zap.Logger) *Service {
	if fallback.Name == "" {
		fallback.Name = agent.DefaultName
	}
	return &Service{store: store, fallback: fallback, logger: logger}
}

// Get returns the saved profile, or the fallback when none is saved.
func (s *Service) Get(ctx context.Context) (agent.Profile, error) {
	if s.store == nil {
		return s.cached(), nil
	}

	p, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.last.Store(nil)
			return s.fallback, nil
		}
		return agent.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	s.last.Store(&p)
	return p, nil
}

// SystemPrompt returns the prompt for a chat turn. A store failure serves the last
// profile read successfully.
func (s *Service) SystemPrompt(ctx context.Context) string {
	p, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("Agent profile unavailable, using last known prompt", zap.Error(err))
		return s.cached().Prompt
	}
	return p.Prompt
}

// Update validates and saves a new profile.
func (s *Service) Update(ctx context.Context, name, description, prompt string) (agent.Profile, error) {
	p, err := agent.NewProfile(name, description, prompt)
	if err != nil {
		return agent.Profile{}, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, p); err != nil {
			return agent.Profile{}, fmt.Errorf("save profile: %w", err)
		}
	}
	s.last.Store(&p)

	s.logger.Info("Agent profile updated",
		zap.String("name", p.Name),
		zap.Int("prompt_len", len([]rune(p.Prompt))),
		zap.String("location", s.Location()),
	)
	return p, nil
}

// Reset drops the saved profile and returns the fallback now in effect.
func (s *Service) Reset(ctx context.Context) (agent.Profile, error) {
	if s.store != nil {
		if err := s.store.Delete(ctx); err != nil {
			return agent.Profile{}, fmt.Errorf("reset profile: %w", err)
		}
	}
	s.last.Store(nil)
	s.logger.Info("Agent profile reset to default")
	return s.fallback, nil
}

// Location describes where edits are kept.
func (s *Service) Location() string {
	if s.store == nil {
		return "memory"
	}
	return s.store.Location()
}

func (s *Service) cached() agent.Profile {
	if p := s.last.Load(); p != nil {
		return *p
	}
	return s.fallback
}
