package prompt

import (
	"context"

	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
)

// Store persists the profile.
// Load returns an error wrapping domain.ErrNotFound when nothing has been saved.
type Store interface {
	Load(ctx context.Context) (agent.Profile, error)
	Save(ctx context.Context, p agent.Profile) error
	Delete(ctx context.Context) error
	Location() string
}
