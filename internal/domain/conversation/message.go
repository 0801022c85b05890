package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/catalogchat/internal/domain"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a message written by the end user.
	RoleUser Role = "user"
	// RoleAssistant is a reply produced by the LLM.
	RoleAssistant Role = "assistant"
	// RoleSystem is an instruction injected by the service.
	RoleSystem Role = "system"
)

// Message is a single entry of a session's append-only log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Normalize validates msg and canonicalizes its timestamp.
// A zero CreatedAt becomes now; timestamps are stored in UTC with millisecond precision.
func Normalize(msg Message, now time.Time) (Message, error) {
	if strings.TrimSpace(string(msg.Role)) == "" || msg.Content == "" {
		return Message{}, fmt.Errorf("%w (role=%q, content length=%d)",
			domain.ErrInvalidMessage, msg.Role, len(msg.Content))
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return Message{
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}, nil
}
