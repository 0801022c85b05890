// Package agent holds the assistant profile operators edit from the admin API.
package agent

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalogchat/internal/domain"
)

// DefaultName names a profile saved without one.
const DefaultName = "Agente Comercial Inteligente"

// Profile is the assistant identity and the system prompt sent on every chat turn.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// NewProfile validates operator input. The prompt is required and trimmed;
// a blank name falls back to DefaultName and a blank description to "".
func NewProfile(name, description, prompt string) (Profile, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Profile{}, fmt.Errorf("prompt is required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	if strings.TrimSpace(description) == "" {
		description = ""
	}
	return Profile{Name: name, Description: description, Prompt: prompt}, nil
}
