// Package prompt persists the assistant profile edited from the admin API.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
)

// ErrNotFound is returned when no profile has been saved.
var ErrNotFound = fmt.Errorf("agent profile: %w", domain.ErrNotFound)

func encode(p agent.Profile) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return data, nil
}

func decode(data []byte) (agent.Profile, error) {
	var p agent.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return agent.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if p.Prompt == "" {
		return agent.Profile{}, errors.New("decode profile: prompt is empty")
	}
	return p, nil
}
