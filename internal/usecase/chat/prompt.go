package chat

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
)

// DefaultSystemPrompt is used when no prompt is configured.
const DefaultSystemPrompt = "Eres un asistente de ventas amable y conciso. " +
	"Responde en español y usa el contexto de catálogo cuando esté disponible. " +
	"Si un producto no aparece en el catálogo, dilo en lugar de inventarlo."

const catalogContextHeader = "Contexto de catálogo relevante:"

// sanitize trims s, clips it to maxRunes and drops control characters.
func sanitize(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if maxRunes > 0 {
		if r := []rune(s); len(r) > maxRunes {
			s = string(r[:maxRunes])
		}
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// catalogContext renders retrieval hits as a system message body, empty when there are none.
func catalogContext(results []catalog.ScoredEntry) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(catalogContextHeader)
	for _, r := range results {
		parts := make([]string, 0, 4)
		if r.Item.Name != "" {
			parts = append(parts, r.Item.Name)
		}
		if r.Item.Description != "" {
			parts = append(parts, r.Item.Description)
		}
		if r.Item.Category != "" {
			parts = append(parts, "Categoría: "+r.Item.Category)
		}
		if r.Item.Price != nil {
			parts = append(parts, "Precio: "+catalog.FormatPrice(*r.Item.Price))
		}

		b.WriteString("\n- (")
		b.WriteString(strconv.FormatFloat(r.Score, 'f', 3, 64))
		b.WriteString(") ")
		b.WriteString(strings.Join(parts, " | "))
	}
	return b.String()
}

// buildPrompt assembles system prompt, catalog context, history and the user turn.
func buildPrompt(
	systemPrompt string,
	results []catalog.ScoredEntry,
	history []conversation.Message,
	maxHistory int,
	userMessage string,
) []conversation.Message {
	if maxHistory > 0 && len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	messages := make([]conversation.Message, 0, len(history)+3)
	if systemPrompt != "" {
		messages = append(messages, conversation.Message{Role: conversation.RoleSystem, Content: systemPrompt})
	}
	if ctx := catalogContext(results); ctx != "" {
		messages = append(messages, conversation.Message{Role: conversation.RoleSystem, Content: ctx})
	}
	for _, m := range history {
		messages = append(messages, conversation.Message{Role: m.Role, Content: m.Content})
	}
	return append(messages, conversation.Message{Role: conversation.RoleUser, Content: userMessage})
}
