package catalogchat

import (
	"time"

	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	indexeruc "github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of a conversation.
type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// Fact is a catalog item matched by a search, with its rounded similarity.
type Fact struct {
	ID          string
	Title       string
	Description string
	Category    string
	Price       *float64
	URL         string
	Confidence  float64
}

// ChatRequest is one user turn.
type ChatRequest struct {
	SessionID      string // empty starts a new session
	Message        string
	TopK           int  // 0 = client default
	DisableCatalog bool // skip retrieval for this turn
}

// ChatReply is the outcome of a turn.
type ChatReply struct {
	Reply           string
	SessionID       string
	MemoryProvider  string
	HistoryDegraded bool
	CatalogDegraded bool
	Facts           []Fact
}

// IndexStats describes the published catalog index.
type IndexStats struct {
	Items      int
	Dimensions int
}

// AgentProfile is the assistant identity and its system prompt.
type AgentProfile struct {
	Name        string
	Description string
	Prompt      string
}

// BuildReport summarizes a full catalog rebuild.
type BuildReport struct {
	CatalogItems int
	Indexed      int
	Skipped      int
	Dimensions   int
	Duration     time.Duration
	Location     string
	Persisted    bool
}

func factsFromDomain(facts []catalog.Fact) []Fact {
	out := make([]Fact, len(facts))
	for i, f := range facts {
		out[i] = Fact{
			ID:          f.ID,
			Title:       f.Title,
			Description: f.Description,
			Category:    f.Category,
			Price:       f.Price,
			URL:         f.URL,
			Confidence:  f.Confidence,
		}
	}
	return out
}

func messagesFromDomain(msgs []conversation.Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}
	return out
}

func reportFromDomain(r indexeruc.BuildReport) BuildReport {
	return BuildReport{
		CatalogItems: r.CatalogItems,
		Indexed:      r.Indexed,
		Skipped:      r.Skipped,
		Dimensions:   r.Dimensions,
		Duration:     r.Duration,
		Location:     r.Location,
		Persisted:    r.Persisted,
	}
}

func profileFromDomain(p agent.Profile) AgentProfile {
	return AgentProfile{Name: p.Name, Description: p.Description, Prompt: p.Prompt}
}
