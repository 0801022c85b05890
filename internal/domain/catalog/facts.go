package catalog

import "math"

// Fact is the flat shape of a retrieval hit used for prompt injection and UI display.
type Fact struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	URL         string   `json:"url,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// ToFacts flattens scored entries; confidence is the score rounded to 3 decimals.
func ToFacts(results []ScoredEntry) []Fact {
	facts := make([]Fact, len(results))
	for i, r := range results {
		facts[i] = Fact{
			ID:          r.ID,
			Title:       r.Item.Name,
			Description: r.Item.Description,
			Category:    r.Item.Category,
			Price:       r.Item.Price,
			URL:         r.Item.URL,
			Confidence:  roundScore(r.Score),
		}
	}
	return facts
}

func roundScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return math.Round(score*1000) / 1000
}
