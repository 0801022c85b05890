package catalog

// Entry pairs a catalog item with its embedding.
type Entry struct {
	ID        string    `json:"id"`
	Item      Item      `json:"item"`
	Embedding []float32 `json:"embedding"`
}

// NewEntry creates an index entry keyed by the item's id (or name).
func NewEntry(item Item, embedding []float32) Entry {
	return Entry{ID: item.Key(), Item: item, Embedding: embedding}
}

// Index is an immutable, ordered snapshot of index entries.
// A published Index is never mutated; rebuilds produce a new one.
type Index struct {
	entries []Entry
}

// NewIndex wraps entries into a snapshot. The caller must not modify entries afterwards.
func NewIndex(entries []Entry) Index {
	return Index{entries: entries}
}

// Entries returns the entries in index order. Callers must treat them as read-only.
func (x Index) Entries() []Entry { return x.entries }

// Len returns the number of entries.
func (x Index) Len() int { return len(x.entries) }

// IsEmpty reports whether the index has no entries.
func (x Index) IsEmpty() bool { return len(x.entries) == 0 }

// Dimensions returns the embedding length of the first entry, 0 for an empty index.
func (x Index) Dimensions() int {
	if len(x.entries) == 0 {
		return 0
	}
	return len(x.entries[0].Embedding)
}

// ScoredEntry is an index entry ranked against a query.
type ScoredEntry struct {
	Entry
	Score float64 `json:"score"`
}
