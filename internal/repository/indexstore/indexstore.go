// Package indexstore persists catalog index snapshots.
package indexstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

// ErrNotFound is returned when no snapshot has been persisted yet.
var ErrNotFound = fmt.Errorf("index snapshot: %w", domain.ErrNotFound)

// The snapshot is a JSON array of entries, the same shape for every backend.
func encode(index catalog.Index) ([]byte, error) {
	entries := index.Entries()
	if entries == nil {
		entries = []catalog.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return data, nil
}

func decode(data []byte) (catalog.Index, error) {
	var entries []catalog.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return catalog.Index{}, fmt.Errorf("decode index: %w", err)
	}
	// null unmarshals into a nil slice without error; only an array is a snapshot.
	if entries == nil {
		return catalog.Index{}, errors.New("decode index: snapshot is not an array")
	}
	return catalog.NewIndex(entries), nil
}
