package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Item is a single product of the catalog document.
type Item struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"nombre"`
	Description string   `json:"descripcion,omitempty"`
	Category    string   `json:"categoria,omitempty"`
	Price       *float64 `json:"precio,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Key returns the item identifier, falling back to the name when no id is set.
func (i Item) Key() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Name
}

// itemWire accepts both the Spanish document keys and their English aliases.
type itemWire struct {
	ID          json.RawMessage `json:"id"`
	Nombre      string          `json:"nombre"`
	Name        string          `json:"name"`
	Descripcion string          `json:"descripcion"`
	Description string          `json:"description"`
	Categoria   string          `json:"categoria"`
	Category    string          `json:"category"`
	Precio      json.RawMessage `json:"precio"`
	Price       json.RawMessage `json:"price"`
	URL         string          `json:"url"`
}

// UnmarshalJSON decodes an item written by hand in the admin catalog file.
func (i *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err //nolint:wrapcheck // decoder context is added by the caller
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return err
	}

	rawPrice := w.Precio
	if len(rawPrice) == 0 {
		rawPrice = w.Price
	}
	price, err := decodePrice(rawPrice)
	if err != nil {
		return err
	}

	*i = Item{
		ID:          id,
		Name:        firstNonEmpty(w.Nombre, w.Name),
		Description: firstNonEmpty(w.Descripcion, w.Description),
		Category:    firstNonEmpty(w.Categoria, w.Category),
		Price:       price,
		URL:         w.URL,
	}
	return nil
}

// decodeID accepts string and numeric ids.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or a number, got %s", raw)
	}
	return n.String(), nil
}

// decodePrice accepts numbers and numeric strings ("50", "49.90").
func decodePrice(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("precio must be a number, got %s", raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("precio must be a number, got %q", s)
	}
	return &f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Document is the catalog source document.
type Document struct {
	Items []Item `json:"productos"`
}

// UnmarshalJSON accepts "productos" and the "items" alias.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w struct {
		Productos []Item `json:"productos"`
		Items     []Item `json:"items"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err //nolint:wrapcheck // decoder context is added by the caller
	}
	d.Items = w.Productos
	if d.Items == nil {
		d.Items = w.Items
	}
	return nil
}
