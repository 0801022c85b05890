package catalog

import (
	"encoding/json"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Zapato Rojo", "zapato rojo"},
		{"  Categoría   Calzado\t\n", "categoria calzado"},
		{"ÁÉÍÓÚ ñandú", "aeiou nandu"},
		{"Crème brûlée", "creme brulee"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestItemText_NameTwiceThenDetails(t *testing.T) {
	item := Item{
		ID:          "p1",
		Name:        "Zapato Rojo",
		Description: "Cuero  genuino",
		Category:    "Calzado",
		Price:       ptr(50),
	}
	want := "zapato rojo. zapato rojo. cuero genuino. categoria: calzado. precio: 50"
	if got := ItemText(item); got != want {
		t.Errorf("ItemText() = %q, want %q", got, want)
	}
}

func TestItemText_SkipsMissingParts(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"name only", Item{Name: "Bolso"}, "bolso. bolso"},
		{"description only", Item{Description: "Sin nombre"}, "sin nombre"},
		{"price only", Item{Price: ptr(9.5)}, "precio: 9.5"},
		{"empty", Item{ID: "x", URL: "https://example.com"}, ""},
		{"whitespace", Item{Name: "   ", Description: "\t"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ItemText(tc.item); got != tc.want {
				t.Errorf("ItemText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestItemKey_FallsBackToName(t *testing.T) {
	if got := (Item{ID: "p1", Name: "A"}).Key(); got != "p1" {
		t.Errorf("Key() = %q, want p1", got)
	}
	if got := (Item{Name: "A"}).Key(); got != "A" {
		t.Errorf("Key() = %q, want A", got)
	}
}

func TestDocument_UnmarshalSpanishKeys(t *testing.T) {
	raw := `{"productos":[
		{"id":"p1","nombre":"Zapato rojo","descripcion":"Cuero","categoria":"Calzado","precio":50},
		{"id":7,"nombre":"Bolso","precio":"19.90","url":"https://shop/b"}
	]}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(doc.Items))
	}
	first := doc.Items[0]
	if first.ID != "p1" || first.Name != "Zapato rojo" || first.Category != "Calzado" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.Price == nil || *first.Price != 50 {
		t.Errorf("expected price 50, got %v", first.Price)
	}
	second := doc.Items[1]
	if second.ID != "7" {
		t.Errorf("expected numeric id decoded as \"7\", got %q", second.ID)
	}
	if second.Price == nil || *second.Price != 19.9 {
		t.Errorf("expected price 19.9, got %v", second.Price)
	}
}

func TestDocument_UnmarshalEnglishAliases(t *testing.T) {
	raw := `{"items":[{"name":"Mug","description":"Ceramic","category":"Kitchen","price":4}]}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(doc.Items))
	}
	it := doc.Items[0]
	if it.Name != "Mug" || it.Description != "Ceramic" || it.Category != "Kitchen" || *it.Price != 4 {
		t.Errorf("unexpected item: %+v", it)
	}
}

func TestItem_UnmarshalInvalidPrice(t *testing.T) {
	var it Item
	if err := json.Unmarshal([]byte(`{"nombre":"x","precio":"gratis"}`), &it); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}

func TestEntryJSONShape(t *testing.T) {
	e := NewEntry(Item{Name: "Bolso"}, []float32{0.5, -1})
	data, err := json.Marshal([]Entry{e})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"id":"Bolso","item":{"nombre":"Bolso"},"embedding":[0.5,-1]}]`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestIndexDimensions(t *testing.T) {
	if NewIndex(nil).Dimensions() != 0 {
		t.Error("expected 0 dimensions for empty index")
	}
	x := NewIndex([]Entry{NewEntry(Item{Name: "a"}, []float32{1, 2, 3})})
	if x.Dimensions() != 3 || x.Len() != 1 || x.IsEmpty() {
		t.Errorf("unexpected index shape: dims=%d len=%d", x.Dimensions(), x.Len())
	}
}

func TestToFacts(t *testing.T) {
	results := []ScoredEntry{
		{Entry: NewEntry(Item{ID: "p1", Name: "Zapato", Price: ptr(50), URL: "u"}, nil), Score: 0.87654},
		{Entry: NewEntry(Item{Name: "Bolso"}, nil), Score: 0.1},
	}
	facts := ToFacts(results)
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
	if facts[0].ID != "p1" || facts[0].Title != "Zapato" || facts[0].Confidence != 0.877 {
		t.Errorf("unexpected first fact: %+v", facts[0])
	}
	if facts[1].ID != "Bolso" || facts[1].Price != nil {
		t.Errorf("unexpected second fact: %+v", facts[1])
	}
}
