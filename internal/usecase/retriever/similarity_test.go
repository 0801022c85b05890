package retriever

import (
	"math"
	"testing"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, []float32{1}, 0},
		{"shorter padded with zeros", []float32{1}, []float32{1, 1}, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%v, %v) = %v, expected %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 4, 0.01}
	b := []float32{2, 0.5, -0.7}
	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("expected symmetric similarity: %v != %v", Similarity(a, b), Similarity(b, a))
	}
}

func TestSimilarity_SelfIsExactlyOne(t *testing.T) {
	vectors := [][]float32{
		{0.3, -1.2, 4, 0.01},
		{0.1, 0.2},
		{1e-3, 7, -2.5, 0.333, 12},
	}
	for _, v := range vectors {
		if got := Similarity(v, v); got != 1 {
			t.Errorf("Similarity(%v, %v) = %.17g, expected exactly 1", v, v, got)
		}
	}
}

func TestSimilarity_WithinRange(t *testing.T) {
	vectors := [][]float32{
		{0.3, -1.2, 4, 0.01},
		{-0.3, 1.2, -4, -0.01},
		{0.1, 0.2},
		{0.2, 0.4},
		{-0.1, -0.2},
		{1e-3, 7, -2.5, 0.333, 12},
		{3, 3, 3},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			got := Similarity(a, b)
			if got < -1 || got > 1 {
				t.Errorf("Similarity(%v, %v) = %.17g, outside [-1, 1]", a, b, got)
			}
		}
	}
}

func entry(id string, vec ...float32) catalog.Entry {
	return catalog.NewEntry(catalog.Item{ID: id, Name: id}, vec)
}

func TestRank_SortsAndTruncates(t *testing.T) {
	idx := catalog.NewIndex([]catalog.Entry{
		entry("far", 0, 1),
		entry("close", 1, 0.1),
		entry("exact", 1, 0),
		entry("mid", 1, 1),
	})

	got := rank(idx, []float32{1, 0}, 3)
	want := []string{"exact", "close", "mid"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result %d = %q, expected %q", i, got[i].ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not sorted: %v > %v", got[i].Score, got[i-1].Score)
		}
	}
}

func TestRank_TiesKeepIndexOrder(t *testing.T) {
	idx := catalog.NewIndex([]catalog.Entry{
		entry("b", 2, 0),
		entry("a", 1, 0),
		entry("c", 3, 0),
	})

	got := rank(idx, []float32{1, 0}, 10)
	want := []string{"b", "a", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result %d = %q, expected %q", i, got[i].ID, id)
		}
	}
}

func TestRank_DropsNonFiniteScores(t *testing.T) {
	nan := float32(math.NaN())
	idx := catalog.NewIndex([]catalog.Entry{
		entry("broken", nan, 1),
		entry("ok", 1, 1),
	})

	got := rank(idx, []float32{1, 1}, 5)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected only the finite entry, got %+v", got)
	}
}
