package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const textSeparator = ". "

// Normalize lowercases s, strips diacritics and collapses whitespace.
// Used for both item texts and retrieval cache keys.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain is stateful, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// ItemText derives the text that gets embedded for an item.
// The name is repeated twice to weight it over description and category;
// persisted snapshots depend on this exact layout.
func ItemText(item Item) string {
	name := Normalize(item.Name)
	parts := []string{name, name, Normalize(item.Description)}
	if category := Normalize(item.Category); category != "" {
		parts = append(parts, "categoria: "+category)
	}
	if item.Price != nil {
		parts = append(parts, "precio: "+FormatPrice(*item.Price))
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, textSeparator)
}

// FormatPrice renders a price without trailing zeros ("50", "49.9").
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
