package reports

import (
	"math"
	"time"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
)

// VariantSummary reports the in-range count and share for one document
// variant. Percent carries one decimal place.
type VariantSummary struct {
	Kind    documents.Kind `json:"kind"`
	Count   int            `json:"count"`
	Percent float64        `json:"percent"`
}

// Summary is the period report the reports page renders.
type Summary struct {
	Period   Period           `json:"period"`
	Start    time.Time        `json:"start"`
	End      time.Time        `json:"end"`
	Total    int              `json:"total"`
	Variants []VariantSummary `json:"variants"`
}

// BuildSummary filters each variant by its registration date against the
// window and computes the per-variant shares. With no documents in range
// every percentage is 0, never NaN.
func BuildSummary(window Range, docs []documents.Document) Summary {
	counts := make(map[documents.Kind]int, len(documents.Kinds()))
	total := 0
	for _, doc := range docs {
		if !window.Contains(doc.IssuedAt.UTC()) {
			continue
		}
		counts[doc.Kind]++
		total++
	}

	variants := make([]VariantSummary, 0, len(documents.Kinds()))
	for _, kind := range documents.Kinds() {
		entry := VariantSummary{Kind: kind, Count: counts[kind]}
		if total > 0 {
			entry.Percent = math.Round(float64(entry.Count)/float64(total)*1000) / 10
		}
		variants = append(variants, entry)
	}

	return Summary{
		Period:   window.Period,
		Start:    window.Start,
		End:      window.End,
		Total:    total,
		Variants: variants,
	}
}
