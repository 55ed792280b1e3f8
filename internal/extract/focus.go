package extract

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// focusThreshold is the document size above which FocusEarningsSection trims
// to the most relevant sentences instead of passing everything to the model.
const focusThreshold = 100_000

var earningsKeywords = []string{
	"revenue", "earnings", "eps", "net income", "operating income",
	"gross margin", "operating margin", "guidance", "outlook",
	"quarter", "fiscal", "year-over-year", "growth", "profit",
	"cash flow", "dividend", "buyback", "repurchase", "segment",
}

// FocusEarningsSection reduces an oversized document to the sentences most
// likely to carry earnings content, preserving original sentence order.
// Documents under the threshold pass through unchanged.
func FocusEarningsSection(text string) string {
	if len(text) <= focusThreshold {
		return text
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return text[:focusThreshold]
	}

	type scored struct {
		index int
		text  string
		score int
	}

	sentences := doc.Sentences()
	candidates := make([]scored, 0, len(sentences))
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence.Text)
		score := 0
		for _, kw := range earningsKeywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{index: i, text: sentence.Text, score: score})
		}
	}

	if len(candidates) == 0 {
		return text[:focusThreshold]
	}

	var b strings.Builder
	for _, c := range candidates {
		if b.Len()+len(c.text)+1 > focusThreshold {
			break
		}
		b.WriteString(c.text)
		b.WriteString(" ")
	}

	focused := strings.TrimSpace(b.String())
	if focused == "" {
		return text[:focusThreshold]
	}
	return focused
}
