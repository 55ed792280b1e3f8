package history

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a lookup for a report id that was never saved.
var ErrNotFound = errors.New("report not found")

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Record is the durable row for one analyzed report. Payload holds the full
// analysis result as JSON; the flattened columns exist for listing and
// filtering without decoding it.
type Record struct {
	ID             string
	Company        string
	Ticker         string
	Period         string
	Provider       string
	Model          string
	SentimentScore int
	Summary        string
	Payload        string
	EmbeddingText  string
	CreatedAt      time.Time
}

// Summary is the listing view of a stored report.
type Summary struct {
	ID             string    `json:"id"`
	Company        string    `json:"company"`
	Ticker         string    `json:"ticker"`
	Period         string    `json:"period"`
	Provider       string    `json:"provider"`
	SentimentScore int       `json:"sentiment_score"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// SimilarReport is one semantic search match. Relevance is 1 - distance,
// rounded to four decimals, so larger means closer.
type SimilarReport struct {
	ID             string  `json:"id"`
	Company        string  `json:"company"`
	Ticker         string  `json:"ticker"`
	Period         string  `json:"period"`
	SentimentScore int     `json:"sentiment_score"`
	Summary        string  `json:"summary"`
	Relevance      float64 `json:"relevance"`
}

// ContextEntry is a prior report summary used to build context-aware prompts.
type ContextEntry struct {
	Period  string
	Summary string
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
