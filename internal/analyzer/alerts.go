package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m1dnxt404/finalyze/internal/schema"
)

// Alert types surfaced alongside an analysis.
const (
	AlertStrongBeat   = "STRONG_BEAT"
	AlertLowSentiment = "LOW_SENTIMENT"
	AlertRedFlags     = "RED_FLAGS"
	AlertNoGuidance   = "NO_GUIDANCE"
)

type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Thresholds tune alert triggers. Zero values get the defaults from
// DefaultThresholds.
type Thresholds struct {
	EPSBeatPct   float64
	SentimentMin int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		EPSBeatPct:   5,
		SentimentMin: 40,
	}
}

// ComputeAlerts inspects an analysis for conditions an investor would want
// flagged. Missing data never triggers an alert except NO_GUIDANCE, where
// absence is the signal.
func ComputeAlerts(analysis *schema.EarningsAnalysis, t Thresholds) []Alert {
	if t.EPSBeatPct == 0 {
		t.EPSBeatPct = DefaultThresholds().EPSBeatPct
	}
	if t.SentimentMin == 0 {
		t.SentimentMin = DefaultThresholds().SentimentMin
	}

	alerts := make([]Alert, 0)

	if pct, ok := epsBeatPct(analysis); ok && pct > t.EPSBeatPct {
		alerts = append(alerts, Alert{
			Type:    AlertStrongBeat,
			Message: fmt.Sprintf("EPS beat expectations by %.1f%%", pct),
		})
	}

	if score, ok := sentimentScore(analysis); ok && score < t.SentimentMin {
		alerts = append(alerts, Alert{
			Type:    AlertLowSentiment,
			Message: fmt.Sprintf("Sentiment score %d is below %d", score, t.SentimentMin),
		})
	}

	if n := len(analysis.RedFlags); n > 0 {
		alerts = append(alerts, Alert{
			Type:    AlertRedFlags,
			Message: fmt.Sprintf("%d red flag(s) identified", n),
		})
	}

	if !guidanceProvided(analysis) {
		alerts = append(alerts, Alert{
			Type:    AlertNoGuidance,
			Message: "Management did not provide forward guidance",
		})
	}

	return alerts
}

func epsBeatPct(analysis *schema.EarningsAnalysis) (float64, bool) {
	if analysis.FinancialMetrics == nil || analysis.FinancialMetrics.Earnings == nil {
		return 0, false
	}
	e := analysis.FinancialMetrics.Earnings
	if e.BeatMiss == nil || strings.ToLower(*e.BeatMiss) != "beat" {
		return 0, false
	}

	reported, okR := parseMoney(e.EPSReported)
	expected, okE := parseMoney(e.EPSExpected)
	if !okR || !okE || expected == 0 {
		return 0, false
	}

	pct := (reported - expected) / abs(expected) * 100
	return pct, true
}

func sentimentScore(analysis *schema.EarningsAnalysis) (int, bool) {
	if analysis.SentimentAnalysis == nil || analysis.SentimentAnalysis.SentimentScore == nil {
		return 0, false
	}
	return *analysis.SentimentAnalysis.SentimentScore, true
}

func guidanceProvided(analysis *schema.EarningsAnalysis) bool {
	if analysis.FinancialMetrics == nil || analysis.FinancialMetrics.Guidance == nil {
		return false
	}
	g := analysis.FinancialMetrics.Guidance
	return g.Provided != nil && *g.Provided
}

// parseMoney reads values like "$2.15", "2.15", or "2.15 USD".
func parseMoney(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	cleaned := strings.TrimSpace(*s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if i := strings.IndexByte(cleaned, ' '); i > 0 {
		cleaned = cleaned[:i]
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
