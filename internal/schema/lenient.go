package schema

import (
	"strconv"
	"strings"
)

// Lenient decoding of model output into the typed schemas. Models drift: a
// score arrives as "75", a list arrives as a single string, a whole section
// is missing. The rule is field-level recovery: a leaf that cannot be
// coerced becomes nil and decoding continues. Only the caller decides when a
// document is unusable (it cannot be parsed as JSON at all). Unknown keys
// are ignored.

// DecodeAnalysis converts a generic JSON object into an EarningsAnalysis.
func DecodeAnalysis(m map[string]any) EarningsAnalysis {
	a := EarningsAnalysis{
		KeyHighlights:  asStringSlice(m["key_highlights"]),
		ConcernsRisks:  asStringSlice(m["concerns_risks"]),
		RedFlags:       asStringSlice(m["red_flags"]),
		AnalystSummary: asString(m["analyst_summary"]),
	}

	if ci, ok := asMap(m["company_info"]); ok {
		a.CompanyInfo = &CompanyInfo{
			Name:            asString(ci["name"]),
			Ticker:          asString(ci["ticker"]),
			ReportingPeriod: asString(ci["reporting_period"]),
			ReportDate:      asString(ci["report_date"]),
		}
	}

	if fm, ok := asMap(m["financial_metrics"]); ok {
		metrics := &FinancialMetrics{}
		if rev, ok := asMap(fm["revenue"]); ok {
			metrics.Revenue = &Revenue{
				Current:    asString(rev["current"]),
				Previous:   asString(rev["previous"]),
				YoYGrowth:  asString(rev["yoy_growth"]),
				Currency:   asString(rev["currency"]),
				Confidence: asInt(rev["confidence"]),
			}
		}
		if earn, ok := asMap(fm["earnings"]); ok {
			metrics.Earnings = &Earnings{
				EPSReported: asString(earn["eps_reported"]),
				EPSExpected: asString(earn["eps_expected"]),
				BeatMiss:    asString(earn["beat_miss"]),
				NetIncome:   asString(earn["net_income"]),
				Confidence:  asInt(earn["confidence"]),
			}
		}
		if mar, ok := asMap(fm["margins"]); ok {
			metrics.Margins = &Margins{
				GrossMargin:     asString(mar["gross_margin"]),
				OperatingMargin: asString(mar["operating_margin"]),
				NetMargin:       asString(mar["net_margin"]),
				Confidence:      asInt(mar["confidence"]),
			}
		}
		if gui, ok := asMap(fm["guidance"]); ok {
			metrics.Guidance = &Guidance{
				Provided:           asBool(gui["provided"]),
				NextQuarterRevenue: asString(gui["next_quarter_revenue"]),
				NextQuarterEPS:     asString(gui["next_quarter_eps"]),
				FullYear:           asString(gui["full_year"]),
			}
		}
		a.FinancialMetrics = metrics
	}

	if sa, ok := asMap(m["sentiment_analysis"]); ok {
		a.SentimentAnalysis = &SentimentAnalysis{
			OverallTone:          asString(sa["overall_tone"]),
			ManagementConfidence: asString(sa["management_confidence"]),
			ForwardOutlook:       asString(sa["forward_outlook"]),
			SentimentScore:       asInt(sa["sentiment_score"]),
			Confidence:           asInt(sa["confidence"]),
		}
	}

	if risks, ok := m["categorized_risks"].([]any); ok {
		for _, item := range risks {
			if rm, ok := asMap(item); ok {
				a.CategorizedRisks = append(a.CategorizedRisks, CategorizedRisk{
					Risk:     asString(rm["risk"]),
					Category: asString(rm["category"]),
				})
			}
		}
	}

	if segs, ok := m["business_segments"].([]any); ok {
		for _, item := range segs {
			if sm, ok := asMap(item); ok {
				a.BusinessSegments = append(a.BusinessSegments, BusinessSegment{
					Name:                asString(sm["name"]),
					Performance:         asString(sm["performance"]),
					RevenueContribution: asString(sm["revenue_contribution"]),
				})
			}
		}
	}

	if quotes, ok := m["notable_quotes"].([]any); ok {
		for _, item := range quotes {
			if qm, ok := asMap(item); ok {
				a.NotableQuotes = append(a.NotableQuotes, NotableQuote{
					Quote:   asString(qm["quote"]),
					Speaker: asString(qm["speaker"]),
					Context: asString(qm["context"]),
				})
			}
		}
	}

	if mi, ok := asMap(m["market_implications"]); ok {
		a.MarketImplications = &MarketImplications{
			LikelyMarketReaction: asString(mi["likely_market_reaction"]),
			KeyTakeaways:         asStringSlice(mi["key_takeaways"]),
			ComparisonToPeers:    asString(mi["comparison_to_peers"]),
		}
	}

	if hc, ok := asMap(m["historical_comparison"]); ok {
		a.HistoricalComparison = &HistoricalComparison{
			Trends:         asString(hc["trends"]),
			ImprovingAreas: asStringSlice(hc["improving_areas"]),
			DecliningAreas: asStringSlice(hc["declining_areas"]),
		}
	}

	return a
}

// DecodeComparison converts a generic JSON object into an EarningsComparison.
func DecodeComparison(m map[string]any) EarningsComparison {
	c := EarningsComparison{
		KeyChanges:          asStringSlice(m["key_changes"]),
		ManagementToneShift: asString(m["management_tone_shift"]),
		StrategicShifts:     asStringSlice(m["strategic_shifts"]),
		ComparativeSummary:  asString(m["comparative_summary"]),
	}

	if ta, ok := asMap(m["trend_analysis"]); ok {
		c.TrendAnalysis = &TrendAnalysis{
			RevenueTrend:       asString(ta["revenue_trend"]),
			ProfitabilityTrend: asString(ta["profitability_trend"]),
			MarginTrend:        asString(ta["margin_trend"]),
		}
	}

	if mo, ok := asMap(m["momentum"]); ok {
		c.Momentum = &Momentum{
			Accelerating: asStringSlice(mo["accelerating"]),
			Decelerating: asStringSlice(mo["decelerating"]),
		}
	}

	return c
}

// DecodeQueryResponse converts a generic JSON object into a QueryResponse.
func DecodeQueryResponse(m map[string]any) QueryResponse {
	q := QueryResponse{
		Answer:      asString(m["answer"]),
		Confidence:  asString(m["confidence"]),
		Limitations: asString(m["limitations"]),
	}

	if sources, ok := m["sources"].([]any); ok {
		for _, item := range sources {
			if sm, ok := asMap(item); ok {
				q.Sources = append(q.Sources, QuerySource{
					Company:        asString(sm["company"]),
					Quarter:        asString(sm["quarter"]),
					RelevantDetail: asString(sm["relevant_detail"]),
				})
			}
		}
	}

	return q
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func asString(v any) *string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return &s
	case float64:
		// Numbers sometimes come back bare where the schema asks for text
		// (e.g. revenue "124.3" vs 124.3).
		str := strconv.FormatFloat(s, 'f', -1, 64)
		return &str
	default:
		return nil
	}
}

func asInt(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
		return nil
	default:
		return nil
	}
}

func asBool(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := asString(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
