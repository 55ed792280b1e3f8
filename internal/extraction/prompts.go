package extraction

import (
	"fmt"
	"strings"
)

// Prompt templates. The JSON skeletons double as the output schema for
// providers without a native structured-output mode; fence stripping on the
// response side tolerates models that wrap the payload in markdown anyway.

const analysisSchemaSkeleton = `{
  "company_info": {"name": "...", "ticker": "...", "reporting_period": "e.g. Q4 2024", "report_date": "..."},
  "financial_metrics": {
    "revenue": {"current": "...", "previous": "...", "yoy_growth": "...", "currency": "...", "confidence": 0},
    "earnings": {"eps_reported": "...", "eps_expected": "...", "beat_miss": "beat|miss|inline", "net_income": "...", "confidence": 0},
    "margins": {"gross_margin": "...", "operating_margin": "...", "net_margin": "...", "confidence": 0},
    "guidance": {"provided": false, "next_quarter_revenue": "...", "next_quarter_eps": "...", "full_year": "..."}
  },
  "key_highlights": ["..."],
  "concerns_risks": ["..."],
  "categorized_risks": [{"risk": "...", "category": "Regulatory|Market|Competition|Operational|Macro"}],
  "sentiment_analysis": {"overall_tone": "bullish|neutral|bearish", "management_confidence": "high|medium|low", "forward_outlook": "optimistic|cautious|pessimistic", "sentiment_score": 0, "confidence": 0},
  "business_segments": [{"name": "...", "performance": "...", "revenue_contribution": "..."}],
  "notable_quotes": [{"quote": "...", "speaker": "...", "context": "..."}],
  "market_implications": {"likely_market_reaction": "...", "key_takeaways": ["..."], "comparison_to_peers": "..."},
  "historical_comparison": {"trends": "...", "improving_areas": ["..."], "declining_areas": ["..."]},
  "red_flags": ["..."],
  "analyst_summary": "..."
}`

const confidenceRubric = `For each metric category (revenue, earnings, margins, sentiment), also provide a confidence score from 0-100 indicating how confident you are in the extracted data:
- 90-100: Data is explicitly and clearly stated in the report
- 70-89: Data is present but requires minor interpretation or calculation
- 40-69: Data is partially available, inferred, or ambiguous
- 0-39: Data is largely estimated or not directly supported by the report text`

func companyContext(companyName string) string {
	if companyName == "" {
		return ""
	}
	return " for " + companyName
}

func buildAnalysisPrompt(earningsText, companyName string) string {
	return fmt.Sprintf(`Analyze this earnings report%s thoroughly and extract all key financial data.

EARNINGS REPORT:
%s

Provide a comprehensive analysis covering:
- Company identification (name, ticker, reporting period, date)
- Financial metrics: revenue (current, previous, YoY growth, currency), earnings (EPS reported vs expected, beat/miss, net income), margins (gross, operating, net), and guidance (if provided)
- Key highlights and positive developments
- Concerns, risks, and headwinds
- Categorized risks - classify each identified risk into one of: Regulatory, Market, Competition, Operational, or Macro
- Sentiment analysis: overall tone, management confidence, forward outlook, and a sentiment score from 0-100
- Business segment breakdown with performance and revenue contribution
- Notable management quotes with speaker and context
- Market implications: likely reaction, key takeaways, peer comparison
- Red flags or concerning patterns
- A 2-3 paragraph analyst summary

%s

If information is not available in the report, use null. Focus on actionable insights.

Respond ONLY with a JSON object of this exact shape:
%s`, companyContext(companyName), earningsText, confidenceRubric, analysisSchemaSkeleton)
}

func buildContextAwarePrompt(earningsText, companyName string, history []ContextReport) string {
	return fmt.Sprintf(`Analyze this earnings report%s thoroughly. You have access to previous reports for this company - use them to identify trends, compare performance across quarters, and note acceleration or deceleration in key metrics. Reference specific changes from prior periods where relevant (e.g. "Revenue grew 12%%, accelerating from 8%% in the prior quarter").

%s

CURRENT EARNINGS REPORT:
%s

Provide a comprehensive analysis covering:
- Company identification (name, ticker, reporting period, date)
- Financial metrics: revenue, earnings, margins, and guidance
- Key highlights and concerns/risks
- Categorized risks - classify each risk into: Regulatory, Market, Competition, Operational, or Macro
- Sentiment analysis with a score from 0-100
- Business segments, notable quotes, market implications
- Historical comparison: trends across quarters, improving areas, declining areas
- Red flags
- A 2-3 paragraph analyst summary that references trends from prior quarters

%s

If information is not available, use null. Focus on actionable insights and cross-quarter trends.

Respond ONLY with a JSON object of this exact shape:
%s`, companyContext(companyName), formatContextSection(history), earningsText, confidenceRubric, analysisSchemaSkeleton)
}

const comparisonSchemaSkeleton = `{
  "trend_analysis": {"revenue_trend": "improving|declining|stable", "profitability_trend": "improving|declining|stable", "margin_trend": "expanding|contracting|stable"},
  "key_changes": ["..."],
  "momentum": {"accelerating": ["..."], "decelerating": ["..."]},
  "management_tone_shift": "more optimistic|more pessimistic|consistent",
  "strategic_shifts": ["..."],
  "comparative_summary": "..."
}`

func buildComparisonPrompt(currentReport, previousReport, companyName string) string {
	return fmt.Sprintf(`Compare these two earnings reports%s and identify trends, changes, and shifts.

CURRENT REPORT:
%s

PREVIOUS REPORT:
%s

Analyze: revenue/profitability/margin trends (improving/declining/stable), key changes between periods, momentum (accelerating vs decelerating areas), management tone shift, strategic shifts, and provide a 2-paragraph comparative summary.

Respond ONLY with a JSON object of this exact shape:
%s`, companyContext(companyName), currentReport, previousReport, comparisonSchemaSkeleton)
}

const querySchemaSkeleton = `{
  "answer": "...",
  "confidence": "high|medium|low",
  "sources": [{"company": "...", "quarter": "...", "relevant_detail": "..."}],
  "limitations": "..."
}`

func buildQueryPrompt(question string, reports []RetrievedReport) string {
	return fmt.Sprintf(`You are a financial analyst assistant. Answer the following question using ONLY the earnings report data provided below. If the data doesn't contain enough information to answer fully, say so.

AVAILABLE EARNINGS REPORT DATA:
%s

QUESTION: %s

Provide a detailed answer, indicate your confidence level (high/medium/low), cite specific sources (company, quarter, relevant detail), and note any limitations.

Respond ONLY with a JSON object of this exact shape:
%s`, formatQueryContext(reports), question, querySchemaSkeleton)
}

// formatContextSection renders prior-report summaries in the exact order the
// caller supplied them; callers own recency ordering.
func formatContextSection(history []ContextReport) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("HISTORICAL CONTEXT FROM PREVIOUS REPORTS:\n")
	for i, ctx := range history {
		period := ctx.Period
		if period == "" {
			period = "Unknown period"
		}
		fmt.Fprintf(&b, "\n--- Report %d (%s) ---\n%s\n", i+1, period, ctx.Summary)
	}
	return b.String()
}

func formatQueryContext(reports []RetrievedReport) string {
	var b strings.Builder
	for i, report := range reports {
		company := report.Company
		if company == "" {
			company = "Unknown"
		}
		fmt.Fprintf(&b, "\n--- Report %d: %s (%s) ---\n%s\n", i+1, company, report.Period, report.Summary)
	}
	return b.String()
}
