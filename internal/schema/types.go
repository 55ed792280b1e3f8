package schema

import "time"

// All leaf fields are pointers (or slices) because an earnings report may omit
// any of them: a missing or unusable value decodes to nil, never to a zero
// value that could be mistaken for real data.

type CompanyInfo struct {
	Name            *string `json:"name"`
	Ticker          *string `json:"ticker"`
	ReportingPeriod *string `json:"reporting_period"`
	ReportDate      *string `json:"report_date"`
}

type Revenue struct {
	Current    *string `json:"current"`
	Previous   *string `json:"previous"`
	YoYGrowth  *string `json:"yoy_growth"`
	Currency   *string `json:"currency"`
	Confidence *int    `json:"confidence"`
}

type Earnings struct {
	EPSReported *string `json:"eps_reported"`
	EPSExpected *string `json:"eps_expected"`
	BeatMiss    *string `json:"beat_miss"`
	NetIncome   *string `json:"net_income"`
	Confidence  *int    `json:"confidence"`
}

type Margins struct {
	GrossMargin     *string `json:"gross_margin"`
	OperatingMargin *string `json:"operating_margin"`
	NetMargin       *string `json:"net_margin"`
	Confidence      *int    `json:"confidence"`
}

type Guidance struct {
	Provided           *bool   `json:"provided"`
	NextQuarterRevenue *string `json:"next_quarter_revenue"`
	NextQuarterEPS     *string `json:"next_quarter_eps"`
	FullYear           *string `json:"full_year"`
}

type FinancialMetrics struct {
	Revenue  *Revenue  `json:"revenue"`
	Earnings *Earnings `json:"earnings"`
	Margins  *Margins  `json:"margins"`
	Guidance *Guidance `json:"guidance"`
}

type SentimentAnalysis struct {
	OverallTone          *string `json:"overall_tone"`
	ManagementConfidence *string `json:"management_confidence"`
	ForwardOutlook       *string `json:"forward_outlook"`
	SentimentScore       *int    `json:"sentiment_score"`
	Confidence           *int    `json:"confidence"`
}

type BusinessSegment struct {
	Name                *string `json:"name"`
	Performance         *string `json:"performance"`
	RevenueContribution *string `json:"revenue_contribution"`
}

type NotableQuote struct {
	Quote   *string `json:"quote"`
	Speaker *string `json:"speaker"`
	Context *string `json:"context"`
}

type MarketImplications struct {
	LikelyMarketReaction *string  `json:"likely_market_reaction"`
	KeyTakeaways         []string `json:"key_takeaways"`
	ComparisonToPeers    *string  `json:"comparison_to_peers"`
}

type HistoricalComparison struct {
	Trends         *string  `json:"trends"`
	ImprovingAreas []string `json:"improving_areas"`
	DecliningAreas []string `json:"declining_areas"`
}

// CategorizedRisk tags an identified risk with one of the fixed categories:
// Regulatory, Market, Competition, Operational, Macro.
type CategorizedRisk struct {
	Risk     *string `json:"risk"`
	Category *string `json:"category"`
}

// EarningsAnalysis is the full structured analysis of one earnings report.
type EarningsAnalysis struct {
	CompanyInfo          *CompanyInfo          `json:"company_info"`
	FinancialMetrics     *FinancialMetrics     `json:"financial_metrics"`
	KeyHighlights        []string              `json:"key_highlights"`
	ConcernsRisks        []string              `json:"concerns_risks"`
	CategorizedRisks     []CategorizedRisk     `json:"categorized_risks"`
	SentimentAnalysis    *SentimentAnalysis    `json:"sentiment_analysis"`
	BusinessSegments     []BusinessSegment     `json:"business_segments"`
	NotableQuotes        []NotableQuote        `json:"notable_quotes"`
	MarketImplications   *MarketImplications   `json:"market_implications"`
	HistoricalComparison *HistoricalComparison `json:"historical_comparison"`
	RedFlags             []string              `json:"red_flags"`
	AnalystSummary       *string               `json:"analyst_summary"`
}

// Usage is the provider-reported token consumption for one model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Metadata describes how a result was produced. It is attached to every
// successful extraction but is not part of the analysis payload identity.
type Metadata struct {
	AnalyzedAt time.Time `json:"analyzed_at"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Usage      Usage     `json:"token_usage"`
}

// AnalysisResult pairs an analysis payload with its extraction metadata.
type AnalysisResult struct {
	Analysis EarningsAnalysis `json:"analysis"`
	Metadata Metadata         `json:"metadata"`
}

type TrendAnalysis struct {
	RevenueTrend       *string `json:"revenue_trend"`
	ProfitabilityTrend *string `json:"profitability_trend"`
	MarginTrend        *string `json:"margin_trend"`
}

type Momentum struct {
	Accelerating []string `json:"accelerating"`
	Decelerating []string `json:"decelerating"`
}

// EarningsComparison is the structured comparison of two earnings reports.
type EarningsComparison struct {
	TrendAnalysis       *TrendAnalysis `json:"trend_analysis"`
	KeyChanges          []string       `json:"key_changes"`
	Momentum            *Momentum      `json:"momentum"`
	ManagementToneShift *string        `json:"management_tone_shift"`
	StrategicShifts     []string       `json:"strategic_shifts"`
	ComparativeSummary  *string        `json:"comparative_summary"`
}

type QuerySource struct {
	Company        *string `json:"company"`
	Quarter        *string `json:"quarter"`
	RelevantDetail *string `json:"relevant_detail"`
}

// QueryResponse is the structured answer to a cross-report question.
type QueryResponse struct {
	Answer      *string       `json:"answer"`
	Confidence  *string       `json:"confidence"`
	Sources     []QuerySource `json:"sources"`
	Limitations *string       `json:"limitations"`
}
