package analyzer

import (
	"fmt"
	"strings"

	"github.com/m1dnxt404/finalyze/internal/schema"
)

// FormatInvestorBrief renders an analysis as a plain-text brief suitable for
// a terminal or an email body.
func FormatInvestorBrief(result *schema.AnalysisResult, alerts []Alert) string {
	a := &result.Analysis
	var b strings.Builder

	company := "Unknown Company"
	period := ""
	if a.CompanyInfo != nil {
		if a.CompanyInfo.Name != nil {
			company = *a.CompanyInfo.Name
		}
		if a.CompanyInfo.Ticker != nil {
			company += fmt.Sprintf(" (%s)", *a.CompanyInfo.Ticker)
		}
		if a.CompanyInfo.ReportingPeriod != nil {
			period = *a.CompanyInfo.ReportingPeriod
		}
	}

	title := "EARNINGS BRIEF: " + company
	if period != "" {
		title += " - " + period
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	if a.FinancialMetrics != nil {
		if rev := a.FinancialMetrics.Revenue; rev != nil {
			writeLine(&b, "Revenue", joinParts(
				labeled("", rev.Current),
				labeled("YoY ", rev.YoYGrowth),
			))
		}
		if e := a.FinancialMetrics.Earnings; e != nil {
			writeLine(&b, "EPS", joinParts(
				labeled("", e.EPSReported),
				labeled("vs expected ", e.EPSExpected),
				labeled("", e.BeatMiss),
			))
		}
		if g := a.FinancialMetrics.Guidance; g != nil && g.Provided != nil && *g.Provided {
			writeLine(&b, "Guidance", joinParts(
				labeled("next quarter revenue ", g.NextQuarterRevenue),
				labeled("full year ", g.FullYear),
			))
		}
	}

	if s := a.SentimentAnalysis; s != nil {
		parts := joinParts(
			labeled("", s.OverallTone),
			labeledInt("score ", s.SentimentScore),
			labeled("outlook ", s.ForwardOutlook),
		)
		writeLine(&b, "Sentiment", parts)
	}

	writeBullets(&b, "Highlights", a.KeyHighlights)
	writeBullets(&b, "Concerns", a.ConcernsRisks)
	writeBullets(&b, "Red flags", a.RedFlags)

	if len(alerts) > 0 {
		b.WriteString("\nAlerts:\n")
		for _, alert := range alerts {
			fmt.Fprintf(&b, "  [%s] %s\n", alert.Type, alert.Message)
		}
	}

	if a.AnalystSummary != nil && *a.AnalystSummary != "" {
		b.WriteString("\nSummary:\n" + *a.AnalystSummary + "\n")
	}

	fmt.Fprintf(&b, "\nAnalyzed by %s (%s) at %s\n",
		result.Metadata.Provider,
		result.Metadata.Model,
		result.Metadata.AnalyzedAt.Format("2006-01-02 15:04 MST"),
	)

	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func writeBullets(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + label + ":\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
}

func labeled(prefix string, v *string) string {
	if v == nil || *v == "" {
		return ""
	}
	return prefix + *v
}

func labeledInt(prefix string, v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%s%d", prefix, *v)
}

func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
