package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/report"
)

// formatAnalysis formats an analysis view as markdown
func formatAnalysis(view *models.AnalysisView) string {
	var sb strings.Builder
	name := view.Basic.CompanyName
	if name == "" {
		name = view.Symbol
	}
	sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", name, view.Symbol))

	currency := view.Basic.Metadata.Currency
	if latest := view.Basic.Latest(); latest != nil {
		sb.WriteString(fmt.Sprintf("**Price:** %s (%+.2f%%)\n", report.FormatPrice(&latest.Close, currency), view.Price.ChangePct))
		sb.WriteString(fmt.Sprintf("**Volume:** %s (%+.2f%%)\n", report.FormatVolume(&latest.Volume), view.Volume.ChangePct))
	}
	sb.WriteString(fmt.Sprintf("**Market Cap:** %s\n", report.FormatCompactCurrency(view.Basic.Metadata.MarketCap, currency)))

	sb.WriteString(fmt.Sprintf("**Confidence:** %s - %s\n\n", report.ConfidenceScore(view.Confidence), view.Confidence.Interpretation))

	if len(view.Backtest.Metrics) > 0 {
		sb.WriteString("### Backtest\n")
		writeMetrics(&sb, view.Backtest.Metrics)
	}
	if len(view.Detailed.RiskMetrics) > 0 {
		sb.WriteString("### Risk\n")
		writeMetrics(&sb, view.Detailed.RiskMetrics)
	}

	if view.Narrative != "" {
		sb.WriteString("### Analysis\n")
		sb.WriteString(view.Narrative)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeMetrics(sb *strings.Builder, metrics map[string]float64) {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", report.MetricLabel(k), report.FormatMetric(metrics[k])))
	}
	sb.WriteString("\n")
}

// formatExport describes a written report
func formatExport(r *models.Report, location string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Report for %s generated.\n\n", r.Symbol))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("**File:** %s\n", r.Filename))
	if location != "" {
		sb.WriteString(fmt.Sprintf("**Path:** %s\n", location))
	}
	sb.WriteString(fmt.Sprintf("**Pages:** %d, **Charts:** %d, **Size:** %d bytes\n", r.Pages, r.Charts, r.Size))
	return sb.String()
}

// formatReports formats the archive listing as markdown
func formatReports(reports []*models.Report) string {
	if len(reports) == 0 {
		return "No archived reports.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Archived Reports (%d)\n\n", len(reports)))
	sb.WriteString("| ID | Symbol | File | Pages | Created |\n|---|---|---|---|---|\n")
	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
			r.ID, r.Symbol, r.Filename, r.Pages, r.CreatedAt.Format("2006-01-02 15:04")))
	}
	return sb.String()
}

// formatMatches formats symbol search results as markdown
func formatMatches(query string, matches []models.SymbolMatch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Symbols matching \"%s\" (%d results)\n\n", query, len(matches)))
	if len(matches) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}
	for _, m := range matches {
		line := fmt.Sprintf("- **%s** %s", m.Symbol, m.Name)
		if m.Exchange != "" {
			line += fmt.Sprintf(" (%s)", m.Exchange)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// formatNews formats news articles as markdown
func formatNews(query string, articles []models.NewsArticle) string {
	var sb strings.Builder
	if query != "" {
		sb.WriteString(fmt.Sprintf("## Market News: \"%s\" (%d articles)\n\n", query, len(articles)))
	} else {
		sb.WriteString(fmt.Sprintf("## Market News (%d articles)\n\n", len(articles)))
	}
	if len(articles) == 0 {
		sb.WriteString("No articles found.\n")
		return sb.String()
	}

	for i, a := range articles {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, a.Title))
		sb.WriteString(fmt.Sprintf("**Source:** %s | %s\n", a.Source, a.PublishedAt))
		if a.Link != "" {
			sb.WriteString(fmt.Sprintf("**Link:** %s\n", a.Link))
		}
		if a.Description != "" {
			desc := a.Description
			if len(desc) > 300 {
				desc = desc[:300] + "..."
			}
			sb.WriteString("\n" + desc + "\n")
		}
		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}
