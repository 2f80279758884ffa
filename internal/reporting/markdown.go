package reporting

import (
	"fmt"
	"strings"
	"time"

	"holder-analytics/internal/domain"
)

// moversLimit caps the gainer and loser tables.
const moversLimit = 10

// RenderRichListMarkdown renders report as Markdown string.
func RenderRichListMarkdown(r *RichListReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Rich List Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Latest snapshot: %s\n\n", formatMs(r.LatestAt)))
	if r.HasBaseline {
		sb.WriteString(fmt.Sprintf("Baseline snapshot: %s\n\n", formatMs(r.BaselineAt)))
	} else {
		sb.WriteString("Baseline snapshot: none (all holders reported as new)\n\n")
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Holders | %d |\n", r.Summary.HolderCount))
	sb.WriteString(fmt.Sprintf("| Total Balance | %s |\n", r.Summary.TotalBalance.String()))
	sb.WriteString(fmt.Sprintf("| New Holders | %d |\n", r.Summary.NewHolders))
	sb.WriteString("\n")

	// Concentration
	sb.WriteString("## Concentration\n\n")
	if len(r.Concentration) > 0 {
		sb.WriteString("| Top N | Share % |\n")
		sb.WriteString("|-------|---------|\n")
		for _, c := range r.Concentration {
			sb.WriteString(fmt.Sprintf("| %d | %.2f |\n", c.TopN, c.Share))
		}
	} else {
		sb.WriteString("No holders available.\n")
	}
	sb.WriteString("\n")

	// Rich list
	sb.WriteString("## Rich List\n\n")
	writeEntries(&sb, r.Entries, len(r.Entries), "No holders available.")

	// Movers
	sb.WriteString("## Top Gainers\n\n")
	writeEntries(&sb, r.Gainers, moversLimit, "No gainers.")
	sb.WriteString("## Top Losers\n\n")
	writeEntries(&sb, r.Losers, moversLimit, "No losers.")

	return sb.String()
}

func writeEntries(sb *strings.Builder, entries []domain.HolderEntry, limit int, empty string) {
	if len(entries) == 0 {
		sb.WriteString(empty + "\n\n")
		return
	}
	if limit < len(entries) {
		entries = entries[:limit]
	}
	sb.WriteString("| Rank | Address | Balance | Share % | Change | Change % |\n")
	sb.WriteString("|------|---------|---------|---------|--------|----------|\n")
	for _, e := range entries {
		rank := "-"
		if e.Rank > 0 {
			rank = fmt.Sprintf("%d", e.Rank)
		}
		changePct := "new"
		if e.ChangePercent != nil {
			changePct = fmt.Sprintf("%+.2f", *e.ChangePercent)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %s | %s |\n",
			rank, e.Address, e.Balance.String(), e.Percentage, e.ChangeAbsolute.String(), changePct))
	}
	sb.WriteString("\n")
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "unknown"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
