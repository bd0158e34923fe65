package bot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"signal-desk/internal/analytics"
	"signal-desk/internal/domain"
)

const helpText = `🚀 SIGNAL DESK

Commands:
signal ETH 3450 3300 3x — post a signal
signal ETH 3450 3300 3x https://... — with a custom link
delete — remove the last published signal
fix1 — save a creative under fix1
use fix1 — apply a saved creative (while posting)
list / clearfix <N|all> — manage creatives
links / addlink TICKER URL ... / clearlink <TICKER|all> — manage links
totalsignal[YYYY[YYYY]] — signal totals
total<member>[YYYY[YYYY]] — totals for one member
views[YYYY[YYYY]] — click-through totals
channelstats — membership snapshots
format — change the caption template (format reset restores)
cancel — abandon the current operation

Commands work with or without the leading slash.`

// userMessage turns a taxonomy error into the short reply the operator
// sees. The sentinel prefix is stripped so the detail reads naturally.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "❌ Invalid input: " + detail(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrUnauthorized):
		return "❌ You're not authorized to use this bot."
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Not found: " + detail(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrTransport):
		return "⚠️ Telegram error: " + detail(err, domain.ErrTransport)
	case errors.Is(err, domain.ErrPersistence):
		return "⚠️ Saved in memory but the store write failed: " + detail(err, domain.ErrPersistence)
	default:
		return "⚠️ Error: " + err.Error()
	}
}

func detail(err error, sentinel error) string {
	msg := err.Error()
	if trimmed, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return trimmed
	}
	return msg
}

func formatCreatives(creatives map[string]domain.CreativeRef) string {
	if len(creatives) == 0 {
		return "No saved creatives. Save one with fix1."
	}
	keys := make([]string, 0, len(creatives))
	for k := range creatives {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("Saved creatives:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "• %s\n", k)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLinks(links map[string]string) string {
	if len(links) == 0 {
		return "No saved links. Add one with addlink TICKER URL."
	}
	tickers := make([]string, 0, len(links))
	for t := range links {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	var b strings.Builder
	b.WriteString("Saved links:\n")
	for _, t := range tickers {
		fmt.Fprintf(&b, "• %s → %s\n", t, links[t])
	}
	return strings.TrimRight(b.String(), "\n")
}

func yearsLabel(years []int) string {
	if len(years) == 0 {
		return "all time"
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}

func formatReport(title string, years []int, r analytics.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s (%s)\nTotal: %d\n", title, yearsLabel(years), r.Total)
	if r.Total == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	fmt.Fprintf(&b, "First: %s\nLast: %s\n", r.FirstAt.Format("02 Jan 2006"), r.LastAt.Format("02 Jan 2006"))

	b.WriteString("\nBy month:\n")
	months := sortedKeys(r.ByMonth)
	for _, m := range months {
		fmt.Fprintf(&b, "• %s: %d\n", m, r.ByMonth[m])
	}

	if len(r.ByDirection) > 0 {
		b.WriteString("\nBy direction:\n")
		for _, d := range sortedKeys(r.ByDirection) {
			fmt.Fprintf(&b, "• %s: %d\n", d, r.ByDirection[d])
		}
	}

	if len(r.BySender) > 0 {
		b.WriteString("\nBy member:\n")
		for _, s := range sortedKeys(r.BySender) {
			fmt.Fprintf(&b, "• %s: %d\n", s, r.BySender[s])
		}
	}

	if len(r.TopTickers) > 0 {
		b.WriteString("\nTop tickers:\n")
		for i, tc := range r.TopTickers {
			fmt.Fprintf(&b, "%d. %s — %d\n", i+1, tc.Ticker, tc.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatViews(years []int, r analytics.ViewsReport) string {
	if r.Total == 0 {
		return fmt.Sprintf("👁 Views (%s)\nNo clicks recorded yet.", yearsLabel(years))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👁 Views (%s)\nTotal clicks: %d\n", yearsLabel(years), r.Total)
	tickers := make([]string, 0, len(r.ByTicker))
	for t := range r.ByTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	for _, t := range tickers {
		fmt.Fprintf(&b, "• %s: %d\n", t, r.ByTicker[t])
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMemberCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "No membership snapshots recorded yet."
	}
	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	latest := dates[len(dates)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "📣 Channel members: %d (as of %s)\n", counts[latest], latest)
	start := 0
	if len(dates) > 7 {
		start = len(dates) - 7
	}
	b.WriteString("Recent snapshots:\n")
	for _, d := range dates[start:] {
		fmt.Fprintf(&b, "• %s: %d\n", d, counts[d])
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
