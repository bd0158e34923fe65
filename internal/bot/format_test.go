package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"signal-desk/internal/analytics"
	"signal-desk/internal/domain"
)

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: ENTRY must be a number", domain.ErrValidation), "❌ Invalid input: ENTRY must be a number"},
		{domain.ErrUnauthorized, "❌ You're not authorized to use this bot."},
		{fmt.Errorf("%w: creative \"fix9\"", domain.ErrNotFound), "❌ Not found: creative \"fix9\""},
		{fmt.Errorf("%w: posting to channel: timeout", domain.ErrTransport), "⚠️ Telegram error: posting to channel: timeout"},
		{fmt.Errorf("something odd"), "⚠️ Error: something odd"},
	}
	for _, tc := range cases {
		if got := userMessage(tc.err); got != tc.want {
			t.Fatalf("userMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestFormatCreativesAndLinks(t *testing.T) {
	if got := formatCreatives(nil); !strings.Contains(got, "No saved creatives") {
		t.Fatalf("unexpected empty-state text %q", got)
	}
	got := formatCreatives(map[string]domain.CreativeRef{"fix2": "b", "fix1": "a"})
	if !strings.Contains(got, "• fix1\n• fix2") {
		t.Fatalf("keys must be sorted:\n%s", got)
	}

	if got := formatLinks(nil); !strings.Contains(got, "No saved links") {
		t.Fatalf("unexpected empty-state text %q", got)
	}
	got = formatLinks(map[string]string{"ETH": "https://e", "BTC": "https://b"})
	if !strings.Contains(got, "• BTC → https://b\n• ETH → https://e") {
		t.Fatalf("tickers must be sorted:\n%s", got)
	}
}

func TestFormatReport(t *testing.T) {
	r := analytics.Report{
		Total:       3,
		FirstAt:     time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
		LastAt:      time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		ByMonth:     map[string]int{"2024-12": 1, "2025-01": 2},
		ByDirection: map[string]int{"LONG": 2, "SHORT": 1},
		BySender:    map[string]int{"Ravi": 3},
		TopTickers:  []analytics.TickerCount{{Ticker: "BTC", Count: 2}, {Ticker: "ETH", Count: 1}},
	}
	out := formatReport("Signals", []int{2024, 2025}, r)
	for _, want := range []string{
		"Signals (2024, 2025)",
		"Total: 3",
		"First: 30 Dec 2024",
		"Last: 05 Jan 2025",
		"• 2024-12: 1",
		"• 2025-01: 2",
		"1. BTC — 2",
		"• Ravi: 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	empty := formatReport("Signals", nil, analytics.Report{})
	if !strings.Contains(empty, "all time") || !strings.Contains(empty, "Total: 0") {
		t.Fatalf("unexpected empty report:\n%s", empty)
	}
	if strings.Contains(empty, "First:") {
		t.Fatal("empty report must not print timestamps")
	}
}

func TestFormatViews(t *testing.T) {
	out := formatViews(nil, analytics.ViewsReport{})
	if !strings.Contains(out, "No clicks recorded yet") {
		t.Fatalf("unexpected empty views text:\n%s", out)
	}

	out = formatViews([]int{2025}, analytics.ViewsReport{Total: 9, ByTicker: map[string]int64{"BTC": 7, "ETH": 2}})
	for _, want := range []string{"(2025)", "Total clicks: 9", "• BTC: 7", "• ETH: 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("views missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMemberCounts(t *testing.T) {
	if got := formatMemberCounts(nil); !strings.Contains(got, "No membership snapshots") {
		t.Fatalf("unexpected empty-state text %q", got)
	}

	counts := map[string]int{}
	for day := 1; day <= 10; day++ {
		counts[fmt.Sprintf("2025-03-%02d", day)] = 1000 + day
	}
	out := formatMemberCounts(counts)
	if !strings.Contains(out, "Channel members: 1010 (as of 2025-03-10)") {
		t.Fatalf("latest snapshot must lead:\n%s", out)
	}
	if strings.Contains(out, "2025-03-03") {
		t.Fatalf("only the last 7 snapshots should list:\n%s", out)
	}
	if !strings.Contains(out, "• 2025-03-04: 1004") {
		t.Fatalf("expected the 7-day window to start at 03-04:\n%s", out)
	}
}
