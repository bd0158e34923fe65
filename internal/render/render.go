// Package render turns a signal record into every operator- and
// channel-facing text block: the channel caption, the preview shown before
// confirmation, the pinned summary box and the creative-team brief.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"signal-desk/internal/domain"
)

// DefaultTemplate is the built-in channel caption. Operators can replace it
// at runtime; placeholders use {name} tokens so a template stays a plain
// message the operator can paste into the chat.
const DefaultTemplate = `🏆 <a href="{challenge_url}">EXCLUSIVE TG TRADE CHALLENGE</a>

🚨 NEW CRYPTO TRADE ALERT {direction_emoji}🔥

🔹 TRADE: {ticker} {direction}
🔹 Pair: {ticker}/USDT
🔹 Risk: HIGH
🔹 Leverage: {leverage}x
🔹 Risk Reward Ratio: 1:2

🕰️ Holding time: {holding_time}

🔸 Entry 1: ${entry1}
🔸 Entry 2: ${entry2}

🎯 Take Profit (TP) 1: ${tp1}
🎯 Take Profit (TP) 2: ${tp2}

🛑 Stop Loss (SL): ${sl}

⚠️ Disclaimer: Crypto assets are unregulated and extremely volatile. Losses are possible, and no regulatory recourse is available. Always DYOR before taking any trade.

<a href="{leaderboard_url}">CHECK THE LEADERBOARD 🚀</a>`

// URLs are the static promotional links substituted into captions.
type URLs struct {
	Challenge   string
	Leaderboard string
}

// Placeholders lists every token a custom template may use, for the /format
// help text.
var Placeholders = []string{
	"{ticker}", "{direction}", "{direction_emoji}", "{leverage}",
	"{holding_time}", "{entry1}", "{entry2}", "{avg_entry}",
	"{tp1}", "{tp2}", "{sl}", "{sl_percent}", "{potential_profit}",
	"{sig_id}", "{challenge_url}", "{leaderboard_url}",
}

// Caption renders the channel message from a template. An empty template
// falls back to DefaultTemplate. Unknown tokens pass through untouched.
func Caption(template string, rec domain.SignalRecord, urls URLs) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	r := strings.NewReplacer(
		"{ticker}", rec.Ticker,
		"{direction}", string(rec.Direction),
		"{direction_emoji}", rec.Direction.Emoji(),
		"{leverage}", strconv.Itoa(rec.Leverage),
		"{holding_time}", rec.HoldingTime,
		"{entry1}", rec.Display.Entry1,
		"{entry2}", rec.Display.Entry2,
		"{avg_entry}", rec.Display.AvgEntry,
		"{tp1}", rec.Display.TakeProfit1,
		"{tp2}", rec.Display.TakeProfit2,
		"{sl}", rec.Display.StopLoss,
		"{sl_percent}", rec.Display.StopLossPercent,
		"{potential_profit}", rec.Display.PotentialProfit,
		"{sig_id}", rec.SequenceID,
		"{challenge_url}", urls.Challenge,
		"{leaderboard_url}", urls.Leaderboard,
	)
	return r.Replace(template)
}

// Preview is the calculation summary an operator sees right after the signal
// command parses, before any creative is attached.
func Preview(rec domain.SignalRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Signal Preview:\n")
	fmt.Fprintf(&b, "Ticker: %s %s\n", rec.Ticker, rec.Direction)
	fmt.Fprintf(&b, "Entry1: $%s\n", rec.Display.Entry1)
	fmt.Fprintf(&b, "Entry2: $%s\n", rec.Display.Entry2)
	fmt.Fprintf(&b, "TP1: $%s\n", rec.Display.TakeProfit1)
	fmt.Fprintf(&b, "TP2: $%s\n", rec.Display.TakeProfit2)
	fmt.Fprintf(&b, "SL: $%s (%s)\n", rec.Display.StopLoss, rec.Display.StopLossPercent)
	fmt.Fprintf(&b, "Leverage: %dx\n", rec.Leverage)
	fmt.Fprintf(&b, "Holding time: %s\n", rec.HoldingTime)
	fmt.Fprintf(&b, "Potential profit: %s\n", rec.Display.PotentialProfit)
	fmt.Fprintf(&b, "Trade URL: %s", rec.TradeURL)
	return b.String()
}

// SummaryBox is the fenced block meant for pinning alongside the post.
func SummaryBox(rec domain.SignalRecord, at time.Time) string {
	return fmt.Sprintf(`📊 SUMMARY BOX

`+"```"+`
Entry 1: $%s
Entry 2: $%s
Average Entry: $%s
TP1: $%s
TP2: $%s
SL: $%s
⏰ Published On: %s
Potential Profit: %s
`+"```",
		rec.Display.Entry1,
		rec.Display.Entry2,
		rec.Display.AvgEntry,
		rec.Display.TakeProfit1,
		rec.Display.TakeProfit2,
		rec.Display.StopLoss,
		Timestamp(at),
		rec.Display.PotentialProfit,
	)
}

// DesignBrief is the step-by-step instruction block for the creative team's
// design tool: replace the text layers, touch nothing else.
func DesignBrief(rec domain.SignalRecord, at time.Time) string {
	return fmt.Sprintf(`📋 DESIGN BRIEF

Within the selected frame, update the following text fields using the
provided input data. Do not alter any design, style, font, alignment,
colors, sizing, or auto-layout settings—change only the text content.

`+"```"+`
Asset Name: %s
Direction: %s
Leverage: %dx
Entry Price: $%s – $%s
TP1: $%s
TP2: $%s
SL: $%s
Profit: %s
Published On: %s
`+"```"+`

• For each field above, locate the corresponding text layer and replace its
  content with the provided value.
• Do not modify any visual design or layout properties.
• Review and confirm all updates before saving.`,
		rec.Ticker,
		rec.Direction,
		rec.Leverage,
		rec.Display.Entry1,
		rec.Display.Entry2,
		rec.Display.TakeProfit1,
		rec.Display.TakeProfit2,
		rec.Display.StopLoss,
		rec.Display.PotentialProfit,
		Timestamp(at),
	)
}

var ist = loadIST()

func loadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// Timestamp renders a publish time the way the channel audience reads it,
// in IST.
func Timestamp(t time.Time) string {
	return t.In(ist).Format("02 Jan 2006, 03:04 PM")
}
