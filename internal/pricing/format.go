package pricing

import (
	"fmt"
	"strings"
)

// FormatPrice renders a price for display. A non-negative precision echoes
// the operator's input precision; -1 falls back to the magnitude-tiered
// table that matches the exchange's own display rules.
//
// Midpoint math can add up to two fractional digits beyond the inputs
// (entry2 halves the gap, the average entry quarters it), so the echo path
// formats two digits wider and trims trailing zeros instead of rounding a
// real half away.
func FormatPrice(price float64, precision int) string {
	if precision >= 0 {
		s := fmt.Sprintf("%.*f", precision+2, price)
		s = strings.TrimRight(s, "0")
		return strings.TrimRight(s, ".")
	}
	switch {
	case price >= 100:
		return fmt.Sprintf("%.2f", price)
	case price >= 1:
		return fmt.Sprintf("%.4f", price)
	case price >= 0.01:
		return fmt.Sprintf("%.5f", price)
	default:
		s := fmt.Sprintf("%.8f", price)
		s = strings.TrimRight(s, "0")
		return strings.TrimRight(s, ".")
	}
}

// inputPrecision returns the widest decimal precision among the raw numeric
// tokens, or -1 when no token carries a usable fraction.
func inputPrecision(tokens ...string) int {
	prec := -1
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		dot := strings.IndexByte(tok, '.')
		if dot < 0 {
			if tok != "" && prec < 0 {
				prec = 0
			}
			continue
		}
		frac := len(tok) - dot - 1
		if frac > prec {
			prec = frac
		}
	}
	return prec
}
