package pricing

import (
	"fmt"
	"math"
	"strings"

	"signal-desk/internal/domain"
)

// Input is one parsed signal command. EntryText and StopText keep the
// operator's raw tokens so derived prices can echo their precision.
// Leverage 0 means auto-select from the risk percentage.
type Input struct {
	Ticker    string
	Entry1    float64
	StopLoss  float64
	Leverage  int
	EntryText string
	StopText  string
}

// Engine derives a full signal record from an entry price and a stop-loss.
// It is deterministic and holds no state.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compute maps (ticker, entry, stop-loss, leverage) to a signal record.
//
// Entry2 is the arithmetic midpoint of entry and stop-loss, the average entry
// the midpoint of entry and entry2, and TP1/TP2 sit at 1:1 and 1:2
// reward-to-risk from the average entry. Direction is LONG exactly when the
// stop-loss is below the entry.
func (e *Engine) Compute(in Input) (domain.SignalRecord, error) {
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return domain.SignalRecord{}, fmt.Errorf("%w: ticker is required", domain.ErrValidation)
	}
	if !isFinitePositive(in.Entry1) {
		return domain.SignalRecord{}, fmt.Errorf("%w: entry price must be a positive number", domain.ErrValidation)
	}
	if !isFinitePositive(in.StopLoss) {
		return domain.SignalRecord{}, fmt.Errorf("%w: stop-loss must be a positive number", domain.ErrValidation)
	}
	if in.Entry1 == in.StopLoss {
		return domain.SignalRecord{}, fmt.Errorf("%w: entry and stop-loss must differ", domain.ErrValidation)
	}
	if in.Leverage < 0 {
		return domain.SignalRecord{}, fmt.Errorf("%w: leverage must be a positive integer", domain.ErrValidation)
	}

	direction := domain.DirectionShort
	if in.StopLoss < in.Entry1 {
		direction = domain.DirectionLong
	}

	entry2 := (in.Entry1 + in.StopLoss) / 2
	avgEntry := (in.Entry1 + entry2) / 2
	risk := math.Abs(avgEntry - in.StopLoss)

	var tp1, tp2 float64
	if direction == domain.DirectionLong {
		tp1 = avgEntry + risk
		tp2 = avgEntry + 2*risk
	} else {
		tp1 = avgEntry - risk
		tp2 = avgEntry - 2*risk
	}

	riskPercent := risk / avgEntry * 100

	leverage := in.Leverage
	if leverage == 0 {
		leverage = autoLeverage(riskPercent)
	}

	var potentialProfit float64
	if direction == domain.DirectionLong {
		potentialProfit = (tp2 - avgEntry) / avgEntry * 100 * float64(leverage)
	} else {
		potentialProfit = (avgEntry - tp2) / avgEntry * 100 * float64(leverage)
	}

	prec := inputPrecision(in.EntryText, in.StopText)
	rec := domain.SignalRecord{
		Ticker:          ticker,
		Direction:       direction,
		Entry1:          in.Entry1,
		Entry2:          entry2,
		AvgEntry:        avgEntry,
		TakeProfit1:     tp1,
		TakeProfit2:     tp2,
		StopLoss:        in.StopLoss,
		Leverage:        leverage,
		RiskPercent:     riskPercent,
		HoldingTime:     holdingTime(riskPercent),
		PotentialProfit: potentialProfit,
		Display: domain.PriceSet{
			Entry1:          FormatPrice(in.Entry1, prec),
			Entry2:          FormatPrice(entry2, prec),
			AvgEntry:        FormatPrice(avgEntry, prec),
			TakeProfit1:     FormatPrice(tp1, prec),
			TakeProfit2:     FormatPrice(tp2, prec),
			StopLoss:        FormatPrice(in.StopLoss, prec),
			PotentialProfit: fmt.Sprintf("%.2f%%", potentialProfit),
			StopLossPercent: fmt.Sprintf("%.2f%%", riskPercent),
		},
	}
	return rec, nil
}

// autoLeverage picks leverage from the stop-loss distance. The branch order
// is load-bearing: the >30 and <10 checks run before the >=20 one, so a
// 20–30% risk lands on 3x and 10–20% on 4x.
func autoLeverage(riskPercent float64) int {
	switch {
	case riskPercent > 30:
		return 2
	case riskPercent < 10:
		return 5
	case riskPercent >= 20:
		return 3
	default:
		return 4
	}
}

func holdingTime(riskPercent float64) string {
	switch {
	case riskPercent <= 5:
		return "1–2 days"
	case riskPercent <= 8:
		return "2–3 days"
	default:
		return "5–7 days"
	}
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
