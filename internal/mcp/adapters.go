package mcp

import (
	"context"

	"signal-desk/internal/analytics"
	"signal-desk/internal/domain"
)

// SignalReader is the slice of the store the tools need.
type SignalReader interface {
	SignalsInYears(ctx context.Context, years []int) []domain.SignalRecord
	Links(ctx context.Context) map[string]string
}

// StatsReader aggregates the history server-side so clients get
// ready-made numbers instead of raw records.
type StatsReader interface {
	Aggregate(ctx context.Context, years []int, sender string) (analytics.Report, error)
	Views(ctx context.Context, years []int) (analytics.ViewsReport, error)
}
