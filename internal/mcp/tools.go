package mcp

import (
	"context"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"signal-desk/internal/domain"
)

func registerTools(srv *sdkmcp.Server, signals SignalReader, stats StatsReader) {
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "signals_list",
		Description: "List published trading signals, optionally filtered by year and ticker.",
	}, listSignalsHandler(signals))

	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "signals_stats",
		Description: "Aggregate statistics over the signal history: totals, per-month, per-ticker, per-sender counts and link click views.",
	}, signalStatsHandler(stats))

	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "links_list",
		Description: "List the saved ticker to trade-URL mappings.",
	}, listLinksHandler(signals))
}

func listSignalsHandler(signals SignalReader) func(context.Context, *sdkmcp.CallToolRequest, listSignalsInput) (*sdkmcp.CallToolResult, listSignalsOutput, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in listSignalsInput) (*sdkmcp.CallToolResult, listSignalsOutput, error) {
		records := signals.SignalsInYears(ctx, in.Years)

		ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
		if ticker != "" {
			filtered := records[:0]
			for _, rec := range records {
				if rec.Ticker == ticker {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}

		out := listSignalsOutput{Total: len(records)}
		if in.Limit > 0 && len(records) > in.Limit {
			records = records[len(records)-in.Limit:]
		}
		out.Signals = make([]signalSummary, 0, len(records))
		for _, rec := range records {
			out.Signals = append(out.Signals, summarize(rec))
		}
		return nil, out, nil
	}
}

func signalStatsHandler(stats StatsReader) func(context.Context, *sdkmcp.CallToolRequest, signalStatsInput) (*sdkmcp.CallToolResult, signalStatsOutput, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in signalStatsInput) (*sdkmcp.CallToolResult, signalStatsOutput, error) {
		report, err := stats.Aggregate(ctx, in.Years, strings.TrimSpace(in.Sender))
		if err != nil {
			return nil, signalStatsOutput{}, err
		}
		views, err := stats.Views(ctx, in.Years)
		if err != nil {
			return nil, signalStatsOutput{}, err
		}
		return nil, signalStatsOutput{Report: report, Views: views}, nil
	}
}

func listLinksHandler(signals SignalReader) func(context.Context, *sdkmcp.CallToolRequest, listLinksInput) (*sdkmcp.CallToolResult, listLinksOutput, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listLinksInput) (*sdkmcp.CallToolResult, listLinksOutput, error) {
		return nil, listLinksOutput{Links: signals.Links(ctx)}, nil
	}
}

func summarize(rec domain.SignalRecord) signalSummary {
	return signalSummary{
		SequenceID: rec.SequenceID,
		Ticker:     rec.Ticker,
		Direction:  string(rec.Direction),
		Entry1:     rec.Display.Entry1,
		Entry2:     rec.Display.Entry2,
		TakeProfit: rec.Display.TakeProfit1,
		StopLoss:   rec.Display.StopLoss,
		Leverage:   rec.Leverage,
		Sender:     rec.Sender,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
