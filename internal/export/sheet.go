// Package export appends a fixed-column row to a spreadsheet webhook for
// every published signal. Failures log and are dropped; publishing never
// waits on the sheet.
package export

import (
	"context"
	"log"
	"time"

	"signal-desk/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/trace"
)

const postTimeout = 10 * time.Second

type Row struct {
	Timestamp string  `json:"timestamp"`
	Ticker    string  `json:"ticker"`
	Direction string  `json:"direction"`
	Leverage  int     `json:"leverage"`
	Entry1    float64 `json:"entry1"`
	Entry2    float64 `json:"entry2"`
	TP1       float64 `json:"tp1"`
	TP2       float64 `json:"tp2"`
	SL        float64 `json:"sl"`
	Status    string  `json:"status"`
}

type SheetExporter struct {
	client *resty.Client
	url    string
	tracer trace.Tracer
}

// NewSheetExporter builds the exporter. An empty webhook URL disables it.
func NewSheetExporter(webhookURL string, tracer trace.Tracer) *SheetExporter {
	if webhookURL == "" {
		log.Println("SHEET_WEBHOOK_URL not set, sheet export disabled")
		return nil
	}
	return &SheetExporter{
		client: resty.New().SetTimeout(postTimeout),
		url:    webhookURL,
		tracer: tracer,
	}
}

// ExportPublished hands the row off to a goroutine and returns immediately.
func (e *SheetExporter) ExportPublished(ctx context.Context, rec domain.SignalRecord) {
	if e == nil {
		return
	}
	row := Row{
		Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339),
		Ticker:    rec.Ticker,
		Direction: string(rec.Direction),
		Leverage:  rec.Leverage,
		Entry1:    rec.Entry1,
		Entry2:    rec.Entry2,
		TP1:       rec.TakeProfit1,
		TP2:       rec.TakeProfit2,
		SL:        rec.StopLoss,
		Status:    "PUBLISHED",
	}
	go e.post(row)
}

func (e *SheetExporter) post(row Row) {
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()
	ctx, span := e.tracer.Start(ctx, "export.sheet-append")
	defer span.End()

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(row).
		Post(e.url)
	if err != nil {
		log.Printf("sheet export for %s failed: %v", row.Ticker, err)
		return
	}
	if resp.IsError() {
		log.Printf("sheet export for %s failed: status %s", row.Ticker, resp.Status())
	}
}
