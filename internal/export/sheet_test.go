package export

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"signal-desk/internal/domain"
)

func TestNewSheetExporterDisabledWithoutURL(t *testing.T) {
	if e := NewSheetExporter("", trace.NewNoopTracerProvider().Tracer("test")); e != nil {
		t.Fatal("expected nil exporter without a webhook URL")
	}

	// A nil exporter must be safe to call.
	var e *SheetExporter
	e.ExportPublished(t.Context(), domain.SignalRecord{})
}

func TestPostSendsRow(t *testing.T) {
	received := make(chan Row, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		var row Row
		if err := json.Unmarshal(body, &row); err != nil {
			t.Errorf("body is not a row: %v", err)
			return
		}
		received <- row
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewSheetExporter(srv.URL, trace.NewNoopTracerProvider().Tracer("test"))
	e.post(Row{
		Timestamp: "2025-03-14T09:30:00Z",
		Ticker:    "ETH",
		Direction: "LONG",
		Leverage:  3,
		Entry1:    3450,
		Entry2:    3375,
		TP1:       3525,
		TP2:       3637.5,
		SL:        3300,
		Status:    "PUBLISHED",
	})

	select {
	case row := <-received:
		if row.Ticker != "ETH" || row.Direction != "LONG" || row.TP2 != 3637.5 || row.Status != "PUBLISHED" {
			t.Fatalf("unexpected row %+v", row)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never received the row")
	}
}

func TestExportPublishedBuildsRow(t *testing.T) {
	received := make(chan Row, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var row Row
		if err := json.NewDecoder(r.Body).Decode(&row); err == nil {
			received <- row
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewSheetExporter(srv.URL, trace.NewNoopTracerProvider().Tracer("test"))
	e.ExportPublished(t.Context(), domain.SignalRecord{
		Ticker:      "BTC",
		Direction:   domain.DirectionShort,
		Leverage:    3,
		Entry1:      86800,
		Entry2:      88500,
		TakeProfit1: 85100,
		TakeProfit2: 82550,
		StopLoss:    90200,
		CreatedAt:   time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	})

	select {
	case row := <-received:
		if row.Timestamp != "2025-03-14T09:30:00Z" {
			t.Fatalf("unexpected timestamp %q", row.Timestamp)
		}
		if row.Direction != "SHORT" || row.SL != 90200 {
			t.Fatalf("unexpected row %+v", row)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never received the row")
	}
}
