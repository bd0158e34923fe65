package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"signal-desk/internal/domain"
)

type memoryPort struct {
	data     []byte
	found    bool
	saves    int
	failSave bool
}

func (m *memoryPort) Load() ([]byte, bool, error) {
	return m.data, m.found, nil
}

func (m *memoryPort) Save(data []byte) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.data = append([]byte(nil), data...)
	m.found = true
	m.saves++
	return nil
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func record(seq, ticker string, createdAt time.Time) domain.SignalRecord {
	return domain.SignalRecord{
		SequenceID: seq,
		Ticker:     ticker,
		Direction:  domain.DirectionLong,
		Entry1:     100,
		StopLoss:   90,
		Leverage:   3,
		TradeURL:   "https://example.com/trade/" + ticker + "-USDT",
		CreatedAt:  createdAt,
		MessageID:  42,
		ChatID:     -100,
	}
}

func TestOpenFreshStoreSeedsLinks(t *testing.T) {
	port := &memoryPort{}
	s, err := Open(port, testTracer(), map[string]string{"BTC": "https://example.com/btc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port.saves != 1 {
		t.Fatalf("expected one save on open, got %d", port.saves)
	}
	url, err := s.Link(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://example.com/btc" {
		t.Fatalf("unexpected link %q", url)
	}
}

func TestOpenDoesNotOverwriteExistingLinks(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetLink(ctx, "BTC", "https://example.com/custom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err = Open(port, testTracer(), map[string]string{"BTC": "https://example.com/seed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	url, err := s.Link(ctx, "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://example.com/custom" {
		t.Fatalf("seed must not overwrite, got %q", url)
	}
}

func TestNextSequenceSurvivesReload(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []string{"000001", "000002"} {
		seq, err := s.NextSequence(ctx)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if seq != want {
			t.Fatalf("call %d: expected %s, got %s", i, want, seq)
		}
	}

	s, err = Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, err := s.NextSequence(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != "000003" {
		t.Fatalf("counter must survive reload, got %s", seq)
	}
}

func TestAppendAndDeleteLastSignal(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	if err := s.AppendSignal(ctx, record("000001", "ETH", created)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ref, err := s.LastSignal(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Sequence != "000001" || ref.Year != "2025" || ref.Month != "03" || ref.MessageID != 42 {
		t.Fatalf("unexpected ref %+v", ref)
	}

	deleted, err := s.DeleteLastSignal(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.Sequence != "000001" {
		t.Fatalf("unexpected deleted ref %+v", deleted)
	}
	if got := s.AllSignals(ctx); len(got) != 0 {
		t.Fatalf("expected empty history, got %d records", len(got))
	}
	if _, err := s.LastSignal(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
	if _, err := s.DeleteLastSignal(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestDeleteLastSignalKeepsCounter(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, _ := s.NextSequence(ctx)
	if err := s.AppendSignal(ctx, record(seq, "ETH", time.Now().UTC())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.DeleteLastSignal(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := s.NextSequence(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != "000002" {
		t.Fatalf("delete must not rewind the counter, got %s", next)
	}
}

func TestSignalsInYearsOrderAndFilter(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Inserted out of chronological order on purpose.
	times := []struct {
		seq string
		at  time.Time
	}{
		{"000003", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"000001", time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)},
		{"000002", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range times {
		if err := s.AppendSignal(ctx, record(tc.seq, "BTC", tc.at)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all := s.SignalsInYears(ctx, nil)
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	for i, want := range []string{"000001", "000002", "000003"} {
		if all[i].SequenceID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, all[i].SequenceID)
		}
	}

	only2024 := s.SignalsInYears(ctx, []int{2024})
	if len(only2024) != 2 {
		t.Fatalf("expected 2 records for 2024, got %d", len(only2024))
	}
	both := s.SignalsInYears(ctx, []int{2024, 2025})
	if len(both) != 3 {
		t.Fatalf("expected 3 records for 2024+2025, got %d", len(both))
	}
	none := s.SignalsInYears(ctx, []int{2022})
	if len(none) != 0 {
		t.Fatalf("expected no records for 2022, got %d", len(none))
	}
}

func TestClicks(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AppendSignal(ctx, record("000001", "SOL", time.Now().UTC())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.RecordClick(ctx, "999999"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for unknown sequence, got %v", err)
	}
	if _, err := s.ResolveTradeURL(ctx, "999999"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for unknown sequence, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.RecordClick(ctx, "000001"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := s.Clicks(ctx)["000001"]; got != 3 {
		t.Fatalf("expected 3 clicks, got %d", got)
	}

	url, err := s.ResolveTradeURL(ctx, "000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://example.com/trade/SOL-USDT" {
		t.Fatalf("unexpected trade URL %q", url)
	}
}

func TestCreativesRoundTrip(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Creative(ctx, "fix1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := s.SaveCreative(ctx, "fix1", "file-id-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ref, err := s.Creative(ctx, "fix1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "file-id-1" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if err := s.DeleteCreative(ctx, "fix2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := s.ClearCreatives(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Creatives(ctx)) != 0 {
		t.Fatal("expected no creatives after clear")
	}
}

func TestSignalFormat(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.SignalFormat(ctx); got != "" {
		t.Fatalf("expected empty format by default, got %q", got)
	}
	if err := s.SetSignalFormat(ctx, "custom {ticker}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.SignalFormat(ctx); got != "custom {ticker}" {
		t.Fatalf("unexpected format %q", got)
	}
	if err := s.ResetSignalFormat(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.SignalFormat(ctx); got != "" {
		t.Fatalf("expected empty format after reset, got %q", got)
	}
}

func TestMemberCounts(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RecordMemberCount(ctx, "2025-03-14", 1234); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RecordMemberCount(ctx, "2025-03-14", 1250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.MemberCounts(ctx)["2025-03-14"]; got != 1250 {
		t.Fatalf("expected same-day overwrite to 1250, got %d", got)
	}
}

func TestOpenCorruptWithoutQuarantineFails(t *testing.T) {
	port := &memoryPort{data: []byte("{not json"), found: true}
	if _, err := Open(port, testTracer(), nil); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestSaveFailureSurfacesPersistenceError(t *testing.T) {
	port := &memoryPort{}
	ctx := context.Background()

	s, err := Open(port, testTracer(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port.failSave = true
	if err := s.SetLink(ctx, "BTC", "https://example.com"); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
