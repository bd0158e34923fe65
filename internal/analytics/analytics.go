// Package analytics is the read side over the signal history: totals by
// month, ticker, sender and direction, plus click-through views. Pure scans
// over store snapshots, with a small Redis cache in front.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"signal-desk/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	cacheTTL        = 5 * time.Minute
	cacheVersionKey = "analytics:version"
	defaultTopN     = 5
)

// SignalSource is the store read surface the aggregator scans.
type SignalSource interface {
	SignalsInYears(ctx context.Context, years []int) []domain.SignalRecord
	Clicks(ctx context.Context) map[string]int64
}

type TickerCount struct {
	Ticker string `json:"ticker"`
	Count  int    `json:"count"`
}

// Report is one aggregate answer. Month keys look like "2025-01" and come
// from each record's stored timestamp, never from the current clock.
type Report struct {
	Total       int            `json:"total"`
	FirstAt     time.Time      `json:"first_at,omitzero"`
	LastAt      time.Time      `json:"last_at,omitzero"`
	ByMonth     map[string]int `json:"by_month"`
	ByTicker    map[string]int `json:"by_ticker"`
	BySender    map[string]int `json:"by_sender"`
	ByDirection map[string]int `json:"by_direction"`
	TopTickers  []TickerCount  `json:"top_tickers"`
}

// ViewsReport sums recorded clicks per ticker for the requested years.
type ViewsReport struct {
	Total    int64            `json:"total"`
	ByTicker map[string]int64 `json:"by_ticker"`
}

// Aggregator never mutates the store. A nil Redis client disables caching;
// cache errors only ever log and fall through to a direct scan.
type Aggregator struct {
	source SignalSource
	rdb    *redis.Client
	tracer trace.Tracer
}

func NewAggregator(source SignalSource, rdb *redis.Client, tracer trace.Tracer) *Aggregator {
	return &Aggregator{source: source, rdb: rdb, tracer: tracer}
}

// Aggregate scans the records whose stored year is in years (all years when
// empty), optionally restricted to one sender attribution.
func (a *Aggregator) Aggregate(ctx context.Context, years []int, sender string) (Report, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.aggregate")
	defer span.End()

	key := a.cacheKey(ctx, "report", years, sender)
	if key != "" {
		var cached Report
		if a.cacheGet(ctx, key, &cached) {
			return cached, nil
		}
	}

	report := Report{
		ByMonth:     map[string]int{},
		ByTicker:    map[string]int{},
		BySender:    map[string]int{},
		ByDirection: map[string]int{},
	}
	records := a.source.SignalsInYears(ctx, years)
	for _, rec := range records {
		if sender != "" && !strings.EqualFold(rec.Sender, sender) {
			continue
		}
		report.Total++
		ts := rec.CreatedAt.UTC()
		report.ByMonth[ts.Format("2006-01")]++
		report.ByTicker[rec.Ticker]++
		if rec.Sender != "" {
			report.BySender[rec.Sender]++
		}
		report.ByDirection[string(rec.Direction)]++
		if report.FirstAt.IsZero() || ts.Before(report.FirstAt) {
			report.FirstAt = ts
		}
		if ts.After(report.LastAt) {
			report.LastAt = ts
		}
	}
	report.TopTickers = topTickers(records, sender, defaultTopN)

	if key != "" {
		a.cacheSet(ctx, key, report)
	}
	return report, nil
}

// Views reports click-through counts for signals published in years.
func (a *Aggregator) Views(ctx context.Context, years []int) (ViewsReport, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.views")
	defer span.End()

	key := a.cacheKey(ctx, "views", years, "")
	if key != "" {
		var cached ViewsReport
		if a.cacheGet(ctx, key, &cached) {
			return cached, nil
		}
	}

	clicks := a.source.Clicks(ctx)
	report := ViewsReport{ByTicker: map[string]int64{}}
	for _, rec := range a.source.SignalsInYears(ctx, years) {
		n := clicks[rec.SequenceID]
		if n == 0 {
			continue
		}
		report.Total += n
		report.ByTicker[rec.Ticker] += n
	}

	if key != "" {
		a.cacheSet(ctx, key, report)
	}
	return report, nil
}

// Invalidate bumps the cache generation so every cached report is orphaned.
// Called after each publish or delete.
func (a *Aggregator) Invalidate(ctx context.Context) {
	if a.rdb == nil {
		return
	}
	if err := a.rdb.Incr(ctx, cacheVersionKey).Err(); err != nil {
		log.Printf("analytics cache invalidate failed: %v", err)
	}
}

// topTickers ranks by count; ties keep first-encounter order, which is what
// a stable sort over encounter-ordered entries gives us.
func topTickers(records []domain.SignalRecord, sender string, n int) []TickerCount {
	counts := map[string]int{}
	var order []string
	for _, rec := range records {
		if sender != "" && !strings.EqualFold(rec.Sender, sender) {
			continue
		}
		if _, seen := counts[rec.Ticker]; !seen {
			order = append(order, rec.Ticker)
		}
		counts[rec.Ticker]++
	}

	ranked := make([]TickerCount, 0, len(order))
	for _, t := range order {
		ranked = append(ranked, TickerCount{Ticker: t, Count: counts[t]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (a *Aggregator) cacheKey(ctx context.Context, kind string, years []int, sender string) string {
	if a.rdb == nil {
		return ""
	}
	version, err := a.rdb.Get(ctx, cacheVersionKey).Result()
	if err != nil && err != redis.Nil {
		log.Printf("analytics cache version read failed: %v", err)
		return ""
	}

	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, strconv.Itoa(y))
	}
	sort.Strings(parts)
	return fmt.Sprintf("analytics:%s:v%s:y%s:s%s", kind, version, strings.Join(parts, ","), strings.ToLower(sender))
}

func (a *Aggregator) cacheGet(ctx context.Context, key string, out any) bool {
	data, err := a.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("analytics cache read failed: %v", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("analytics cache decode failed: %v", err)
		return false
	}
	return true
}

func (a *Aggregator) cacheSet(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := a.rdb.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		log.Printf("analytics cache write failed: %v", err)
	}
}
