package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"

	"signal-desk/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Store owns the durable document. Every mutator updates the in-memory copy
// and immediately rewrites the whole file; a failed rewrite keeps the
// in-memory change and surfaces domain.ErrPersistence. Single writer process
// assumed.
type Store struct {
	mu     sync.Mutex
	doc    *Document
	port   Persistence
	tracer trace.Tracer
}

// Open loads the document through the port, merging defaults over whatever
// is on disk. A missing file starts fresh. An unreadable or corrupt file is
// quarantined with a loud log line rather than silently replaced; an I/O
// error that is not a parse failure refuses to open at all.
func Open(port Persistence, tracer trace.Tracer, seedLinks map[string]string) (*Store, error) {
	data, found, err := port.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: load document: %v", domain.ErrPersistence, err)
	}

	doc := defaultDocument()
	if found {
		var loaded Document
		if err := json.Unmarshal(data, &loaded); err != nil {
			q, ok := port.(Quarantiner)
			if !ok {
				return nil, fmt.Errorf("%w: corrupt document: %v", domain.ErrPersistence, err)
			}
			dest, qerr := q.Quarantine()
			if qerr != nil {
				return nil, fmt.Errorf("%w: corrupt document and quarantine failed: %v", domain.ErrPersistence, qerr)
			}
			log.Printf("CORRUPT store document quarantined to %s (parse error: %v); starting with a fresh document", dest, err)
		} else {
			doc = &loaded
			doc.backfill()
		}
	}

	for ticker, url := range seedLinks {
		if _, exists := doc.Links[ticker]; !exists {
			doc.Links[ticker] = url
		}
	}

	s := &Store{doc: doc, port: port, tracer: tracer}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", domain.ErrPersistence, err)
	}
	if err := s.port.Save(data); err != nil {
		return fmt.Errorf("%w: save document: %v", domain.ErrPersistence, err)
	}
	return nil
}

// --- creatives ---

func (s *Store) SaveCreative(ctx context.Context, key string, ref domain.CreativeRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Creatives[key] = ref
	return s.save()
}

func (s *Store) Creative(ctx context.Context, key string) (domain.CreativeRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.doc.Creatives[key]
	if !ok {
		return "", fmt.Errorf("%w: creative %q", domain.ErrNotFound, key)
	}
	return ref, nil
}

func (s *Store) Creatives(ctx context.Context) map[string]domain.CreativeRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.CreativeRef, len(s.doc.Creatives))
	for k, v := range s.doc.Creatives {
		out[k] = v
	}
	return out
}

func (s *Store) DeleteCreative(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Creatives[key]; !ok {
		return fmt.Errorf("%w: creative %q", domain.ErrNotFound, key)
	}
	delete(s.doc.Creatives, key)
	return s.save()
}

func (s *Store) ClearCreatives(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Creatives = map[string]domain.CreativeRef{}
	return s.save()
}

// --- links ---

func (s *Store) SetLink(ctx context.Context, ticker, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Links[ticker] = url
	return s.save()
}

func (s *Store) SetLinks(ctx context.Context, links map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ticker, url := range links {
		s.doc.Links[ticker] = url
	}
	return s.save()
}

func (s *Store) Link(ctx context.Context, ticker string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.doc.Links[ticker]
	if !ok {
		return "", fmt.Errorf("%w: link for %s", domain.ErrNotFound, ticker)
	}
	return url, nil
}

func (s *Store) Links(ctx context.Context) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.doc.Links))
	for k, v := range s.doc.Links {
		out[k] = v
	}
	return out
}

func (s *Store) DeleteLink(ctx context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Links[ticker]; !ok {
		return fmt.Errorf("%w: link for %s", domain.ErrNotFound, ticker)
	}
	delete(s.doc.Links, ticker)
	return s.save()
}

func (s *Store) ClearLinks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Links = map[string]string{}
	return s.save()
}

// --- signals ---

// NextSequence hands out the next zero-padded id and persists the counter
// right away, so an id is never reused even if the publish that requested it
// fails or the record is later deleted.
func (s *Store) NextSequence(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SignalSeq++
	seq := fmt.Sprintf("%06d", s.doc.SignalSeq)
	if err := s.save(); err != nil {
		return "", err
	}
	return seq, nil
}

func (s *Store) AppendSignal(ctx context.Context, rec domain.SignalRecord) error {
	_, span := s.tracer.Start(ctx, "store.append-signal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := rec.CreatedAt.UTC()
	year := ts.Format("2006")
	month := ts.Format("01")
	if s.doc.Signals[year] == nil {
		s.doc.Signals[year] = map[string][]domain.SignalRecord{}
	}
	s.doc.Signals[year][month] = append(s.doc.Signals[year][month], rec)
	s.doc.LastSignal = &domain.MessageRef{
		MessageID: rec.MessageID,
		ChatID:    rec.ChatID,
		Year:      year,
		Month:     month,
		Sequence:  rec.SequenceID,
	}
	return s.save()
}

func (s *Store) LastSignal(ctx context.Context) (domain.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.LastSignal == nil {
		return domain.MessageRef{}, fmt.Errorf("%w: no published signal on record", domain.ErrNotFound)
	}
	return *s.doc.LastSignal, nil
}

// DeleteLastSignal evicts the most recently published record from its
// year/month partition and clears the pointer. The sequence counter is
// deliberately left alone.
func (s *Store) DeleteLastSignal(ctx context.Context) (domain.MessageRef, error) {
	_, span := s.tracer.Start(ctx, "store.delete-last-signal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.LastSignal == nil {
		return domain.MessageRef{}, fmt.Errorf("%w: no published signal on record", domain.ErrNotFound)
	}
	ref := *s.doc.LastSignal

	records := s.doc.Signals[ref.Year][ref.Month]
	for i := range records {
		if records[i].SequenceID == ref.Sequence {
			s.doc.Signals[ref.Year][ref.Month] = append(records[:i], records[i+1:]...)
			break
		}
	}
	s.doc.LastSignal = nil
	if err := s.save(); err != nil {
		return domain.MessageRef{}, err
	}
	return ref, nil
}

// SignalsInYears returns a flattened snapshot ordered year, month, then
// insertion order. An empty years slice means every stored year.
func (s *Store) SignalsInYears(ctx context.Context, years []int) []domain.SignalRecord {
	_, span := s.tracer.Start(ctx, "store.signals-in-years")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(years))
	for _, y := range years {
		wanted[strconv.Itoa(y)] = struct{}{}
	}

	yearKeys := make([]string, 0, len(s.doc.Signals))
	for y := range s.doc.Signals {
		if len(wanted) > 0 {
			if _, ok := wanted[y]; !ok {
				continue
			}
		}
		yearKeys = append(yearKeys, y)
	}
	sort.Strings(yearKeys)

	var out []domain.SignalRecord
	for _, y := range yearKeys {
		monthKeys := make([]string, 0, len(s.doc.Signals[y]))
		for m := range s.doc.Signals[y] {
			monthKeys = append(monthKeys, m)
		}
		sort.Strings(monthKeys)
		for _, m := range monthKeys {
			out = append(out, s.doc.Signals[y][m]...)
		}
	}
	return out
}

func (s *Store) AllSignals(ctx context.Context) []domain.SignalRecord {
	return s.SignalsInYears(ctx, nil)
}

// --- clicks ---

func (s *Store) RecordClick(ctx context.Context, sequence string) error {
	_, span := s.tracer.Start(ctx, "store.record-click")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findSignal(sequence) == nil {
		return fmt.Errorf("%w: signal %s", domain.ErrNotFound, sequence)
	}
	s.doc.Clicks[sequence]++
	return s.save()
}

func (s *Store) ResolveTradeURL(ctx context.Context, sequence string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findSignal(sequence)
	if rec == nil || rec.TradeURL == "" {
		return "", fmt.Errorf("%w: signal %s", domain.ErrNotFound, sequence)
	}
	return rec.TradeURL, nil
}

func (s *Store) Clicks(ctx context.Context) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.doc.Clicks))
	for k, v := range s.doc.Clicks {
		out[k] = v
	}
	return out
}

// findSignal scans the partitions for a sequence id. Caller holds the lock.
func (s *Store) findSignal(sequence string) *domain.SignalRecord {
	for _, months := range s.doc.Signals {
		for _, records := range months {
			for i := range records {
				if records[i].SequenceID == sequence {
					return &records[i]
				}
			}
		}
	}
	return nil
}

// --- settings ---

func (s *Store) SignalFormat(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings.SignalFormat
}

func (s *Store) SetSignalFormat(ctx context.Context, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings.SignalFormat = format
	return s.save()
}

func (s *Store) ResetSignalFormat(ctx context.Context) error {
	return s.SetSignalFormat(ctx, "")
}

// --- membership snapshots ---

func (s *Store) RecordMemberCount(ctx context.Context, date string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.MemberCounts[date] = count
	return s.save()
}

func (s *Store) MemberCounts(ctx context.Context) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.doc.MemberCounts))
	for k, v := range s.doc.MemberCounts {
		out[k] = v
	}
	return out
}
