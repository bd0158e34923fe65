package store

import "signal-desk/internal/domain"

// Settings holds the free-form operator overrides. An empty SignalFormat
// means the built-in caption template applies.
type Settings struct {
	SignalFormat string `json:"signal_format,omitempty"`
}

// Document is the entire persisted state: one JSON file, rewritten whole on
// every mutation. Signals are partitioned year -> zero-padded month.
type Document struct {
	Creatives    map[string]domain.CreativeRef               `json:"creatives"`
	Links        map[string]string                           `json:"links"`
	SignalSeq    int64                                       `json:"signal_seq"`
	Signals      map[string]map[string][]domain.SignalRecord `json:"signals"`
	Clicks       map[string]int64                            `json:"clicks"`
	LastSignal   *domain.MessageRef                          `json:"last_signal,omitempty"`
	MemberCounts map[string]int                              `json:"member_counts"`
	Settings     Settings                                    `json:"settings"`
}

func defaultDocument() *Document {
	return &Document{
		Creatives:    map[string]domain.CreativeRef{},
		Links:        map[string]string{},
		Signals:      map[string]map[string][]domain.SignalRecord{},
		Clicks:       map[string]int64{},
		MemberCounts: map[string]int{},
	}
}

// backfill restores any top-level key a hand-edited or older file dropped.
// Keys are only ever added, never removed.
func (d *Document) backfill() {
	if d.Creatives == nil {
		d.Creatives = map[string]domain.CreativeRef{}
	}
	if d.Links == nil {
		d.Links = map[string]string{}
	}
	if d.Signals == nil {
		d.Signals = map[string]map[string][]domain.SignalRecord{}
	}
	if d.Clicks == nil {
		d.Clicks = map[string]int64{}
	}
	if d.MemberCounts == nil {
		d.MemberCounts = map[string]int{}
	}
}
