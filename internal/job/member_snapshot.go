package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// MemberCounter reports the broadcast channel's membership.
type MemberCounter interface {
	MemberCount(ctx context.Context) (int, error)
}

// SnapshotStore persists one count per calendar date.
type SnapshotStore interface {
	RecordMemberCount(ctx context.Context, date string, count int) error
}

// MemberSnapshot records the channel member count once a day, on its own
// timer so it never sits on the command-handling path.
type MemberSnapshot struct {
	tracer  trace.Tracer
	counter MemberCounter
	store   SnapshotStore
	hourUTC int
	now     func() time.Time
}

func NewMemberSnapshot(tracer trace.Tracer, counter MemberCounter, store SnapshotStore, hourUTC int) *MemberSnapshot {
	return &MemberSnapshot{
		tracer:  tracer,
		counter: counter,
		store:   store,
		hourUTC: hourUTC,
		now:     time.Now,
	}
}

// Start blocks until ctx is cancelled, firing once per day at the
// configured UTC hour.
func (j *MemberSnapshot) Start(ctx context.Context) {
	if j.counter == nil {
		log.Println("Member snapshot disabled: no channel available")
		<-ctx.Done()
		return
	}

	log.Println("Member snapshot job starting...")
	for {
		wait := j.untilNextRun()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Member snapshot job stopped")
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *MemberSnapshot) untilNextRun() time.Duration {
	now := j.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func (j *MemberSnapshot) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "job.member-snapshot")
	defer span.End()

	count, err := j.counter.MemberCount(ctx)
	if err != nil {
		log.Printf("member snapshot: count failed: %v", err)
		return
	}
	date := j.now().UTC().Format("2006-01-02")
	if err := j.store.RecordMemberCount(ctx, date, count); err != nil {
		log.Printf("member snapshot: store failed: %v", err)
		return
	}
	log.Printf("member snapshot recorded: %s = %d", date, count)
}
