package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/pipeline"
)

// Runner produces a slate result. The pipeline satisfies this; tests stub it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Sink receives emitted change events. The websocket hub sits behind one.
type Sink interface {
	Publish(sport models.Sport, changes []Change)
}

// NopSink discards changes.
type NopSink struct{}

func (NopSink) Publish(models.Sport, []Change) {}

// Monitor drives the scan-snapshot-diff cycle.
type Monitor struct {
	runner Runner
	store  *Store
	sink   Sink
	clk    clock.Clock
	log    zerolog.Logger
}

// New wires a monitor. A nil sink discards changes; a nil clock reads the
// system time.
func New(runner Runner, store *Store, sink Sink, clk clock.Clock, log zerolog.Logger) *Monitor {
	if sink == nil {
		sink = NopSink{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Monitor{
		runner: runner,
		store:  store,
		sink:   sink,
		clk:    clk,
		log:    log.With().Str("component", "monitor").Logger(),
	}
}

// Tick runs one scan for one sport, diffs against the stored baseline, saves
// the new snapshot, and publishes any changes. The first run establishes the
// baseline and emits nothing.
func (m *Monitor) Tick(ctx context.Context, sport models.Sport) ([]Change, error) {
	res, err := m.runner.Run(ctx, pipeline.Request{Sport: sport})
	if err != nil {
		return nil, err
	}

	now := clock.NowET(m.clk)
	var injuries []models.InjuryRecord
	if res.Data != nil {
		injuries = res.Data.Injuries
	}
	next := Capture(res.Sport, res.DateStr, res.Published, injuries, now)

	prev, err := m.store.Latest(sport)
	if err != nil {
		m.log.Warn().Err(err).Str("sport", string(sport)).Msg("stored snapshot unreadable, baseline reset")
	}
	changes := Diff(prev, next, now)

	if err := m.store.Save(next); err != nil {
		return changes, err
	}

	if len(changes) > 0 {
		m.sink.Publish(sport, changes)
	}
	for _, ch := range changes {
		evt := m.log.Debug()
		if ch.Severity == models.SeverityAlert {
			evt = m.log.Warn()
		}
		evt.
			Str("sport", string(sport)).
			Str("type", string(ch.Type)).
			Str("severity", string(ch.Severity)).
			Str("label", ch.Label).
			Str("previous", ch.Previous).
			Str("current", ch.Current).
			Msg("slate change")
	}
	m.log.Info().
		Str("sport", string(sport)).
		Int("picks", len(next.Picks)).
		Int("changes", len(changes)).
		Bool("baseline", prev == nil).
		Msg("monitor tick complete")
	return changes, nil
}

// Watch ticks every sport immediately, then on the interval until the
// context ends. Per-sport failures log and do not stop the loop.
func (m *Monitor) Watch(ctx context.Context, sports []models.Sport, every time.Duration) error {
	if every <= 0 {
		every = 5 * time.Minute
	}
	m.tickAll(ctx, sports)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tickAll(ctx, sports)
		}
	}
}

func (m *Monitor) tickAll(ctx context.Context, sports []models.Sport) {
	for _, sport := range sports {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.Tick(ctx, sport); err != nil {
			m.log.Error().Err(err).Str("sport", string(sport)).Msg("monitor tick failed")
		}
	}
}
