package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/pipeline"
	"github.com/slatepick/slatepick/internal/providers"
	slatecontext "github.com/slatepick/slatepick/internal/slate/context"
)

var snapAt = time.Date(2025, 3, 8, 18, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }
func np(v int) *int         { return &v }

func lakersSpread(odds int) SnapPick {
	return SnapPick{
		PickID:       "pick-lal-spread",
		EventID:      "evt-1",
		MarketKind:   models.MarketSpread,
		Selection:    "Los Angeles Lakers",
		Line:         fp(-3.5),
		OddsAmerican: np(odds),
		BookKey:      models.BookDraftKings,
		Tier:         models.TierGoldStar,
		FinalScore:   7.8,
	}
}

func jokicProp(line float64) SnapPick {
	return SnapPick{
		PickID:       "pick-jokic-reb",
		EventID:      "evt-2",
		MarketKind:   models.MarketPlayerProp,
		Market:       "player_rebounds",
		Selection:    "Nikola Jokic",
		PlayerName:   "Nikola Jokic",
		Line:         fp(line),
		OverUnder:    models.Over,
		OddsAmerican: np(-115),
		Tier:         models.TierEdgeLean,
		FinalScore:   6.9,
	}
}

func snapOf(picks ...SnapPick) *Snapshot {
	return &Snapshot{
		Sport:      models.SportNBA,
		Timestamp:  "2025-03-08T13:00:00-05:00",
		PicksCount: len(picks),
		Picks:      picks,
		Metadata:   SnapMeta{Date: "2025-03-08", TakenAt: snapAt},
	}
}

func TestDiff_IdenticalSnapshotsProduceNothing(t *testing.T) {
	s := snapOf(lakersSpread(-110), jokicProp(11.5))
	s.Metadata.Injuries = []InjurySnap{{PlayerName: "Riley Thompson", Team: "Denver Nuggets", Status: models.InjuryOut}}

	assert.Empty(t, Diff(s, s, snapAt))
}

func TestDiff_FirstRunHasNoBaseline(t *testing.T) {
	assert.Nil(t, Diff(nil, snapOf(lakersSpread(-110)), snapAt))
}

func TestDiff_OddsMoveAlert(t *testing.T) {
	prev := snapOf(lakersSpread(-110))
	next := snapOf(lakersSpread(-140))

	changes := Diff(prev, next, snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeOddsMove, changes[0].Type)
	assert.Equal(t, models.SeverityAlert, changes[0].Severity)
	assert.Equal(t, "-110", changes[0].Previous)
	assert.Equal(t, "-140", changes[0].Current)
	assert.Greater(t, changes[0].Delta, oddsMoveAlertPct)
}

func TestDiff_SmallOddsMoveStaysQuiet(t *testing.T) {
	prev := snapOf(lakersSpread(-110))
	next := snapOf(lakersSpread(-113))

	assert.Empty(t, Diff(prev, next, snapAt))
}

func TestDiff_LineMoveSeverities(t *testing.T) {
	prev := snapOf(lakersSpread(-110))

	warn := lakersSpread(-110)
	warn.Line = fp(-4.0)
	changes := Diff(prev, snapOf(warn), snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeLineMove, changes[0].Type)
	assert.Equal(t, models.SeverityWarning, changes[0].Severity)

	alert := lakersSpread(-110)
	alert.Line = fp(-4.5)
	changes = Diff(prev, snapOf(alert), snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.SeverityAlert, changes[0].Severity)

	quiet := lakersSpread(-110)
	quiet.Line = fp(-3.55)
	assert.Empty(t, Diff(prev, snapOf(quiet), snapAt))
}

func TestDiff_PropLineMoveType(t *testing.T) {
	changes := Diff(snapOf(jokicProp(11.5)), snapOf(jokicProp(12.5)), snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangePropLineMove, changes[0].Type)
	assert.Equal(t, models.SeverityAlert, changes[0].Severity)
}

func TestDiff_TierChangeSeverity(t *testing.T) {
	up := lakersSpread(-110)
	up.Tier = models.TierTitaniumSmash
	changes := Diff(snapOf(lakersSpread(-110)), snapOf(up), snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeTierChange, changes[0].Type)
	assert.Equal(t, models.SeverityInfo, changes[0].Severity)

	down := lakersSpread(-110)
	down.Tier = models.TierMonitor
	changes = Diff(snapOf(lakersSpread(-110)), snapOf(down), snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.SeverityWarning, changes[0].Severity)
}

func TestDiff_AddAndRemove(t *testing.T) {
	prev := snapOf(lakersSpread(-110))
	next := snapOf(jokicProp(11.5))

	changes := Diff(prev, next, snapAt)
	require.Len(t, changes, 2)
	assert.Equal(t, models.ChangePropAdded, changes[0].Type)
	assert.Equal(t, models.SeverityInfo, changes[0].Severity)
	assert.Equal(t, models.ChangePickRemoved, changes[1].Type)
	assert.Equal(t, models.SeverityWarning, changes[1].Severity)
}

func TestDiff_InjuryFlip(t *testing.T) {
	prev := snapOf(lakersSpread(-110))
	prev.Metadata.Injuries = []InjurySnap{{PlayerName: "Riley Thompson", Team: "Denver Nuggets", Status: models.InjuryQuestionable}}
	next := snapOf(lakersSpread(-110))
	next.Metadata.Injuries = []InjurySnap{{PlayerName: "Riley Thompson", Team: "Denver Nuggets", Status: models.InjuryOut}}

	changes := Diff(prev, next, snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeInjuryFlip, changes[0].Type)
	assert.Equal(t, models.SeverityWarning, changes[0].Severity)
	assert.Equal(t, "QUESTIONABLE", changes[0].Previous)
	assert.Equal(t, "OUT", changes[0].Current)
}

func TestDiff_GoalieStatusAlert(t *testing.T) {
	prev := &Snapshot{Sport: models.SportNHL, Metadata: SnapMeta{Date: "2025-03-08", TakenAt: snapAt}}
	next := &Snapshot{Sport: models.SportNHL, Metadata: SnapMeta{
		Date:     "2025-03-08",
		TakenAt:  snapAt,
		Injuries: []InjurySnap{{PlayerName: "Igor Shesterkin", Team: "New York Rangers", Position: "G", Status: models.InjuryOut}},
	}}

	changes := Diff(prev, next, snapAt)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeGoalieStatus, changes[0].Type)
	assert.Equal(t, models.SeverityAlert, changes[0].Severity)
	assert.Equal(t, "NONE", changes[0].Previous)
}

func TestImpliedPct(t *testing.T) {
	assert.InDelta(t, 0.5238, impliedPct(-110), 0.001)
	assert.InDelta(t, 0.5833, impliedPct(-140), 0.001)
	assert.InDelta(t, 0.4545, impliedPct(120), 0.001)
	assert.Zero(t, impliedPct(0))
}

func TestStore_SaveLatestAndArchive(t *testing.T) {
	store := NewStore(t.TempDir(), 8)
	snap := snapOf(lakersSpread(-110))

	require.NoError(t, store.Save(snap))

	got, err := store.Latest(models.SportNBA)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Date(), got.Date())
	assert.Equal(t, 1, got.PicksCount)
	require.Len(t, got.Picks, 1)
	assert.Equal(t, snap.Picks[0].PickID, got.Picks[0].PickID)
	require.NotNil(t, got.Picks[0].OddsAmerican)
	assert.Equal(t, -110, *got.Picks[0].OddsAmerican)
}

func TestStore_LatestMissingIsNil(t *testing.T) {
	store := NewStore(t.TempDir(), 8)
	got, err := store.Latest(models.SportNBA)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GCKeepsNewestArchives(t *testing.T) {
	store := NewStore(t.TempDir(), 2)

	for i := 0; i < 4; i++ {
		snap := snapOf(lakersSpread(-110))
		snap.Metadata.TakenAt = snapAt.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(snap))
	}

	removed, err := store.GC(models.SportNBA)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// The latest pointer survives GC regardless of archive pruning.
	got, err := store.Latest(models.SportNBA)
	require.NoError(t, err)
	require.NotNil(t, got)

	removed, err = store.GC(models.SportNBA)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

type recordingSink struct {
	calls [][]Change
}

func (r *recordingSink) Publish(_ models.Sport, changes []Change) {
	r.calls = append(r.calls, changes)
}

func demoRunner() Runner {
	cfg := &config.Config{
		EnableDemo:    true,
		SlateDeadline: 30 * time.Second,
		FanoutWorkers: 8,
	}
	return pipeline.New(pipeline.Deps{
		Config: cfg,
		Tuning: config.DefaultTuning(),
		Bundle: &providers.Bundle{Odds: providers.NewOddsClient(nil, ""), DemoMode: true},
		Tables: slatecontext.DefaultTables(),
		Clock:  clock.Fixed{T: snapAt},
		Log:    zerolog.Nop(),
	})
}

func TestMonitor_TickSteadyState(t *testing.T) {
	sink := &recordingSink{}
	store := NewStore(t.TempDir(), 8)
	m := New(demoRunner(), store, sink, clock.Fixed{T: snapAt}, zerolog.Nop())

	// First tick establishes the baseline.
	changes, err := m.Tick(context.Background(), models.SportNBA)
	require.NoError(t, err)
	assert.Empty(t, changes)

	snap, err := store.Latest(models.SportNBA)
	require.NoError(t, err)
	require.NotNil(t, snap)

	// The demo slate is deterministic, so the second tick diffs to nothing.
	changes, err = m.Tick(context.Background(), models.SportNBA)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, sink.calls)
}
