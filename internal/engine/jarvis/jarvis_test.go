package jarvis

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
)

func newTestEngine() *Engine {
	return New(config.DefaultTuning(), zerolog.Nop())
}

// nuggetsSpread hits the tables on real names: "Nuggets" ciphers to 93, a
// titanium trigger, and "Miami Heat" reverse-reduces to master 11.
func nuggetsSpread(line float64) models.Candidate {
	return models.Candidate{
		EventID:    "ev1",
		Sport:      models.SportNBA,
		MarketKind: models.MarketSpread,
		Selection:  "Nuggets",
		PickSide:   "Denver Nuggets",
		HomeTeam:   "Denver Nuggets",
		AwayTeam:   "Miami Heat",
		Line:       models.LinePtr(line),
	}
}

func TestScore_TriggerTableAndOrdering(t *testing.T) {
	e := newTestEngine()
	res := e.Score(nuggetsSpread(-6.5), models.EsotericResult{})

	assert.Equal(t, 1, res.TitaniumCount, `"Nuggets" sums to 93`)
	assert.Equal(t, 4, res.HitsCount, "one titanium, one power, two tesla digits")
	assert.True(t, res.Active)
	require.Equal(t, []string{"TITANIUM:93", "POWER:11", "TESLA:3", "TESLA:6"}, res.Triggers)

	// boost 12 of 20 into 8-point space, amplified by the goldilocks band.
	assert.InDelta(t, 6.0, res.Score, 1e-9)
}

func TestScore_TrapGatePenalty(t *testing.T) {
	e := newTestEngine()
	res := e.Score(nuggetsSpread(-16), models.EsotericResult{})

	assert.Contains(t, res.Triggers, "TRAP_GATE")
	assert.InDelta(t, 0.8, res.Score, 1e-9, "same hits, no amplifier, trap penalty applied")
}

func TestScore_GoldilocksBands(t *testing.T) {
	e := newTestEngine()

	flat := e.Score(nuggetsSpread(-2), models.EsotericResult{})
	low := e.Score(nuggetsSpread(-3.5), models.EsotericResult{})
	core := e.Score(nuggetsSpread(-6.5), models.EsotericResult{})

	assert.InDelta(t, 4.8, flat.Score, 1e-9)
	assert.InDelta(t, 4.8*1.1, low.Score, 1e-9)
	assert.InDelta(t, 4.8*1.25, core.Score, 1e-9)
}

func TestScore_SportVarianceFactor(t *testing.T) {
	e := newTestEngine()

	nba := e.Score(nuggetsSpread(-6.5), models.EsotericResult{})

	nhl := nuggetsSpread(-6.5)
	nhl.Sport = models.SportNHL
	res := e.Score(nhl, models.EsotericResult{})

	assert.InDelta(t, nba.Score*1.15, res.Score, 1e-9)
}

func TestScore_HarmonicConvergence(t *testing.T) {
	e := newTestEngine()
	eso := models.EsotericResult{Breakdown: map[models.EsotericSignal]models.SignalResult{
		models.SignalFibonacci: {Triggered: true},
		models.SignalVortex:    {Triggered: true},
	}}

	plain := e.Score(nuggetsSpread(-6.5), models.EsotericResult{})
	converged := e.Score(nuggetsSpread(-6.5), eso)

	assert.Contains(t, converged.Triggers, "HARMONIC_CONVERGENCE")
	assert.Greater(t, converged.Score, plain.Score, "convergence raises the boost")
	assert.InDelta(t, 14.0/20*8*1.25, converged.Score, 1e-9)
}

func TestScore_NoHitsStaysQuiet(t *testing.T) {
	e := newTestEngine()
	c := models.Candidate{
		Sport:      models.SportNBA,
		MarketKind: models.MarketMoneyline,
		Selection:  "a",
		HomeTeam:   "a",
		AwayTeam:   "d",
	}
	res := e.Score(c, models.EsotericResult{})

	assert.False(t, res.Active)
	assert.Zero(t, res.HitsCount)
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Triggers)
}

func TestScore_PropSubjectUsesPlayerName(t *testing.T) {
	e := newTestEngine()
	c := nuggetsSpread(-6.5)
	c.MarketKind = models.MarketPlayerProp
	c.Line = models.LinePtr(25.5)
	c.Selection = "Over"
	c.Player = &models.Player{PlayerName: "Nuggets"}

	res := e.Score(c, models.EsotericResult{})
	assert.Contains(t, res.Triggers, "TITANIUM:93", "subject cipher comes from the player")
}
