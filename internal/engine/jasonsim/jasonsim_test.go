package jasonsim

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

func ptr(f float64) *float64 { return &f }

// simSlate has one lopsided game (home expects to win by 18) and one near
// coin flip (home by 2.5).
func simSlate() *models.SlateData {
	return &models.SlateData{
		Sport:   models.SportNBA,
		DateStr: "2025-03-01",
		TeamStats: map[string]models.TeamStats{
			"Boston Celtics":     {Team: "Boston Celtics", PointsPG: 130, DefRating: 110},
			"Miami Heat":         {Team: "Miami Heat", PointsPG: 100, DefRating: 110},
			"Chicago Bulls":      {Team: "Chicago Bulls", PointsPG: 100, DefRating: 110},
			"Detroit Pistons":    {Team: "Detroit Pistons", PointsPG: 101, DefRating: 110},
			"Colorado Avalanche": {Team: "Colorado Avalanche", PointsPG: 3.4, DefRating: 2.9},
			"Dallas Stars":       {Team: "Dallas Stars", PointsPG: 3.1, DefRating: 3.0},
		},
	}
}

func blowoutPick(kind models.MarketKind) models.Candidate {
	return models.Candidate{
		EventID:    "evt-blowout",
		Sport:      models.SportNBA,
		MarketKind: kind,
		Selection:  "Boston Celtics",
		PickSide:   "Boston Celtics",
		HomeTeam:   "Boston Celtics",
		AwayTeam:   "Miami Heat",
	}
}

func coinFlipPick() models.Candidate {
	return models.Candidate{
		EventID:    "evt-flip",
		Sport:      models.SportNBA,
		MarketKind: models.MarketMoneyline,
		Selection:  "Chicago Bulls",
		PickSide:   "Chicago Bulls",
		HomeTeam:   "Chicago Bulls",
		AwayTeam:   "Detroit Pistons",
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	e := newTestEngine()
	data := simSlate()
	c := blowoutPick(models.MarketMoneyline)

	first := e.Simulate(data, c)
	second := e.Simulate(data, c)
	assert.Equal(t, first, second)
	assert.Equal(t, defaultIterations, first.Iterations)
}

func TestSimulate_HomeWinPct(t *testing.T) {
	e := newTestEngine()
	sim := e.Simulate(simSlate(), blowoutPick(models.MarketMoneyline))

	// Margin mean 18, sigma 12: P(home win) = Phi(1.5) ~ 0.933.
	assert.InDelta(t, 0.933, sim.HomeWinPct, 0.015)
	assert.Equal(t, sim.HomeWinPct, sim.CoverPct)
	assert.False(t, sim.VarianceFlag)
}

func TestSimulate_ProjectedTotal(t *testing.T) {
	e := newTestEngine()
	sim := e.Simulate(simSlate(), blowoutPick(models.MarketMoneyline))

	// Expected points 121.5 home, 103.5 away.
	assert.InDelta(t, 225.0, sim.ProjectedTotal, 0.75)
}

func TestSimulate_SpreadCover(t *testing.T) {
	e := newTestEngine()
	data := simSlate()

	fav := blowoutPick(models.MarketSpread)
	fav.Line = ptr(-5.5)
	favSim := e.Simulate(data, fav)
	// P(margin > 5.5) = Phi(12.5/12) ~ 0.851.
	assert.InDelta(t, 0.851, favSim.CoverPct, 0.02)

	dog := blowoutPick(models.MarketSpread)
	dog.Selection = "Miami Heat"
	dog.PickSide = "Miami Heat"
	dog.Line = ptr(5.5)
	dogSim := e.Simulate(data, dog)
	assert.InDelta(t, 1-favSim.CoverPct, dogSim.CoverPct, 0.0001)
}

func TestSimulate_TotalCover(t *testing.T) {
	e := newTestEngine()
	data := simSlate()

	over := blowoutPick(models.MarketTotal)
	over.Selection = "Over 210.5"
	over.OverUnder = models.Over
	over.Line = ptr(210.5)
	// P(total > 210.5) with mean 225 sigma 12 = Phi(1.208) ~ 0.887.
	assert.InDelta(t, 0.887, e.Simulate(data, over).CoverPct, 0.02)

	under := blowoutPick(models.MarketTotal)
	under.Selection = "Under 239.5"
	under.OverUnder = models.Under
	under.Line = ptr(239.5)
	assert.InDelta(t, 0.887, e.Simulate(data, under).CoverPct, 0.02)
}

func TestSimulate_ConfirmedInjuriesOnly(t *testing.T) {
	e := newTestEngine()
	c := blowoutPick(models.MarketMoneyline)

	clean := e.Simulate(simSlate(), c)

	speculative := simSlate()
	speculative.Injuries = []models.InjuryRecord{
		{PlayerName: "Jayson Tatum", Team: "Boston Celtics", Status: models.InjuryQuestionable},
		{PlayerName: "Jaylen Brown", Team: "Boston Celtics", Status: models.InjuryDoubtful},
	}
	assert.Equal(t, clean, e.Simulate(speculative, c), "speculative designations must not move the sim")

	confirmed := simSlate()
	confirmed.Injuries = []models.InjuryRecord{
		{PlayerName: "Jayson Tatum", Team: "Boston Celtics", Status: models.InjuryOut},
	}
	hurt := e.Simulate(confirmed, c)
	assert.Less(t, hurt.HomeWinPct, clean.HomeWinPct)
}

func TestSimulate_MissingStats(t *testing.T) {
	e := newTestEngine()
	c := blowoutPick(models.MarketMoneyline)
	c.HomeTeam = "Phantom FC"

	sim := e.Simulate(simSlate(), c)
	assert.Zero(t, sim.Iterations)
}

func TestSimulate_VarianceFlagHighVarianceSport(t *testing.T) {
	e := newTestEngine()
	c := models.Candidate{
		EventID:    "evt-nhl",
		Sport:      models.SportNHL,
		MarketKind: models.MarketMoneyline,
		Selection:  "Colorado Avalanche",
		PickSide:   "Colorado Avalanche",
		HomeTeam:   "Colorado Avalanche",
		AwayTeam:   "Dallas Stars",
	}
	assert.True(t, e.Simulate(simSlate(), c).VarianceFlag)
}

func TestEvaluate_StrongNeedsActiveSignal(t *testing.T) {
	e := newTestEngine()
	data := simSlate()

	quiet := blowoutPick(models.MarketMoneyline)
	res := e.Evaluate(data, quiet, 7.0)
	assert.Equal(t, models.SimBoost, res.Verdict)
	assert.Equal(t, moderateBoost, res.Boost)
	require.NotEmpty(t, res.Reasons)
	assert.Contains(t, res.Reasons[0], "MODERATE")
	assert.Contains(t, res.Reasons[0], "moneyline")

	live := blowoutPick(models.MarketMoneyline)
	live.Breakdown.Jarvis.Active = true
	res = e.Evaluate(data, live, 7.0)
	assert.Equal(t, models.SimBoost, res.Verdict)
	assert.Equal(t, strongBoost, res.Boost)
	assert.Contains(t, res.Reasons[0], "STRONG")
}

func TestEvaluate_EsotericTriggerCountsAsActive(t *testing.T) {
	e := newTestEngine()
	c := blowoutPick(models.MarketMoneyline)
	c.Breakdown.Esoteric.Breakdown = map[models.EsotericSignal]models.SignalResult{
		models.SignalFibonacci: {Triggered: true},
	}
	res := e.Evaluate(simSlate(), c, 7.0)
	assert.Equal(t, strongBoost, res.Boost)
}

func TestEvaluate_BlocksFadedSide(t *testing.T) {
	e := newTestEngine()
	c := blowoutPick(models.MarketMoneyline)
	c.Selection = "Miami Heat"
	c.PickSide = "Miami Heat"

	// Alignment ~0.067 against a required ~0.68 for an 8.0 base.
	res := e.Evaluate(simSlate(), c, 8.0)
	assert.Equal(t, models.SimBlock, res.Verdict)
	assert.Equal(t, blockBoost, res.Boost)
	assert.Contains(t, res.Reasons[0], "moneyline")
}

func TestEvaluate_DowngradeAndNeutralBands(t *testing.T) {
	e := newTestEngine()
	data := simSlate()
	c := coinFlipPick()

	// Alignment ~0.58: below the 0.63 downgrade line an 8.0 base implies,
	// inside the neutral band for a 5.0 base.
	res := e.Evaluate(data, c, 8.0)
	assert.Equal(t, models.SimDowngrade, res.Verdict)
	assert.Equal(t, downgradeBoost, res.Boost)

	res = e.Evaluate(data, c, 5.0)
	assert.Equal(t, models.SimNeutral, res.Verdict)
	assert.Zero(t, res.Boost)
}

func TestEvaluate_IgnoresOdds(t *testing.T) {
	e := newTestEngine()
	data := simSlate()

	short := blowoutPick(models.MarketMoneyline)
	shortOdds := -450
	short.OddsAmerican = &shortOdds

	long := blowoutPick(models.MarketMoneyline)
	longOdds := 500
	long.OddsAmerican = &longOdds

	assert.Equal(t, e.Evaluate(data, short, 7.0), e.Evaluate(data, long, 7.0))
}

func TestEvaluate_PropUsesTrend(t *testing.T) {
	e := newTestEngine()
	data := simSlate()
	data.PropTrends = map[string]models.PropHistory{
		models.PropTrendKey("Jimmy Butler", "points"): {
			PlayerName: "Jimmy Butler",
			Market:     "points",
			HitRate:    0.75,
			Games:      12,
		},
	}

	prop := models.Candidate{
		EventID:    "evt-blowout",
		Sport:      models.SportNBA,
		MarketKind: models.MarketPlayerProp,
		Market:     "points",
		Selection:  "Jimmy Butler Over 23.5 points",
		OverUnder:  models.Over,
		Line:       ptr(23.5),
		HomeTeam:   "Boston Celtics",
		AwayTeam:   "Miami Heat",
		Player:     &models.Player{PlayerName: "Jimmy Butler", Team: "Miami Heat"},
	}

	res := e.Evaluate(data, prop, 6.0)
	assert.Equal(t, models.SimBoost, res.Verdict)
	assert.InDelta(t, 0.75, res.Alignment, 0.0001)
	assert.Contains(t, res.Reasons[0], "player_prop")

	under := prop
	under.OverUnder = models.Under
	res = e.Evaluate(data, under, 6.0)
	assert.Equal(t, models.SimBlock, res.Verdict)
	assert.InDelta(t, 0.25, res.Alignment, 0.0001)
}

func TestEvaluate_PropWithoutTrendIsNeutral(t *testing.T) {
	e := newTestEngine()
	prop := models.Candidate{
		EventID:    "evt-blowout",
		Sport:      models.SportNBA,
		MarketKind: models.MarketPlayerProp,
		Market:     "rebounds",
		OverUnder:  models.Over,
		HomeTeam:   "Boston Celtics",
		AwayTeam:   "Miami Heat",
		Player:     &models.Player{PlayerName: "Bam Adebayo"},
	}
	res := e.Evaluate(simSlate(), prop, 6.0)
	assert.Equal(t, models.SimNeutral, res.Verdict)
	assert.Zero(t, res.Boost)
	assert.InDelta(t, 0.5, res.Alignment, 0.0001)
}

func TestEvaluate_MissingStatsNeutral(t *testing.T) {
	e := newTestEngine()
	c := blowoutPick(models.MarketMoneyline)
	c.HomeTeam = "Phantom FC"

	res := e.Evaluate(simSlate(), c, 7.5)
	assert.Equal(t, models.SimNeutral, res.Verdict)
	assert.Contains(t, res.Reasons[0], "no simulation inputs")
}

func TestImpliedNeed(t *testing.T) {
	assert.InDelta(t, 0.40, impliedNeed(0), 0.0001)
	assert.InDelta(t, 0.5925, impliedNeed(5.5), 0.0001)
	assert.InDelta(t, 0.75, impliedNeed(10), 0.0001)
}
