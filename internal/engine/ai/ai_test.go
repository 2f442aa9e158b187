package ai

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
)

func newTestEngine() *Engine {
	return New(config.DefaultTuning(), zerolog.Nop())
}

func spreadCandidate(line float64) models.Candidate {
	return models.Candidate{
		EventID:    "ev1",
		Sport:      models.SportNBA,
		MarketKind: models.MarketSpread,
		Selection:  "Boston Celtics",
		PickSide:   "Boston Celtics",
		HomeTeam:   "Boston Celtics",
		AwayTeam:   "Miami Heat",
		Line:       models.LinePtr(line),
	}
}

func TestHeuristic_GoldilocksBands(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name  string
		line  float64
		bonus float64
	}{
		{"goldilocks core", -6.5, 1.5},
		{"low goldilocks", -3.5, 1.0},
		{"short spread", -2.5, 0.5},
		{"stretch zone", -10.5, 0.3},
		{"trap zone", -15.0, 0.0},
	}

	trap := e.Heuristic(spreadCandidate(-15.0)).Score
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Heuristic(spreadCandidate(tc.line)).Score
			assert.InDelta(t, tc.bonus, got-trap, 1e-9, "bonus relative to trap zone")
		})
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	e := newTestEngine()
	c := spreadCandidate(-6.5)

	first := e.Heuristic(c)
	second := e.Heuristic(c)
	assert.Equal(t, first.Score, second.Score)
	assert.True(t, first.UsedFallback)
	assert.NotEmpty(t, first.FallbackNote)
}

func TestHeuristic_TotalBandTails(t *testing.T) {
	e := newTestEngine()
	total := func(line float64) models.Candidate {
		c := spreadCandidate(0)
		c.MarketKind = models.MarketTotal
		c.Selection = "Over"
		c.OverUnder = models.Over
		c.Line = models.LinePtr(line)
		return c
	}

	outside := e.Heuristic(total(300)).Score
	assert.InDelta(t, 0.5, e.Heuristic(total(220)).Score-outside, 1e-9, "inside the band")
	assert.InDelta(t, 0.3, e.Heuristic(total(243)).Score-outside, 1e-9, "first tail")
	assert.InDelta(t, 0.1, e.Heuristic(total(248)).Score-outside, 1e-9, "second tail")
}

func testSlate() *models.SlateData {
	return &models.SlateData{
		Sport:   models.SportNBA,
		DateStr: "2025-01-15",
		TeamStats: map[string]models.TeamStats{
			"Boston Celtics": {Team: "Boston Celtics", Pace: 100.2, PaceRank: 8, DefRating: 110.1, DefRank: 3, PointsPG: 118.5, RestDays: 2},
			"Miami Heat":     {Team: "Miami Heat", Pace: 97.8, PaceRank: 24, DefRating: 114.0, DefRank: 15, PointsPG: 109.9, RestDays: 0, BackToBack: true, TravelMiles: 1200},
		},
		LineHistory: map[string][]models.LinePoint{
			models.HistoryKey("ev1", models.MarketSpread): {
				{ObservedAt: time.Now().Add(-6 * time.Hour), Line: -5.0},
				{ObservedAt: time.Now().Add(-3 * time.Hour), Line: -5.5},
				{ObservedAt: time.Now(), Line: -6.5},
			},
		},
		Injuries: []models.InjuryRecord{
			{PlayerName: "Jimmy Butler", Team: "Miami Heat", Status: models.InjuryOut},
		},
	}
}

func TestEnsemble_FavoredRestedSideScoresAboveNeutral(t *testing.T) {
	e := newTestEngine()
	data := testSlate()

	res := e.ensemble(data, spreadCandidate(-6.5))

	require.Len(t, res.Models, 8, "all sub-models report")
	assert.False(t, res.UsedFallback)
	assert.Greater(t, res.Score, 5.5, "steam, rest edge and opponent injury all favor the pick")

	var sum float64
	for _, contrib := range res.Contributions {
		sum += contrib
	}
	assert.InDelta(t, res.Score, sum, 1e-9, "score is the sum of contributions")
}

func TestMonteCarlo_HomeFavoriteWinProb(t *testing.T) {
	e := newTestEngine()
	data := testSlate()
	c := spreadCandidate(0)
	c.MarketKind = models.MarketMoneyline
	c.Line = nil

	res := e.monteCarlo(data, c)
	assert.Greater(t, res.Score, 5.0, "stronger home side wins more than half the sims")
	assert.Less(t, res.Score, 10.0)
}

func TestBettingEdge_BeatsBoardMedian(t *testing.T) {
	e := newTestEngine()
	data := testSlate()
	data.Lines = map[string][]models.MarketLine{
		"ev1": {
			{EventID: "ev1", MarketKind: models.MarketSpread, SelectionKey: "Boston Celtics", Line: models.LinePtr(-6.5), OddsAmerican: models.OddsPtr(-105), BookKey: models.BookDraftKings},
			{EventID: "ev1", MarketKind: models.MarketSpread, SelectionKey: "Boston Celtics", Line: models.LinePtr(-6.5), OddsAmerican: models.OddsPtr(-110), BookKey: models.BookFanDuel},
			{EventID: "ev1", MarketKind: models.MarketSpread, SelectionKey: "Boston Celtics", Line: models.LinePtr(-6.5), OddsAmerican: models.OddsPtr(-115), BookKey: models.BookBetMGM},
		},
	}
	c := spreadCandidate(-6.5)
	c.OddsAmerican = models.OddsPtr(-105)

	res := e.bettingEdge(data, c)
	assert.Greater(t, res.Score, 5.0, "cheapest price on the board grades positive")
}

func TestScoreSlate_VarianceFloorTriggersFallback(t *testing.T) {
	e := newTestEngine()
	data := &models.SlateData{Sport: models.SportNBA}

	cands := make([]models.Candidate, 5)
	for i := range cands {
		cands[i] = spreadCandidate(-6.5)
	}

	out := e.ScoreSlate(data, cands)
	require.Len(t, out, 5)
	for _, r := range out {
		assert.True(t, r.UsedFallback, "identical no-data candidates fail the variance floor")
		assert.Contains(t, r.FallbackNote, "variance below floor")
	}
}

func TestDegenerateDetector(t *testing.T) {
	mk := func(scores ...float64) []models.AIResult {
		out := make([]models.AIResult, len(scores))
		for i, s := range scores {
			out[i].Score = s
		}
		return out
	}
	e := newTestEngine()

	assert.True(t, e.degenerate(mk(7.8, 7.9, 7.8, 7.95, 7.85)), "bunched high band")
	assert.False(t, e.degenerate(mk(5.0, 5.1, 5.05, 5.0)), "bunched but low")
	assert.False(t, e.degenerate(mk(6.0, 7.5, 8.2, 9.0)), "spread out")

	assert.True(t, e.varied(mk(5.0, 5.5, 6.2, 7.1, 8.0)))
	assert.False(t, e.varied(mk(5.0, 5.0, 5.0, 5.0, 5.01)), "too few distinct scores")
}

func TestPickTeams_ResolvesSide(t *testing.T) {
	c := spreadCandidate(-6.5)
	pick, opp := pickTeams(c)
	assert.Equal(t, "Boston Celtics", pick)
	assert.Equal(t, "Miami Heat", opp)

	c.PickSide = "Miami Heat"
	pick, opp = pickTeams(c)
	assert.Equal(t, "Miami Heat", pick)
	assert.Equal(t, "Boston Celtics", opp)

	c.Player = &models.Player{PlayerName: "Jimmy Butler", Team: "Miami Heat"}
	pick, _ = pickTeams(c)
	assert.Equal(t, "Miami Heat", pick, "prop subject's team wins over pick side")
}
