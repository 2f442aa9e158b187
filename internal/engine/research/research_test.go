package research

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

func sharpSlate() *models.SlateData {
	return &models.SlateData{
		Sport: models.SportNBA,
		Splits: map[string][]models.Split{
			"ev1": {{
				EventID:        "ev1",
				MarketKind:     models.MarketSpread,
				PublicBetPct:   68,
				PublicMoneyPct: 44,
				SharpSide:      "Miami Heat",
				RLM:            models.RLMStrong,
			}},
		},
	}
}

func awaySpread() models.Candidate {
	return models.Candidate{
		EventID:    "ev1",
		Sport:      models.SportNBA,
		MarketKind: models.MarketSpread,
		Selection:  "Miami Heat",
		PickSide:   "Miami Heat",
		HomeTeam:   "Boston Celtics",
		AwayTeam:   "Miami Heat",
		Line:       models.LinePtr(6.5),
	}
}

func verdictFor(t *testing.T, res models.ResearchResult, p models.Pillar) models.PillarVerdict {
	t.Helper()
	for _, v := range res.Verdicts {
		if v.Pillar == p {
			return v
		}
	}
	t.Fatalf("no verdict for pillar %s", p)
	return models.PillarVerdict{}
}

func TestScore_SharpSplitStrongWithPick(t *testing.T) {
	e := newTestEngine()
	res := e.Score(sharpSlate(), awaySpread())

	require.Len(t, res.Verdicts, 8, "all pillars report")
	assert.Equal(t, models.PillarSharpSplit, res.Verdicts[0].Pillar, "canonical pillar order")

	sharp := verdictFor(t, res, models.PillarSharpSplit)
	assert.True(t, sharp.Passed)
	assert.InDelta(t, 1.2, sharp.Contribution, 1e-9, "24pp divergence is STRONG, full factory boost")

	rlm := verdictFor(t, res, models.PillarReverseLineMove)
	assert.True(t, rlm.Passed)
	assert.InDelta(t, 1.0, rlm.Contribution, 1e-9)

	assert.Greater(t, res.Score, 7.0, "sharp side with RLM scores well above base")
}

func TestScore_SharpSideAgainstPick(t *testing.T) {
	e := newTestEngine()
	c := awaySpread()
	c.Selection = "Boston Celtics"
	c.PickSide = "Boston Celtics"
	c.Line = models.LinePtr(-6.5)

	res := e.Score(sharpSlate(), c)

	sharp := verdictFor(t, res, models.PillarSharpSplit)
	assert.False(t, sharp.Passed)
	assert.InDelta(t, -0.6, sharp.Contribution, 1e-9, "fading the sharps costs half the boost")
	assert.Less(t, res.Score, 5.0)
}

func TestScore_MicroWeightClampedToDriftBound(t *testing.T) {
	tuning := config.DefaultTuning()
	tuning.Micro = config.MicroWeights{Multipliers: map[string]float64{
		string(models.PillarSharpSplit): 2.0,
	}}
	e := New(tuning, zerolog.Nop())

	res := e.Score(sharpSlate(), awaySpread())
	sharp := verdictFor(t, res, models.PillarSharpSplit)
	assert.InDelta(t, 1.2*1.15, sharp.Contribution, 1e-9, "tuned multiplier clamps at +15%")
}

func TestHookDiscipline_NFLKeyNumbers(t *testing.T) {
	e := newTestEngine()

	dog := models.Candidate{Sport: models.SportNFL, MarketKind: models.MarketSpread, Line: models.LinePtr(3.5)}
	read := e.hookDiscipline(dog)
	assert.True(t, read.passed)
	assert.Equal(t, 1.0, read.raw, "+3.5 takes the points through the 3")

	hook := models.Candidate{Sport: models.SportNFL, MarketKind: models.MarketSpread, Line: models.LinePtr(-3.5)}
	read = e.hookDiscipline(hook)
	assert.False(t, read.passed)
	assert.Equal(t, -0.5, read.raw, "-3.5 lays the hook past the 3")

	clear := models.Candidate{Sport: models.SportNFL, MarketKind: models.MarketSpread, Line: models.LinePtr(-5.5)}
	read = e.hookDiscipline(clear)
	assert.True(t, read.passed)
	assert.Equal(t, 0.3, read.raw)
}

func TestHospitalFade_TotalsLeanUnder(t *testing.T) {
	e := newTestEngine()
	data := &models.SlateData{
		Injuries: []models.InjuryRecord{
			{PlayerName: "A", Team: "Boston Celtics", Status: models.InjuryOut},
			{PlayerName: "B", Team: "Miami Heat", Status: models.InjurySuspended},
			{PlayerName: "C", Team: "Miami Heat", Status: models.InjuryQuestionable},
		},
	}
	under := models.Candidate{
		EventID: "ev1", MarketKind: models.MarketTotal, OverUnder: models.Under,
		HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", Selection: "Under",
	}
	read := e.hospitalFade(data, under)
	assert.True(t, read.passed, "two confirmed absences support the under")
	assert.Equal(t, 0.5, read.raw)

	over := under
	over.OverUnder = models.Over
	over.Selection = "Over"
	read = e.hospitalFade(data, over)
	assert.False(t, read.passed)
	assert.Equal(t, -0.3, read.raw, "questionable player does not count")
}

func TestScore_NoDataStaysNearBase(t *testing.T) {
	e := newTestEngine()
	res := e.Score(&models.SlateData{Sport: models.SportNBA}, awaySpread())

	// Only volume discipline moves: an unpriced market reads thin.
	assert.InDelta(t, 5.0-0.3*0.3, res.Score, 1e-9)
}

func TestPropCorrelation_TrendSides(t *testing.T) {
	e := newTestEngine()
	data := &models.SlateData{
		PropTrends: map[string]models.PropHistory{
			models.PropTrendKey("LeBron James", "player_points"): {
				PlayerName: "LeBron James", Market: "player_points", HitRate: 0.7, Games: 10,
			},
		},
	}
	prop := models.Candidate{
		MarketKind: models.MarketPlayerProp,
		Market:     "player_points",
		OverUnder:  models.Over,
		Player:     &models.Player{PlayerName: "LeBron James"},
	}

	read := e.propCorrelation(data, prop)
	assert.True(t, read.passed)
	assert.Equal(t, 1.0, read.raw)

	prop.OverUnder = models.Under
	read = e.propCorrelation(data, prop)
	assert.False(t, read.passed)
	assert.Equal(t, -0.5, read.raw, "70% over trend argues against the under")
}
