package esoteric

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
	slatecontext "github.com/slatepick/slatepick/internal/slate/context"
)

func newTestEngine() *Engine {
	return New(config.DefaultTuning(), slatecontext.DefaultTables(), nil, zerolog.Nop())
}

func fullSlate() *models.SlateData {
	data := &models.SlateData{
		Sport:   models.SportNBA,
		DateStr: "2025-01-15",
		Space:   &models.SpaceWeather{KpIndex: 1.67, KpLabel: "QUIET", ObservedAt: time.Now()},
		Moon:    &models.MoonInfo{Phase: "Waxing Gibbous", Illumination: 0.82, PlanetaryHour: "Jupiter"},
		Market:  &models.MarketSentiment{SPXChangePct: 1.1, Sentiment: "RISK_ON"},
		Econ:    &models.EconIndicators{CPIYoY: 3.1, Unemployment: 4.0},
		Social: map[string]models.SocialPulse{
			"ev1": {EventID: "ev1", Volume: 4200, PositiveRatio: 0.6, Velocity: 1.6},
		},
		Venues: map[string]models.VenueInfo{
			"ev1": {Venue: "TD Garden", Indoor: true, Officials: []string{"Scott Foster", "Tony Brothers"}},
		},
		TeamStats: map[string]models.TeamStats{
			"Boston Celtics": {Team: "Boston Celtics", RestDays: 2},
			"Miami Heat":     {Team: "Miami Heat", RestDays: 0, BackToBack: true, TravelMiles: 1450},
		},
		LineHistory: map[string][]models.LinePoint{
			models.HistoryKey("ev1", models.MarketSpread): {
				{Line: -5.0}, {Line: -5.5}, {Line: -6.0}, {Line: -6.5},
			},
		},
	}
	data.RecordOutcome(models.ProviderOutcome{
		Provider: registry.ProviderNOAA, Status: models.StatusSuccess,
		Proof: models.CallProof{TwoXXDelta: 1, LatencyMS: 42},
	})
	data.RecordOutcome(models.ProviderOutcome{
		Provider: registry.ProviderAstronomy, Status: models.StatusFallbackSuccess,
	})
	return data
}

func homeSpread() models.Candidate {
	return models.Candidate{
		EventID:    "ev1",
		Sport:      models.SportNBA,
		MarketKind: models.MarketSpread,
		Selection:  "Boston Celtics",
		PickSide:   "Boston Celtics",
		HomeTeam:   "Boston Celtics",
		AwayTeam:   "Miami Heat",
		Line:       models.LinePtr(-6.5),
		Player:     nil,
	}
}

func TestScore_AllSignalsPresent(t *testing.T) {
	e := newTestEngine()
	res := e.Score(fullSlate(), homeSpread())

	require.Len(t, res.Breakdown, 23, "every canonical signal reports")
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 10.0)

	ordered := res.OrderedBreakdown()
	require.Len(t, ordered, 23)
	assert.Equal(t, models.SignalChromeResonance, ordered[0].Signal)
	assert.Equal(t, models.SignalTravel, ordered[22].Signal)
}

func TestScore_IndependentOfBettingSplits(t *testing.T) {
	e := newTestEngine()
	c := homeSpread()

	plain := e.Score(fullSlate(), c)

	loaded := fullSlate()
	loaded.Splits = map[string][]models.Split{
		"ev1": {{
			EventID: "ev1", MarketKind: models.MarketSpread,
			PublicBetPct: 80, PublicMoneyPct: 30, SharpSide: "Miami Heat",
			RLM: models.RLMStrong,
		}},
	}
	withSplits := e.Score(loaded, c)

	assert.Equal(t, plain.Score, withSplits.Score, "splits may not move the esoteric score")
	assert.Equal(t, plain.Breakdown, withSplits.Breakdown)
}

func TestKpValueBands(t *testing.T) {
	assert.Equal(t, 0.8, kpValue("QUIET"))
	assert.Equal(t, 0.6, kpValue("UNSETTLED"))
	assert.Equal(t, 0.45, kpValue("ACTIVE"))
	assert.Equal(t, 0.3, kpValue("STORM"))
	assert.Equal(t, 0.5, kpValue("anything else"))
}

func TestKpIndex_ProvenanceFromOutcome(t *testing.T) {
	e := newTestEngine()
	data := fullSlate()

	res := e.kpIndex(data)
	require.NotNil(t, res.SourceAPI)
	assert.Equal(t, registry.ProviderNOAA, *res.SourceAPI)
	assert.Equal(t, models.SourceExternal, res.SourceType)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, 1, res.CallProof.TwoXXDelta)
	assert.Equal(t, 0.8, res.Value)
	assert.InDelta(t, 0.15, res.Contribution, 1e-9, "quiet field adds a quarter of its band")
}

func TestVoidMoon_FallbackStatusPropagates(t *testing.T) {
	e := newTestEngine()
	data := fullSlate()
	data.Moon.VoidOfCourse = true

	res := e.voidMoon(data)
	assert.Equal(t, models.StatusFallbackSuccess, res.Status, "astronomy outcome was a fallback")
	assert.True(t, res.Triggered)
	assert.InDelta(t, -0.10, res.Contribution, 1e-9)
}

func TestFibonacci_Ladder(t *testing.T) {
	e := newTestEngine()
	mk := func(line float64) models.Candidate {
		c := homeSpread()
		c.Line = models.LinePtr(line)
		return c
	}

	exact := e.fibonacci(mk(13))
	assert.True(t, exact.Triggered)
	assert.InDelta(t, 0.10, exact.Contribution, 1e-9)

	near := e.fibonacci(mk(13.4))
	assert.True(t, near.Triggered)
	assert.InDelta(t, 0.05, near.Contribution, 1e-9)

	off := e.fibonacci(mk(17))
	assert.False(t, off.Triggered)
	assert.Zero(t, off.Contribution)
}

func TestVortex_TeslaKeysAndPattern(t *testing.T) {
	e := newTestEngine()
	mk := func(line float64) models.Candidate {
		c := homeSpread()
		c.Line = models.LinePtr(line)
		return c
	}

	// 3.0 reduces through 30 to root 3: a Tesla key.
	tesla := e.vortex(mk(3.0))
	assert.True(t, tesla.Triggered)
	assert.InDelta(t, 0.15, tesla.Contribution, 1e-9)

	// 4.0 reduces through 40 to root 4: doubling pattern.
	pattern := e.vortex(mk(4.0))
	assert.False(t, pattern.Triggered)
	assert.InDelta(t, 0.08, pattern.Contribution, 1e-9)
}

func TestAltitude_CoorsOverCarriesFullAdjustment(t *testing.T) {
	e := newTestEngine()
	c := models.Candidate{
		EventID:    "ev2",
		Sport:      models.SportMLB,
		MarketKind: models.MarketTotal,
		Selection:  "Over",
		OverUnder:  models.Over,
		HomeTeam:   "Colorado Rockies",
		AwayTeam:   "San Diego Padres",
		Line:       models.LinePtr(11.5),
	}
	res := e.altitude(c)
	assert.True(t, res.Triggered)
	assert.InDelta(t, 0.50, res.Contribution, 1e-9, "Coors total adjustment flows through unscaled")
}

func TestReferee_TotalsLeanFollowsSide(t *testing.T) {
	e := newTestEngine()
	data := fullSlate()

	over := homeSpread()
	over.MarketKind = models.MarketTotal
	over.Selection = "Over"
	over.OverUnder = models.Over

	res := e.referee(data, over)
	assert.True(t, res.Triggered, "two hot whistles trip the signal")
	assert.InDelta(t, slatecontext.RefLeanMax, res.Contribution, 1e-9)

	under := over
	under.Selection = "Under"
	under.OverUnder = models.Under
	res = e.referee(data, under)
	assert.InDelta(t, -slatecontext.RefLeanMax, res.Contribution, 1e-9)

	spread := homeSpread()
	res = e.referee(data, spread)
	assert.Zero(t, res.Contribution, "crew lean only prices totals")
}

func TestWeather_IndoorSportNotRelevant(t *testing.T) {
	e := newTestEngine()
	res := e.weather(fullSlate(), homeSpread())
	assert.Equal(t, models.StatusNotRelevant, res.Status)
	assert.Zero(t, res.Contribution)
}

func TestWeather_WindFavorsUnder(t *testing.T) {
	e := newTestEngine()
	data := fullSlate()
	data.Sport = models.SportNFL
	data.Weather = map[string]models.WeatherReport{
		"ev1": {Relevant: true, TempF: 38, WindMPH: 22, PrecipPct: 10, PressureMB: 1008, Summary: "Windy"},
	}
	data.RecordOutcome(models.ProviderOutcome{Provider: registry.ProviderWeather, Status: models.StatusSuccess})

	under := models.Candidate{
		EventID: "ev1", Sport: models.SportNFL, MarketKind: models.MarketTotal,
		Selection: "Under", OverUnder: models.Under,
		HomeTeam: "Buffalo Bills", AwayTeam: "Miami Dolphins", Line: models.LinePtr(44.5),
	}
	res := e.weather(data, under)
	assert.True(t, res.Triggered)
	assert.Greater(t, res.Contribution, 0.0, "22mph wind backs the under")

	over := under
	over.Selection = "Over"
	over.OverUnder = models.Over
	res = e.weather(data, over)
	assert.Less(t, res.Contribution, 0.0)
}

func TestBiorhythm_PropsOnly(t *testing.T) {
	e := newTestEngine()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	game := e.biorhythm(homeSpread(), day)
	assert.Equal(t, models.StatusSkipped, game.Status)

	prop := homeSpread()
	prop.MarketKind = models.MarketPlayerProp
	prop.Player = &models.Player{PlayerName: "Jayson Tatum", Birthdate: "1998-03-03"}
	res := e.biorhythm(prop, day)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.GreaterOrEqual(t, res.Value, 0.0)
	assert.LessOrEqual(t, res.Value, 1.0)

	again := e.biorhythm(prop, day)
	assert.Equal(t, res, again, "cycles are deterministic")
}

func TestLifePath_MasterNumber(t *testing.T) {
	e := newTestEngine()
	prop := homeSpread()
	prop.MarketKind = models.MarketPlayerProp

	// 1990-11-09: 19 + 2 + 9 = 30 -> 3.
	prop.Player = &models.Player{PlayerName: "A", Birthdate: "1990-11-09"}
	res := e.lifePath(prop)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.False(t, res.Triggered)
	assert.InDelta(t, 0.04, res.Contribution, 1e-9, "path 3 takes the minor boost")

	// 1992-02-29: 21 + 2 + 11 = 34 -> 7.
	prop.Player = &models.Player{PlayerName: "B", Birthdate: "1992-02-29"}
	res = e.lifePath(prop)
	assert.InDelta(t, 0.04, res.Contribution, 1e-9)
}

func TestHurstExponent_TrendingSeries(t *testing.T) {
	trending := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	h := hurstExponent(trending)
	assert.Greater(t, h, 0.5, "monotone series is persistent")

	flat := []float64{5, 5, 5, 5}
	assert.Equal(t, 0.5, hurstExponent(flat), "zero-range series is neutral")
}

func TestScore_EmptySlateStillReportsAllSignals(t *testing.T) {
	e := newTestEngine()
	res := e.Score(&models.SlateData{Sport: models.SportNBA, DateStr: "2025-01-15"}, homeSpread())

	require.Len(t, res.Breakdown, 23)
	for sig, sr := range res.Breakdown {
		assert.NotEmpty(t, sr.Status, "signal %s must carry a status", sig)
	}
	kp := res.Breakdown[models.SignalKpIndex]
	assert.Equal(t, models.StatusNoData, kp.Status)
	assert.Zero(t, kp.Contribution)
}
