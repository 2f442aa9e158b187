package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

func testFetchClient(providersToRelax ...string) *fetch.Client {
	c := fetch.NewClient(cache.NewTTLCache(64), registry.NewHealthTracker(), nil, nil)
	for _, p := range providersToRelax {
		c.SetPolicy(p, fetch.Policy{
			MinInterval: time.Millisecond,
			Burst:       20,
			Retries:     0,
			Backoff:     time.Millisecond,
			Timeout:     2 * time.Second,
			Breaker: fetch.BreakerSettings{
				MaxRequests:         2,
				Interval:            time.Minute,
				Timeout:             time.Minute,
				ConsecutiveFailures: 50,
				ErrorRateThreshold:  100,
			},
		})
	}
	return c
}

const oddsFixture = `[
  {
    "id": "evt1",
    "sport_key": "basketball_nba",
    "sport_title": "NBA",
    "commence_time": "2025-01-16T00:10:00Z",
    "home_team": "Los Angeles Lakers",
    "away_team": "Boston Celtics",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "markets": [
          {"key": "h2h", "outcomes": [
            {"name": "Los Angeles Lakers", "price": -150},
            {"name": "Boston Celtics", "price": 130}
          ]},
          {"key": "spreads", "outcomes": [
            {"name": "Los Angeles Lakers", "price": -110, "point": -3.5},
            {"name": "Boston Celtics", "price": -110, "point": 3.5}
          ]},
          {"key": "totals", "outcomes": [
            {"name": "Over", "price": -108, "point": 224.5},
            {"name": "Under", "price": -112, "point": 224.5}
          ]}
        ]
      },
      {
        "key": "notabook",
        "title": "Unknown Book",
        "markets": [
          {"key": "h2h", "outcomes": [{"name": "Los Angeles Lakers", "price": -145}]}
        ]
      }
    ]
  }
]`

func TestOddsClientFetchOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v4/sports/basketball_nba/odds")
		assert.Equal(t, "american", r.URL.Query().Get("oddsFormat"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Write([]byte(oddsFixture))
	}))
	defer srv.Close()

	c := NewOddsClient(testFetchClient(registry.ProviderOddsAPI), "test-key")
	c.BaseURL = srv.URL

	events, lines, err := c.FetchOdds(context.Background(), models.SportNBA)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Los Angeles Lakers", events[0].HomeTeam)
	assert.Equal(t, models.SportNBA, events[0].Sport)
	assert.False(t, events[0].StartTimeUTC.IsZero())

	got := lines["evt1"]
	require.Len(t, got, 6, "unknown book must be dropped")

	var ml, spread, total int
	for _, ln := range got {
		assert.Equal(t, models.BookDraftKings, ln.BookKey)
		switch ln.MarketKind {
		case models.MarketMoneyline:
			ml++
			assert.Nil(t, ln.Line)
			require.NotNil(t, ln.OddsAmerican)
		case models.MarketSpread:
			spread++
			require.NotNil(t, ln.Line)
		case models.MarketTotal:
			total++
			assert.NotEqual(t, models.OverUnder(""), ln.OverUnder)
		}
	}
	assert.Equal(t, 2, ml)
	assert.Equal(t, 2, spread)
	assert.Equal(t, 2, total)
}

func TestOddsClientFetchOddsRequiresKey(t *testing.T) {
	c := NewOddsClient(testFetchClient(), "")
	_, _, err := c.FetchOdds(context.Background(), models.SportNBA)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeAPIKeyMissing, models.CodeOf(err))
}

func TestOddsClientFetchProps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/events/evt1/odds")
		w.Write([]byte(`{
			"id": "evt1",
			"bookmakers": [{
				"key": "fanduel",
				"markets": [{
					"key": "player_points",
					"outcomes": [
						{"name": "Over", "description": "LeBron James", "price": -115, "point": 25.5},
						{"name": "Under", "description": "LeBron James", "price": -105, "point": 25.5}
					]
				}]
			}]
		}`))
	}))
	defer srv.Close()

	c := NewOddsClient(testFetchClient(registry.ProviderOddsAPI), "test-key")
	c.BaseURL = srv.URL

	offers, err := c.FetchProps(context.Background(), models.SportNBA, "evt1")
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "LeBron James", offers[0].PlayerName)
	assert.Equal(t, "player_points", offers[0].Market)
	assert.Equal(t, 25.5, offers[0].Line)
	assert.Equal(t, models.Over, offers[0].Side)
	assert.Equal(t, models.Under, offers[1].Side)
}

func TestESPNScoreboardStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "basketball/nba/scoreboard")
		assert.Equal(t, "20250115", r.URL.Query().Get("dates"))
		w.Write([]byte(`{
			"events": [
				{
					"id": "401", "date": "2025-01-16T00:10Z",
					"status": {"type": {"name": "STATUS_IN_PROGRESS"}},
					"competitions": [{"competitors": [
						{"homeAway": "home", "score": "54", "team": {"displayName": "Los Angeles Lakers"}},
						{"homeAway": "away", "score": "49", "team": {"displayName": "Boston Celtics"}}
					]}]
				},
				{
					"id": "402", "date": "2025-01-16T02:40Z",
					"status": {"type": {"name": "STATUS_SCHEDULED"}},
					"competitions": [{"competitors": [
						{"homeAway": "home", "score": "", "team": {"displayName": "Denver Nuggets"}},
						{"homeAway": "away", "score": "", "team": {"displayName": "Miami Heat"}}
					]}]
				}
			]
		}`))
	}))
	defer srv.Close()

	c := NewESPNClient(testFetchClient(registry.ProviderESPN))
	c.BaseURL = srv.URL

	games, err := c.Scoreboard(context.Background(), models.SportNBA, "20250115")
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, models.EventInProgress, games[0].Status)
	assert.Equal(t, 54, games[0].HomeScore)
	assert.Equal(t, models.EventPreGame, games[1].Status)
	assert.False(t, games[0].StartTime.IsZero())

	ev := models.Event{HomeTeam: "LA Lakers", AwayTeam: "Boston Celtics"}
	matched, ok := MatchScoreboard(games, ev)
	assert.True(t, ok)
	assert.Equal(t, "401", matched.ESPNID)
}

func TestESPNSummaryOfficials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"gameInfo": {
				"venue": {"fullName": "Ball Arena", "indoor": true,
					"address": {"city": "Denver", "state": "CO"}},
				"officials": [{"fullName": "Scott Foster"}, {"fullName": "Tony Brothers"}]
			}
		}`))
	}))
	defer srv.Close()

	c := NewESPNClient(testFetchClient(registry.ProviderESPN))
	c.BaseURL = srv.URL

	venue, err := c.Summary(context.Background(), models.SportNBA, "401")
	require.NoError(t, err)
	assert.Equal(t, "Ball Arena", venue.Venue)
	assert.Equal(t, "Denver", venue.City)
	assert.True(t, venue.Indoor)
	assert.Equal(t, []string{"Scott Foster", "Tony Brothers"}, venue.Officials)
}

func TestWeatherIndoorSportNeverCallsOut(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := NewWeatherClient(testFetchClient(registry.ProviderWeather), "wk")
	c.BaseURL = srv.URL

	report, err := c.Forecast(context.Background(), models.SportNBA, "Denver")
	require.NoError(t, err)
	assert.False(t, report.Relevant)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestWeatherOutdoorForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Green Bay", r.URL.Query().Get("q"))
		w.Write([]byte(`{
			"current": {"temp_f": 18.0, "wind_mph": 14.0, "pressure_mb": 1021.0,
				"condition": {"text": "Snow"}},
			"forecast": {"forecastday": [{"day": {"daily_chance_of_rain": 70}}]}
		}`))
	}))
	defer srv.Close()

	c := NewWeatherClient(testFetchClient(registry.ProviderWeather), "wk")
	c.BaseURL = srv.URL

	report, err := c.Forecast(context.Background(), models.SportNFL, "Green Bay")
	require.NoError(t, err)
	assert.True(t, report.Relevant)
	assert.Equal(t, 18.0, report.TempF)
	assert.Equal(t, 14.0, report.WindMPH)
	assert.Equal(t, 70.0, report.PrecipPct)
	assert.Equal(t, "Snow", report.Summary)
}

func TestNOAAKpIndexTakesLatestReading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "planetary_k_index_1m.json")
		w.Write([]byte(`[
			{"time_tag": "2025-01-15T17:58:00", "kp_index": 2.0, "estimated_kp": 2.1},
			{"time_tag": "2025-01-15T17:59:00", "kp_index": 4.33, "estimated_kp": 4.4}
		]`))
	}))
	defer srv.Close()

	c := NewSpaceWeatherClient(testFetchClient(registry.ProviderNOAA), srv.URL)

	sw, err := c.KpIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.33, sw.KpIndex)
	assert.Equal(t, "ACTIVE", sw.KpLabel)
	assert.Equal(t, 2025, sw.ObservedAt.Year())
}

func TestKpLabelBands(t *testing.T) {
	assert.Equal(t, "QUIET", KpLabel(1.0))
	assert.Equal(t, "UNSETTLED", KpLabel(3.2))
	assert.Equal(t, "ACTIVE", KpLabel(4.9))
	assert.Equal(t, "STORM", KpLabel(6.5))
}

func TestFREDMissingValueIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": [{"date": "2025-01-01", "value": "."}]}`))
	}))
	defer srv.Close()

	c := NewFREDClient(testFetchClient(registry.ProviderFRED), "fk")
	c.BaseURL = srv.URL

	_, err := c.Indicators(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNoDataAvailable, models.CodeOf(err))
}

func TestWhopValidLicense(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer whop-key", r.Header.Get("Authorization"))
		assert.Equal(t, "lic-123", r.URL.Query().Get("license_key"))
		w.Write([]byte(`{"data": [{"id": "mem_1", "status": "active", "valid": true}]}`))
	}))
	defer srv.Close()

	c := NewWhopClient(testFetchClient(registry.ProviderWhop), "whop-key")
	c.BaseURL = srv.URL

	ok, err := c.ValidateLicense(context.Background(), "lic-123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidateLicense(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDemoSlateDeterministicAndGated(t *testing.T) {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))

	a := DemoSlate(models.SportNBA, "2025-01-15", day)
	b := DemoSlate(models.SportNBA, "2025-01-15", day)

	require.Len(t, a.Events, 3)
	assert.Equal(t, a.Events[0].EventID, b.Events[0].EventID)
	assert.Equal(t, a.Lines[a.Events[0].EventID], b.Lines[b.Events[0].EventID])
	assert.True(t, a.DemoMode)

	// Indoor sport carries no weather; every recorded provider outcome is a
	// fallback, never a SUCCESS that could masquerade as a live fetch.
	assert.Empty(t, a.Weather)
	for _, outcome := range a.Outcomes {
		assert.Equal(t, models.StatusFallbackSuccess, outcome.Status)
	}

	demoNFL := DemoSlate(models.SportNFL, "2025-01-15", day)
	assert.NotEmpty(t, demoNFL.Weather)

	strong := a.Splits[a.Events[0].EventID][0]
	assert.Equal(t, models.RLMStrong, strong.RLM)
	assert.GreaterOrEqual(t, strong.Divergence(), 15.0)
}

func TestPlanetaryHourDeterministic(t *testing.T) {
	// Sunday 00:00 is ruled by the Sun; hours advance through the chaldean
	// order from there.
	sundayMidnight := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sun", PlanetaryHour(sundayMidnight))
	assert.Equal(t, "Venus", PlanetaryHour(sundayMidnight.Add(time.Hour)))

	mondayMidnight := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Moon", PlanetaryHour(mondayMidnight))
}
