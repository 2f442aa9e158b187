package providers

import (
	"hash/fnv"
	"time"

	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// demoMatchup seeds one sample game.
type demoMatchup struct {
	home, away string
	city       string
	spread     float64
	total      float64
}

var demoSlates = map[models.Sport][]demoMatchup{
	models.SportNBA: {
		{home: "Los Angeles Lakers", away: "Boston Celtics", city: "Los Angeles", spread: -3.5, total: 224.5},
		{home: "Denver Nuggets", away: "Miami Heat", city: "Denver", spread: -6.5, total: 218.5},
		{home: "Milwaukee Bucks", away: "Golden State Warriors", city: "Milwaukee", spread: -4.5, total: 229.5},
	},
	models.SportNFL: {
		{home: "Kansas City Chiefs", away: "Buffalo Bills", city: "Kansas City", spread: -2.5, total: 47.5},
		{home: "Denver Broncos", away: "Las Vegas Raiders", city: "Denver", spread: -4.5, total: 41.5},
		{home: "Philadelphia Eagles", away: "Dallas Cowboys", city: "Philadelphia", spread: -5.5, total: 45.5},
	},
	models.SportMLB: {
		{home: "Colorado Rockies", away: "Atlanta Braves", city: "Denver", spread: 1.5, total: 11.5},
		{home: "New York Yankees", away: "Boston Red Sox", city: "New York", spread: -1.5, total: 8.5},
		{home: "Los Angeles Dodgers", away: "San Diego Padres", city: "Los Angeles", spread: -1.5, total: 7.5},
	},
	models.SportNHL: {
		{home: "Colorado Avalanche", away: "Edmonton Oilers", city: "Denver", spread: -1.5, total: 6.5},
		{home: "New York Rangers", away: "Boston Bruins", city: "New York", spread: -1.5, total: 5.5},
		{home: "Toronto Maple Leafs", away: "Tampa Bay Lightning", city: "Toronto", spread: -1.5, total: 6.5},
	},
	models.SportNCAAB: {
		{home: "Duke Blue Devils", away: "North Carolina Tar Heels", city: "Durham", spread: -4.5, total: 148.5},
		{home: "Kansas Jayhawks", away: "Baylor Bears", city: "Lawrence", spread: -3.5, total: 142.5},
		{home: "Gonzaga Bulldogs", away: "Saint Mary's Gaels", city: "Spokane", spread: -7.5, total: 139.5},
	},
}

// demoProps names the sample prop players per sport, indexed by game slot.
var demoProps = map[models.Sport][]models.PropOffer{
	models.SportNBA: {
		{PlayerName: "LeBron James", Market: "player_points", Line: 25.5},
		{PlayerName: "Jayson Tatum", Market: "player_points", Line: 27.5},
		{PlayerName: "Nikola Jokic", Market: "player_rebounds", Line: 11.5},
	},
	models.SportNFL: {
		{PlayerName: "Patrick Mahomes", Market: "player_pass_yds", Line: 274.5},
		{PlayerName: "Josh Allen", Market: "player_pass_yds", Line: 259.5},
	},
	models.SportMLB: {
		{PlayerName: "Aaron Judge", Market: "batter_home_runs", Line: 0.5},
	},
	models.SportNHL: {
		{PlayerName: "Connor McDavid", Market: "player_points", Line: 1.5},
		{PlayerName: "Nathan MacKinnon", Market: "player_shots_on_goal", Line: 4.5},
	},
	models.SportNCAAB: {
		{PlayerName: "Tyler Brooks", Market: "player_points", Line: 16.5},
	},
}

// DemoSlate builds a deterministic sample slate for one sport and ET day.
// dayStart is the ET midnight opening the slate window. This is the only
// code path in the module that fabricates data, and it only runs when
// ENABLE_DEMO is set.
func DemoSlate(sport models.Sport, dateStr string, dayStart time.Time) *models.SlateData {
	jitter := float64(demoHash(string(sport)+dateStr)%5) * 0.5

	slate := &models.SlateData{
		Sport:    sport,
		DateStr:  dateStr,
		Lines:    make(map[string][]models.MarketLine),
		Splits:   make(map[string][]models.Split),
		Weather:  make(map[string]models.WeatherReport),
		Venues:   make(map[string]models.VenueInfo),
		News:     make(map[string]models.NewsSentiment),
		Social:   make(map[string]models.SocialPulse),
		Outcomes: make(map[string]models.ProviderOutcome),

		LineHistory: make(map[string][]models.LinePoint),
		TeamStats:   make(map[string]models.TeamStats),
		Players:     make(map[string]models.Player),
		DemoMode:    true,
	}

	books := []models.BookKey{models.BookDraftKings, models.BookFanDuel, models.BookBetMGM}
	tipoffs := []time.Duration{19 * time.Hour, 19*time.Hour + 30*time.Minute, 22 * time.Hour}

	for i, m := range demoSlates[sport] {
		eventID := demoEventID(sport, dateStr, i)
		start := dayStart.Add(tipoffs[i%len(tipoffs)])
		slate.Events = append(slate.Events, models.Event{
			EventID:      eventID,
			Sport:        sport,
			League:       string(sport),
			HomeTeam:     m.home,
			AwayTeam:     m.away,
			StartTimeUTC: start.UTC(),
		})

		spread := m.spread + jitter*0.5
		total := m.total + jitter
		fetched := dayStart.Add(12 * time.Hour).UTC()
		for bi, book := range books {
			// Books shade a half point apart so line shopping has spread.
			shade := float64(bi) * 0.5
			slate.Lines[eventID] = append(slate.Lines[eventID],
				models.MarketLine{
					EventID: eventID, MarketKind: models.MarketSpread,
					SelectionKey: m.home, Line: f(spread), OddsAmerican: n(-110),
					BookKey: book, FetchedAt: fetched,
				},
				models.MarketLine{
					EventID: eventID, MarketKind: models.MarketSpread,
					SelectionKey: m.away, Line: f(-spread), OddsAmerican: n(-110),
					BookKey: book, FetchedAt: fetched,
				},
				models.MarketLine{
					EventID: eventID, MarketKind: models.MarketTotal,
					SelectionKey: "Over", Line: f(total + shade), OverUnder: models.Over,
					OddsAmerican: n(-108 - bi), BookKey: book, FetchedAt: fetched,
				},
				models.MarketLine{
					EventID: eventID, MarketKind: models.MarketTotal,
					SelectionKey: "Under", Line: f(total + shade), OverUnder: models.Under,
					OddsAmerican: n(-112 + bi), BookKey: book, FetchedAt: fetched,
				},
				models.MarketLine{
					EventID: eventID, MarketKind: models.MarketMoneyline,
					SelectionKey: m.home, OddsAmerican: n(moneylineFromSpread(spread)),
					BookKey: book, FetchedAt: fetched,
				},
				models.MarketLine{
					EventID: eventID, MarketKind: models.MarketMoneyline,
					SelectionKey: m.away, OddsAmerican: n(-moneylineFromSpread(spread) - 40),
					BookKey: book, FetchedAt: fetched,
				},
			)
		}

		// The first game carries a strong sharp split; later games stay quiet.
		if i == 0 {
			slate.Splits[eventID] = []models.Split{{
				EventID: eventID, MarketKind: models.MarketSpread,
				PublicBetPct: 68, PublicMoneyPct: 44,
				SharpSide: m.away, RLM: models.RLMStrong, SteamStrength: 0.7,
			}}
			slate.LineHistory[models.HistoryKey(eventID, models.MarketSpread)] = []models.LinePoint{
				{ObservedAt: fetched.Add(-6 * time.Hour), Line: spread + 1.0, OddsAmerican: n(-108)},
				{ObservedAt: fetched.Add(-3 * time.Hour), Line: spread + 0.5, OddsAmerican: n(-110)},
				{ObservedAt: fetched, Line: spread, OddsAmerican: n(-112)},
			}
		} else {
			slate.Splits[eventID] = []models.Split{{
				EventID: eventID, MarketKind: models.MarketSpread,
				PublicBetPct: 52, PublicMoneyPct: 55, RLM: models.RLMNone,
			}}
		}

		if !sport.Indoor() {
			slate.Weather[eventID] = models.WeatherReport{
				Relevant: true, TempF: 46 + jitter*4, WindMPH: 11, PrecipPct: 20,
				PressureMB: 1014, Summary: "Partly cloudy",
			}
		}

		venue := models.VenueInfo{Venue: m.home + " Arena", Indoor: sport.Indoor()}
		if i == 0 {
			venue.Officials = []string{"Scott Foster", "Marc Davis", "Pat Fraher"}
		}
		slate.Venues[eventID] = venue

		slate.News[eventID] = models.NewsSentiment{
			EventID: eventID, ConsensusSide: m.home, Confidence: 0.62, Articles: 9,
		}
		slate.Social[eventID] = models.SocialPulse{
			EventID: eventID, Volume: 4200 - i*900, PositiveRatio: 0.58, Velocity: 1.3,
		}

		slate.TeamStats[m.home] = models.TeamStats{
			Team: m.home, Pace: 99.5, PaceRank: 9, DefRating: 111.2, DefRank: 8,
			PointsPG: 114.8, RestDays: 2,
		}
		slate.TeamStats[m.away] = models.TeamStats{
			Team: m.away, Pace: 101.3, PaceRank: 4, DefRating: 113.6, DefRank: 17,
			PointsPG: 112.1, RestDays: boolToInt(i != 1), BackToBack: i == 1, TravelMiles: 1450,
		}
	}

	for pi, prop := range demoProps[sport] {
		gameIdx := pi % len(slate.Events)
		prop.Sport = sport
		prop.GameID = slate.Events[gameIdx].EventID
		prop.Side = models.Over
		prop.OddsAmerican = n(-115)
		prop.BookKey = models.BookDraftKings
		slate.Props = append(slate.Props, prop)
		slate.Listed = append(slate.Listed, prop)

		under := prop
		under.Side = models.Under
		under.OddsAmerican = n(-105)
		slate.Listed = append(slate.Listed, under)

		slate.Players[prop.PlayerName] = models.Player{
			PlayerName:        prop.PlayerName,
			Team:              slate.Events[gameIdx].HomeTeam,
			GamesPlayedSeason: 38,
			ActiveStatus:      "ACTIVE",
			Birthdate:         "1994-12-30",
		}
	}

	if len(slate.Events) > 1 {
		slate.Injuries = []models.InjuryRecord{
			{
				PlayerName: "Riley Thompson", Team: slate.Events[1].HomeTeam,
				Status: models.InjuryOut, Detail: "ankle", ReportedAt: dayStart.UTC(),
			},
			{
				PlayerName: "Casey Vaughn", Team: slate.Events[1].AwayTeam,
				Status: models.InjuryQuestionable, Detail: "illness", ReportedAt: dayStart.UTC(),
			},
		}
	}

	moon := FallbackMoon(dayStart.Add(19 * time.Hour))
	slate.Space = &models.SpaceWeather{KpIndex: 2.33, KpLabel: KpLabel(2.33), ObservedAt: dayStart.UTC()}
	slate.Moon = &moon
	slate.Market = &models.MarketSentiment{SPXChangePct: 0.42, VIX: 14.8, Sentiment: "NEUTRAL"}
	slate.Econ = &models.EconIndicators{CPIYoY: 3.2, Unemployment: 4.1, UpdatedAt: dayStart.UTC()}

	for _, provider := range []string{
		registry.ProviderOddsAPI, registry.ProviderESPN, registry.ProviderPlaybook,
		registry.ProviderBallDontLie, registry.ProviderWeather, registry.ProviderNOAA,
		registry.ProviderAstronomy, registry.ProviderFinnhub, registry.ProviderFRED,
		registry.ProviderSerpAPI, registry.ProviderTwitter,
	} {
		slate.RecordOutcome(models.ProviderOutcome{Provider: provider, Status: models.StatusFallbackSuccess})
	}
	return slate
}

func demoEventID(sport models.Sport, dateStr string, i int) string {
	return "demo-" + string(sport) + "-" + dateStr + "-" + string(rune('a'+i))
}

func demoHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// moneylineFromSpread maps a home spread to a plausible home price.
func moneylineFromSpread(spread float64) int {
	switch {
	case spread <= -7:
		return -320
	case spread <= -4:
		return -190
	case spread <= -1:
		return -135
	case spread < 1:
		return -110
	default:
		return 120
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }
