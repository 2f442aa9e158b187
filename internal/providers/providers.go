// Package providers holds one client per upstream integration. Clients build
// URLs and parse payloads; pacing, breakers, retries, caching, and telemetry
// all live in the fetch layer underneath.
package providers

import (
	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
)

// Bundle wires every provider client over one shared fetch client.
type Bundle struct {
	Odds      *OddsClient
	ESPN      *ESPNClient
	Playbook  *PlaybookClient
	BDL       *BallDontLieClient
	Weather   *WeatherClient
	Space     *SpaceWeatherClient
	Astronomy *AstronomyClient
	Finnhub   *FinnhubClient
	FRED      *FREDClient
	News      *NewsClient
	Social    *TwitterClient
	Whop      *WhopClient

	DemoMode bool
}

// NewBundle builds all clients from config.
func NewBundle(cfg *config.Config, api *fetch.Client) *Bundle {
	return &Bundle{
		Odds:      NewOddsClient(api, cfg.OddsAPIKey),
		ESPN:      NewESPNClient(api),
		Playbook:  NewPlaybookClient(api, cfg.PlaybookAPIKey),
		BDL:       NewBallDontLieClient(api, cfg.BallDontLieAPIKey),
		Weather:   NewWeatherClient(api, cfg.WeatherAPIKey),
		Space:     NewSpaceWeatherClient(api, cfg.NOAABaseURL),
		Astronomy: NewAstronomyClient(api, cfg.AstronomyAppID, cfg.AstronomySecret),
		Finnhub:   NewFinnhubClient(api, cfg.FinnhubKey),
		FRED:      NewFREDClient(api, cfg.FREDAPIKey),
		News:      NewNewsClient(api, cfg.SerpAPIKey),
		Social:    NewTwitterClient(api, cfg.TwitterBearer),
		Whop:      NewWhopClient(api, cfg.WhopAPIKey),
		DemoMode:  cfg.EnableDemo,
	}
}

// oddsSportKeys maps slate sports to The Odds API sport keys.
var oddsSportKeys = map[models.Sport]string{
	models.SportNBA:   "basketball_nba",
	models.SportNFL:   "americanfootball_nfl",
	models.SportMLB:   "baseball_mlb",
	models.SportNHL:   "icehockey_nhl",
	models.SportNCAAB: "basketball_ncaab",
}

// espnPaths maps slate sports to ESPN site API path segments.
var espnPaths = map[models.Sport]string{
	models.SportNBA:   "basketball/nba",
	models.SportNFL:   "football/nfl",
	models.SportMLB:   "baseball/mlb",
	models.SportNHL:   "hockey/nhl",
	models.SportNCAAB: "basketball/mens-college-basketball",
}
