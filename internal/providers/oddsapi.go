package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// OddsClient pulls game odds and player props from The Odds API v4.
type OddsClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

// NewOddsClient builds the odds client. An empty key leaves the integration
// unconfigured; callers check Configured before fetching.
func NewOddsClient(api *fetch.Client, apiKey string) *OddsClient {
	return &OddsClient{api: api, apiKey: apiKey, BaseURL: "https://api.the-odds-api.com"}
}

// Configured reports whether a key is present.
func (c *OddsClient) Configured() bool { return c.apiKey != "" }

type oddsEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	SportTitle   string          `json:"sport_title"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []oddsBookmaker `json:"bookmakers"`
}

type oddsBookmaker struct {
	Key     string       `json:"key"`
	Title   string       `json:"title"`
	Markets []oddsMarket `json:"markets"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

// FetchOdds returns the sport's events plus every priced h2h/spread/total
// outcome across the allowed books. Books outside the allowed set are
// dropped at parse time.
func (c *OddsClient) FetchOdds(ctx context.Context, sport models.Sport) ([]models.Event, map[string][]models.MarketLine, error) {
	key, ok := oddsSportKeys[sport]
	if !ok {
		return nil, nil, models.NewCodedError(models.ErrCodeInvalidSport, "no odds feed for sport %q", sport)
	}
	if !c.Configured() {
		return nil, nil, models.ProviderError(registry.ProviderOddsAPI, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("ODDS_API_KEY not set"))
	}

	u := fmt.Sprintf("%s/v4/sports/%s/odds?regions=us&markets=h2h,spreads,totals&oddsFormat=american&apiKey=%s",
		c.BaseURL, key, url.QueryEscape(c.apiKey))

	var raw []oddsEvent
	if err := c.api.GetJSON(ctx, registry.ProviderOddsAPI, u, nil, cache.TTLOdds, &raw); err != nil {
		return nil, nil, err
	}

	fetchedAt := time.Now().UTC()
	events := make([]models.Event, 0, len(raw))
	lines := make(map[string][]models.MarketLine, len(raw))
	for _, ev := range raw {
		events = append(events, models.Event{
			EventID:      ev.ID,
			Sport:        sport,
			League:       ev.SportTitle,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			StartTimeUTC: ev.CommenceTime,
		})
		for _, bk := range ev.Bookmakers {
			book := models.BookKey(bk.Key)
			if !book.Valid() {
				continue
			}
			for _, mkt := range bk.Markets {
				kind, ok := marketKindFor(mkt.Key)
				if !ok {
					continue
				}
				for _, out := range mkt.Outcomes {
					lines[ev.ID] = append(lines[ev.ID], models.MarketLine{
						EventID:      ev.ID,
						MarketKind:   kind,
						SelectionKey: out.Name,
						Line:         out.Point,
						OverUnder:    totalSide(kind, out.Name),
						OddsAmerican: americanPrice(out.Price),
						BookKey:      book,
						FetchedAt:    fetchedAt,
					})
				}
			}
		}
	}

	log.Debug().Str("sport", string(sport)).Int("events", len(events)).Msg("odds fetched")
	return events, lines, nil
}

// propMarketsBySport lists the player-prop market keys requested per sport.
var propMarketsBySport = map[models.Sport][]string{
	models.SportNBA:   {"player_points", "player_rebounds", "player_assists", "player_threes"},
	models.SportNFL:   {"player_pass_yds", "player_rush_yds", "player_reception_yds", "player_anytime_td"},
	models.SportMLB:   {"batter_hits", "batter_home_runs", "pitcher_strikeouts"},
	models.SportNHL:   {"player_shots_on_goal", "player_goals", "player_points"},
	models.SportNCAAB: {"player_points"},
}

// FetchProps returns every listed player-prop outcome for one event. The
// result doubles as the market-availability index: a prop absent here is not
// on any allowed book's board.
func (c *OddsClient) FetchProps(ctx context.Context, sport models.Sport, eventID string) ([]models.PropOffer, error) {
	key, ok := oddsSportKeys[sport]
	if !ok {
		return nil, models.NewCodedError(models.ErrCodeInvalidSport, "no odds feed for sport %q", sport)
	}
	if !c.Configured() {
		return nil, models.ProviderError(registry.ProviderOddsAPI, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("ODDS_API_KEY not set"))
	}
	markets, ok := propMarketsBySport[sport]
	if !ok || len(markets) == 0 {
		return nil, nil
	}

	u := fmt.Sprintf("%s/v4/sports/%s/events/%s/odds?regions=us&markets=%s&oddsFormat=american&apiKey=%s",
		c.BaseURL, key, url.PathEscape(eventID), strings.Join(markets, ","), url.QueryEscape(c.apiKey))

	var raw oddsEvent
	if err := c.api.GetJSON(ctx, registry.ProviderOddsAPI, u, nil, cache.TTLProps, &raw); err != nil {
		return nil, err
	}

	var offers []models.PropOffer
	for _, bk := range raw.Bookmakers {
		book := models.BookKey(bk.Key)
		if !book.Valid() {
			continue
		}
		for _, mkt := range bk.Markets {
			for _, out := range mkt.Outcomes {
				if out.Description == "" || out.Point == nil {
					continue
				}
				offers = append(offers, models.PropOffer{
					Sport:        sport,
					GameID:       raw.ID,
					PlayerName:   out.Description,
					Market:       mkt.Key,
					Line:         *out.Point,
					Side:         totalSide(models.MarketTotal, out.Name),
					OddsAmerican: americanPrice(out.Price),
					BookKey:      book,
				})
			}
		}
	}
	return offers, nil
}

func marketKindFor(apiKey string) (models.MarketKind, bool) {
	switch apiKey {
	case "h2h":
		return models.MarketMoneyline, true
	case "spreads":
		return models.MarketSpread, true
	case "totals":
		return models.MarketTotal, true
	}
	return "", false
}

// totalSide maps an outcome name to OVER/UNDER for totals and props. Team
// outcomes return the empty side.
func totalSide(kind models.MarketKind, name string) models.OverUnder {
	if kind != models.MarketTotal && kind != models.MarketPlayerProp {
		return ""
	}
	switch strings.ToUpper(name) {
	case "OVER":
		return models.Over
	case "UNDER":
		return models.Under
	}
	return ""
}

// americanPrice converts the JSON price to an American odds pointer. The
// Odds API sends American prices as whole numbers; anything non-integral is
// a decimal-format response and is rejected rather than mis-read.
func americanPrice(price float64) *int {
	if price == 0 {
		return nil
	}
	if math.Abs(price-math.Trunc(price)) > 1e-9 {
		return nil
	}
	v := int(price)
	return &v
}
