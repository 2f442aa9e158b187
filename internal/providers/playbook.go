package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// PlaybookClient reads the Playbook aggregator: injury reports, sharp-money
// splits, and team pace/defense context.
type PlaybookClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewPlaybookClient(api *fetch.Client, apiKey string) *PlaybookClient {
	return &PlaybookClient{api: api, apiKey: apiKey, BaseURL: "https://api.playbook-api.com"}
}

func (c *PlaybookClient) Configured() bool { return c.apiKey != "" }

func (c *PlaybookClient) headers() map[string]string {
	return map[string]string{"X-API-Key": c.apiKey}
}

type playbookInjury struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Team       string `json:"team"`
	Position   string `json:"position"`
	Status     string `json:"status"`
	Detail     string `json:"detail"`
	ReportedAt string `json:"reported_at"`
}

// Injuries returns the sport's normalized injury report. Unknown status
// strings degrade to QUESTIONABLE so a new upstream label can never make a
// player invisible to the injury validator.
func (c *PlaybookClient) Injuries(ctx context.Context, sport models.Sport) ([]models.InjuryRecord, error) {
	if !c.Configured() {
		return nil, models.ProviderError(registry.ProviderPlaybook, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("PLAYBOOK_API_KEY not set"))
	}

	u := fmt.Sprintf("%s/v1/injuries?sport=%s", c.BaseURL, sport)
	var raw struct {
		Injuries []playbookInjury `json:"injuries"`
	}
	if err := c.api.GetJSON(ctx, registry.ProviderPlaybook, u, c.headers(), cache.TTLInjuries, &raw); err != nil {
		return nil, err
	}

	out := make([]models.InjuryRecord, 0, len(raw.Injuries))
	for _, inj := range raw.Injuries {
		rec := models.InjuryRecord{
			PlayerID:   inj.PlayerID,
			PlayerName: inj.PlayerName,
			Team:       inj.Team,
			Position:   inj.Position,
			Status:     injuryStatus(inj.Status),
			Detail:     inj.Detail,
		}
		if t, err := time.Parse(time.RFC3339, inj.ReportedAt); err == nil {
			rec.ReportedAt = t
		}
		out = append(out, rec)
	}
	return out, nil
}

type playbookSplit struct {
	EventID        string  `json:"event_id"`
	Market         string  `json:"market"`
	PublicBetPct   float64 `json:"public_bet_pct"`
	PublicMoneyPct float64 `json:"public_money_pct"`
	SharpSide      string  `json:"sharp_side"`
	RLM            string  `json:"rlm"`
	SteamStrength  float64 `json:"steam_strength"`
}

// Splits returns public/sharp money splits keyed by event id.
func (c *PlaybookClient) Splits(ctx context.Context, sport models.Sport) (map[string][]models.Split, error) {
	if !c.Configured() {
		return nil, models.ProviderError(registry.ProviderPlaybook, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("PLAYBOOK_API_KEY not set"))
	}

	u := fmt.Sprintf("%s/v1/splits?sport=%s", c.BaseURL, sport)
	var raw struct {
		Splits []playbookSplit `json:"splits"`
	}
	if err := c.api.GetJSON(ctx, registry.ProviderPlaybook, u, c.headers(), cache.TTLSplits, &raw); err != nil {
		return nil, err
	}

	out := make(map[string][]models.Split)
	for _, sp := range raw.Splits {
		kind, ok := splitMarketKind(sp.Market)
		if !ok {
			continue
		}
		out[sp.EventID] = append(out[sp.EventID], models.Split{
			EventID:        sp.EventID,
			MarketKind:     kind,
			PublicBetPct:   sp.PublicBetPct,
			PublicMoneyPct: sp.PublicMoneyPct,
			SharpSide:      sp.SharpSide,
			RLM:            rlmStrength(sp.RLM),
			SteamStrength:  sp.SteamStrength,
		})
	}
	return out, nil
}

type playbookTeamStats struct {
	Team        string  `json:"team"`
	Pace        float64 `json:"pace"`
	PaceRank    int     `json:"pace_rank"`
	DefRating   float64 `json:"def_rating"`
	DefRank     int     `json:"def_rank"`
	PointsPG    float64 `json:"points_pg"`
	RestDays    int     `json:"rest_days"`
	BackToBack  bool    `json:"back_to_back"`
	TravelMiles float64 `json:"travel_miles"`
}

// TeamStats returns pace and defensive context keyed by team name.
func (c *PlaybookClient) TeamStats(ctx context.Context, sport models.Sport) (map[string]models.TeamStats, error) {
	if !c.Configured() {
		return nil, models.ProviderError(registry.ProviderPlaybook, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("PLAYBOOK_API_KEY not set"))
	}

	u := fmt.Sprintf("%s/v1/teamstats?sport=%s", c.BaseURL, sport)
	var raw struct {
		Teams []playbookTeamStats `json:"teams"`
	}
	if err := c.api.GetJSON(ctx, registry.ProviderPlaybook, u, c.headers(), cache.TTLTeamStats, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]models.TeamStats, len(raw.Teams))
	for _, t := range raw.Teams {
		out[t.Team] = models.TeamStats{
			Team:        t.Team,
			Pace:        t.Pace,
			PaceRank:    t.PaceRank,
			DefRating:   t.DefRating,
			DefRank:     t.DefRank,
			PointsPG:    t.PointsPG,
			RestDays:    t.RestDays,
			BackToBack:  t.BackToBack,
			TravelMiles: t.TravelMiles,
		}
	}
	return out, nil
}

func injuryStatus(s string) models.InjuryStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUT":
		return models.InjuryOut
	case "SUSPENDED":
		return models.InjurySuspended
	case "DOUBTFUL":
		return models.InjuryDoubtful
	case "QUESTIONABLE", "GTD", "DAY-TO-DAY", "DAY_TO_DAY":
		return models.InjuryQuestionable
	case "PROBABLE":
		return models.InjuryProbable
	case "HEALTHY", "ACTIVE", "AVAILABLE":
		return models.InjuryHealthy
	default:
		return models.InjuryQuestionable
	}
}

func splitMarketKind(s string) (models.MarketKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spread", "spreads":
		return models.MarketSpread, true
	case "moneyline", "h2h", "ml":
		return models.MarketMoneyline, true
	case "total", "totals", "ou":
		return models.MarketTotal, true
	}
	return "", false
}

func rlmStrength(s string) models.RLMStrength {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STRONG":
		return models.RLMStrong
	case "WEAK":
		return models.RLMWeak
	default:
		return models.RLMNone
	}
}
