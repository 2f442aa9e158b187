package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// BallDontLieClient resolves NBA player identity and season volume. Other
// sports return empty results without touching the API.
type BallDontLieClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewBallDontLieClient(api *fetch.Client, apiKey string) *BallDontLieClient {
	return &BallDontLieClient{api: api, apiKey: apiKey, BaseURL: "https://api.balldontlie.io"}
}

func (c *BallDontLieClient) Configured() bool { return c.apiKey != "" }

func (c *BallDontLieClient) headers() map[string]string {
	return map[string]string{"Authorization": c.apiKey}
}

type bdlPlayer struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      struct {
		ID       int    `json:"id"`
		FullName string `json:"full_name"`
	} `json:"team"`
}

// FindPlayer searches one player by name. Returns (nil, nil) when the search
// comes back empty; NOT_FOUND is reserved for transport-level 404s.
func (c *BallDontLieClient) FindPlayer(ctx context.Context, sport models.Sport, name string) (*models.Player, error) {
	if sport != models.SportNBA {
		return nil, nil
	}
	if !c.Configured() {
		return nil, models.ProviderError(registry.ProviderBallDontLie, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("BALLDONTLIE_API_KEY not set"))
	}

	u := fmt.Sprintf("%s/v1/players?search=%s&per_page=5", c.BaseURL, url.QueryEscape(name))
	var raw struct {
		Data []bdlPlayer `json:"data"`
	}
	if err := c.api.GetJSON(ctx, registry.ProviderBallDontLie, u, c.headers(), cache.TTLTeamStats, &raw); err != nil {
		return nil, err
	}
	if len(raw.Data) == 0 {
		return nil, nil
	}

	p := raw.Data[0]
	return &models.Player{
		PlayerID:     strconv.Itoa(p.ID),
		PlayerName:   p.FirstName + " " + p.LastName,
		Team:         p.Team.FullName,
		TeamID:       strconv.Itoa(p.Team.ID),
		Position:     p.Position,
		ActiveStatus: "ACTIVE",
	}, nil
}

type bdlSeasonAverage struct {
	PlayerID    int     `json:"player_id"`
	GamesPlayed int     `json:"games_played"`
	Pts         float64 `json:"pts"`
	Reb         float64 `json:"reb"`
	Ast         float64 `json:"ast"`
	Min         string  `json:"min"`
}

// SeasonVolume fills games-played for known player ids. The result keys by
// player id; players without a season row are simply absent.
func (c *BallDontLieClient) SeasonVolume(ctx context.Context, sport models.Sport, season int, playerIDs []string) (map[string]int, error) {
	if sport != models.SportNBA || len(playerIDs) == 0 {
		return nil, nil
	}
	if !c.Configured() {
		return nil, models.ProviderError(registry.ProviderBallDontLie, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("BALLDONTLIE_API_KEY not set"))
	}

	q := url.Values{}
	q.Set("season", strconv.Itoa(season))
	for _, id := range playerIDs {
		q.Add("player_ids[]", id)
	}
	u := fmt.Sprintf("%s/v1/season_averages?%s", c.BaseURL, q.Encode())

	var raw struct {
		Data []bdlSeasonAverage `json:"data"`
	}
	if err := c.api.GetJSON(ctx, registry.ProviderBallDontLie, u, c.headers(), cache.TTLTeamStats, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]int, len(raw.Data))
	for _, row := range raw.Data {
		out[strconv.Itoa(row.PlayerID)] = row.GamesPlayed
	}
	return out, nil
}
