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

// ESPNClient reads the keyless ESPN site API for scoreboards and game
// summaries. It is the status-of-record source; odds events are matched to
// scoreboard entries by team name.
type ESPNClient struct {
	api     *fetch.Client
	BaseURL string
}

func NewESPNClient(api *fetch.Client) *ESPNClient {
	return &ESPNClient{api: api, BaseURL: "https://site.api.espn.com"}
}

// ScoreboardGame is one normalized scoreboard row.
type ScoreboardGame struct {
	ESPNID    string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Status    models.EventStatus
	HomeScore int
	AwayScore int
}

type espnScoreboard struct {
	Events []struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Type struct {
				Name      string `json:"name"`
				Completed bool   `json:"completed"`
			} `json:"type"`
		} `json:"status"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					DisplayName string `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

// Scoreboard fetches the day's games. date is the ET day in YYYYMMDD form;
// ESPN interprets the dates parameter in ET, which matches the slate gate.
func (c *ESPNClient) Scoreboard(ctx context.Context, sport models.Sport, date string) ([]ScoreboardGame, error) {
	path, ok := espnPaths[sport]
	if !ok {
		return nil, models.NewCodedError(models.ErrCodeInvalidSport, "no scoreboard path for sport %q", sport)
	}

	u := fmt.Sprintf("%s/apis/site/v2/sports/%s/scoreboard?dates=%s", c.BaseURL, path, date)
	var raw espnScoreboard
	if err := c.api.GetJSON(ctx, registry.ProviderESPN, u, nil, cache.TTLScoreboard, &raw); err != nil {
		return nil, err
	}

	games := make([]ScoreboardGame, 0, len(raw.Events))
	for _, ev := range raw.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		g := ScoreboardGame{ESPNID: ev.ID, Status: espnStatus(ev.Status.Type.Name)}
		if t, err := time.Parse(time.RFC3339, ev.Date); err == nil {
			g.StartTime = t
		} else if t, err := time.Parse("2006-01-02T15:04Z", ev.Date); err == nil {
			// ESPN omits seconds on some scoreboards.
			g.StartTime = t
		}
		for _, comp := range ev.Competitions[0].Competitors {
			score := parseScore(comp.Score)
			if comp.HomeAway == "home" {
				g.HomeTeam = comp.Team.DisplayName
				g.HomeScore = score
			} else {
				g.AwayTeam = comp.Team.DisplayName
				g.AwayScore = score
			}
		}
		games = append(games, g)
	}
	return games, nil
}

type espnSummary struct {
	GameInfo struct {
		Venue struct {
			FullName string `json:"fullName"`
			Indoor   bool   `json:"indoor"`
			Address  struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"address"`
		} `json:"venue"`
		Officials []struct {
			FullName string `json:"fullName"`
		} `json:"officials"`
	} `json:"gameInfo"`
}

// GameVenue is the summary slice the context layer needs: where the game is
// played and who officiates it.
type GameVenue struct {
	Venue     string
	City      string
	State     string
	Indoor    bool
	Officials []string
}

// Summary fetches venue and officials for one scoreboard game.
func (c *ESPNClient) Summary(ctx context.Context, sport models.Sport, espnID string) (GameVenue, error) {
	path, ok := espnPaths[sport]
	if !ok {
		return GameVenue{}, models.NewCodedError(models.ErrCodeInvalidSport, "no summary path for sport %q", sport)
	}

	u := fmt.Sprintf("%s/apis/site/v2/sports/%s/summary?event=%s", c.BaseURL, path, espnID)
	var raw espnSummary
	if err := c.api.GetJSON(ctx, registry.ProviderESPN, u, nil, cache.TTLSummary, &raw); err != nil {
		return GameVenue{}, err
	}

	venue := GameVenue{
		Venue:  raw.GameInfo.Venue.FullName,
		City:   raw.GameInfo.Venue.Address.City,
		State:  raw.GameInfo.Venue.Address.State,
		Indoor: raw.GameInfo.Venue.Indoor,
	}
	for _, off := range raw.GameInfo.Officials {
		venue.Officials = append(venue.Officials, off.FullName)
	}
	return venue, nil
}

// MatchScoreboard finds the scoreboard row for an odds event by team names.
// Matching is case-insensitive: exact, containment either way, or same final
// word, so "LA Lakers" lines up with "Los Angeles Lakers". Both sides of the
// matchup must agree, which keeps shared nicknames from cross-matching.
func MatchScoreboard(games []ScoreboardGame, ev models.Event) (ScoreboardGame, bool) {
	for _, g := range games {
		if teamsMatch(g.HomeTeam, ev.HomeTeam) && teamsMatch(g.AwayTeam, ev.AwayTeam) {
			return g, true
		}
	}
	return ScoreboardGame{}, false
}

func teamsMatch(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	if la == lb || strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}
	return lastWord(la) == lastWord(lb)
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func espnStatus(name string) models.EventStatus {
	switch name {
	case "STATUS_IN_PROGRESS", "STATUS_HALFTIME", "STATUS_END_PERIOD":
		return models.EventInProgress
	case "STATUS_FINAL":
		return models.EventFinal
	default:
		return models.EventPreGame
	}
}

func parseScore(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
