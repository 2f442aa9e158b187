package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// NewsClient searches Google News through SerpAPI for expert-consensus
// chatter about a matchup.
type NewsClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewNewsClient(api *fetch.Client, apiKey string) *NewsClient {
	return &NewsClient{api: api, apiKey: apiKey, BaseURL: "https://serpapi.com"}
}

func (c *NewsClient) Configured() bool { return c.apiKey != "" }

type serpNewsResponse struct {
	NewsResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"news_results"`
}

// Consensus searches recent news for the matchup and counts which side the
// headlines favor. Confidence is the winning share of side-mentioning
// articles; an event nobody writes about scores zero on both axes.
func (c *NewsClient) Consensus(ctx context.Context, ev models.Event) (models.NewsSentiment, error) {
	if !c.Configured() {
		return models.NewsSentiment{}, models.ProviderError(registry.ProviderSerpAPI, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("SERPAPI_KEY not set"))
	}

	query := fmt.Sprintf("%s vs %s prediction pick", ev.AwayTeam, ev.HomeTeam)
	u := fmt.Sprintf("%s/search.json?engine=google_news&q=%s&api_key=%s",
		c.BaseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var raw serpNewsResponse
	if err := c.api.GetJSON(ctx, registry.ProviderSerpAPI, u, nil, cache.TTLNews, &raw); err != nil {
		return models.NewsSentiment{}, err
	}

	sentiment := models.NewsSentiment{EventID: ev.EventID, Articles: len(raw.NewsResults)}
	homeHits, awayHits := 0, 0
	for _, article := range raw.NewsResults {
		text := strings.ToLower(article.Title + " " + article.Snippet)
		if mentionsTeam(text, ev.HomeTeam) {
			homeHits++
		}
		if mentionsTeam(text, ev.AwayTeam) {
			awayHits++
		}
	}

	sided := homeHits + awayHits
	if sided == 0 {
		return sentiment, nil
	}
	if homeHits >= awayHits {
		sentiment.ConsensusSide = ev.HomeTeam
		sentiment.Confidence = float64(homeHits) / float64(sided)
	} else {
		sentiment.ConsensusSide = ev.AwayTeam
		sentiment.Confidence = float64(awayHits) / float64(sided)
	}
	return sentiment, nil
}

// mentionsTeam checks for the team's final word (the nickname) so that
// "Boston Celtics" matches articles saying just "Celtics".
func mentionsTeam(text, team string) bool {
	team = strings.ToLower(strings.TrimSpace(team))
	if team == "" {
		return false
	}
	if strings.Contains(text, team) {
		return true
	}
	parts := strings.Fields(team)
	if len(parts) == 0 {
		return false
	}
	return strings.Contains(text, parts[len(parts)-1])
}
