package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// FinnhubClient reads equity-market mood: SPY daily change as the market
// proxy, VIX when the plan allows it.
type FinnhubClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewFinnhubClient(api *fetch.Client, apiKey string) *FinnhubClient {
	return &FinnhubClient{api: api, apiKey: apiKey, BaseURL: "https://finnhub.io"}
}

func (c *FinnhubClient) Configured() bool { return c.apiKey != "" }

type finnhubQuote struct {
	Current   float64 `json:"c"`
	Change    float64 `json:"d"`
	ChangePct float64 `json:"dp"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	PrevClose float64 `json:"pc"`
	Timestamp int64   `json:"t"`
}

// Sentiment builds the market-mood snapshot. A VIX fetch failure degrades to
// a zero VIX instead of failing the snapshot; SPY is the load-bearing read.
func (c *FinnhubClient) Sentiment(ctx context.Context) (models.MarketSentiment, error) {
	if !c.Configured() {
		return models.MarketSentiment{}, models.ProviderError(registry.ProviderFinnhub, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("FINNHUB_KEY not set"))
	}

	spy, err := c.quote(ctx, "SPY")
	if err != nil {
		return models.MarketSentiment{}, err
	}

	ms := models.MarketSentiment{SPXChangePct: spy.ChangePct}
	if vix, err := c.quote(ctx, "^VIX"); err == nil {
		ms.VIX = vix.Current
	}

	switch {
	case spy.ChangePct >= 0.75:
		ms.Sentiment = "RISK_ON"
	case spy.ChangePct <= -0.75:
		ms.Sentiment = "RISK_OFF"
	default:
		ms.Sentiment = "NEUTRAL"
	}
	return ms, nil
}

func (c *FinnhubClient) quote(ctx context.Context, symbol string) (finnhubQuote, error) {
	u := fmt.Sprintf("%s/api/v1/quote?symbol=%s&token=%s",
		c.BaseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	var q finnhubQuote
	if err := c.api.GetJSON(ctx, registry.ProviderFinnhub, u, nil, cache.TTLSentiment, &q); err != nil {
		return finnhubQuote{}, err
	}
	return q, nil
}
