package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// FREDClient reads slow-moving macro series from the St. Louis Fed.
type FREDClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewFREDClient(api *fetch.Client, apiKey string) *FREDClient {
	return &FREDClient{api: api, apiKey: apiKey, BaseURL: "https://api.stlouisfed.org"}
}

func (c *FREDClient) Configured() bool { return c.apiKey != "" }

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Indicators returns the macro snapshot: CPI year-over-year and the
// unemployment rate. Both series are fetched latest-first with one
// observation each.
func (c *FREDClient) Indicators(ctx context.Context) (models.EconIndicators, error) {
	if !c.Configured() {
		return models.EconIndicators{}, models.ProviderError(registry.ProviderFRED, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("FRED_API_KEY not set"))
	}

	// units=pc1 asks FRED for percent change from a year ago.
	cpi, cpiDate, err := c.latest(ctx, "CPIAUCSL", "pc1")
	if err != nil {
		return models.EconIndicators{}, err
	}
	unemp, unempDate, err := c.latest(ctx, "UNRATE", "")
	if err != nil {
		return models.EconIndicators{}, err
	}

	ind := models.EconIndicators{CPIYoY: cpi, Unemployment: unemp}
	ind.UpdatedAt = laterDate(cpiDate, unempDate)
	return ind, nil
}

func (c *FREDClient) latest(ctx context.Context, series, units string) (float64, time.Time, error) {
	q := url.Values{}
	q.Set("series_id", series)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", "1")
	if units != "" {
		q.Set("units", units)
	}
	u := fmt.Sprintf("%s/fred/series/observations?%s", c.BaseURL, q.Encode())

	var raw fredObservations
	if err := c.api.GetJSON(ctx, registry.ProviderFRED, u, nil, cache.TTLEcon, &raw); err != nil {
		return 0, time.Time{}, err
	}
	if len(raw.Observations) == 0 {
		return 0, time.Time{}, models.ProviderError(registry.ProviderFRED, models.ErrCodeNoDataAvailable,
			fmt.Errorf("series %s returned no observations", series))
	}

	obs := raw.Observations[0]
	// FRED uses "." for missing values.
	value, err := strconv.ParseFloat(obs.Value, 64)
	if err != nil {
		return 0, time.Time{}, models.ProviderError(registry.ProviderFRED, models.ErrCodeNoDataAvailable,
			fmt.Errorf("series %s latest value %q unusable", series, obs.Value))
	}
	date, _ := time.Parse("2006-01-02", obs.Date)
	return value, date, nil
}

func laterDate(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
