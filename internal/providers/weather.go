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

// WeatherClient reads WeatherAPI.com forecasts for outdoor venues. Indoor
// sports never reach this client; the pipeline records NOT_RELEVANT for them
// instead of calling out.
type WeatherClient struct {
	api     *fetch.Client
	apiKey  string
	BaseURL string
}

func NewWeatherClient(api *fetch.Client, apiKey string) *WeatherClient {
	return &WeatherClient{api: api, apiKey: apiKey, BaseURL: "https://api.weatherapi.com"}
}

func (c *WeatherClient) Configured() bool { return c.apiKey != "" }

// RelevantFor reports whether weather applies to the sport at all.
func (c *WeatherClient) RelevantFor(sport models.Sport) bool { return !sport.Indoor() }

type weatherResponse struct {
	Current struct {
		TempF      float64 `json:"temp_f"`
		WindMPH    float64 `json:"wind_mph"`
		PressureMB float64 `json:"pressure_mb"`
		Condition  struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Day struct {
				DailyChanceOfRain float64 `json:"daily_chance_of_rain"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Forecast fetches the venue-city forecast for an outdoor game.
func (c *WeatherClient) Forecast(ctx context.Context, sport models.Sport, city string) (models.WeatherReport, error) {
	if !c.RelevantFor(sport) {
		return models.WeatherReport{Relevant: false}, nil
	}
	if !c.Configured() {
		return models.WeatherReport{}, models.ProviderError(registry.ProviderWeather, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("WEATHER_API_KEY not set"))
	}
	if city == "" {
		return models.WeatherReport{}, models.ProviderError(registry.ProviderWeather, models.ErrCodeNoDataAvailable,
			fmt.Errorf("no venue city for forecast"))
	}

	u := fmt.Sprintf("%s/v1/forecast.json?key=%s&q=%s&days=1&aqi=no&alerts=no",
		c.BaseURL, url.QueryEscape(c.apiKey), url.QueryEscape(city))

	var raw weatherResponse
	if err := c.api.GetJSON(ctx, registry.ProviderWeather, u, nil, cache.TTLWeather, &raw); err != nil {
		return models.WeatherReport{}, err
	}

	report := models.WeatherReport{
		Relevant:   true,
		TempF:      raw.Current.TempF,
		WindMPH:    raw.Current.WindMPH,
		PressureMB: raw.Current.PressureMB,
		Summary:    raw.Current.Condition.Text,
	}
	if len(raw.Forecast.ForecastDay) > 0 {
		report.PrecipPct = raw.Forecast.ForecastDay[0].Day.DailyChanceOfRain
	}
	return report, nil
}
