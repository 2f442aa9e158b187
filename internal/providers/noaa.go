package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// SpaceWeatherClient reads the keyless NOAA SWPC feed for the planetary
// Kp index.
type SpaceWeatherClient struct {
	api     *fetch.Client
	BaseURL string
}

func NewSpaceWeatherClient(api *fetch.Client, baseURL string) *SpaceWeatherClient {
	if baseURL == "" {
		baseURL = "https://services.swpc.noaa.gov"
	}
	return &SpaceWeatherClient{api: api, BaseURL: baseURL}
}

type kpReading struct {
	TimeTag     string  `json:"time_tag"`
	KpIndex     float64 `json:"kp_index"`
	EstimatedKp float64 `json:"estimated_kp"`
	Kp          string  `json:"kp"`
}

// KpIndex returns the latest planetary Kp reading with its activity label.
func (c *SpaceWeatherClient) KpIndex(ctx context.Context) (models.SpaceWeather, error) {
	u := fmt.Sprintf("%s/json/planetary_k_index_1m.json", c.BaseURL)

	var readings []kpReading
	if err := c.api.GetJSON(ctx, registry.ProviderNOAA, u, nil, cache.TTLKpIndex, &readings); err != nil {
		return models.SpaceWeather{}, err
	}
	if len(readings) == 0 {
		return models.SpaceWeather{}, models.ProviderError(registry.ProviderNOAA, models.ErrCodeNoDataAvailable,
			fmt.Errorf("empty kp feed"))
	}

	last := readings[len(readings)-1]
	kp := last.KpIndex
	if kp == 0 && last.EstimatedKp > 0 {
		kp = last.EstimatedKp
	}
	if kp == 0 && last.Kp != "" {
		if parsed, err := strconv.ParseFloat(last.Kp, 64); err == nil {
			kp = parsed
		}
	}

	sw := models.SpaceWeather{KpIndex: kp, KpLabel: KpLabel(kp)}
	if t, err := time.Parse("2006-01-02T15:04:05", last.TimeTag); err == nil {
		sw.ObservedAt = t.UTC()
	} else if t, err := time.Parse(time.RFC3339, last.TimeTag); err == nil {
		sw.ObservedAt = t.UTC()
	}
	return sw, nil
}

// KpLabel classifies a Kp value on the NOAA activity scale.
func KpLabel(kp float64) string {
	switch {
	case kp < 3:
		return "QUIET"
	case kp < 4:
		return "UNSETTLED"
	case kp < 5:
		return "ACTIVE"
	default:
		return "STORM"
	}
}
