package esoteric

import (
	"fmt"
	"math"
	"strings"

	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// voidMoon reads the void-of-course flag. A void moon argues against new
// action, so it contributes negatively when set.
func (e *Engine) voidMoon(data *models.SlateData) models.SignalResult {
	if data.Moon == nil {
		return noData(models.SourceExternal, "no moon data")
	}
	if data.Moon.VoidOfCourse {
		return external(data, registry.ProviderAstronomy, 0.25, -0.10, true, "moon void of course")
	}
	return external(data, registry.ProviderAstronomy, 0.7, 0.05, false,
		fmt.Sprintf("moon %s, %.0f%% illuminated", data.Moon.Phase, data.Moon.Illumination*100))
}

// noosphere reads collective attention from social volume and velocity.
func (e *Engine) noosphere(data *models.SlateData, c models.Candidate) models.SignalResult {
	pulse, ok := data.Social[c.EventID]
	if !ok {
		return noData(models.SourceExternal, "no social pulse")
	}
	value := clamp01(0.5 + (pulse.PositiveRatio-0.5)*0.6 + (pulse.Velocity-1.0)*0.1)
	triggered := pulse.Volume >= 1000 && pulse.Velocity >= 1.5
	contribution := (value - 0.5) * 0.3
	return external(data, registry.ProviderTwitter, value, contribution, triggered,
		fmt.Sprintf("volume %d, velocity %.1fx, positive %.0f%%", pulse.Volume, pulse.Velocity, pulse.PositiveRatio*100))
}

// kpValue maps the geomagnetic label into signal space: quiet fields favor
// form holding, storms favor chaos.
func kpValue(label string) float64 {
	switch label {
	case "QUIET":
		return 0.8
	case "UNSETTLED":
		return 0.6
	case "ACTIVE":
		return 0.45
	case "STORM":
		return 0.3
	}
	return 0.5
}

func (e *Engine) kpIndex(data *models.SlateData) models.SignalResult {
	if data.Space == nil {
		return noData(models.SourceExternal, "no space weather")
	}
	value := kpValue(data.Space.KpLabel)
	return external(data, registry.ProviderNOAA, value, (value-0.5)*0.5, data.Space.KpLabel == "STORM",
		fmt.Sprintf("Kp %.2f (%s)", data.Space.KpIndex, data.Space.KpLabel))
}

// schumann reads the resonance deviation from the 7.83Hz baseline. The feed
// rarely carries it, so the baseline fallback is the common path.
func (e *Engine) schumann(data *models.SlateData) models.SignalResult {
	if data.Space == nil || data.Space.SchumannHz <= 0 {
		return models.SignalResult{
			Value:            0.6,
			Status:           models.StatusFallback,
			SourceType:       models.SourceInternal,
			RawInputsSummary: "baseline 7.83Hz assumed",
			Contribution:     0.02,
		}
	}
	deviation := math.Abs(data.Space.SchumannHz-7.83) / 7.83
	value := clamp01(1.0 - deviation*4)
	return external(data, registry.ProviderNOAA, value, (value-0.5)*0.3, deviation >= 0.15,
		fmt.Sprintf("resonance %.2fHz", data.Space.SchumannHz))
}

// atmospheric reads barometric pressure at outdoor venues.
func (e *Engine) atmospheric(data *models.SlateData, c models.Candidate) models.SignalResult {
	report, ok := data.Weather[c.EventID]
	if c.Sport.Indoor() || (ok && !report.Relevant) {
		return notRelevant("indoor venue")
	}
	if !ok {
		return noData(models.SourceExternal, "no forecast")
	}
	var value float64
	switch {
	case report.PressureMB >= 1020:
		value = 0.7
	case report.PressureMB < 1000:
		value = 0.35
	default:
		value = 0.55
	}
	return external(data, registry.ProviderWeather, value, (value-0.5)*0.3, report.PressureMB < 1000,
		fmt.Sprintf("pressure %.0fmb", report.PressureMB))
}

// planetaryHour reads the ruling planet of the slate's prime hour.
func (e *Engine) planetaryHour(data *models.SlateData) models.SignalResult {
	if data.Moon == nil || data.Moon.PlanetaryHour == "" {
		return noData(models.SourceExternal, "no planetary hour")
	}
	var value float64
	switch data.Moon.PlanetaryHour {
	case "Jupiter", "Venus", "Sun":
		value = 0.75
	case "Saturn", "Mars":
		value = 0.35
	default:
		value = 0.55
	}
	return external(data, registry.ProviderAstronomy, value, (value-0.5)*0.3, value >= 0.75,
		"hour of "+data.Moon.PlanetaryHour)
}

// dailyEdge reads the macro mood: equity tape plus the slow indicators.
func (e *Engine) dailyEdge(data *models.SlateData) models.SignalResult {
	if data.Market == nil {
		return noData(models.SourceExternal, "no market sentiment")
	}
	var value float64
	switch data.Market.Sentiment {
	case "RISK_ON":
		value = 0.7
	case "RISK_OFF":
		value = 0.4
	default:
		value = 0.55
	}
	summary := fmt.Sprintf("SPX %+.2f%%, %s", data.Market.SPXChangePct, data.Market.Sentiment)
	if data.Econ != nil {
		if data.Econ.CPIYoY > 0 && data.Econ.CPIYoY < 4.0 {
			value += 0.05
		}
		summary += fmt.Sprintf(", CPI %.1f%%", data.Econ.CPIYoY)
	}
	value = clamp01(value)
	return external(data, registry.ProviderFinnhub, value, (value-0.5)*0.3, data.Market.Sentiment == "RISK_ON", summary)
}

// weather reads wind and precipitation against the pick side at outdoor
// venues. Wind is an under's friend.
func (e *Engine) weather(data *models.SlateData, c models.Candidate) models.SignalResult {
	report, ok := data.Weather[c.EventID]
	if c.Sport.Indoor() || (ok && !report.Relevant) {
		return notRelevant("indoor venue")
	}
	if !ok {
		return noData(models.SourceExternal, "no forecast")
	}
	rough := report.WindMPH >= 15 || report.PrecipPct >= 60
	value := 0.55
	if rough {
		value = 0.35
		if c.MarketKind == models.MarketTotal && c.OverUnder == models.Under {
			value = 0.75
		}
	}
	return external(data, registry.ProviderWeather, value, (value-0.5)*0.4, rough,
		fmt.Sprintf("%.0fmph wind, %.0f%% precip, %s", report.WindMPH, report.PrecipPct, report.Summary))
}

// referee reads the crew's whistle lean against totals. Officials come from
// the game summary feed; tendencies from the referee book.
func (e *Engine) referee(data *models.SlateData, c models.Candidate) models.SignalResult {
	venue, ok := data.Venues[c.EventID]
	if !ok || len(venue.Officials) == 0 {
		return noData(models.SourceExternal, "no officials assigned")
	}
	lean := e.book.CrewLean(venue.Officials)
	value := clamp01(0.5 + lean)

	var contribution float64
	if c.MarketKind == models.MarketTotal {
		contribution = lean
		if c.OverUnder == models.Under {
			contribution = -lean
		}
	}
	return external(data, registry.ProviderESPN, value, contribution, math.Abs(lean) >= 0.1,
		fmt.Sprintf("crew %s, lean %+.2f", strings.Join(venue.Officials, ", "), lean))
}
