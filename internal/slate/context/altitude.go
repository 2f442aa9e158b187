// Package context holds the venue and situational tables: altitude, travel
// fatigue, and referee tendencies. Everything here is a pure function over
// static tables, with the referee book as the one slowly-updating exception.
package context

import (
	"strings"

	"github.com/slatepick/slatepick/internal/models"
)

// AltitudeCap bounds the total altitude adjustment either way.
const AltitudeCap = 0.5

// AltitudeRule boosts picks involving one high-altitude home venue.
// HomeBoost applies to home-side picks; OverBoost/UnderAdj apply to totals.
type AltitudeRule struct {
	Team      string       `yaml:"team"`
	Sport     models.Sport `yaml:"sport"`
	Venue     string       `yaml:"venue"`
	HomeBoost float64      `yaml:"home_boost"`
	OverBoost float64      `yaml:"over_boost"`
	UnderAdj  float64      `yaml:"under_adj"`
}

// defaultAltitudeRules is the factory table.
func defaultAltitudeRules() []AltitudeRule {
	return []AltitudeRule{
		{Team: "Denver Nuggets", Sport: models.SportNBA, Venue: "Ball Arena", HomeBoost: 0.15},
		{Team: "Denver Broncos", Sport: models.SportNFL, Venue: "Empower Field", HomeBoost: 0.25},
		{Team: "Colorado Rockies", Sport: models.SportMLB, Venue: "Coors Field", OverBoost: 0.50, UnderAdj: -0.30},
		{Team: "Utah Jazz", Sport: models.SportNBA, Venue: "Delta Center", HomeBoost: 0.15},
	}
}

// AltitudeAdjust returns the altitude lean for one candidate pick at the
// event. Zero when the home venue carries no rule. The result is capped at
// ±AltitudeCap.
func AltitudeAdjust(rules []AltitudeRule, sport models.Sport, homeTeam string, kind models.MarketKind, pickSide string, ou models.OverUnder) float64 {
	var adj float64
	for _, rule := range rules {
		if rule.Sport != sport || !strings.EqualFold(rule.Team, homeTeam) {
			continue
		}
		switch kind {
		case models.MarketTotal:
			if ou == models.Over {
				adj += rule.OverBoost
			} else if ou == models.Under {
				adj += rule.UnderAdj
			}
		default:
			if strings.EqualFold(pickSide, homeTeam) {
				adj += rule.HomeBoost
			}
		}
	}
	return clampAltitude(adj)
}

func clampAltitude(v float64) float64 {
	if v > AltitudeCap {
		return AltitudeCap
	}
	if v < -AltitudeCap {
		return -AltitudeCap
	}
	return v
}
