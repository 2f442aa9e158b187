// Package tier is the single source of truth mapping final score and the
// titanium check to tier, units and action. No other package may read these
// thresholds; callers go through FromScore and Apply.
package tier

import (
	"github.com/slatepick/slatepick/internal/models"
)

const (
	titaniumMin = 9.0
	goldMin     = 7.5
	edgeMin     = 6.5
	monitorMin  = 5.5

	// titanium_triggered needs the final score and a quorum of engine
	// scores at or above the floor. 7.99 does not qualify.
	engineFloor  = 8.0
	engineQuorum = 3
	finalFloor   = 8.0

	// UnderPenalty docks UNDER picks that carry no supporting evidence;
	// the pick is re-tiered with the reduced score.
	UnderPenalty = 0.15
)

// Assignment is one tier verdict.
type Assignment struct {
	Tier   models.Tier
	Units  float64
	Action string
	Badge  string
}

var assignments = map[models.Tier]Assignment{
	models.TierTitaniumSmash: {models.TierTitaniumSmash, 2.5, "SMASH", "TITANIUM SMASH"},
	models.TierGoldStar:      {models.TierGoldStar, 2.0, "SMASH", "GOLD STAR"},
	models.TierEdgeLean:      {models.TierEdgeLean, 1.0, "PLAY", "EDGE LEAN"},
	models.TierMonitor:       {models.TierMonitor, 0.0, "WATCH", "MONITOR"},
	models.TierPass:          {models.TierPass, 0.0, "SKIP", "PASS"},
}

// FromScore maps a final score to its tier assignment.
func FromScore(score float64, titaniumTriggered bool) Assignment {
	switch {
	case titaniumTriggered && score >= titaniumMin:
		return assignments[models.TierTitaniumSmash]
	case score >= goldMin:
		return assignments[models.TierGoldStar]
	case score >= edgeMin:
		return assignments[models.TierEdgeLean]
	case score >= monitorMin:
		return assignments[models.TierMonitor]
	default:
		return assignments[models.TierPass]
	}
}

// UnitsFor returns the unit size a tier stakes. Nothing else sets units.
func UnitsFor(t models.Tier) float64 {
	return assignments[t].Units
}

// ActionFor returns the card action label for a tier.
func ActionFor(t models.Tier) string {
	return assignments[t].Action
}

// TitaniumTriggered evaluates the strict titanium rule and returns the
// qualifying-engine count alongside the verdict.
func TitaniumTriggered(final float64, engines [4]float64) (bool, int) {
	count := 0
	for _, s := range engines {
		if s >= engineFloor {
			count++
		}
	}
	return final >= finalFloor && count >= engineQuorum, count
}

// Apply assigns tier and units on a copy of c, first docking unsupported
// UNDER picks and re-tiering with the reduced score.
func Apply(c models.Candidate) models.Candidate {
	if c.OverUnder == models.Under && !c.UnderSupported {
		c.FinalScore -= UnderPenalty
	}

	triggered, count := TitaniumTriggered(c.FinalScore, c.EngineScores())
	c.TitaniumTriggered = triggered
	c.TitaniumCount = count

	a := FromScore(c.FinalScore, c.TitaniumTriggered)
	c.Tier = a.Tier
	c.Units = a.Units
	return c
}

// Verify checks the tier invariants on a finished candidate. A violation is
// an INTERNAL_ERROR; callers reject the whole request on it.
func Verify(c models.Candidate) error {
	a := FromScore(c.FinalScore, c.TitaniumTriggered)
	if c.Tier != a.Tier {
		return models.NewCodedError(models.ErrCodeInternal,
			"tier %s does not match score %.2f (want %s)", c.Tier, c.FinalScore, a.Tier)
	}
	if c.Units != a.Units {
		return models.NewCodedError(models.ErrCodeInternal,
			"units %.1f set outside the tier table (tier %s wants %.1f)", c.Units, c.Tier, a.Units)
	}
	if c.Tier == models.TierTitaniumSmash {
		triggered, count := TitaniumTriggered(c.FinalScore, c.EngineScores())
		if !triggered || count < engineQuorum || c.FinalScore < finalFloor {
			return models.NewCodedError(models.ErrCodeInternal,
				"TITANIUM_SMASH without the titanium conditions (count=%d score=%.2f)", count, c.FinalScore)
		}
	}
	return nil
}
