package context

// TravelImpact classifies how much a travel spot weighs on the away side.
type TravelImpact string

const (
	TravelNone   TravelImpact = "NONE"
	TravelLow    TravelImpact = "LOW"
	TravelMedium TravelImpact = "MEDIUM"
	TravelHigh   TravelImpact = "HIGH"
)

// TravelSpot is the computed fatigue read for one traveling team.
type TravelSpot struct {
	Impact  TravelImpact `json:"impact"`
	Fatigue float64      `json:"fatigue"`
	Lean    float64      `json:"lean"`
}

// fatigue multiplier per thousand miles.
const milesFactor = 1.0 / 1000.0

// restFactor scales fatigue by rest. A back-to-back doubles it; three or
// more rest days erase it.
func restFactor(restDays int, backToBack bool) float64 {
	if backToBack {
		return 2.0
	}
	switch {
	case restDays >= 3:
		return 0.0
	case restDays == 2:
		return 0.5
	default:
		return 1.0
	}
}

// TravelFatigue scores a travel spot: miles times the fatigue factor times
// the rest factor. A back-to-back is always HIGH impact regardless of
// distance; three or more rest days are always NONE.
func TravelFatigue(miles float64, restDays int, backToBack bool) TravelSpot {
	if miles < 0 {
		miles = 0
	}
	fatigue := miles * milesFactor * restFactor(restDays, backToBack)

	spot := TravelSpot{Fatigue: fatigue}
	switch {
	case backToBack:
		spot.Impact = TravelHigh
	case restDays >= 3:
		spot.Impact = TravelNone
	case fatigue >= 2.0:
		spot.Impact = TravelHigh
	case fatigue >= 1.0:
		spot.Impact = TravelMedium
	case fatigue > 0:
		spot.Impact = TravelLow
	default:
		spot.Impact = TravelNone
	}

	switch spot.Impact {
	case TravelHigh:
		spot.Lean = -0.15
	case TravelMedium:
		spot.Lean = -0.10
	case TravelLow:
		spot.Lean = -0.05
	}
	return spot
}
