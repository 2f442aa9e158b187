package models

import (
	"strings"
	"time"
)

// WeatherReport is the per-event forecast. Relevant is false for indoor
// sports; the report then carries no fetched values.
type WeatherReport struct {
	Relevant   bool    `json:"relevant"`
	TempF      float64 `json:"temp_f,omitempty"`
	WindMPH    float64 `json:"wind_mph,omitempty"`
	PrecipPct  float64 `json:"precip_pct,omitempty"`
	PressureMB float64 `json:"pressure_mb,omitempty"`
	Summary    string  `json:"summary,omitempty"`
	IsDome     bool    `json:"is_dome,omitempty"`
}

// SpaceWeather is the geomagnetic snapshot from NOAA.
type SpaceWeather struct {
	KpIndex    float64   `json:"kp_index"`
	KpLabel    string    `json:"kp_label"`
	SchumannHz float64   `json:"schumann_hz,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// MoonInfo carries the astronomy facts the esoteric engine reads.
type MoonInfo struct {
	Phase         string  `json:"phase"`
	Illumination  float64 `json:"illumination"`
	VoidOfCourse  bool    `json:"void_of_course"`
	PlanetaryHour string  `json:"planetary_hour"`
}

// MarketSentiment is the equity-market mood snapshot from finnhub.
type MarketSentiment struct {
	SPXChangePct float64 `json:"spx_change_pct"`
	VIX          float64 `json:"vix"`
	Sentiment    string  `json:"sentiment"`
}

// EconIndicators is the slow-moving macro snapshot from FRED.
type EconIndicators struct {
	CPIYoY       float64   `json:"cpi_yoy"`
	Unemployment float64   `json:"unemployment"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewsSentiment aggregates expert consensus pulled from news search.
type NewsSentiment struct {
	EventID       string  `json:"event_id"`
	ConsensusSide string  `json:"consensus_side,omitempty"`
	Confidence    float64 `json:"confidence"`
	Articles      int     `json:"articles"`
}

// SocialPulse is the social chatter volume read for the noosphere signal.
type SocialPulse struct {
	EventID       string  `json:"event_id"`
	Volume        int     `json:"volume"`
	PositiveRatio float64 `json:"positive_ratio"`
	Velocity      float64 `json:"velocity"`
}

// LinePoint is one sampled line/odds observation, oldest first in history.
type LinePoint struct {
	ObservedAt   time.Time `json:"observed_at"`
	Line         float64   `json:"line"`
	OddsAmerican *int      `json:"odds_american"`
}

// VenueInfo carries the venue facts from the game summary feed. Officials
// feed the referee signal; Indoor overrides the sport default when set.
type VenueInfo struct {
	Venue     string   `json:"venue,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	Indoor    bool     `json:"indoor"`
	Officials []string `json:"officials,omitempty"`
}

// TeamStats carries pace and defensive context per team.
type TeamStats struct {
	Team        string  `json:"team"`
	Pace        float64 `json:"pace"`
	PaceRank    int     `json:"pace_rank"`
	DefRating   float64 `json:"def_rating"`
	DefRank     int     `json:"def_rank"`
	PointsPG    float64 `json:"points_pg"`
	RestDays    int     `json:"rest_days"`
	BackToBack  bool    `json:"back_to_back"`
	TravelMiles float64 `json:"travel_miles"`
}

// PropHistory summarizes a player's recent results against a prop market.
type PropHistory struct {
	PlayerName string    `json:"player_name"`
	Market     string    `json:"market"`
	Average    float64   `json:"average"`
	HitRate    float64   `json:"hit_rate"`
	Games      int       `json:"games"`
	LastSeen   time.Time `json:"last_seen"`
}

// ProviderOutcome records how one provider's slate fetch went, feeding both
// the receipt provenance and the fail-soft accounting.
type ProviderOutcome struct {
	Provider  string       `json:"provider"`
	Status    SignalStatus `json:"status"`
	Proof     CallProof    `json:"proof"`
	Error     string       `json:"error,omitempty"`
	ErrorCode string       `json:"error_code,omitempty"`
}

// SlateData is everything the fetch layer assembled for one (sport, day)
// request. Engines treat it as read-only.
type SlateData struct {
	Sport   Sport  `json:"sport"`
	DateStr string `json:"date_str"`

	Events   []Event                 `json:"events"`
	Lines    map[string][]MarketLine `json:"lines"`
	Props    []PropOffer             `json:"props"`
	Listed   []PropOffer             `json:"listed"`
	Injuries []InjuryRecord          `json:"injuries"`
	Splits   map[string][]Split      `json:"splits"`

	Weather map[string]WeatherReport `json:"weather,omitempty"`
	Venues  map[string]VenueInfo     `json:"venues,omitempty"`
	Space   *SpaceWeather            `json:"space,omitempty"`
	Moon    *MoonInfo                `json:"moon,omitempty"`
	Market  *MarketSentiment         `json:"market,omitempty"`
	Econ    *EconIndicators          `json:"econ,omitempty"`
	News    map[string]NewsSentiment `json:"news,omitempty"`
	Social  map[string]SocialPulse   `json:"social,omitempty"`

	LineHistory map[string][]LinePoint `json:"line_history,omitempty"`
	TeamStats   map[string]TeamStats   `json:"team_stats,omitempty"`
	PropTrends  map[string]PropHistory `json:"prop_trends,omitempty"`
	Players     map[string]Player      `json:"players,omitempty"`

	Outcomes map[string]ProviderOutcome `json:"outcomes"`

	DemoMode bool `json:"demo_mode,omitempty"`
}

// Outcome returns the recorded fetch outcome for a provider, defaulting to
// a PENDING internal record when the provider never reported.
func (s *SlateData) Outcome(provider string) ProviderOutcome {
	if s.Outcomes != nil {
		if o, ok := s.Outcomes[provider]; ok {
			return o
		}
	}
	return ProviderOutcome{Provider: provider, Status: StatusPending}
}

// RecordOutcome stores a provider fetch outcome.
func (s *SlateData) RecordOutcome(o ProviderOutcome) {
	if s.Outcomes == nil {
		s.Outcomes = make(map[string]ProviderOutcome)
	}
	s.Outcomes[o.Provider] = o
}

// EventByID finds an event on the slate.
func (s *SlateData) EventByID(id string) (Event, bool) {
	for _, ev := range s.Events {
		if ev.EventID == id {
			return ev, true
		}
	}
	return Event{}, false
}

// HistoryKey builds the line-history map key for an event market.
func HistoryKey(eventID string, kind MarketKind) string {
	return eventID + "|" + string(kind)
}

// PropTrendKey builds the prop-history map key for a player and market.
func PropTrendKey(playerName, market string) string {
	return strings.ToLower(playerName) + "|" + strings.ToLower(market)
}
