package models

import "time"

// Event is one scheduled game on a slate. Created once per slate fetch and
// immutable afterward; the ET fields are derived by the clock package.
type Event struct {
	EventID      string      `json:"event_id"`
	Sport        Sport       `json:"sport"`
	League       string      `json:"league"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	StartTimeUTC time.Time   `json:"start_time_utc"`
	StartTimeET  time.Time   `json:"start_time_et"`
	Status       EventStatus `json:"status"`
	HasStarted   bool        `json:"has_started"`
	IsLive       bool        `json:"is_live"`
}

// Matchup renders "AWY @ HOME" for labels and logs.
func (e Event) Matchup() string {
	return e.AwayTeam + " @ " + e.HomeTeam
}

// MarketLine is one priced outcome at one book. Line is nil for pure
// moneylines. OddsAmerican is nil when the book did not price the outcome;
// it is never defaulted.
type MarketLine struct {
	EventID      string     `json:"event_id"`
	MarketKind   MarketKind `json:"market_kind"`
	SelectionKey string     `json:"selection_key"`
	Line         *float64   `json:"line,omitempty"`
	OverUnder    OverUnder  `json:"over_under,omitempty"`
	OddsAmerican *int       `json:"odds_american"`
	BookKey      BookKey    `json:"book_key"`
	FetchedAt    time.Time  `json:"fetched_at"`
}

// InjuryRecord is one normalized availability report.
type InjuryRecord struct {
	PlayerID   string       `json:"player_id,omitempty"`
	PlayerName string       `json:"player_name"`
	Status     InjuryStatus `json:"status"`
	Team       string       `json:"team"`
	Position   string       `json:"position,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	ReportedAt time.Time    `json:"reported_at"`
}

// Blocking reports whether the status alone removes a player from play.
func (r InjuryRecord) Blocking() bool {
	return r.Status == InjuryOut || r.Status == InjurySuspended
}

// Split carries the public/sharp money distribution for one market.
// Sharp-public divergence of fifteen percentage points or more is STRONG.
type Split struct {
	EventID        string      `json:"event_id"`
	MarketKind     MarketKind  `json:"market_kind"`
	PublicBetPct   float64     `json:"public_bet_pct"`
	PublicMoneyPct float64     `json:"public_money_pct"`
	SharpSide      string      `json:"sharp_side,omitempty"`
	RLM            RLMStrength `json:"rlm"`
	SteamStrength  float64     `json:"steam_strength"`
}

// Divergence is the sharp-public gap in percentage points.
func (s Split) Divergence() float64 {
	d := s.PublicMoneyPct - s.PublicBetPct
	if d < 0 {
		return -d
	}
	return d
}

// PropOffer is one listed prop market on a book board, used to build the
// availability index for the market validator.
type PropOffer struct {
	Sport        Sport     `json:"sport"`
	GameID       string    `json:"game_id"`
	PlayerName   string    `json:"player_name"`
	Market       string    `json:"market"`
	Line         float64   `json:"line"`
	Side         OverUnder `json:"side"`
	OddsAmerican *int      `json:"odds_american"`
	BookKey      BookKey   `json:"book_key"`
}
