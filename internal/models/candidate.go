package models

import "time"

// Player carries the roster facts validators and engines need about the
// subject of a player prop.
type Player struct {
	PlayerID          string `json:"player_id,omitempty"`
	PlayerName        string `json:"player_name"`
	Team              string `json:"team,omitempty"`
	TeamID            string `json:"team_id,omitempty"`
	Position          string `json:"position,omitempty"`
	GamesPlayedSeason int    `json:"games_played_season"`
	ActiveStatus      string `json:"active_status,omitempty"`
	Birthdate         string `json:"birthdate,omitempty"`
}

// CallProof records what one provider call actually did, so a receipt can
// prove a signal's value came from a real fetch (or a cache hit).
type CallProof struct {
	CacheHit   bool    `json:"cache_hit"`
	TwoXXDelta int     `json:"2xx_delta"`
	LatencyMS  float64 `json:"latency_ms"`
}

// SignalResult is the provenance record behind one esoteric signal value.
// SourceAPI is nil for internally computed signals.
type SignalResult struct {
	Value            float64      `json:"value"`
	Status           SignalStatus `json:"status"`
	SourceAPI        *string      `json:"source_api"`
	SourceType       SourceType   `json:"source_type"`
	RawInputsSummary string       `json:"raw_inputs_summary,omitempty"`
	CallProof        CallProof    `json:"call_proof"`
	Triggered        bool         `json:"triggered"`
	Contribution     float64      `json:"contribution"`
}

// InternalSignal builds a SignalResult for a computed (non-fetched) signal.
func InternalSignal(value, contribution float64, triggered bool, summary string) SignalResult {
	return SignalResult{
		Value:            value,
		Status:           StatusSuccess,
		SourceType:       SourceInternal,
		RawInputsSummary: summary,
		Triggered:        triggered,
		Contribution:     contribution,
	}
}

// ModelResult is one AI sub-model's verdict.
type ModelResult struct {
	Model      AIModel `json:"model"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"`
	Note       string  `json:"note,omitempty"`
}

// AIResult is the AI engine output for one candidate.
type AIResult struct {
	Score         float64             `json:"score"`
	Models        []ModelResult       `json:"models"`
	Contributions map[AIModel]float64 `json:"contributions"`
	UsedFallback  bool                `json:"used_fallback"`
	FallbackNote  string              `json:"fallback_note,omitempty"`
}

// PillarVerdict is one research pillar's pass/fail plus contribution.
type PillarVerdict struct {
	Pillar       Pillar  `json:"pillar"`
	Passed       bool    `json:"passed"`
	Contribution float64 `json:"contribution"`
	Note         string  `json:"note,omitempty"`
}

// ResearchResult is the research engine output for one candidate.
type ResearchResult struct {
	Score    float64         `json:"score"`
	Verdicts []PillarVerdict `json:"verdicts"`
}

// EsotericResult is the esoteric engine output: the edge score plus the
// fixed 23-signal breakdown keyed by signal name.
type EsotericResult struct {
	Score     float64                         `json:"score"`
	Breakdown map[EsotericSignal]SignalResult `json:"breakdown"`
}

// OrderedBreakdown returns the breakdown as (signal, result) pairs in the
// canonical signal order.
func (e EsotericResult) OrderedBreakdown() []SignalEntry {
	out := make([]SignalEntry, 0, len(AllEsotericSignals))
	for _, sig := range AllEsotericSignals {
		res, ok := e.Breakdown[sig]
		if !ok {
			res = SignalResult{Status: StatusNoComponents, SourceType: SourceInternal}
		}
		out = append(out, SignalEntry{Signal: sig, SignalResult: res})
	}
	return out
}

// SignalEntry pairs a signal name with its result for ordered receipts.
type SignalEntry struct {
	Signal EsotericSignal `json:"signal"`
	SignalResult
}

// JarvisResult is the Jarvis engine output for one candidate.
type JarvisResult struct {
	Score         float64  `json:"score"`
	Active        bool     `json:"active"`
	HitsCount     int      `json:"hits_count"`
	TitaniumCount int      `json:"titanium_count"`
	Triggers      []string `json:"triggers"`
}

// SimVerdict labels the Jason-Sim confluence decision.
type SimVerdict string

const (
	SimBoost     SimVerdict = "BOOST"
	SimDowngrade SimVerdict = "DOWNGRADE"
	SimBlock     SimVerdict = "BLOCK"
	SimNeutral   SimVerdict = "NEUTRAL"
)

// SimSummary is the Monte-Carlo output Jason-Sim reasons over.
type SimSummary struct {
	HomeWinPct     float64 `json:"home_win_pct"`
	CoverPct       float64 `json:"cover_pct"`
	ProjectedTotal float64 `json:"projected_total"`
	VarianceFlag   bool    `json:"variance_flag"`
	Iterations     int     `json:"iterations"`
}

// JasonSimResult is the confluence layer output for one candidate.
type JasonSimResult struct {
	Boost     float64    `json:"boost"`
	Verdict   SimVerdict `json:"verdict"`
	Alignment float64    `json:"alignment"`
	Sim       SimSummary `json:"sim"`
	Reasons   []string   `json:"reasons"`
}

// EngineBreakdown gathers all engine outputs for a candidate's receipt.
type EngineBreakdown struct {
	AI       AIResult       `json:"ai"`
	Research ResearchResult `json:"research"`
	Esoteric EsotericResult `json:"esoteric"`
	Jarvis   JarvisResult   `json:"jarvis"`
	JasonSim JasonSimResult `json:"jason_sim"`
}

// ValidatorResult records one validator's outcome for one candidate.
type ValidatorResult struct {
	Validator  string `json:"validator"`
	Passed     bool   `json:"passed"`
	ReasonCode string `json:"reason_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// StatusTime snapshots the event timing facts a pick card exposes.
type StatusTime struct {
	StartTimeET time.Time   `json:"start_time_et"`
	Status      EventStatus `json:"status"`
	HasStarted  bool        `json:"has_started"`
	IsLive      bool        `json:"is_live"`
}

// Candidate is the mutable pipeline unit. It is born from a market line,
// scored by the engines, filtered by validators and the publish gate, and
// finally rendered into a PickCard.
type Candidate struct {
	PickID       string     `json:"pick_id"`
	EventID      string     `json:"event_id"`
	Sport        Sport      `json:"sport"`
	GameID       string     `json:"game_id"`
	MarketKind   MarketKind `json:"market_kind"`
	Market       string     `json:"market,omitempty"`
	Selection    string     `json:"selection"`
	PickSide     string     `json:"pick_side,omitempty"`
	Line         *float64   `json:"line,omitempty"`
	OverUnder    OverUnder  `json:"over_under,omitempty"`
	OddsAmerican *int       `json:"odds_american"`
	BookKey      BookKey    `json:"book_key,omitempty"`
	BookLink     string     `json:"book_link,omitempty"`

	Player *Player `json:"player,omitempty"`

	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`

	AIScore       float64 `json:"ai_score"`
	ResearchScore float64 `json:"research_score"`
	EsotericScore float64 `json:"esoteric_score"`
	JarvisScore   float64 `json:"jarvis_score"`
	JasonSimBoost float64 `json:"jason_sim_boost"`
	FinalScore    float64 `json:"final_score"`

	TitaniumCount     int  `json:"titanium_count"`
	TitaniumTriggered bool `json:"titanium_triggered"`
	UnderSupported    bool `json:"under_supported"`

	Tier  Tier    `json:"tier"`
	Units float64 `json:"units"`

	Reasons          []string          `json:"reasons"`
	SignalsFired     []string          `json:"signals_fired"`
	Breakdown        EngineBreakdown   `json:"engine_breakdown"`
	ValidatorResults []ValidatorResult `json:"validator_results,omitempty"`
	StatusTime       StatusTime        `json:"status_time"`
	CorrectionFlags  []string          `json:"correction_flags,omitempty"`
}

// EngineScores returns the four engine scores in fixed order
// (AI, Research, Esoteric, Jarvis).
func (c Candidate) EngineScores() [4]float64 {
	return [4]float64{c.AIScore, c.ResearchScore, c.EsotericScore, c.JarvisScore}
}

// Clone returns a deep copy. Validators and the publish gate work on clones
// so the caller's slice is never mutated.
func (c Candidate) Clone() Candidate {
	out := c
	if c.Line != nil {
		l := *c.Line
		out.Line = &l
	}
	if c.OddsAmerican != nil {
		o := *c.OddsAmerican
		out.OddsAmerican = &o
	}
	if c.Player != nil {
		p := *c.Player
		out.Player = &p
	}
	out.Reasons = append([]string(nil), c.Reasons...)
	out.SignalsFired = append([]string(nil), c.SignalsFired...)
	out.ValidatorResults = append([]ValidatorResult(nil), c.ValidatorResults...)
	out.CorrectionFlags = append([]string(nil), c.CorrectionFlags...)
	if c.Breakdown.Esoteric.Breakdown != nil {
		m := make(map[EsotericSignal]SignalResult, len(c.Breakdown.Esoteric.Breakdown))
		for k, v := range c.Breakdown.Esoteric.Breakdown {
			m[k] = v
		}
		out.Breakdown.Esoteric.Breakdown = m
	}
	out.Breakdown.AI.Models = append([]ModelResult(nil), c.Breakdown.AI.Models...)
	if c.Breakdown.AI.Contributions != nil {
		m := make(map[AIModel]float64, len(c.Breakdown.AI.Contributions))
		for k, v := range c.Breakdown.AI.Contributions {
			m[k] = v
		}
		out.Breakdown.AI.Contributions = m
	}
	out.Breakdown.Research.Verdicts = append([]PillarVerdict(nil), c.Breakdown.Research.Verdicts...)
	out.Breakdown.Jarvis.Triggers = append([]string(nil), c.Breakdown.Jarvis.Triggers...)
	out.Breakdown.JasonSim.Reasons = append([]string(nil), c.Breakdown.JasonSim.Reasons...)
	return out
}

// CloneAll deep-copies a candidate slice.
func CloneAll(in []Candidate) []Candidate {
	out := make([]Candidate, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
