package models

// Sport identifies a supported slate.
type Sport string

const (
	SportNBA   Sport = "nba"
	SportNFL   Sport = "nfl"
	SportMLB   Sport = "mlb"
	SportNHL   Sport = "nhl"
	SportNCAAB Sport = "ncaab"
)

// AllSports is the supported slate set in declaration order.
var AllSports = []Sport{SportNBA, SportNFL, SportMLB, SportNHL, SportNCAAB}

// Valid reports whether s names a supported sport.
func (s Sport) Valid() bool {
	for _, known := range AllSports {
		if s == known {
			return true
		}
	}
	return false
}

// Indoor reports whether the sport plays in a closed venue, which makes
// weather NOT_RELEVANT rather than a fetched signal.
func (s Sport) Indoor() bool {
	return s == SportNBA || s == SportNHL || s == SportNCAAB
}

// MarketKind discriminates the market families a candidate can come from.
type MarketKind string

const (
	MarketSpread     MarketKind = "SPREAD"
	MarketMoneyline  MarketKind = "MONEYLINE"
	MarketTotal      MarketKind = "TOTAL"
	MarketPlayerProp MarketKind = "PLAYER_PROP"
)

// PickType returns the lowercase wire form used on pick cards.
func (m MarketKind) PickType() string {
	switch m {
	case MarketSpread:
		return "spread"
	case MarketMoneyline:
		return "moneyline"
	case MarketTotal:
		return "total"
	case MarketPlayerProp:
		return "player_prop"
	}
	return "unknown"
}

// EventStatus tracks where an event sits relative to the ET day window.
type EventStatus string

const (
	EventPreGame    EventStatus = "PRE_GAME"
	EventInProgress EventStatus = "IN_PROGRESS"
	EventFinal      EventStatus = "FINAL"
	EventNotToday   EventStatus = "NOT_TODAY"
)

// Tier is the published confidence band. Thresholds live in the tier
// package; nothing else may read them.
type Tier string

const (
	TierTitaniumSmash Tier = "TITANIUM_SMASH"
	TierGoldStar      Tier = "GOLD_STAR"
	TierEdgeLean      Tier = "EDGE_LEAN"
	TierMonitor       Tier = "MONITOR"
	TierPass          Tier = "PASS"
)

// InjuryStatus is the normalized availability label for a player.
type InjuryStatus string

const (
	InjuryOut          InjuryStatus = "OUT"
	InjurySuspended    InjuryStatus = "SUSPENDED"
	InjuryDoubtful     InjuryStatus = "DOUBTFUL"
	InjuryQuestionable InjuryStatus = "QUESTIONABLE"
	InjuryProbable     InjuryStatus = "PROBABLE"
	InjuryHealthy      InjuryStatus = "HEALTHY"
)

// RLMStrength classifies reverse line movement.
type RLMStrength string

const (
	RLMNone   RLMStrength = "NONE"
	RLMWeak   RLMStrength = "WEAK"
	RLMStrong RLMStrength = "STRONG"
)

// OverUnder marks the side of a total or prop line.
type OverUnder string

const (
	Over  OverUnder = "OVER"
	Under OverUnder = "UNDER"
)

// SlateHealth summarizes how usable a slate response is.
type SlateHealth string

const (
	SlateHealthy  SlateHealth = "HEALTHY"
	SlateDegraded SlateHealth = "DEGRADED"
	SlateStarved  SlateHealth = "STARVED"
	SlateLowEdge  SlateHealth = "LOW_EDGE"
	SlateNoSlate  SlateHealth = "NO_SLATE"
	SlateNoPicks  SlateHealth = "NO_PICKS"
)

// BookKey identifies a sportsbook in the allowed set.
type BookKey string

const (
	BookDraftKings BookKey = "draftkings"
	BookFanDuel    BookKey = "fanduel"
	BookBetMGM     BookKey = "betmgm"
	BookCaesars    BookKey = "caesars"
	BookPointsBet  BookKey = "pointsbet"
	BookPinnacle   BookKey = "pinnacle"
	BookBet365     BookKey = "bet365"
	BookBetRivers  BookKey = "betrivers"
	BookESPNBet    BookKey = "espnbet"
	BookUnibetUS   BookKey = "unibet_us"
)

// AllBooks is the allowed sportsbook set in declaration order.
var AllBooks = []BookKey{
	BookDraftKings, BookFanDuel, BookBetMGM, BookCaesars, BookPointsBet,
	BookPinnacle, BookBet365, BookBetRivers, BookESPNBet, BookUnibetUS,
}

// Valid reports whether b is in the allowed sportsbook set.
func (b BookKey) Valid() bool {
	for _, known := range AllBooks {
		if b == known {
			return true
		}
	}
	return false
}

// AIModel names one sub-model of the AI ensemble. Iteration order is the
// declaration order, which fixes receipt ordering.
type AIModel string

const (
	ModelLineMovement AIModel = "line_movement"
	ModelMatchup      AIModel = "matchup"
	ModelRest         AIModel = "rest"
	ModelInjury       AIModel = "injury"
	ModelBettingEdge  AIModel = "betting_edge"
	ModelMonteCarlo   AIModel = "monte_carlo"
	ModelPaceDefense  AIModel = "pace_defense"
	ModelPropHistory  AIModel = "prop_history"
)

// AllAIModels is the 8-model ensemble in canonical order.
var AllAIModels = []AIModel{
	ModelLineMovement, ModelMatchup, ModelRest, ModelInjury,
	ModelBettingEdge, ModelMonteCarlo, ModelPaceDefense, ModelPropHistory,
}

// Pillar names one research pillar.
type Pillar string

const (
	PillarSharpSplit       Pillar = "sharp_split"
	PillarReverseLineMove  Pillar = "reverse_line_move"
	PillarHospitalFade     Pillar = "hospital_fade"
	PillarSituationalSpot  Pillar = "situational_spot"
	PillarExpertConsensus  Pillar = "expert_consensus"
	PillarPropCorrelation  Pillar = "prop_correlation"
	PillarHookDiscipline   Pillar = "hook_discipline"
	PillarVolumeDiscipline Pillar = "volume_discipline"
)

// AllPillars is the 8-pillar set in canonical order.
var AllPillars = []Pillar{
	PillarSharpSplit, PillarReverseLineMove, PillarHospitalFade,
	PillarSituationalSpot, PillarExpertConsensus, PillarPropCorrelation,
	PillarHookDiscipline, PillarVolumeDiscipline,
}

// EsotericSignal names one signal of the canonical 23-signal breakdown.
type EsotericSignal string

const (
	SignalChromeResonance EsotericSignal = "chrome_resonance"
	SignalVoidMoon        EsotericSignal = "void_moon"
	SignalNoosphere       EsotericSignal = "noosphere"
	SignalHurst           EsotericSignal = "hurst"
	SignalKpIndex         EsotericSignal = "kp_index"
	SignalBenford         EsotericSignal = "benford"
	SignalBiorhythm       EsotericSignal = "biorhythm"
	SignalLifePath        EsotericSignal = "life_path"
	SignalFoundersEcho    EsotericSignal = "founders_echo"
	SignalGannSquare      EsotericSignal = "gann_square"
	SignalFiftyRetrace    EsotericSignal = "fifty_retrace"
	SignalSchumann        EsotericSignal = "schumann"
	SignalAtmospheric     EsotericSignal = "atmospheric"
	SignalVortex          EsotericSignal = "vortex"
	SignalFibonacci       EsotericSignal = "fibonacci"
	SignalPhiAlignment    EsotericSignal = "phi_alignment"
	SignalPlanetaryHour   EsotericSignal = "planetary_hour"
	SignalTesla369        EsotericSignal = "tesla_369"
	SignalDailyEdge       EsotericSignal = "daily_edge"
	SignalAltitude        EsotericSignal = "altitude"
	SignalWeather         EsotericSignal = "weather"
	SignalReferee         EsotericSignal = "referee"
	SignalTravel          EsotericSignal = "travel"
)

// AllEsotericSignals is the canonical 23-signal order. Receipts iterate this
// slice so per-signal output is deterministic.
var AllEsotericSignals = []EsotericSignal{
	SignalChromeResonance, SignalVoidMoon, SignalNoosphere, SignalHurst,
	SignalKpIndex, SignalBenford, SignalBiorhythm, SignalLifePath,
	SignalFoundersEcho, SignalGannSquare, SignalFiftyRetrace, SignalSchumann,
	SignalAtmospheric, SignalVortex, SignalFibonacci, SignalPhiAlignment,
	SignalPlanetaryHour, SignalTesla369, SignalDailyEdge, SignalAltitude,
	SignalWeather, SignalReferee, SignalTravel,
}

// SignalStatus records the fetch/compute outcome behind a signal value.
type SignalStatus string

const (
	StatusSuccess         SignalStatus = "SUCCESS"
	StatusFallback        SignalStatus = "FALLBACK"
	StatusNoData          SignalStatus = "NO_DATA"
	StatusError           SignalStatus = "ERROR"
	StatusPartial         SignalStatus = "PARTIAL"
	StatusFailed          SignalStatus = "FAILED"
	StatusNoComponents    SignalStatus = "NO_COMPONENTS"
	StatusSkipped         SignalStatus = "SKIPPED"
	StatusPending         SignalStatus = "PENDING"
	StatusFallbackSuccess SignalStatus = "FALLBACK_SUCCESS"
	StatusNotRelevant     SignalStatus = "NOT_RELEVANT"
)

// SourceType distinguishes computed signals from fetched ones.
type SourceType string

const (
	SourceInternal SourceType = "INTERNAL"
	SourceExternal SourceType = "EXTERNAL"
)

// ChangeType labels a change-monitor event.
type ChangeType string

const (
	ChangeOddsMove     ChangeType = "ODDS_MOVE"
	ChangeLineMove     ChangeType = "LINE_MOVE"
	ChangePropLineMove ChangeType = "PROP_LINE_MOVE"
	ChangeTierChange   ChangeType = "TIER_CHANGE"
	ChangePropAdded    ChangeType = "PROP_ADDED"
	ChangePropRemoved  ChangeType = "PROP_REMOVED"
	ChangePickAdded    ChangeType = "PICK_ADDED"
	ChangePickRemoved  ChangeType = "PICK_REMOVED"
	ChangeInjuryFlip   ChangeType = "INJURY_FLIP"
	ChangeGoalieStatus ChangeType = "GOALIE_STATUS_CHANGE"
)

// Severity ranks change events for alerting.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

// GradeResult settles a published pick against the final box score. VOID
// covers postponed or abandoned events and markets that never closed.
type GradeResult string

const (
	GradeWin  GradeResult = "WIN"
	GradeLoss GradeResult = "LOSS"
	GradePush GradeResult = "PUSH"
	GradeVoid GradeResult = "VOID"
)
