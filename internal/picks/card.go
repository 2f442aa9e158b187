package picks

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/tier"
)

// Correction flags the home/away enforcer can raise.
const (
	FlagSelectionCorrected = "SELECTION_CORRECTED"
	FlagPickSideUnresolved = "PICK_SIDE_UNRESOLVED"
)

// EngineScores is the per-engine summary carried on cards and receipts.
type EngineScores struct {
	AI            float64 `json:"ai"`
	Research      float64 `json:"research"`
	Esoteric      float64 `json:"esoteric"`
	Jarvis        float64 `json:"jarvis"`
	JasonSimBoost float64 `json:"jason_sim_boost"`
	Final         float64 `json:"final"`
}

// PickCard is the canonical published form of one pick. Every market kind
// renders into this one shape.
type PickCard struct {
	PickID      string             `json:"pick_id"`
	EventID     string             `json:"event_id"`
	Sport       models.Sport       `json:"sport"`
	Matchup     string             `json:"matchup"`
	HomeTeam    string             `json:"home_team"`
	AwayTeam    string             `json:"away_team"`
	StartTimeET string             `json:"start_time_et"`
	Status      models.EventStatus `json:"status"`
	HasStarted  bool               `json:"has_started"`
	IsLive      bool               `json:"is_live"`

	PickType          string         `json:"pick_type"`
	MarketLabel       string         `json:"market_label"`
	Selection         string         `json:"selection"`
	SelectionHomeAway *string        `json:"selection_home_away"`
	Line              *float64       `json:"line"`
	LineSigned        string         `json:"line_signed,omitempty"`
	OddsAmerican      *int           `json:"odds_american"`
	Units             float64        `json:"units"`
	Action            string         `json:"action"`
	BetString         string         `json:"bet_string"`
	Book              models.BookKey `json:"book,omitempty"`
	BookLink          string         `json:"book_link,omitempty"`

	Tier              models.Tier  `json:"tier"`
	Score             float64      `json:"score"`
	Confidence        string       `json:"confidence"`
	SignalsFired      []string     `json:"signals_fired"`
	ConfluenceReasons []string     `json:"confluence_reasons"`
	EngineScores      EngineScores `json:"engine_scores"`
	CorrectionFlags   []string     `json:"correction_flags,omitempty"`
}

// Builder renders candidates into cards.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder returns a card builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{log: log.With().Str("component", "picks").Logger()}
}

// Card renders one published candidate. The enforcer runs first so the card
// never contradicts the pick side.
func (b *Builder) Card(c models.Candidate) PickCard {
	c = b.enforceSides(c)

	card := PickCard{
		PickID:      c.PickID,
		EventID:     c.EventID,
		Sport:       c.Sport,
		Matchup:     c.AwayTeam + " @ " + c.HomeTeam,
		HomeTeam:    c.HomeTeam,
		AwayTeam:    c.AwayTeam,
		StartTimeET: clock.ISO(c.StatusTime.StartTimeET),
		Status:      c.StatusTime.Status,
		HasStarted:  c.StatusTime.HasStarted,
		IsLive:      c.StatusTime.IsLive,

		PickType:          c.MarketKind.PickType(),
		MarketLabel:       marketLabel(c),
		Selection:         c.Selection,
		SelectionHomeAway: sideLabel(c),
		Line:              c.Line,
		LineSigned:        LineSigned(c),
		OddsAmerican:      c.OddsAmerican,
		Units:             c.Units,
		Action:            tier.ActionFor(c.Tier),
		BetString:         BetString(c),
		Book:              c.BookKey,
		BookLink:          c.BookLink,

		Tier:              c.Tier,
		Score:             c.FinalScore,
		Confidence:        confidence(c.Tier),
		SignalsFired:      append([]string(nil), c.SignalsFired...),
		ConfluenceReasons: append([]string(nil), c.Breakdown.JasonSim.Reasons...),
		EngineScores: EngineScores{
			AI:            c.AIScore,
			Research:      c.ResearchScore,
			Esoteric:      c.EsotericScore,
			Jarvis:        c.JarvisScore,
			JasonSimBoost: c.JasonSimBoost,
			Final:         c.FinalScore,
		},
		CorrectionFlags: append([]string(nil), c.CorrectionFlags...),
	}
	return card
}

// Cards renders a published list in order.
func (b *Builder) Cards(cands []models.Candidate) []PickCard {
	out := make([]PickCard, 0, len(cands))
	for _, c := range cands {
		out = append(out, b.Card(c))
	}
	return out
}

// enforceSides rewrites a side pick's selection when it names the opponent
// instead of the pick side, and flags the correction.
func (b *Builder) enforceSides(c models.Candidate) models.Candidate {
	if c.MarketKind != models.MarketSpread && c.MarketKind != models.MarketMoneyline {
		return c
	}
	if c.PickSide == "" {
		return c
	}
	if !strings.EqualFold(c.PickSide, c.HomeTeam) && !strings.EqualFold(c.PickSide, c.AwayTeam) {
		c.CorrectionFlags = append(c.CorrectionFlags, FlagPickSideUnresolved)
		b.log.Warn().
			Str("pick_id", c.PickID).
			Str("pick_side", c.PickSide).
			Msg("pick side matches neither team")
		return c
	}

	opponent := c.HomeTeam
	if strings.EqualFold(c.PickSide, c.HomeTeam) {
		opponent = c.AwayTeam
	}
	lower := strings.ToLower(c.Selection)
	if strings.Contains(lower, strings.ToLower(c.PickSide)) {
		return c
	}
	if !strings.Contains(lower, strings.ToLower(opponent)) {
		return c
	}

	fixed := c.PickSide
	if c.MarketKind == models.MarketSpread && c.Line != nil {
		fixed = fmt.Sprintf("%s %+.1f", c.PickSide, *c.Line)
	}
	b.log.Warn().
		Str("pick_id", c.PickID).
		Str("was", c.Selection).
		Str("now", fixed).
		Msg("selection contradicted pick side")
	c.Selection = fixed
	c.CorrectionFlags = append(c.CorrectionFlags, FlagSelectionCorrected)
	return c
}

// LineSigned renders the line for cards: "+1.5" and "-3.5" for spreads,
// "O 220.5" / "U 25.5" for totals and props, empty for moneylines.
func LineSigned(c models.Candidate) string {
	if c.Line == nil {
		return ""
	}
	switch c.MarketKind {
	case models.MarketSpread:
		return fmt.Sprintf("%+.1f", *c.Line)
	case models.MarketTotal, models.MarketPlayerProp:
		prefix := "O"
		if c.OverUnder == models.Under {
			prefix = "U"
		}
		return fmt.Sprintf("%s %.1f", prefix, *c.Line)
	}
	return ""
}

// BetString renders the one-line bet instruction. Odds append only when the
// book actually priced the outcome.
func BetString(c models.Candidate) string {
	var core string
	switch c.MarketKind {
	case models.MarketSpread:
		core = c.PickSide
		if c.Line != nil {
			core = fmt.Sprintf("%s %+.1f", c.PickSide, *c.Line)
		}
	case models.MarketMoneyline:
		core = c.PickSide + " ML"
	case models.MarketTotal:
		core = overUnderWord(c.OverUnder)
		if c.Line != nil {
			core = fmt.Sprintf("%s %.1f", core, *c.Line)
		}
	case models.MarketPlayerProp:
		name := ""
		if c.Player != nil {
			name = c.Player.PlayerName
		}
		core = strings.TrimSpace(fmt.Sprintf("%s %s", name, overUnderWord(c.OverUnder)))
		if c.Line != nil {
			core = fmt.Sprintf("%s %.1f", core, *c.Line)
		}
		if c.Market != "" {
			core = core + " " + c.Market
		}
	default:
		core = c.Selection
	}
	if c.OddsAmerican != nil {
		return fmt.Sprintf("%s (%+d)", core, *c.OddsAmerican)
	}
	return core
}

func overUnderWord(ou models.OverUnder) string {
	if ou == models.Under {
		return "Under"
	}
	return "Over"
}

func marketLabel(c models.Candidate) string {
	switch c.MarketKind {
	case models.MarketSpread:
		return "Spread"
	case models.MarketMoneyline:
		return "Moneyline"
	case models.MarketTotal:
		return "Total"
	case models.MarketPlayerProp:
		if c.Market == "" {
			return "Player Prop"
		}
		return strings.ToUpper(c.Market[:1]) + c.Market[1:]
	}
	return string(c.MarketKind)
}

func sideLabel(c models.Candidate) *string {
	if c.MarketKind != models.MarketSpread && c.MarketKind != models.MarketMoneyline {
		return nil
	}
	var label string
	switch {
	case strings.EqualFold(c.PickSide, c.HomeTeam) && c.HomeTeam != "":
		label = "HOME"
	case strings.EqualFold(c.PickSide, c.AwayTeam) && c.AwayTeam != "":
		label = "AWAY"
	default:
		return nil
	}
	return &label
}

func confidence(t models.Tier) string {
	switch t {
	case models.TierTitaniumSmash:
		return "VERY HIGH"
	case models.TierGoldStar:
		return "HIGH"
	case models.TierEdgeLean:
		return "MEDIUM"
	case models.TierMonitor:
		return "LOW"
	default:
		return "NONE"
	}
}
