// Package validate runs the ordered hard-gate chain over scored candidates:
// prop integrity, then the injury guard, then board availability. Validators
// classify and drop; they never error and never mutate their inputs.
package validate

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/models"
)

// Validator names as they appear in receipts.
const (
	ValidatorIntegrity = "prop_integrity"
	ValidatorInjury    = "injury_guard"
	ValidatorMarket    = "market_availability"
)

// Drop reason codes.
const (
	ReasonMissingKeys    = "PROP_MISSING_REQUIRED_KEYS"
	ReasonTeamMismatch   = "PROP_TEAM_MISMATCH"
	ReasonNoGames        = "PROP_NO_GAMES_PLAYED"
	ReasonInactive       = "PROP_PLAYER_INACTIVE"
	ReasonInjuryOut      = "INJURY_OUT"
	ReasonInjurySusp     = "INJURY_SUSPENDED"
	ReasonInjuryDoubt    = "INJURY_DOUBTFUL"
	ReasonInjuryGTD      = "INJURY_GTD"
	ReasonMarketDelisted = "DK_MARKET_NOT_LISTED"
)

// Flags are the optional strictness gates. Both default off: only OUT and
// SUSPENDED block unless the caller opts in.
type Flags struct {
	BlockDoubtful bool
	BlockGTD      bool
}

// Drop records one candidate removed by a validator, for the receipt.
type Drop struct {
	PickID     string `json:"pick_id"`
	ReasonCode string `json:"reason_code"`
	Validator  string `json:"validator"`
	Detail     string `json:"detail,omitempty"`
}

// Chain applies the three validators in their fixed order.
type Chain struct {
	flags Flags
	log   zerolog.Logger
}

// NewChain builds the validator chain.
func NewChain(flags Flags, log zerolog.Logger) *Chain {
	return &Chain{flags: flags, log: log.With().Str("component", "validate").Logger()}
}

// Run validates deep copies of cands against the slate. The input slice is
// never touched. Survivors carry a ValidatorResult per validator; every
// removal is returned as a Drop.
func (ch *Chain) Run(data *models.SlateData, cands []models.Candidate) ([]models.Candidate, []Drop) {
	index := BuildIndex(data.Listed)
	kept := make([]models.Candidate, 0, len(cands))
	var drops []Drop

	for _, c := range models.CloneAll(cands) {
		dropped := false
		for _, v := range []struct {
			name  string
			check func(*models.SlateData, *MarketIndex, models.Candidate) (string, string)
		}{
			{ValidatorIntegrity, ch.integrity},
			{ValidatorInjury, ch.injury},
			{ValidatorMarket, ch.market},
		} {
			code, detail := v.check(data, index, c)
			if code == "" {
				c.ValidatorResults = append(c.ValidatorResults, models.ValidatorResult{
					Validator: v.name,
					Passed:    true,
				})
				continue
			}
			drops = append(drops, Drop{PickID: c.PickID, ReasonCode: code, Validator: v.name, Detail: detail})
			ch.log.Debug().
				Str("pick_id", c.PickID).
				Str("validator", v.name).
				Str("reason_code", code).
				Msg("candidate dropped")
			dropped = true
			break
		}
		if !dropped {
			kept = append(kept, c)
		}
	}
	return kept, drops
}

// integrity enforces the prop shape rules. Game-line candidates pass.
func (ch *Chain) integrity(_ *models.SlateData, _ *MarketIndex, c models.Candidate) (string, string) {
	if c.MarketKind != models.MarketPlayerProp {
		return "", ""
	}

	var missing []string
	if c.Sport == "" {
		missing = append(missing, "sport")
	}
	if c.GameID == "" {
		missing = append(missing, "game_id")
	}
	if c.Player == nil || c.Player.PlayerName == "" {
		missing = append(missing, "player_name")
	}
	if c.Market == "" {
		missing = append(missing, "market")
	}
	if c.Line == nil {
		missing = append(missing, "line")
	}
	if c.OverUnder == "" {
		missing = append(missing, "side")
	}
	if (c.Player == nil || c.Player.Team == "") && (c.HomeTeam == "" || c.AwayTeam == "") {
		missing = append(missing, "team")
	}
	if len(missing) > 0 {
		return ReasonMissingKeys, "missing: " + strings.Join(missing, ", ")
	}

	if c.Player.Team != "" &&
		!strings.EqualFold(c.Player.Team, c.HomeTeam) &&
		!strings.EqualFold(c.Player.Team, c.AwayTeam) {
		return ReasonTeamMismatch, c.Player.Team + " is neither side of " + c.AwayTeam + " @ " + c.HomeTeam
	}
	if c.Player.GamesPlayedSeason <= 0 {
		return ReasonNoGames, "no games played this season"
	}
	if strings.EqualFold(c.Player.ActiveStatus, "inactive") {
		return ReasonInactive, "roster status inactive"
	}
	return "", ""
}

// injury blocks props whose subject is confirmed out, plus the optional
// doubtful and game-time-decision gates.
func (ch *Chain) injury(data *models.SlateData, _ *MarketIndex, c models.Candidate) (string, string) {
	if c.Player == nil {
		return "", ""
	}
	for _, rec := range data.Injuries {
		if !strings.EqualFold(rec.PlayerName, c.Player.PlayerName) {
			continue
		}
		switch rec.Status {
		case models.InjuryOut:
			return ReasonInjuryOut, rec.PlayerName + " is OUT"
		case models.InjurySuspended:
			return ReasonInjurySusp, rec.PlayerName + " is SUSPENDED"
		case models.InjuryDoubtful:
			if ch.flags.BlockDoubtful {
				return ReasonInjuryDoubt, rec.PlayerName + " is DOUBTFUL"
			}
		case models.InjuryQuestionable:
			if ch.flags.BlockGTD {
				return ReasonInjuryGTD, rec.PlayerName + " is a game-time decision"
			}
		}
	}
	return "", ""
}

// market drops props the board no longer lists. An empty index allows all.
func (ch *Chain) market(_ *models.SlateData, index *MarketIndex, c models.Candidate) (string, string) {
	if c.MarketKind != models.MarketPlayerProp || index.Empty() {
		return "", ""
	}
	if index.Listed(c) {
		return "", ""
	}
	return ReasonMarketDelisted, c.Selection + " not on the board"
}
