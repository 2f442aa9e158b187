// Package books covers the sportsbook-facing surface of a slate: deep links
// into the allowed books, the cross-book line shop, and single-bet slips.
// Everything here reads prices the odds feed actually returned; odds are
// never invented for an outcome no book priced.
package books

import (
	"fmt"
	"strings"

	"github.com/slatepick/slatepick/internal/models"
)

// sportGroup is the path segment most books place above the league.
func sportGroup(sport models.Sport) string {
	switch sport {
	case models.SportNBA, models.SportNCAAB:
		return "basketball"
	case models.SportNFL:
		return "football"
	case models.SportMLB:
		return "baseball"
	case models.SportNHL:
		return "hockey"
	}
	return string(sport)
}

// DeepLink returns the book's public landing URL for the sport's board.
// Books without a stable public URL scheme (pinnacle, bet365, unibet_us)
// return the empty string; callers surface those offers without a link.
func DeepLink(book models.BookKey, sport models.Sport) string {
	league := string(sport)
	switch book {
	case models.BookDraftKings:
		return fmt.Sprintf("https://sportsbook.draftkings.com/leagues/%s/%s", sportGroup(sport), league)
	case models.BookFanDuel:
		return "https://sportsbook.fanduel.com/navigation/" + league
	case models.BookBetMGM:
		return "https://sports.betmgm.com/en/sports/" + league
	case models.BookCaesars:
		return "https://sportsbook.caesars.com/us/bet/" + league
	case models.BookPointsBet:
		return "https://pointsbet.com/sports/" + league
	case models.BookBetRivers:
		return "https://www.betrivers.com/?page=sportsbook&sport=" + league
	case models.BookESPNBet:
		return "https://espnbet.com/sport/" + league
	}
	return ""
}

// BetslipRequest is the parsed query of /live/betslip/generate. Book is
// optional; empty means "best price across the board".
type BetslipRequest struct {
	Sport     models.Sport
	GameID    string
	BetType   string
	Selection string
	Book      models.BookKey
}

// Betslip is one constructed bet. OddsAmerican is nil when the chosen book
// never priced the outcome; the bet string then carries no price either.
type Betslip struct {
	Sport        models.Sport     `json:"sport"`
	GameID       string           `json:"game_id"`
	Matchup      string           `json:"matchup"`
	BetType      string           `json:"bet_type"`
	Selection    string           `json:"selection"`
	Line         *float64         `json:"line,omitempty"`
	Side         models.OverUnder `json:"side,omitempty"`
	OddsAmerican *int             `json:"odds_american,omitempty"`
	Odds         string           `json:"odds,omitempty"`
	Book         models.BookKey   `json:"book"`
	Link         string           `json:"link,omitempty"`
	Bet          string           `json:"bet"`
}

// Generate builds a single-bet slip from today's board. Selection matching
// is case-insensitive and accepts partial team or player names; totals take
// "over"/"under" either as the whole selection or as a trailing word. When
// the caller names a book that listed the outcome but sent no price, the
// slip keeps that book with nil odds rather than substituting another price.
func Generate(data *models.SlateData, req BetslipRequest) (*Betslip, error) {
	if !req.Sport.Valid() {
		return nil, &models.CodedError{
			Code:    models.ErrCodeInvalidSport,
			Message: fmt.Sprintf("unsupported sport %q", req.Sport),
			Field:   "sport",
		}
	}
	kind, ok := kindFromBetType(req.BetType)
	if !ok {
		return nil, &models.CodedError{
			Code:    models.ErrCodeInvalidMarket,
			Message: fmt.Sprintf("unsupported bet_type %q (want spread, moneyline, total or player_prop)", req.BetType),
			Field:   "bet_type",
		}
	}
	if strings.TrimSpace(req.Selection) == "" {
		return nil, &models.CodedError{
			Code:    models.ErrCodeValidation,
			Message: "selection is required",
			Field:   "selection",
		}
	}
	if req.Book != "" && !req.Book.Valid() {
		return nil, &models.CodedError{
			Code:    models.ErrCodeValidation,
			Message: fmt.Sprintf("unknown book %q", req.Book),
			Field:   "book",
		}
	}
	event, ok := data.EventByID(req.GameID)
	if !ok {
		return nil, &models.CodedError{
			Code:    models.ErrCodeNotFound,
			Message: fmt.Sprintf("game %q is not on the %s slate for %s", req.GameID, data.Sport, data.DateStr),
			Field:   "game_id",
		}
	}

	sel, side := splitSide(req.Selection, kind)
	outcomes := collect(data, onlyEvent(event.EventID), onlyKind(kind), onlySelection(sel, side))
	if len(outcomes) == 0 {
		return nil, &models.CodedError{
			Code:    models.ErrCodeNotFound,
			Message: fmt.Sprintf("no %s outcome matching %q on %s", kind.PickType(), req.Selection, event.Matchup()),
			Field:   "selection",
		}
	}
	// Ambiguous selections ("james" matching two players) are rejected so a
	// slip never silently binds to the wrong outcome. Books posting the same
	// outcome at different numbers are not ambiguous; the consensus line wins.
	if n := distinctIdentities(outcomes); n > 1 {
		return nil, &models.CodedError{
			Code:    models.ErrCodeValidation,
			Message: fmt.Sprintf("selection %q matches %d outcomes on %s", req.Selection, n, event.Matchup()),
			Field:   "selection",
		}
	}
	out := pickConsensus(outcomes)

	slip := &Betslip{
		Sport:     data.Sport,
		GameID:    event.EventID,
		Matchup:   event.Matchup(),
		BetType:   kind.PickType(),
		Selection: out.Selection,
		Line:      out.Line,
		Side:      out.Side,
	}
	if req.Book != "" {
		slip.Book = req.Book
		if offer, ok := out.offerAt(req.Book); ok {
			slip.OddsAmerican = models.OddsPtr(offer.OddsAmerican)
		}
	} else {
		slip.Book = out.Best.Book
		slip.OddsAmerican = models.OddsPtr(out.Best.OddsAmerican)
	}
	if slip.OddsAmerican != nil {
		slip.Odds = models.FormatAmerican(*slip.OddsAmerican)
	}
	slip.Link = DeepLink(slip.Book, data.Sport)
	slip.Bet = betLabel(kind, out, slip.OddsAmerican)
	return slip, nil
}

// distinctIdentities counts unique (selection, prop market, side) tuples;
// line values are deliberately ignored.
func distinctIdentities(outs []Outcome) int {
	seen := make(map[string]struct{}, len(outs))
	for _, o := range outs {
		seen[o.Selection+"|"+o.PropMarket+"|"+string(o.Side)] = struct{}{}
	}
	return len(seen)
}

// pickConsensus arbitrates a line split: the number carried by the most
// books wins, earlier sort order breaking ties.
func pickConsensus(outs []Outcome) Outcome {
	best := outs[0]
	for _, o := range outs[1:] {
		if len(o.Offers) > len(best.Offers) {
			best = o
		}
	}
	return best
}

// kindFromBetType maps the lowercase wire form back to a market kind.
func kindFromBetType(betType string) (models.MarketKind, bool) {
	switch strings.ToLower(strings.TrimSpace(betType)) {
	case "spread", "spreads":
		return models.MarketSpread, true
	case "moneyline", "ml", "h2h":
		return models.MarketMoneyline, true
	case "total", "totals":
		return models.MarketTotal, true
	case "player_prop", "prop", "props":
		return models.MarketPlayerProp, true
	}
	return "", false
}

// splitSide pulls a trailing or standalone over/under word out of the
// selection for markets that have sides. "over" alone selects the over;
// "LeBron James under" selects the under on that player.
func splitSide(selection string, kind models.MarketKind) (string, models.OverUnder) {
	if kind != models.MarketTotal && kind != models.MarketPlayerProp {
		return strings.TrimSpace(selection), ""
	}
	fields := strings.Fields(strings.ToLower(selection))
	if len(fields) == 0 {
		return "", ""
	}
	last := fields[len(fields)-1]
	switch last {
	case "over":
		return strings.TrimSpace(strings.Join(fields[:len(fields)-1], " ")), models.Over
	case "under":
		return strings.TrimSpace(strings.Join(fields[:len(fields)-1], " ")), models.Under
	}
	// No side named defaults to the over.
	return strings.TrimSpace(selection), models.Over
}

// betLabel renders the one-line instruction shown on the slip.
func betLabel(kind models.MarketKind, out Outcome, odds *int) string {
	var core string
	switch kind {
	case models.MarketSpread:
		core = out.Selection
		if out.Line != nil {
			core = fmt.Sprintf("%s %+.1f", out.Selection, *out.Line)
		}
	case models.MarketMoneyline:
		core = out.Selection + " ML"
	case models.MarketTotal:
		core = sideWord(out.Side)
		if out.Line != nil {
			core = fmt.Sprintf("%s %.1f", core, *out.Line)
		}
	case models.MarketPlayerProp:
		core = strings.TrimSpace(out.Selection + " " + sideWord(out.Side))
		if out.Line != nil {
			core = fmt.Sprintf("%s %.1f", core, *out.Line)
		}
		if out.PropMarket != "" {
			core = core + " " + out.PropMarket
		}
	default:
		core = out.Selection
	}
	if odds != nil {
		return fmt.Sprintf("%s (%+d)", core, *odds)
	}
	return core
}

func sideWord(side models.OverUnder) string {
	if side == models.Under {
		return "Under"
	}
	return "Over"
}
