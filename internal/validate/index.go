package validate

import (
	"fmt"
	"strings"

	"github.com/slatepick/slatepick/internal/models"
)

// MarketIndex is the set of prop markets the board currently lists, keyed by
// (sport, game_id, player|market, line, side) with case-folded names.
type MarketIndex struct {
	keys map[string]struct{}
}

// BuildIndex folds the listed offers into an index. Offers missing a player
// or market are skipped.
func BuildIndex(offers []models.PropOffer) *MarketIndex {
	ix := &MarketIndex{keys: make(map[string]struct{}, len(offers))}
	for _, o := range offers {
		if o.PlayerName == "" || o.Market == "" {
			continue
		}
		ix.keys[indexKey(o.Sport, o.GameID, o.PlayerName, o.Market, o.Line, o.Side)] = struct{}{}
	}
	return ix
}

// Empty reports whether the board gave us nothing to check against.
func (ix *MarketIndex) Empty() bool {
	return len(ix.keys) == 0
}

// Listed reports whether the candidate's exact prop market is on the board.
func (ix *MarketIndex) Listed(c models.Candidate) bool {
	if c.Player == nil || c.Line == nil {
		return false
	}
	_, ok := ix.keys[indexKey(c.Sport, c.GameID, c.Player.PlayerName, c.Market, *c.Line, c.OverUnder)]
	return ok
}

func indexKey(sport models.Sport, gameID, player, market string, line float64, side models.OverUnder) string {
	return fmt.Sprintf("%s|%s|%s|%s|%.1f|%s",
		strings.ToLower(string(sport)),
		strings.ToLower(strings.TrimSpace(gameID)),
		normalizeName(player),
		normalizeName(market),
		line,
		side)
}

// normalizeName lowercases, strips periods and apostrophes, and collapses
// runs of whitespace, so "LEBRON JAMES" and "LeBron  James" key identically.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(".", "", "'", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
