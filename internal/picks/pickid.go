// Package picks renders candidates into the canonical PickCard, builds the
// debug receipt behind each card, and owns the deterministic pick id.
package picks

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/slatepick/slatepick/internal/models"
)

// PickID derives the deterministic id for one outcome. Same inputs always
// hash to the same id; the line renders with one decimal and is empty when
// absent so moneylines stay stable.
func PickID(eventID string, kind models.MarketKind, selection string, line *float64, ou models.OverUnder) string {
	lineStr := ""
	if line != nil {
		lineStr = strconv.FormatFloat(*line, 'f', 1, 64)
	}
	key := strings.Join([]string{eventID, string(kind), selection, lineStr, string(ou)}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// ComputeID derives the pick id from a candidate's identity fields.
func ComputeID(c models.Candidate) string {
	return PickID(c.EventID, c.MarketKind, c.Selection, c.Line, c.OverUnder)
}
