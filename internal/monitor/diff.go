package monitor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
)

// Movement thresholds in implied percentage points and line points.
const (
	oddsMoveWarnPct  = 1.5
	oddsMoveAlertPct = 3.0
	lineMoveWarn     = 0.5
	lineMoveAlert    = 1.0
)

// Change is one emitted monitor event, shaped for the websocket feed.
type Change struct {
	Type     models.ChangeType `json:"type"`
	Severity models.Severity   `json:"severity"`
	Sport    models.Sport      `json:"sport"`
	PickID   string            `json:"pick_id,omitempty"`
	EventID  string            `json:"event_id,omitempty"`
	Label    string            `json:"label"`
	Previous string            `json:"previous,omitempty"`
	Current  string            `json:"current,omitempty"`
	Delta    float64           `json:"delta,omitempty"`
	At       string            `json:"at"`
}

// Diff compares two snapshots of the same sport and returns the change
// events, ordered by the next snapshot's pick order. A nil previous snapshot
// is the first run and produces nothing; identical snapshots produce nothing.
func Diff(prev, next *Snapshot, at time.Time) []Change {
	if prev == nil || next == nil {
		return nil
	}
	ts := clock.ISO(at)
	var out []Change

	prevByID := make(map[string]SnapPick, len(prev.Picks))
	for _, sp := range prev.Picks {
		prevByID[sp.PickID] = sp
	}
	nextByID := make(map[string]SnapPick, len(next.Picks))
	for _, sp := range next.Picks {
		nextByID[sp.PickID] = sp
	}

	for _, np := range next.Picks {
		pp, ok := prevByID[np.PickID]
		if !ok {
			out = append(out, Change{
				Type:     addType(np.MarketKind),
				Severity: models.SeverityInfo,
				Sport:    next.Sport,
				PickID:   np.PickID,
				EventID:  np.EventID,
				Label:    pickLabel(np),
				Current:  string(np.Tier),
				At:       ts,
			})
			continue
		}
		out = append(out, diffPick(next.Sport, pp, np, ts)...)
	}

	for _, pp := range prev.Picks {
		if _, ok := nextByID[pp.PickID]; ok {
			continue
		}
		out = append(out, Change{
			Type:     removeType(pp.MarketKind),
			Severity: models.SeverityWarning,
			Sport:    next.Sport,
			PickID:   pp.PickID,
			EventID:  pp.EventID,
			Label:    pickLabel(pp),
			Previous: string(pp.Tier),
			At:       ts,
		})
	}

	out = append(out, diffInjuries(next.Sport, prev.Metadata.Injuries, next.Metadata.Injuries, ts)...)
	return out
}

// diffPick compares one pick present in both snapshots: odds, line, tier.
func diffPick(sport models.Sport, pp, np SnapPick, ts string) []Change {
	var out []Change

	if pp.OddsAmerican != nil && np.OddsAmerican != nil && *pp.OddsAmerican != *np.OddsAmerican {
		delta := math.Abs(impliedPct(*np.OddsAmerican)-impliedPct(*pp.OddsAmerican)) * 100
		if sev, moved := oddsSeverity(delta); moved {
			out = append(out, Change{
				Type:     models.ChangeOddsMove,
				Severity: sev,
				Sport:    sport,
				PickID:   np.PickID,
				EventID:  np.EventID,
				Label:    pickLabel(np),
				Previous: fmt.Sprintf("%+d", *pp.OddsAmerican),
				Current:  fmt.Sprintf("%+d", *np.OddsAmerican),
				Delta:    delta,
				At:       ts,
			})
		}
	}

	if pp.Line != nil && np.Line != nil && *pp.Line != *np.Line {
		delta := math.Abs(*np.Line - *pp.Line)
		if sev, moved := lineSeverity(delta); moved {
			kind := models.ChangeLineMove
			if np.MarketKind == models.MarketPlayerProp {
				kind = models.ChangePropLineMove
			}
			out = append(out, Change{
				Type:     kind,
				Severity: sev,
				Sport:    sport,
				PickID:   np.PickID,
				EventID:  np.EventID,
				Label:    pickLabel(np),
				Previous: fmt.Sprintf("%.1f", *pp.Line),
				Current:  fmt.Sprintf("%.1f", *np.Line),
				Delta:    delta,
				At:       ts,
			})
		}
	}

	if pp.Tier != np.Tier {
		sev := models.SeverityWarning
		if tierRank(np.Tier) > tierRank(pp.Tier) {
			sev = models.SeverityInfo
		}
		out = append(out, Change{
			Type:     models.ChangeTierChange,
			Severity: sev,
			Sport:    sport,
			PickID:   np.PickID,
			EventID:  np.EventID,
			Label:    pickLabel(np),
			Previous: string(pp.Tier),
			Current:  string(np.Tier),
			At:       ts,
		})
	}
	return out
}

// diffInjuries flags status flips for players reported in the new snapshot.
// A report that simply disappears stays quiet; feeds drop rows routinely.
func diffInjuries(sport models.Sport, prev, next []InjurySnap, ts string) []Change {
	if len(next) == 0 {
		return nil
	}
	prevByName := make(map[string]InjurySnap, len(prev))
	for _, in := range prev {
		prevByName[strings.ToLower(in.PlayerName)] = in
	}

	var out []Change
	for _, in := range next {
		before, had := prevByName[strings.ToLower(in.PlayerName)]
		if had && before.Status == in.Status {
			continue
		}
		prevLabel := "NONE"
		if had {
			prevLabel = string(before.Status)
		}
		kind := models.ChangeInjuryFlip
		sev := models.SeverityWarning
		if sport == models.SportNHL && isGoalie(in.Position) {
			kind = models.ChangeGoalieStatus
			sev = models.SeverityAlert
		}
		out = append(out, Change{
			Type:     kind,
			Severity: sev,
			Sport:    sport,
			Label:    in.PlayerName + " (" + in.Team + ")",
			Previous: prevLabel,
			Current:  string(in.Status),
			At:       ts,
		})
	}
	return out
}

// impliedPct converts an American price to its implied probability in [0,1].
func impliedPct(odds int) float64 {
	if odds == 0 {
		return 0
	}
	if odds < 0 {
		o := float64(-odds)
		return o / (o + 100)
	}
	return 100 / (float64(odds) + 100)
}

func oddsSeverity(deltaPct float64) (models.Severity, bool) {
	switch {
	case deltaPct >= oddsMoveAlertPct:
		return models.SeverityAlert, true
	case deltaPct >= oddsMoveWarnPct:
		return models.SeverityWarning, true
	default:
		return "", false
	}
}

func lineSeverity(delta float64) (models.Severity, bool) {
	switch {
	case delta >= lineMoveAlert:
		return models.SeverityAlert, true
	case delta >= lineMoveWarn:
		return models.SeverityWarning, true
	default:
		return "", false
	}
}

func tierRank(t models.Tier) int {
	switch t {
	case models.TierTitaniumSmash:
		return 4
	case models.TierGoldStar:
		return 3
	case models.TierEdgeLean:
		return 2
	case models.TierMonitor:
		return 1
	default:
		return 0
	}
}

func addType(kind models.MarketKind) models.ChangeType {
	if kind == models.MarketPlayerProp {
		return models.ChangePropAdded
	}
	return models.ChangePickAdded
}

func removeType(kind models.MarketKind) models.ChangeType {
	if kind == models.MarketPlayerProp {
		return models.ChangePropRemoved
	}
	return models.ChangePickRemoved
}

func isGoalie(position string) bool {
	return strings.EqualFold(position, "G") || strings.EqualFold(position, "Goalie")
}

// pickLabel renders a compact bet identity for event payloads and logs.
func pickLabel(sp SnapPick) string {
	var b strings.Builder
	if sp.PlayerName != "" {
		b.WriteString(sp.PlayerName)
	} else {
		b.WriteString(sp.Selection)
	}
	if sp.OverUnder != "" {
		b.WriteString(" ")
		b.WriteString(string(sp.OverUnder))
	}
	if sp.Line != nil {
		fmt.Fprintf(&b, " %.1f", *sp.Line)
	}
	if sp.Market != "" {
		b.WriteString(" ")
		b.WriteString(sp.Market)
	}
	return b.String()
}
