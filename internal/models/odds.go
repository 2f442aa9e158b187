package models

import (
	"fmt"
	"math"
)

// American odds are signed integers (-110, +150). Absent odds stay nil end to
// end; nothing in the pipeline substitutes a house default.

// ImpliedProb converts American odds to implied probability in [0,1].
func ImpliedProb(odds int) float64 {
	if odds == 0 {
		return 0
	}
	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0)
	}
	a := math.Abs(float64(odds))
	return a / (a + 100.0)
}

// ImpliedProbPtr is ImpliedProb over optional odds; nil yields (0,false).
func ImpliedProbPtr(odds *int) (float64, bool) {
	if odds == nil {
		return 0, false
	}
	return ImpliedProb(*odds), true
}

// FormatAmerican renders odds with an explicit sign ("+150", "-110").
func FormatAmerican(odds int) string {
	if odds > 0 {
		return fmt.Sprintf("+%d", odds)
	}
	return fmt.Sprintf("%d", odds)
}

// DecimalFromAmerican converts to decimal (European) odds for payout math.
func DecimalFromAmerican(odds int) float64 {
	if odds == 0 {
		return 0
	}
	if odds > 0 {
		return 1 + float64(odds)/100.0
	}
	return 1 + 100.0/math.Abs(float64(odds))
}

// OddsPtr is a convenience for literal optional odds.
func OddsPtr(v int) *int { return &v }

// LinePtr is a convenience for literal optional lines.
func LinePtr(v float64) *float64 { return &v }
