// Package jarvis scores candidates on sacred-number triggers over the
// gematria of the matchup, amplified by spread shape. It never reads public
// betting percentages; market psychology belongs to research.
package jarvis

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/gematria"
	"github.com/slatepick/slatepick/internal/models"
)

// titaniumTriggers are the direct-match numbers, in canonical order.
var titaniumTriggers = []int{2178, 201, 33, 93, 322, 666, 888, 369, 1656, 552, 138}

// Per-hit boost weights. The summed boost caps at maxBoost before mapping
// into score space.
const (
	titaniumBoost  = 6.0
	powerBoost     = 3.0
	teslaBoost     = 1.5
	harmonicBoost  = 2.0
	maxBoost       = 20.0
	trapPenalty    = 4.0
	baseScoreSpace = 8.0
)

// Engine is the Jarvis scoring engine. Safe for concurrent use.
type Engine struct {
	tuning config.Tuning
	log    zerolog.Logger
}

// New builds the engine over the loaded tuning.
func New(tuning config.Tuning, log zerolog.Logger) *Engine {
	return &Engine{tuning: tuning, log: log.With().Str("engine", "jarvis").Logger()}
}

// Score evaluates the candidate's gematria against the trigger tables. The
// esoteric result is read only for the fibonacci and vortex trigger flags
// that make up harmonic convergence.
func (e *Engine) Score(c models.Candidate, eso models.EsotericResult) models.JarvisResult {
	values, reduced := e.cipherValues(c)

	res := models.JarvisResult{}
	for _, trig := range titaniumTriggers {
		if values[trig] {
			res.TitaniumCount++
			res.Triggers = append(res.Triggers, fmt.Sprintf("TITANIUM:%d", trig))
		}
	}

	var powerHits int
	for v := 11; v <= 99; v += 11 {
		if v == 33 {
			// 33 already counts as titanium.
			continue
		}
		if values[v] {
			powerHits++
			res.Triggers = append(res.Triggers, fmt.Sprintf("POWER:%d", v))
		}
	}

	var teslaHits int
	teslaSeen := make(map[int]bool)
	for _, r := range reduced {
		digit := r % 10
		if (digit == 3 || digit == 6 || digit == 9) && !teslaSeen[r] {
			teslaSeen[r] = true
			teslaHits++
		}
	}
	for _, r := range sortedKeys(teslaSeen) {
		res.Triggers = append(res.Triggers, fmt.Sprintf("TESLA:%d", r))
	}

	boost := float64(res.TitaniumCount)*titaniumBoost + float64(powerHits)*powerBoost + float64(teslaHits)*teslaBoost

	if harmonicConvergence(res.TitaniumCount+powerHits, eso) {
		boost += harmonicBoost
		res.Triggers = append(res.Triggers, "HARMONIC_CONVERGENCE")
	}
	if boost > maxBoost {
		boost = maxBoost
	}

	res.HitsCount = res.TitaniumCount + powerHits + teslaHits
	res.Active = res.HitsCount > 0

	score := boost / maxBoost * baseScoreSpace
	score *= e.goldilocksAmplifier(c)

	if spread, ok := spreadLine(c); ok && math.Abs(spread) > 15 {
		score -= trapPenalty
		res.Triggers = append(res.Triggers, "TRAP_GATE")
	}

	score *= e.tuning.Profile(c.Sport).VarianceFactor
	res.Score = clamp10(score)
	return res
}

// cipherValues builds the full value set and the reduced set over home,
// away and the pick subject.
func (e *Engine) cipherValues(c models.Candidate) (map[int]bool, []int) {
	subject := c.Selection
	if c.Player != nil && c.Player.PlayerName != "" {
		subject = c.Player.PlayerName
	}
	profiles := []gematria.Profile{
		gematria.Read(c.HomeTeam),
		gematria.Read(c.AwayTeam),
		gematria.Read(subject),
	}

	values := make(map[int]bool)
	var reduced []int
	for _, p := range profiles {
		for _, v := range p.Values() {
			values[v] = true
		}
		reduced = append(reduced, p.SimpleReduced, p.ReverseRedux)
	}
	// Matchup composites reach the large triggers single names cannot.
	values[profiles[0].Simple+profiles[1].Simple] = true
	values[profiles[0].Reverse+profiles[1].Reverse] = true
	return values, reduced
}

// goldilocksAmplifier scales hits by spread shape: the mid band amplifies,
// everything else passes through.
func (e *Engine) goldilocksAmplifier(c models.Candidate) float64 {
	spread, ok := spreadLine(c)
	if !ok {
		return 1.0
	}
	abs := math.Abs(spread)
	switch {
	case abs >= 4 && abs <= 9:
		return 1.25
	case abs >= 3:
		return 1.1
	default:
		return 1.0
	}
}

// harmonicConvergence is a gematria hit landing together with triggered
// fibonacci and vortex signals.
func harmonicConvergence(gematriaHits int, eso models.EsotericResult) bool {
	if gematriaHits == 0 || eso.Breakdown == nil {
		return false
	}
	return eso.Breakdown[models.SignalFibonacci].Triggered && eso.Breakdown[models.SignalVortex].Triggered
}

func spreadLine(c models.Candidate) (float64, bool) {
	if c.MarketKind != models.MarketSpread || c.Line == nil {
		return 0, false
	}
	return *c.Line, true
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
