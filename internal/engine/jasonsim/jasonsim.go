// Package jasonsim is the post-pick confluence layer: a deterministic Monte
// Carlo game sim plus injury-adjusted alignment that can BOOST, DOWNGRADE or
// BLOCK a scored candidate. It never reads odds; price knowledge stays in
// the scoring engines.
package jasonsim

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
)

// defaultIterations is the sim depth per event.
const defaultIterations = 10000

// Boost ladder.
const (
	strongBoost     = 3.0
	moderateBoost   = 1.0
	downgradeBoost  = -1.0
	blockBoost      = -3.0
	strongAlign     = 0.90
	moderateAlign   = 0.70
	downgradeSlack  = 0.05
	blockSlack      = 0.15
	homeCourtPoints = 1.5
	injuryPoints    = 1.5
)

// marginSigma is the per-sport final-margin deviation driving the draws.
var marginSigma = map[models.Sport]float64{
	models.SportNBA:   12.0,
	models.SportNFL:   13.5,
	models.SportMLB:   4.2,
	models.SportNHL:   2.3,
	models.SportNCAAB: 11.0,
}

// Engine runs the confluence layer. Safe for concurrent use; every call
// builds its own seeded generator.
type Engine struct {
	tuning     config.Tuning
	iterations int
	log        zerolog.Logger
}

// New builds the engine over the loaded tuning.
func New(tuning config.Tuning, log zerolog.Logger) *Engine {
	return &Engine{
		tuning:     tuning,
		iterations: defaultIterations,
		log:        log.With().Str("engine", "jasonsim").Logger(),
	}
}

// Simulate runs the Monte Carlo for the candidate's game. The seed derives
// from the event id, so reruns reproduce exactly. CoverPct is the fraction
// of sims in which this candidate's side wins its market.
func (e *Engine) Simulate(data *models.SlateData, c models.Candidate) models.SimSummary {
	home, hok := data.TeamStats[c.HomeTeam]
	away, aok := data.TeamStats[c.AwayTeam]
	if !hok || !aok {
		return models.SimSummary{}
	}

	sigma := marginSigma[c.Sport]
	if sigma == 0 {
		sigma = 10
	}
	// High-variance sports and fast-paced matchups widen the draws.
	effSigma := sigma * e.tuning.Profile(c.Sport).VarianceFactor * paceFactor(home, away)
	teamSigma := effSigma / math.Sqrt2

	// Confirmed absences only: OUT and SUSPENDED shave expected points,
	// speculative designations never move the sim.
	homeOut, awayOut := confirmedOut(data, c.HomeTeam, c.AwayTeam)
	expHome := (home.PointsPG+away.DefRating)/2 + homeCourtPoints - float64(homeOut)*injuryPoints
	expAway := (away.PointsPG+home.DefRating)/2 - homeCourtPoints - float64(awayOut)*injuryPoints

	rng := rand.New(rand.NewSource(seedFor(c.EventID)))

	var homeWins, covers int
	var totalSum float64
	for i := 0; i < e.iterations; i++ {
		h := expHome + rng.NormFloat64()*teamSigma
		a := expAway + rng.NormFloat64()*teamSigma
		if h > a {
			homeWins++
		}
		if pickWins(c, h, a) {
			covers++
		}
		totalSum += h + a
	}

	n := float64(e.iterations)
	return models.SimSummary{
		HomeWinPct:     float64(homeWins) / n,
		CoverPct:       float64(covers) / n,
		ProjectedTotal: totalSum / n,
		VarianceFlag:   effSigma > sigma*1.12,
		Iterations:     e.iterations,
	}
}

// paceFactor scales sigma by matchup tempo when pace numbers exist.
func paceFactor(home, away models.TeamStats) float64 {
	if home.Pace <= 0 || away.Pace <= 0 {
		return 1.0
	}
	f := (home.Pace + away.Pace) / 2 / 100
	if f < 0.9 {
		return 0.9
	}
	if f > 1.15 {
		return 1.15
	}
	return f
}

// Evaluate scores the confluence verdict for one fully scored candidate.
// baseScore is the blended engine score before any confluence boost.
func (e *Engine) Evaluate(data *models.SlateData, c models.Candidate, baseScore float64) models.JasonSimResult {
	pickType := c.MarketKind.PickType()

	if c.MarketKind == models.MarketPlayerProp {
		return e.evaluateProp(data, c, baseScore, pickType)
	}

	sim := e.Simulate(data, c)
	if sim.Iterations == 0 {
		return models.JasonSimResult{
			Verdict:   models.SimNeutral,
			Alignment: 0.5,
			Reasons:   []string{fmt.Sprintf("no simulation inputs for %s pick", pickType)},
		}
	}
	return e.verdict(c, sim, sim.CoverPct, baseScore, pickType)
}

// evaluateProp aligns a prop against the player's trend; the game sim has
// no per-player resolution.
func (e *Engine) evaluateProp(data *models.SlateData, c models.Candidate, baseScore float64, pickType string) models.JasonSimResult {
	if c.Player == nil {
		return models.JasonSimResult{
			Verdict:   models.SimNeutral,
			Alignment: 0.5,
			Reasons:   []string{"no player attached to player_prop pick"},
		}
	}
	trend, ok := data.PropTrends[models.PropTrendKey(c.Player.PlayerName, c.Market)]
	if !ok || trend.Games == 0 {
		return models.JasonSimResult{
			Verdict:   models.SimNeutral,
			Alignment: 0.5,
			Reasons:   []string{fmt.Sprintf("no trend history for %s pick", pickType)},
		}
	}
	alignment := trend.HitRate
	if c.OverUnder == models.Under {
		alignment = 1 - trend.HitRate
	}
	return e.verdict(c, models.SimSummary{}, alignment, baseScore, pickType)
}

// verdict applies the boost ladder in order: STRONG, MODERATE, then the
// shortfall checks against what the base score implies.
func (e *Engine) verdict(c models.Candidate, sim models.SimSummary, alignment, baseScore float64, pickType string) models.JasonSimResult {
	res := models.JasonSimResult{Alignment: alignment, Sim: sim, Verdict: models.SimNeutral}

	required := impliedNeed(baseScore)
	switch {
	case alignment >= strongAlign && anyActiveSignal(c):
		res.Boost = strongBoost
		res.Verdict = models.SimBoost
		res.Reasons = append(res.Reasons, fmt.Sprintf("STRONG: sim aligns %.0f%% with %s pick and signals are live", alignment*100, pickType))
	case alignment >= moderateAlign:
		res.Boost = moderateBoost
		res.Verdict = models.SimBoost
		res.Reasons = append(res.Reasons, fmt.Sprintf("MODERATE: sim aligns %.0f%% with %s pick", alignment*100, pickType))
	case alignment < required-blockSlack:
		res.Boost = blockBoost
		res.Verdict = models.SimBlock
		res.Reasons = append(res.Reasons, fmt.Sprintf("sim win %.0f%% far below the %.0f%% a %.1f-rated %s pick implies", alignment*100, required*100, baseScore, pickType))
	case alignment < required-downgradeSlack:
		res.Boost = downgradeBoost
		res.Verdict = models.SimDowngrade
		res.Reasons = append(res.Reasons, fmt.Sprintf("sim win %.0f%% below the %.0f%% a %.1f-rated %s pick implies", alignment*100, required*100, baseScore, pickType))
	default:
		res.Reasons = append(res.Reasons, fmt.Sprintf("sim neutral on %s pick", pickType))
	}
	if sim.VarianceFlag {
		res.Reasons = append(res.Reasons, "variance flag: wide outcome distribution")
	}
	return res
}

// impliedNeed maps a base score to the sim win rate it implicitly claims.
func impliedNeed(baseScore float64) float64 {
	return 0.40 + baseScore/10*0.35
}

// anyActiveSignal reports whether the candidate carries a live trigger from
// Jarvis or the esoteric breakdown.
func anyActiveSignal(c models.Candidate) bool {
	if c.Breakdown.Jarvis.Active || c.TitaniumTriggered {
		return true
	}
	for _, sr := range c.Breakdown.Esoteric.Breakdown {
		if sr.Triggered {
			return true
		}
	}
	return false
}

// pickWins resolves one simulated game against the candidate's market.
func pickWins(c models.Candidate, h, a float64) bool {
	homeSide := strings.EqualFold(c.PickSide, c.HomeTeam)
	switch c.MarketKind {
	case models.MarketMoneyline:
		if homeSide {
			return h > a
		}
		return a > h
	case models.MarketSpread:
		if c.Line == nil {
			return false
		}
		if homeSide {
			return h+*c.Line > a
		}
		return a+*c.Line > h
	case models.MarketTotal:
		if c.Line == nil {
			return false
		}
		if c.OverUnder == models.Under {
			return h+a < *c.Line
		}
		return h+a > *c.Line
	}
	return false
}

// confirmedOut counts OUT or SUSPENDED players per side.
func confirmedOut(data *models.SlateData, homeTeam, awayTeam string) (int, int) {
	var home, away int
	for _, rec := range data.Injuries {
		if !rec.Blocking() {
			continue
		}
		switch {
		case strings.EqualFold(rec.Team, homeTeam):
			home++
		case strings.EqualFold(rec.Team, awayTeam):
			away++
		}
	}
	return home, away
}

func seedFor(eventID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(eventID))
	return int64(h.Sum64())
}
