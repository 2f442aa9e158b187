// Package ai scores candidates with an 8-sub-model ensemble over the slate's
// numeric features, with a deterministic heuristic fallback when the ensemble
// output degenerates.
package ai

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
)

// Degeneracy bounds: a batch whose scores bunch inside a narrow high band is
// an ensemble failure, not a hot slate.
const (
	degenerateStddev = 0.3
	degenerateLow    = 7.0
	degenerateHigh   = 8.5
)

// Variance floor for batches of 5 or more candidates.
const (
	varianceMinUnique = 4
	varianceMinStddev = 0.15
)

// modelWeights is the factory ensemble blend. Confidence scales each weight
// at blend time, so a model with no data fades instead of dragging the score.
var modelWeights = map[models.AIModel]float64{
	models.ModelLineMovement: 0.16,
	models.ModelMatchup:      0.15,
	models.ModelRest:         0.10,
	models.ModelInjury:       0.12,
	models.ModelBettingEdge:  0.15,
	models.ModelMonteCarlo:   0.12,
	models.ModelPaceDefense:  0.10,
	models.ModelPropHistory:  0.10,
}

// marginSigma is the per-sport standard deviation of final margins the quick
// sim uses for cover probabilities.
var marginSigma = map[models.Sport]float64{
	models.SportNBA:   12.0,
	models.SportNFL:   13.5,
	models.SportMLB:   4.2,
	models.SportNHL:   2.3,
	models.SportNCAAB: 11.0,
}

// Engine is the AI scoring engine. Safe for concurrent use.
type Engine struct {
	tuning config.Tuning
	log    zerolog.Logger
}

// New builds the engine over the loaded tuning.
func New(tuning config.Tuning, log zerolog.Logger) *Engine {
	return &Engine{tuning: tuning, log: log.With().Str("engine", "ai").Logger()}
}

// ScoreSlate scores every candidate. Results align with the input slice.
// Degenerate ensemble output flips the whole batch to the heuristic
// fallback, and a batch of 5 or more that fails the variance floor does the
// same.
func (e *Engine) ScoreSlate(data *models.SlateData, cands []models.Candidate) []models.AIResult {
	out := make([]models.AIResult, len(cands))
	for i := range cands {
		out[i] = e.ensemble(data, cands[i])
	}

	if e.degenerate(out) {
		e.log.Warn().Int("candidates", len(cands)).Msg("ensemble output degenerate, using heuristic fallback")
		e.fallbackBatch(cands, out, "ensemble degenerate")
		return out
	}
	if len(cands) >= 5 && !e.varied(out) {
		e.log.Warn().Int("candidates", len(cands)).Msg("ensemble variance below floor, using heuristic fallback")
		e.fallbackBatch(cands, out, "variance below floor")
	}
	return out
}

func (e *Engine) fallbackBatch(cands []models.Candidate, out []models.AIResult, reason string) {
	for i := range cands {
		out[i] = e.Heuristic(cands[i])
		out[i].FallbackNote = reason + "; " + out[i].FallbackNote
	}
}

// ensemble runs all 8 sub-models and blends them by confidence-scaled
// weight.
func (e *Engine) ensemble(data *models.SlateData, c models.Candidate) models.AIResult {
	results := []models.ModelResult{
		e.lineMovement(data, c),
		e.matchup(data, c),
		e.rest(data, c),
		e.injury(data, c),
		e.bettingEdge(data, c),
		e.monteCarlo(data, c),
		e.paceDefense(data, c),
		e.propHistory(data, c),
	}

	var weightSum float64
	for i := range results {
		results[i].Weight = modelWeights[results[i].Model]
		weightSum += results[i].Weight * results[i].Confidence
	}

	res := models.AIResult{
		Models:        results,
		Contributions: make(map[models.AIModel]float64, len(results)),
	}
	if weightSum <= 0 {
		res.Score = 5.0
		return res
	}
	var score float64
	for _, m := range results {
		contrib := m.Score * m.Weight * m.Confidence / weightSum
		res.Contributions[m.Model] = contrib
		score += contrib
	}
	res.Score = clamp10(score)
	return res
}

// degenerate reports whether the batch bunched inside the suspicious band.
func (e *Engine) degenerate(out []models.AIResult) bool {
	if len(out) < 2 {
		return false
	}
	mean, std := meanStddev(out)
	return std < degenerateStddev && mean >= degenerateLow && mean <= degenerateHigh
}

// varied reports whether the batch satisfies the variance floor: at least 4
// distinct scores at 2-decimal precision and a stddev of 0.15 or more.
func (e *Engine) varied(out []models.AIResult) bool {
	unique := make(map[float64]struct{}, len(out))
	for _, r := range out {
		unique[math.Round(r.Score*100)/100] = struct{}{}
	}
	if len(unique) < varianceMinUnique {
		return false
	}
	_, std := meanStddev(out)
	return std >= varianceMinStddev
}

func meanStddev(out []models.AIResult) (float64, float64) {
	if len(out) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range out {
		sum += r.Score
	}
	mean := sum / float64(len(out))
	var sq float64
	for _, r := range out {
		d := r.Score - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(out)))
}

// Heuristic is the deterministic fallback scorer: a hash base from the
// matchup plus market-shape bonuses. Exported so the pipeline can use it
// directly when the ensemble never ran.
func (e *Engine) Heuristic(c models.Candidate) models.AIResult {
	base := 4.0 + float64(hash32(c.HomeTeam+"|"+c.AwayTeam)%300)/100.0
	salt := float64(hash32(c.Selection+string(c.MarketKind))%10) / 100.0

	var spread, total, ml float64
	switch c.MarketKind {
	case models.MarketSpread:
		if c.Line != nil {
			spread = goldilocksBonus(math.Abs(*c.Line))
		}
	case models.MarketTotal:
		if c.Line != nil {
			total = e.totalBandBonus(c.Sport, *c.Line)
		}
	case models.MarketMoneyline:
		if p, ok := models.ImpliedProbPtr(c.OddsAmerican); ok {
			ml = moneylineAdjust(p)
		}
	}

	score := clamp10(base + salt + spread + total + ml)
	return models.AIResult{
		Score:        score,
		UsedFallback: true,
		FallbackNote: fmt.Sprintf("heuristic base=%.2f spread=%.1f total=%.1f ml=%.1f", base+salt, spread, total, ml),
	}
}

// goldilocksBonus rewards the mid-size spread band and zeroes out the trap
// zone at 14 and beyond.
func goldilocksBonus(abs float64) float64 {
	switch {
	case abs >= 14:
		return 0.0
	case abs > 9:
		return 0.3
	case abs >= 4:
		return 1.5
	case abs >= 3:
		return 1.0
	default:
		return 0.5
	}
}

// totalBandBonus pays the full bonus inside the sport's total band and soft
// bonuses in tails extending 10% and 25% of the band width beyond it.
func (e *Engine) totalBandBonus(sport models.Sport, line float64) float64 {
	p := e.tuning.Profile(sport)
	if p.TotalBandLow <= 0 || p.TotalBandHigh <= p.TotalBandLow {
		return 0
	}
	width := p.TotalBandHigh - p.TotalBandLow
	switch {
	case line >= p.TotalBandLow && line <= p.TotalBandHigh:
		return 0.5
	case line >= p.TotalBandLow-width*0.10 && line <= p.TotalBandHigh+width*0.10:
		return 0.3
	case line >= p.TotalBandLow-width*0.25 && line <= p.TotalBandHigh+width*0.25:
		return 0.1
	default:
		return 0
	}
}

// moneylineAdjust scores implied probability: modest favorites carry the
// edge, heavy chalk and longshots give it back.
func moneylineAdjust(p float64) float64 {
	switch {
	case p >= 0.45 && p <= 0.65:
		return 0.8
	case p > 0.75:
		return -0.5
	case p < 0.35:
		return -0.3
	default:
		return 0.3
	}
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
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

func clampBand(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
