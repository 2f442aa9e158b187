package ai

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/slatepick/slatepick/internal/models"
)

// neutral is the no-signal sub-model verdict.
func neutral(model models.AIModel, conf float64, note string) models.ModelResult {
	return models.ModelResult{Model: model, Score: 5.0, Confidence: conf, Note: note}
}

// lineMovement reads the sampled line history for the candidate's market and
// scores steam toward or away from the pick.
func (e *Engine) lineMovement(data *models.SlateData, c models.Candidate) models.ModelResult {
	hist := data.LineHistory[models.HistoryKey(c.EventID, c.MarketKind)]
	if len(hist) < 2 {
		return neutral(models.ModelLineMovement, 0.2, "insufficient line history")
	}
	delta := hist[len(hist)-1].Line - hist[0].Line
	dir := movementToward(c, delta)
	score := clamp10(5.0 + float64(dir)*math.Min(2.5, math.Abs(delta)*1.2))
	conf := math.Min(0.9, 0.4+0.1*float64(len(hist)))
	return models.ModelResult{
		Model:      models.ModelLineMovement,
		Score:      score,
		Confidence: conf,
		Note:       fmt.Sprintf("line moved %+.1f over %d samples", delta, len(hist)),
	}
}

// movementToward returns +1 when the line moved with the pick, -1 against,
// 0 when direction is undefined for the market.
func movementToward(c models.Candidate, delta float64) int {
	if delta == 0 {
		return 0
	}
	switch c.MarketKind {
	case models.MarketTotal:
		if (c.OverUnder == models.Over) == (delta > 0) {
			return 1
		}
		return -1
	case models.MarketSpread, models.MarketMoneyline:
		// Home line dropping means money on the home side.
		homeSide := strings.EqualFold(c.PickSide, c.HomeTeam)
		if homeSide == (delta < 0) {
			return 1
		}
		return -1
	}
	return 0
}

// matchup compares scoring and defensive profiles of the pick side against
// its opponent.
func (e *Engine) matchup(data *models.SlateData, c models.Candidate) models.ModelResult {
	if c.MarketKind == models.MarketTotal {
		return neutral(models.ModelMatchup, 0.3, "totals defer to pace model")
	}
	pick, opp, ok := pickOpponentStats(data, c)
	if !ok {
		return neutral(models.ModelMatchup, 0.2, "team stats unavailable")
	}
	diff := (pick.PointsPG-opp.PointsPG)*0.5 + (opp.DefRating-pick.DefRating)*0.3
	return models.ModelResult{
		Model:      models.ModelMatchup,
		Score:      clamp10(5.0 + clampBand(diff*0.5, 2.5)),
		Confidence: 0.75,
		Note:       fmt.Sprintf("net profile %+.1f", diff),
	}
}

// rest scores schedule spots. A back-to-back is the dominant negative.
func (e *Engine) rest(data *models.SlateData, c models.Candidate) models.ModelResult {
	pick, opp, ok := pickOpponentStats(data, c)
	if !ok {
		return neutral(models.ModelRest, 0.2, "team stats unavailable")
	}
	var score float64
	switch {
	case pick.BackToBack:
		score = 3.0
	case pick.RestDays >= 3:
		score = 6.5
	case pick.RestDays == 2:
		score = 5.5
	default:
		score = 4.5
	}
	if opp.BackToBack {
		score += 1.0
	}
	return models.ModelResult{
		Model:      models.ModelRest,
		Score:      clamp10(score),
		Confidence: 0.7,
		Note:       fmt.Sprintf("rest %d vs %d", pick.RestDays, opp.RestDays),
	}
}

// injury counts confirmed absences (OUT, SUSPENDED) on both sides.
func (e *Engine) injury(data *models.SlateData, c models.Candidate) models.ModelResult {
	if len(data.Injuries) == 0 {
		return neutral(models.ModelInjury, 0.3, "no injury report")
	}
	pickTeam, oppTeam := pickTeams(c)
	var pickOut, oppOut int
	for _, rec := range data.Injuries {
		if !rec.Blocking() {
			continue
		}
		switch {
		case strings.EqualFold(rec.Team, pickTeam):
			pickOut++
		case strings.EqualFold(rec.Team, oppTeam):
			oppOut++
		}
	}

	var score float64
	if c.MarketKind == models.MarketTotal {
		// Absences drain scoring on either side.
		lean := float64(pickOut + oppOut)
		if c.OverUnder == models.Over {
			score = 5.5 - lean*0.5
		} else {
			score = 5.5 + lean*0.4
		}
	} else {
		score = 6.0 - float64(pickOut)*1.0 + float64(oppOut)*0.8
	}
	return models.ModelResult{
		Model:      models.ModelInjury,
		Score:      clamp10(score),
		Confidence: 0.75,
		Note:       fmt.Sprintf("confirmed out %d vs %d", pickOut, oppOut),
	}
}

// bettingEdge compares the candidate's price to the board median for the
// same outcome. Beating the median is a real, bankable edge.
func (e *Engine) bettingEdge(data *models.SlateData, c models.Candidate) models.ModelResult {
	if c.OddsAmerican == nil {
		return neutral(models.ModelBettingEdge, 0.2, "no price on candidate")
	}
	var probs []float64
	for _, ln := range data.Lines[c.EventID] {
		if ln.MarketKind != c.MarketKind || !strings.EqualFold(ln.SelectionKey, c.Selection) {
			continue
		}
		if ln.OverUnder != c.OverUnder {
			continue
		}
		if p, ok := models.ImpliedProbPtr(ln.OddsAmerican); ok {
			probs = append(probs, p)
		}
	}
	if len(probs) < 2 {
		return neutral(models.ModelBettingEdge, 0.3, "single book, no shop")
	}
	sort.Float64s(probs)
	median := probs[len(probs)/2]
	mine := models.ImpliedProb(*c.OddsAmerican)
	edgePts := (median - mine) * 100
	return models.ModelResult{
		Model:      models.ModelBettingEdge,
		Score:      clamp10(5.0 + clampBand(edgePts*0.8, 2.5)),
		Confidence: 0.6,
		Note:       fmt.Sprintf("price edge %+.1fpp vs %d books", edgePts, len(probs)),
	}
}

// monteCarlo is the quick closed-form sim: expected scores from pace and
// defense, cover probability from the sport's margin sigma.
func (e *Engine) monteCarlo(data *models.SlateData, c models.Candidate) models.ModelResult {
	home, hok := data.TeamStats[c.HomeTeam]
	away, aok := data.TeamStats[c.AwayTeam]
	if !hok || !aok {
		return neutral(models.ModelMonteCarlo, 0.2, "team stats unavailable")
	}
	sigma := marginSigma[c.Sport]
	if sigma == 0 {
		sigma = 10
	}

	expHome := (home.PointsPG+away.DefRating)/2 + 1.5
	expAway := (away.PointsPG+home.DefRating)/2 - 1.5
	margin := expHome - expAway

	var prob float64
	switch c.MarketKind {
	case models.MarketMoneyline:
		prob = normalCDF(margin / sigma)
		if !strings.EqualFold(c.PickSide, c.HomeTeam) {
			prob = 1 - prob
		}
	case models.MarketSpread:
		if c.Line == nil {
			return neutral(models.ModelMonteCarlo, 0.2, "spread missing line")
		}
		if strings.EqualFold(c.PickSide, c.HomeTeam) {
			prob = normalCDF((margin + *c.Line) / sigma)
		} else {
			prob = normalCDF((*c.Line - margin) / sigma)
		}
	case models.MarketTotal:
		if c.Line == nil {
			return neutral(models.ModelMonteCarlo, 0.2, "total missing line")
		}
		projected := expHome + expAway
		over := normalCDF((projected - *c.Line) / (sigma * 1.3))
		prob = over
		if c.OverUnder == models.Under {
			prob = 1 - over
		}
	default:
		return neutral(models.ModelMonteCarlo, 0.2, "market not simulated")
	}
	return models.ModelResult{
		Model:      models.ModelMonteCarlo,
		Score:      clamp10(prob * 10),
		Confidence: 0.65,
		Note:       fmt.Sprintf("sim prob %.0f%%, margin %+.1f", prob*100, margin),
	}
}

// paceDefense scores game environment for totals and defensive mismatch for
// sides.
func (e *Engine) paceDefense(data *models.SlateData, c models.Candidate) models.ModelResult {
	home, hok := data.TeamStats[c.HomeTeam]
	away, aok := data.TeamStats[c.AwayTeam]
	if !hok || !aok {
		return neutral(models.ModelPaceDefense, 0.2, "team stats unavailable")
	}
	if c.MarketKind == models.MarketTotal || c.MarketKind == models.MarketPlayerProp {
		avgPace := (home.Pace + away.Pace) / 2
		lean := clampBand((avgPace-100.0)*0.3, 2.5)
		if c.OverUnder == models.Under {
			lean = -lean
		}
		return models.ModelResult{
			Model:      models.ModelPaceDefense,
			Score:      clamp10(5.0 + lean),
			Confidence: 0.6,
			Note:       fmt.Sprintf("avg pace %.1f", avgPace),
		}
	}
	pick, opp, _ := pickOpponentStats(data, c)
	lean := clampBand(float64(opp.DefRank-pick.DefRank)*0.08, 2.0)
	return models.ModelResult{
		Model:      models.ModelPaceDefense,
		Score:      clamp10(5.0 + lean),
		Confidence: 0.55,
		Note:       fmt.Sprintf("def rank %d vs %d", pick.DefRank, opp.DefRank),
	}
}

// propHistory reads the player's recent record against this market.
func (e *Engine) propHistory(data *models.SlateData, c models.Candidate) models.ModelResult {
	if c.MarketKind != models.MarketPlayerProp || c.Player == nil {
		return neutral(models.ModelPropHistory, 0.1, "not a prop")
	}
	trend, ok := data.PropTrends[models.PropTrendKey(c.Player.PlayerName, c.Market)]
	if !ok || trend.Games == 0 {
		return neutral(models.ModelPropHistory, 0.2, "no prop history")
	}
	lean := clampBand((trend.HitRate-0.5)*10, 3.0)
	if c.OverUnder == models.Under {
		lean = -lean
	}
	return models.ModelResult{
		Model:      models.ModelPropHistory,
		Score:      clamp10(5.0 + lean),
		Confidence: math.Min(0.85, 0.3+float64(trend.Games)*0.05),
		Note:       fmt.Sprintf("hit rate %.0f%% over %d games", trend.HitRate*100, trend.Games),
	}
}

// pickTeams resolves the candidate's team and its opponent. Totals and props
// fall back to home vs away.
func pickTeams(c models.Candidate) (string, string) {
	if c.Player != nil && c.Player.Team != "" {
		if strings.EqualFold(c.Player.Team, c.AwayTeam) {
			return c.AwayTeam, c.HomeTeam
		}
		return c.HomeTeam, c.AwayTeam
	}
	if strings.EqualFold(c.PickSide, c.AwayTeam) {
		return c.AwayTeam, c.HomeTeam
	}
	return c.HomeTeam, c.AwayTeam
}

func pickOpponentStats(data *models.SlateData, c models.Candidate) (models.TeamStats, models.TeamStats, bool) {
	pickTeam, oppTeam := pickTeams(c)
	pick, pok := data.TeamStats[pickTeam]
	opp, ook := data.TeamStats[oppTeam]
	return pick, opp, pok && ook
}

// normalCDF is the standard normal distribution function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
