// Package research scores candidates through the eight research pillars:
// market-derived edges (sharp money, reverse line movement, price shape) and
// situational ones (injuries, schedule, consensus, volume). Each pillar
// reports passed plus a contribution; the score is 5.0 plus the sum, clamped
// to [0, 10].
package research

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
)

// baseScore is the neutral starting point before pillar contributions.
const baseScore = 5.0

// strongDivergence is the sharp-public gap, in percentage points, that
// reads STRONG.
const strongDivergence = 15.0

// Engine is the research scoring engine. Safe for concurrent use.
type Engine struct {
	tuning config.Tuning
	log    zerolog.Logger
}

// New builds the engine over the loaded tuning.
func New(tuning config.Tuning, log zerolog.Logger) *Engine {
	return &Engine{tuning: tuning, log: log.With().Str("engine", "research").Logger()}
}

// pillarRead is a pillar's raw verdict before boost weighting. Raw runs
// [-1, 1]: 1 is a full pass, negative marks an edge against the pick.
type pillarRead struct {
	passed bool
	raw    float64
	note   string
}

// Score evaluates all eight pillars for one candidate.
func (e *Engine) Score(data *models.SlateData, c models.Candidate) models.ResearchResult {
	reads := map[models.Pillar]pillarRead{
		models.PillarSharpSplit:       e.sharpSplit(data, c),
		models.PillarReverseLineMove:  e.reverseLineMove(data, c),
		models.PillarHospitalFade:     e.hospitalFade(data, c),
		models.PillarSituationalSpot:  e.situationalSpot(data, c),
		models.PillarExpertConsensus:  e.expertConsensus(data, c),
		models.PillarPropCorrelation:  e.propCorrelation(data, c),
		models.PillarHookDiscipline:   e.hookDiscipline(c),
		models.PillarVolumeDiscipline: e.volumeDiscipline(data, c),
	}

	res := models.ResearchResult{Verdicts: make([]models.PillarVerdict, 0, len(models.AllPillars))}
	score := baseScore
	for _, p := range models.AllPillars {
		read := reads[p]
		contrib := read.raw * e.tuning.Pillars.Boost(p) * e.tuning.Micro.Clamped(p)
		res.Verdicts = append(res.Verdicts, models.PillarVerdict{
			Pillar:       p,
			Passed:       read.passed,
			Contribution: contrib,
			Note:         read.note,
		})
		score += contrib
	}
	res.Score = clamp10(score)
	return res
}

// splitFor finds the money split for the candidate's market, falling back
// to the spread split for moneylines.
func splitFor(data *models.SlateData, c models.Candidate) (models.Split, bool) {
	kinds := []models.MarketKind{c.MarketKind}
	if c.MarketKind == models.MarketMoneyline {
		kinds = append(kinds, models.MarketSpread)
	}
	for _, kind := range kinds {
		for _, sp := range data.Splits[c.EventID] {
			if sp.MarketKind == kind {
				return sp, true
			}
		}
	}
	return models.Split{}, false
}

// sharpAligned reports whether the split's sharp side is the candidate's
// side.
func sharpAligned(sp models.Split, c models.Candidate) bool {
	if sp.SharpSide == "" {
		return false
	}
	return strings.EqualFold(sp.SharpSide, c.PickSide) ||
		strings.EqualFold(sp.SharpSide, c.Selection) ||
		strings.EqualFold(sp.SharpSide, string(c.OverUnder))
}

func (e *Engine) sharpSplit(data *models.SlateData, c models.Candidate) pillarRead {
	sp, ok := splitFor(data, c)
	if !ok {
		return pillarRead{note: "no split data"}
	}
	div := sp.Divergence()
	aligned := sharpAligned(sp, c)
	switch {
	case div >= strongDivergence && aligned:
		return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("STRONG divergence %.0fpp with pick", div)}
	case div >= 8 && aligned:
		return pillarRead{passed: true, raw: 0.5, note: fmt.Sprintf("divergence %.0fpp with pick", div)}
	case div >= strongDivergence:
		return pillarRead{raw: -0.5, note: fmt.Sprintf("STRONG divergence %.0fpp against pick", div)}
	}
	return pillarRead{note: fmt.Sprintf("divergence %.0fpp, no edge", div)}
}

func (e *Engine) reverseLineMove(data *models.SlateData, c models.Candidate) pillarRead {
	sp, ok := splitFor(data, c)
	if !ok {
		return pillarRead{note: "no split data"}
	}
	aligned := sharpAligned(sp, c)
	switch {
	case sp.RLM == models.RLMStrong && aligned:
		return pillarRead{passed: true, raw: 1.0, note: "strong RLM with pick"}
	case sp.RLM == models.RLMWeak && aligned:
		return pillarRead{passed: true, raw: 0.5, note: "weak RLM with pick"}
	case sp.RLM == models.RLMStrong:
		return pillarRead{raw: -0.5, note: "strong RLM against pick"}
	}
	return pillarRead{note: "no reverse movement"}
}

// hospitalFade rewards betting against a depleted opponent. Only confirmed
// absences count.
func (e *Engine) hospitalFade(data *models.SlateData, c models.Candidate) pillarRead {
	if len(data.Injuries) == 0 {
		return pillarRead{note: "no injury report"}
	}
	pickTeam, oppTeam := sides(c)
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
	if c.MarketKind == models.MarketTotal {
		combined := pickOut + oppOut
		switch {
		case c.OverUnder == models.Under && combined >= 2:
			return pillarRead{passed: true, raw: 0.5, note: fmt.Sprintf("%d confirmed out drain scoring", combined)}
		case c.OverUnder == models.Over && combined >= 2:
			return pillarRead{raw: -0.3, note: fmt.Sprintf("%d confirmed out against the over", combined)}
		}
		return pillarRead{note: "no scoring-relevant absences"}
	}
	switch {
	case oppOut >= 2:
		return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("opponent missing %d", oppOut)}
	case oppOut == 1:
		return pillarRead{passed: true, raw: 0.5, note: "opponent missing 1"}
	case pickOut >= 1:
		return pillarRead{raw: -0.5, note: fmt.Sprintf("pick side missing %d", pickOut)}
	}
	return pillarRead{note: "both sides healthy"}
}

// situationalSpot reads schedule and travel spots from team stats.
func (e *Engine) situationalSpot(data *models.SlateData, c models.Candidate) pillarRead {
	pickTeam, oppTeam := sides(c)
	pick, pok := data.TeamStats[pickTeam]
	opp, ook := data.TeamStats[oppTeam]
	if !pok || !ook {
		return pillarRead{note: "team stats unavailable"}
	}
	if pick.BackToBack && !opp.BackToBack {
		return pillarRead{raw: -0.5, note: "pick side on a back-to-back"}
	}
	var raw float64
	var notes []string
	if opp.BackToBack && !pick.BackToBack {
		raw += 1.0
		notes = append(notes, "opponent on a back-to-back")
	}
	if opp.TravelMiles >= 2000 && opp.RestDays <= 1 {
		raw += 0.5
		notes = append(notes, fmt.Sprintf("opponent traveled %.0f miles short-rested", opp.TravelMiles))
	}
	if raw > 1.0 {
		raw = 1.0
	}
	if raw > 0 {
		return pillarRead{passed: true, raw: raw, note: strings.Join(notes, "; ")}
	}
	return pillarRead{note: "no situational edge"}
}

func (e *Engine) expertConsensus(data *models.SlateData, c models.Candidate) pillarRead {
	news, ok := data.News[c.EventID]
	if !ok || news.Articles == 0 {
		return pillarRead{note: "no consensus coverage"}
	}
	aligned := strings.EqualFold(news.ConsensusSide, c.PickSide) ||
		strings.EqualFold(news.ConsensusSide, c.Selection)
	switch {
	case aligned && news.Confidence >= 0.6:
		return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("consensus %.0f%% over %d articles", news.Confidence*100, news.Articles)}
	case aligned && news.Confidence >= 0.5:
		return pillarRead{passed: true, raw: 0.5, note: "lean consensus with pick"}
	case !aligned && news.Confidence >= 0.6:
		return pillarRead{raw: -0.5, note: "consensus against pick"}
	}
	return pillarRead{note: "consensus split"}
}

// propCorrelation checks the player's trend against the prop side.
func (e *Engine) propCorrelation(data *models.SlateData, c models.Candidate) pillarRead {
	if c.MarketKind != models.MarketPlayerProp || c.Player == nil {
		return pillarRead{note: "not a prop"}
	}
	trend, ok := data.PropTrends[models.PropTrendKey(c.Player.PlayerName, c.Market)]
	if !ok || trend.Games == 0 {
		return pillarRead{note: "no trend data"}
	}
	over := c.OverUnder == models.Over
	switch {
	case over && trend.HitRate >= 0.6, !over && trend.HitRate <= 0.4:
		return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("trend %.0f%% with side", trend.HitRate*100)}
	case over && trend.HitRate >= 0.55, !over && trend.HitRate <= 0.45:
		return pillarRead{passed: true, raw: 0.5, note: "mild trend with side"}
	case over && trend.HitRate <= 0.4, !over && trend.HitRate >= 0.6:
		return pillarRead{raw: -0.5, note: "trend against side"}
	}
	return pillarRead{note: "trend neutral"}
}

// hookDiscipline scores key-number position. Taking points through a key is
// discipline; laying the hook just past one is the classic mistake.
func (e *Engine) hookDiscipline(c models.Candidate) pillarRead {
	if c.Line == nil {
		return pillarRead{note: "no line"}
	}
	line := *c.Line
	switch c.MarketKind {
	case models.MarketSpread:
		keys := e.tuning.Profile(c.Sport).KeyNumbers
		if len(keys) == 0 {
			return pillarRead{note: "no key numbers for sport"}
		}
		abs := math.Abs(line)
		for _, k := range keys {
			if line > 0 && abs >= k+0.5 && abs < k+1 {
				return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("taking points through the %v", k)}
			}
			if line < 0 && abs > k && abs <= k+0.5 {
				return pillarRead{raw: -0.5, note: fmt.Sprintf("laying the hook past the %v", k)}
			}
		}
		return pillarRead{passed: true, raw: 0.3, note: "clear of key numbers"}
	case models.MarketTotal, models.MarketPlayerProp:
		if math.Mod(math.Abs(line), 1) == 0.5 {
			return pillarRead{passed: true, raw: 0.5, note: "half-point line, no push risk"}
		}
		return pillarRead{note: "whole-number line"}
	}
	return pillarRead{note: "no hook exposure"}
}

// volumeDiscipline wants sample size behind props and liquidity behind game
// lines.
func (e *Engine) volumeDiscipline(data *models.SlateData, c models.Candidate) pillarRead {
	if c.MarketKind == models.MarketPlayerProp {
		if c.Player == nil {
			return pillarRead{note: "no player attached"}
		}
		games := c.Player.GamesPlayedSeason
		switch {
		case games >= 20:
			return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("%d games played", games)}
		case games >= 10:
			return pillarRead{passed: true, raw: 0.5, note: fmt.Sprintf("%d games played", games)}
		case games < 5:
			return pillarRead{raw: -0.5, note: fmt.Sprintf("only %d games played", games)}
		}
		return pillarRead{note: "thin sample"}
	}

	books := make(map[models.BookKey]struct{})
	for _, ln := range data.Lines[c.EventID] {
		if ln.MarketKind == c.MarketKind && strings.EqualFold(ln.SelectionKey, c.Selection) {
			books[ln.BookKey] = struct{}{}
		}
	}
	switch {
	case len(books) >= 3:
		return pillarRead{passed: true, raw: 1.0, note: fmt.Sprintf("%d books pricing", len(books))}
	case len(books) == 2:
		return pillarRead{passed: true, raw: 0.5, note: "2 books pricing"}
	case len(books) <= 1:
		return pillarRead{raw: -0.3, note: "thin market"}
	}
	return pillarRead{note: "market depth unknown"}
}

// sides resolves the candidate's team and opponent, props included.
func sides(c models.Candidate) (string, string) {
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

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
