// Package grade settles published picks against final scores. Picks come
// from the day's snapshots, finals from the ESPN scoreboard; settled results
// go to the NDJSON graded log and, when the archive is enabled, back onto
// pick_history rows.
package grade

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
	"github.com/slatepick/slatepick/internal/persistence"
	"github.com/slatepick/slatepick/internal/providers"
)

// FinalsSource returns the day's scoreboard. *providers.ESPNClient satisfies
// it.
type FinalsSource interface {
	Scoreboard(ctx context.Context, sport models.Sport, date string) ([]providers.ScoreboardGame, error)
}

// Summary reports what one grading pass did.
type Summary struct {
	Sport   models.Sport `json:"sport"`
	Date    string       `json:"date"`
	Graded  int          `json:"graded"`
	Skipped int          `json:"skipped"`
	Wins    int          `json:"wins"`
	Losses  int          `json:"losses"`
	Pushes  int          `json:"pushes"`
	Voids   int          `json:"voids"`
}

// Grader settles snapshots. The pick repo is optional; a nil repo skips the
// archive write-back.
type Grader struct {
	finals FinalsSource
	snaps  *monitor.Store
	graded *persistence.GradedLog
	repo   persistence.PickRepo
	clk    clock.Clock
	log    zerolog.Logger
}

// New wires a grader.
func New(finals FinalsSource, snaps *monitor.Store, graded *persistence.GradedLog, repo persistence.PickRepo, clk clock.Clock, log zerolog.Logger) *Grader {
	if clk == nil {
		clk = clock.System{}
	}
	return &Grader{
		finals: finals,
		snaps:  snaps,
		graded: graded,
		repo:   repo,
		clk:    clk,
		log:    log.With().Str("component", "grade").Logger(),
	}
}

// GradeSport settles one sport's slate for dateStr. Picks whose game has not
// gone final yet are skipped and stay gradeable on the next run. Player
// props are skipped too; the scoreboard has no stat lines to settle them.
func (g *Grader) GradeSport(ctx context.Context, sport models.Sport, dateStr string) (Summary, error) {
	sum := Summary{Sport: sport, Date: dateStr}

	snap, err := g.snaps.Latest(sport)
	if err != nil {
		return sum, err
	}
	if snap == nil || snap.Date() != dateStr {
		return sum, models.NewCodedError(models.ErrCodeNoDataAvailable, "no snapshot for %s %s", sport, dateStr)
	}
	if len(snap.Picks) == 0 {
		return sum, nil
	}

	games, err := g.finals.Scoreboard(ctx, sport, strings.ReplaceAll(dateStr, "-", ""))
	if err != nil {
		return sum, fmt.Errorf("scoreboard for %s %s: %w", sport, dateStr, err)
	}

	// The earliest archive holds the odds the picks were published at; the
	// latest snapshot holds the closest thing to a closing price we saw.
	opening, err := g.snaps.First(sport, dateStr)
	if err != nil {
		g.log.Warn().Err(err).Msg("opening snapshot unreadable, CLV omitted")
		opening = nil
	}
	openOdds := make(map[string]*int)
	if opening != nil {
		for _, sp := range opening.Picks {
			openOdds[sp.PickID] = sp.OddsAmerican
		}
	}

	gradedAt := clock.NowET(g.clk).Format(clock.ISOLayout)
	var records []persistence.GradedRecord

	for _, sp := range snap.Picks {
		if sp.MarketKind == models.MarketPlayerProp {
			sum.Skipped++
			continue
		}

		game, found := providers.MatchScoreboard(games, models.Event{
			HomeTeam: sp.HomeTeam,
			AwayTeam: sp.AwayTeam,
		})
		if found && game.Status != models.EventFinal {
			sum.Skipped++
			continue
		}

		var result models.GradeResult
		if !found {
			// The game never appeared on the day's board: postponed or
			// abandoned, so the pick refunds.
			result = models.GradeVoid
		} else {
			var ok bool
			result, ok = settle(sp, game)
			if !ok {
				sum.Skipped++
				continue
			}
		}

		rec := persistence.GradedRecord{
			GradedAt:     gradedAt,
			Sport:        sport,
			SlateDate:    dateStr,
			PickID:       sp.PickID,
			EventID:      sp.EventID,
			MarketKind:   string(sp.MarketKind),
			Selection:    sp.Selection,
			PlayerName:   sp.PlayerName,
			OverUnder:    string(sp.OverUnder),
			BookKey:      sp.BookKey,
			Tier:         sp.Tier,
			Units:        sp.Units,
			Result:       result,
			HomeScore:    game.HomeScore,
			AwayScore:    game.AwayScore,
			OddsAmerican: copyOdds(sp.OddsAmerican),
		}
		if sp.Line != nil {
			line := *sp.Line
			rec.Line = &line
		}
		if taken, ok := openOdds[sp.PickID]; ok && taken != nil {
			rec.OddsAmerican = copyOdds(taken)
			rec.ClosingOdds = copyOdds(sp.OddsAmerican)
			if clv, ok := closingValue(taken, sp.OddsAmerican); ok {
				rec.CLV = &clv
			}
		}
		records = append(records, rec)

		switch result {
		case models.GradeWin:
			sum.Wins++
		case models.GradeLoss:
			sum.Losses++
		case models.GradePush:
			sum.Pushes++
		case models.GradeVoid:
			sum.Voids++
		}
	}
	sum.Graded = len(records)

	if len(records) > 0 {
		if err := g.graded.Append(records...); err != nil {
			return sum, err
		}
		g.writeBack(ctx, dateStr, records)
	}

	g.log.Info().
		Str("sport", string(sport)).
		Str("date", dateStr).
		Int("graded", sum.Graded).
		Int("skipped", sum.Skipped).
		Int("wins", sum.Wins).
		Int("losses", sum.Losses).
		Msg("slate graded")
	return sum, nil
}

// GradeAll settles every sport for dateStr. Sports without a snapshot are
// skipped silently; other failures are logged and the pass continues.
func (g *Grader) GradeAll(ctx context.Context, dateStr string) ([]Summary, error) {
	var out []Summary
	for _, sport := range models.AllSports {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		sum, err := g.GradeSport(ctx, sport, dateStr)
		if err != nil {
			if models.IsCode(err, models.ErrCodeNoDataAvailable) {
				continue
			}
			g.log.Error().Err(err).Str("sport", string(sport)).Msg("grading failed")
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

// writeBack marks archived rows graded. Write-back failures are logged, not
// fatal; the NDJSON log already has the result.
func (g *Grader) writeBack(ctx context.Context, dateStr string, records []persistence.GradedRecord) {
	if g.repo == nil {
		return
	}
	at := clock.NowET(g.clk)
	for _, rec := range records {
		err := g.repo.MarkGraded(ctx, rec.PickID, dateStr, persistence.Grade{
			Result:      rec.Result,
			ClosingOdds: rec.ClosingOdds,
			CLV:         rec.CLV,
			GradedAt:    at,
		})
		if err != nil {
			g.log.Warn().Err(err).Str("pick_id", rec.PickID).Msg("archive write-back failed")
		}
	}
}

// settle resolves one line-market pick against a final score. The bool is
// false when the pick cannot be settled from a final score alone.
func settle(sp monitor.SnapPick, game providers.ScoreboardGame) (models.GradeResult, bool) {
	pickScore, oppScore, sided := sideScores(sp, game)

	switch sp.MarketKind {
	case models.MarketMoneyline:
		if !sided {
			return models.GradeVoid, true
		}
		switch {
		case pickScore > oppScore:
			return models.GradeWin, true
		case pickScore == oppScore:
			return models.GradePush, true
		default:
			return models.GradeLoss, true
		}

	case models.MarketSpread:
		if !sided || sp.Line == nil {
			return models.GradeVoid, true
		}
		adjusted := float64(pickScore) + *sp.Line
		switch {
		case adjusted > float64(oppScore):
			return models.GradeWin, true
		case adjusted == float64(oppScore):
			return models.GradePush, true
		default:
			return models.GradeLoss, true
		}

	case models.MarketTotal:
		if sp.Line == nil || sp.OverUnder == "" {
			return models.GradeVoid, true
		}
		total := float64(game.HomeScore + game.AwayScore)
		if total == *sp.Line {
			return models.GradePush, true
		}
		wentOver := total > *sp.Line
		if wentOver == (sp.OverUnder == models.Over) {
			return models.GradeWin, true
		}
		return models.GradeLoss, true
	}
	return "", false
}

// sideScores maps a team selection to (picked, opponent) scores.
func sideScores(sp monitor.SnapPick, game providers.ScoreboardGame) (int, int, bool) {
	switch {
	case strings.EqualFold(sp.Selection, sp.HomeTeam):
		return game.HomeScore, game.AwayScore, true
	case strings.EqualFold(sp.Selection, sp.AwayTeam):
		return game.AwayScore, game.HomeScore, true
	}
	return 0, 0, false
}

// closingValue is the implied-probability gain of the taken price over the
// close, in percentage points. Positive means the pick beat the close.
func closingValue(taken, closing *int) (float64, bool) {
	if taken == nil || closing == nil || *taken == 0 || *closing == 0 {
		return 0, false
	}
	return (models.ImpliedProb(*closing) - models.ImpliedProb(*taken)) * 100, true
}

func copyOdds(odds *int) *int {
	if odds == nil {
		return nil
	}
	o := *odds
	return &o
}
