package pipeline

import (
	"strings"

	"github.com/slatepick/slatepick/internal/books"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/picks"
)

// buildCandidates turns every priced outcome on the slate into a scoring
// candidate: both sides of every game market at every book, plus every listed
// prop. Weak sides die at the quality floor, not here. The pick id hashes the
// selection but not the book, so the same pick across books collapses later
// in the dominance dedup.
func (p *Pipeline) buildCandidates(data *models.SlateData) []models.Candidate {
	var out []models.Candidate

	for _, ev := range data.Events {
		for _, ml := range data.Lines[ev.EventID] {
			c, ok := p.candidateFromLine(ev, ml)
			if !ok {
				continue
			}
			out = append(out, c)
		}
	}

	for _, offer := range data.Props {
		ev, ok := data.EventByID(offer.GameID)
		if !ok {
			p.log.Debug().
				Str("player", offer.PlayerName).
				Str("game_id", offer.GameID).
				Msg("prop offer references no slate event")
			continue
		}
		out = append(out, candidateFromProp(ev, offer, data.Players))
	}

	for i := range out {
		out[i].PickID = picks.ComputeID(out[i])
	}
	return out
}

// candidateFromLine maps one book outcome to a candidate. Spread and
// moneyline selections must name one of the two teams; an unmatched key is a
// feed defect and the outcome is skipped.
func (p *Pipeline) candidateFromLine(ev models.Event, ml models.MarketLine) (models.Candidate, bool) {
	c := models.Candidate{
		EventID:    ev.EventID,
		Sport:      ev.Sport,
		GameID:     ev.EventID,
		MarketKind: ml.MarketKind,
		Selection:  ml.SelectionKey,
		BookKey:    ml.BookKey,
		BookLink:   books.DeepLink(ml.BookKey, ev.Sport),
		HomeTeam:   ev.HomeTeam,
		AwayTeam:   ev.AwayTeam,
		StatusTime: statusTime(ev),
	}
	if ml.Line != nil {
		l := *ml.Line
		c.Line = &l
	}
	if ml.OddsAmerican != nil {
		o := *ml.OddsAmerican
		c.OddsAmerican = &o
	}

	switch ml.MarketKind {
	case models.MarketSpread, models.MarketMoneyline:
		if !strings.EqualFold(ml.SelectionKey, ev.HomeTeam) && !strings.EqualFold(ml.SelectionKey, ev.AwayTeam) {
			p.log.Debug().
				Str("selection", ml.SelectionKey).
				Str("matchup", ev.Matchup()).
				Str("market", string(ml.MarketKind)).
				Msg("selection names neither team, outcome skipped")
			return models.Candidate{}, false
		}
		c.PickSide = ml.SelectionKey
	case models.MarketTotal:
		c.OverUnder = ml.OverUnder
		if c.OverUnder == "" {
			switch {
			case strings.EqualFold(ml.SelectionKey, "over"):
				c.OverUnder = models.Over
			case strings.EqualFold(ml.SelectionKey, "under"):
				c.OverUnder = models.Under
			default:
				p.log.Debug().
					Str("selection", ml.SelectionKey).
					Str("matchup", ev.Matchup()).
					Msg("total selection has no side, outcome skipped")
				return models.Candidate{}, false
			}
		}
	}
	return c, true
}

// candidateFromProp maps one listed prop to a candidate. When the roster
// index has no entry for the subject, a name-only player is attached; with
// zero games played it cannot survive the integrity validator.
func candidateFromProp(ev models.Event, offer models.PropOffer, players map[string]models.Player) models.Candidate {
	line := offer.Line
	c := models.Candidate{
		EventID:    ev.EventID,
		Sport:      ev.Sport,
		GameID:     offer.GameID,
		MarketKind: models.MarketPlayerProp,
		Market:     offer.Market,
		Selection:  offer.PlayerName,
		Line:       &line,
		OverUnder:  offer.Side,
		BookKey:    offer.BookKey,
		BookLink:   books.DeepLink(offer.BookKey, ev.Sport),
		HomeTeam:   ev.HomeTeam,
		AwayTeam:   ev.AwayTeam,
		StatusTime: statusTime(ev),
	}
	if offer.OddsAmerican != nil {
		o := *offer.OddsAmerican
		c.OddsAmerican = &o
	}
	if pl, ok := players[offer.PlayerName]; ok {
		p := pl
		c.Player = &p
	} else {
		c.Player = &models.Player{PlayerName: offer.PlayerName}
	}
	return c
}

func statusTime(ev models.Event) models.StatusTime {
	return models.StatusTime{
		StartTimeET: ev.StartTimeET,
		Status:      ev.Status,
		HasStarted:  ev.HasStarted,
		IsLive:      ev.IsLive,
	}
}
