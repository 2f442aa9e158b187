package books

import (
	"sort"
	"strings"
	"time"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
)

// Offer is one book's price on an outcome. Only priced entries become
// offers; a book that listed the market without a price is not shown.
type Offer struct {
	Book         models.BookKey `json:"book"`
	OddsAmerican int            `json:"odds_american"`
	Odds         string         `json:"odds"`
	ImpliedPct   float64        `json:"implied_pct"`
	Link         string         `json:"link,omitempty"`
}

// Outcome is one (event, market, selection, line) group across the allowed
// books, offers sorted best payout first. EdgePct is the implied-probability
// gap between the worst and best price, the value of shopping the line.
type Outcome struct {
	EventID    string           `json:"event_id"`
	Matchup    string           `json:"matchup"`
	StartTime  string           `json:"start_time"`
	Market     string           `json:"market"`
	Selection  string           `json:"selection"`
	PropMarket string           `json:"prop_market,omitempty"`
	Line       *float64         `json:"line,omitempty"`
	Side       models.OverUnder `json:"side,omitempty"`
	Best       Offer            `json:"best"`
	Offers     []Offer          `json:"offers"`
	EdgePct    float64          `json:"edge_pct"`

	startAt time.Time
	kind    models.MarketKind
}

// offerAt returns the outcome's offer at one book.
func (o Outcome) offerAt(book models.BookKey) (Offer, bool) {
	for _, off := range o.Offers {
		if off.Book == book {
			return off, true
		}
	}
	return Offer{}, false
}

// Shop aggregates every priced outcome on the slate across books: game
// lines first, then listed props. Order is deterministic for a given slate.
func Shop(data *models.SlateData) []Outcome {
	return collect(data)
}

type groupKey struct {
	eventID   string
	kind      models.MarketKind
	selection string
	propMkt   string
	side      models.OverUnder
	line      float64
	hasLine   bool
}

type filter func(groupKey) bool

func onlyEvent(eventID string) filter {
	return func(k groupKey) bool { return k.eventID == eventID }
}

func onlyKind(kind models.MarketKind) filter {
	return func(k groupKey) bool { return k.kind == kind }
}

// onlySelection matches case-insensitively on a whole or partial selection
// name. Props also match on "<player> <market>" so a selection can name the
// prop market inline. An empty side matches any side.
func onlySelection(sel string, side models.OverUnder) filter {
	needle := strings.ToLower(strings.TrimSpace(sel))
	return func(k groupKey) bool {
		if side != "" && k.side != "" && k.side != side {
			return false
		}
		if needle == "" {
			return true
		}
		hay := strings.ToLower(k.selection)
		if k.propMkt != "" {
			hay = hay + " " + strings.ToLower(k.propMkt)
		}
		return strings.Contains(hay, needle)
	}
}

func matches(k groupKey, filters []filter) bool {
	for _, f := range filters {
		if !f(k) {
			return false
		}
	}
	return true
}

// collect walks the slate's lines and props, groups priced entries by
// outcome and finalizes per-group offers. Events outside the slate (already
// gated away) contribute nothing.
func collect(data *models.SlateData, filters ...filter) []Outcome {
	groups := make(map[groupKey]map[models.BookKey]int)

	for eventID, lines := range data.Lines {
		if _, ok := data.EventByID(eventID); !ok {
			continue
		}
		for _, ln := range lines {
			if ln.OddsAmerican == nil {
				continue
			}
			k := groupKey{
				eventID:   eventID,
				kind:      ln.MarketKind,
				selection: ln.SelectionKey,
				side:      ln.OverUnder,
			}
			if ln.Line != nil {
				k.line, k.hasLine = *ln.Line, true
			}
			if !matches(k, filters) {
				continue
			}
			record(groups, k, ln.BookKey, *ln.OddsAmerican)
		}
	}

	for _, prop := range data.Props {
		if prop.OddsAmerican == nil {
			continue
		}
		if _, ok := data.EventByID(prop.GameID); !ok {
			continue
		}
		k := groupKey{
			eventID:   prop.GameID,
			kind:      models.MarketPlayerProp,
			selection: prop.PlayerName,
			propMkt:   prop.Market,
			side:      prop.Side,
			line:      prop.Line,
			hasLine:   true,
		}
		if !matches(k, filters) {
			continue
		}
		record(groups, k, prop.BookKey, *prop.OddsAmerican)
	}

	outcomes := make([]Outcome, 0, len(groups))
	for k, byBook := range groups {
		event, ok := data.EventByID(k.eventID)
		if !ok {
			continue
		}
		outcomes = append(outcomes, finalize(k, byBook, event, data.Sport))
	}

	sort.Slice(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if !a.startAt.Equal(b.startAt) {
			return a.startAt.Before(b.startAt)
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if ra, rb := marketRank(a.kind), marketRank(b.kind); ra != rb {
			return ra < rb
		}
		if a.Selection != b.Selection {
			return a.Selection < b.Selection
		}
		if a.PropMarket != b.PropMarket {
			return a.PropMarket < b.PropMarket
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return lineOf(a.Line) < lineOf(b.Line)
	})
	return outcomes
}

// record keeps the best price per book when the feed repeats an outcome.
func record(groups map[groupKey]map[models.BookKey]int, k groupKey, book models.BookKey, odds int) {
	byBook, ok := groups[k]
	if !ok {
		byBook = make(map[models.BookKey]int, len(models.AllBooks))
		groups[k] = byBook
	}
	if prev, ok := byBook[book]; ok && models.DecimalFromAmerican(prev) >= models.DecimalFromAmerican(odds) {
		return
	}
	byBook[book] = odds
}

func finalize(k groupKey, byBook map[models.BookKey]int, event models.Event, sport models.Sport) Outcome {
	offers := make([]Offer, 0, len(byBook))
	for book, odds := range byBook {
		offers = append(offers, Offer{
			Book:         book,
			OddsAmerican: odds,
			Odds:         models.FormatAmerican(odds),
			ImpliedPct:   models.ImpliedProb(odds) * 100,
			Link:         DeepLink(book, sport),
		})
	}
	sort.Slice(offers, func(i, j int) bool {
		di, dj := models.DecimalFromAmerican(offers[i].OddsAmerican), models.DecimalFromAmerican(offers[j].OddsAmerican)
		if di != dj {
			return di > dj
		}
		return bookRank(offers[i].Book) < bookRank(offers[j].Book)
	})

	out := Outcome{
		EventID:    k.eventID,
		Matchup:    event.Matchup(),
		StartTime:  clock.ISO(event.StartTimeET),
		Market:     k.kind.PickType(),
		Selection:  k.selection,
		PropMarket: k.propMkt,
		Side:       k.side,
		Best:       offers[0],
		Offers:     offers,
		startAt:    event.StartTimeET,
		kind:       k.kind,
	}
	if k.hasLine {
		out.Line = models.LinePtr(k.line)
	}
	worst := offers[len(offers)-1]
	out.EdgePct = worst.ImpliedPct - offers[0].ImpliedPct
	if out.EdgePct < 0 {
		out.EdgePct = 0
	}
	return out
}

func marketRank(kind models.MarketKind) int {
	switch kind {
	case models.MarketSpread:
		return 0
	case models.MarketMoneyline:
		return 1
	case models.MarketTotal:
		return 2
	case models.MarketPlayerProp:
		return 3
	}
	return 4
}

func bookRank(book models.BookKey) int {
	for i, known := range models.AllBooks {
		if book == known {
			return i
		}
	}
	return len(models.AllBooks)
}

func lineOf(l *float64) float64 {
	if l == nil {
		return 0
	}
	return *l
}
