package books

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
)

func shopSlate() *models.SlateData {
	et := clock.ET()
	tipEarly := time.Date(2025, 1, 15, 19, 0, 0, 0, et)
	tipLate := time.Date(2025, 1, 15, 21, 30, 0, 0, et)

	line := func(kind models.MarketKind, sel string, ln *float64, ou models.OverUnder, odds int, book models.BookKey) models.MarketLine {
		return models.MarketLine{
			EventID:      "evt-lal-den",
			MarketKind:   kind,
			SelectionKey: sel,
			Line:         ln,
			OverUnder:    ou,
			OddsAmerican: models.OddsPtr(odds),
			BookKey:      book,
		}
	}

	return &models.SlateData{
		Sport:   models.SportNBA,
		DateStr: "2025-01-15",
		Events: []models.Event{
			{EventID: "evt-lal-den", Sport: models.SportNBA, HomeTeam: "Los Angeles Lakers", AwayTeam: "Denver Nuggets", StartTimeET: tipEarly},
			{EventID: "evt-bos-nyk", Sport: models.SportNBA, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks", StartTimeET: tipLate},
		},
		Lines: map[string][]models.MarketLine{
			"evt-lal-den": {
				line(models.MarketSpread, "Los Angeles Lakers", models.LinePtr(-3.5), "", -110, models.BookDraftKings),
				line(models.MarketSpread, "Los Angeles Lakers", models.LinePtr(-3.5), "", -105, models.BookFanDuel),
				line(models.MarketSpread, "Los Angeles Lakers", models.LinePtr(-3.5), "", -115, models.BookBetMGM),
				line(models.MarketSpread, "Denver Nuggets", models.LinePtr(3.5), "", -110, models.BookDraftKings),
				line(models.MarketMoneyline, "Denver Nuggets", nil, "", 150, models.BookPinnacle),
				line(models.MarketMoneyline, "Denver Nuggets", nil, "", 145, models.BookDraftKings),
				line(models.MarketMoneyline, "Los Angeles Lakers", nil, "", -165, models.BookDraftKings),
				line(models.MarketTotal, "Over", models.LinePtr(224.5), models.Over, -110, models.BookDraftKings),
				line(models.MarketTotal, "Over", models.LinePtr(224.5), models.Over, -108, models.BookFanDuel),
				line(models.MarketTotal, "Under", models.LinePtr(224.5), models.Under, -110, models.BookDraftKings),
				line(models.MarketTotal, "Over", models.LinePtr(225.5), models.Over, -110, models.BookBetMGM),
				// Listed without a price; must never become an offer.
				{EventID: "evt-lal-den", MarketKind: models.MarketSpread, SelectionKey: "Los Angeles Lakers", Line: models.LinePtr(-3.5), BookKey: models.BookCaesars},
			},
			"evt-bos-nyk": {
				{EventID: "evt-bos-nyk", MarketKind: models.MarketMoneyline, SelectionKey: "Boston Celtics", OddsAmerican: models.OddsPtr(-120), BookKey: models.BookDraftKings},
			},
			// Gated away earlier in the pipeline; not on Events.
			"evt-ghost": {
				{EventID: "evt-ghost", MarketKind: models.MarketMoneyline, SelectionKey: "Phantom FC", OddsAmerican: models.OddsPtr(100), BookKey: models.BookDraftKings},
			},
		},
		Props: []models.PropOffer{
			{Sport: models.SportNBA, GameID: "evt-lal-den", PlayerName: "LeBron James", Market: "player_points", Line: 25.5, Side: models.Over, OddsAmerican: models.OddsPtr(-115), BookKey: models.BookDraftKings},
			{Sport: models.SportNBA, GameID: "evt-lal-den", PlayerName: "LeBron James", Market: "player_points", Line: 25.5, Side: models.Over, OddsAmerican: models.OddsPtr(-120), BookKey: models.BookFanDuel},
			{Sport: models.SportNBA, GameID: "evt-lal-den", PlayerName: "LeBron James", Market: "player_rebounds", Line: 7.5, Side: models.Over, OddsAmerican: models.OddsPtr(-105), BookKey: models.BookDraftKings},
		},
	}
}

func findOutcome(t *testing.T, outs []Outcome, kind models.MarketKind, sel string, side models.OverUnder, line float64) Outcome {
	t.Helper()
	for _, o := range outs {
		if o.Market != kind.PickType() || o.Selection != sel || o.Side != side {
			continue
		}
		if o.Line != nil && *o.Line != line {
			continue
		}
		return o
	}
	t.Fatalf("no outcome %s %s %s %.1f", kind, sel, side, line)
	return Outcome{}
}

func TestShop_BestPriceWins(t *testing.T) {
	outs := Shop(shopSlate())

	spread := findOutcome(t, outs, models.MarketSpread, "Los Angeles Lakers", "", -3.5)
	require.Len(t, spread.Offers, 3, "unpriced caesars entry never becomes an offer")
	assert.Equal(t, models.BookFanDuel, spread.Best.Book)
	assert.Equal(t, -105, spread.Best.OddsAmerican)
	assert.Equal(t, "-105", spread.Best.Odds)
	assert.Equal(t, models.BookBetMGM, spread.Offers[2].Book, "worst price sorts last")
	assert.InDelta(t, 2.3, spread.EdgePct, 0.5, "shopping edge is worst minus best implied")

	ml := findOutcome(t, outs, models.MarketMoneyline, "Denver Nuggets", "", 0)
	assert.Equal(t, models.BookPinnacle, ml.Best.Book)
	assert.Empty(t, ml.Best.Link, "pinnacle has no public deep link")
	assert.Equal(t, "+150", ml.Best.Odds)
}

func TestShop_SkipsUnknownEvents(t *testing.T) {
	outs := Shop(shopSlate())
	for _, o := range outs {
		assert.NotEqual(t, "evt-ghost", o.EventID)
	}
}

func TestShop_DeterministicOrder(t *testing.T) {
	data := shopSlate()
	outs := Shop(data)
	require.NotEmpty(t, outs)

	assert.Equal(t, "evt-lal-den", outs[0].EventID, "earlier tip sorts first")
	assert.Equal(t, "evt-bos-nyk", outs[len(outs)-1].EventID)
	assert.Equal(t, "spread", outs[0].Market, "spreads lead within an event")
	assert.Contains(t, outs[0].StartTime, "2025-01-15T19:00:00")

	again := Shop(data)
	require.Equal(t, len(outs), len(again))
	for i := range outs {
		assert.Equal(t, outs[i].EventID, again[i].EventID)
		assert.Equal(t, outs[i].Selection, again[i].Selection)
		assert.Equal(t, outs[i].Best.Book, again[i].Best.Book)
	}
}

func TestShop_PropsCarryMarket(t *testing.T) {
	outs := Shop(shopSlate())
	points := findOutcome(t, outs, models.MarketPlayerProp, "LeBron James", models.Over, 25.5)
	assert.Equal(t, "player_points", points.PropMarket)
	assert.Equal(t, models.BookDraftKings, points.Best.Book, "-115 beats -120")
	require.NotNil(t, points.Line)
	assert.Equal(t, 25.5, *points.Line)
}

func TestDeepLink(t *testing.T) {
	assert.Equal(t, "https://sportsbook.draftkings.com/leagues/basketball/nba", DeepLink(models.BookDraftKings, models.SportNBA))
	assert.Equal(t, "https://espnbet.com/sport/nfl", DeepLink(models.BookESPNBet, models.SportNFL))
	assert.Empty(t, DeepLink(models.BookPinnacle, models.SportNBA))
	assert.Empty(t, DeepLink(models.BookBet365, models.SportMLB))
	assert.Empty(t, DeepLink(models.BookUnibetUS, models.SportNHL))
}

func TestGenerate_BestBookByDefault(t *testing.T) {
	slip, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "moneyline",
		Selection: "nuggets",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookPinnacle, slip.Book)
	require.NotNil(t, slip.OddsAmerican)
	assert.Equal(t, 150, *slip.OddsAmerican)
	assert.Equal(t, "Denver Nuggets ML (+150)", slip.Bet)
	assert.Empty(t, slip.Link)
	assert.Equal(t, "Denver Nuggets @ Los Angeles Lakers", slip.Matchup)
}

func TestGenerate_ExplicitBook(t *testing.T) {
	slip, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "spread",
		Selection: "Los Angeles Lakers",
		Book:      models.BookDraftKings,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookDraftKings, slip.Book)
	require.NotNil(t, slip.OddsAmerican)
	assert.Equal(t, -110, *slip.OddsAmerican)
	assert.Equal(t, "Los Angeles Lakers -3.5 (-110)", slip.Bet)
	assert.Contains(t, slip.Link, "draftkings.com")
}

func TestGenerate_BookWithoutPriceKeepsNilOdds(t *testing.T) {
	slip, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "spread",
		Selection: "lakers",
		Book:      models.BookCaesars,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookCaesars, slip.Book)
	assert.Nil(t, slip.OddsAmerican, "caesars sent no price; none is substituted")
	assert.Equal(t, "Los Angeles Lakers -3.5", slip.Bet)
	assert.NotEmpty(t, slip.Link)
}

func TestGenerate_TotalsSide(t *testing.T) {
	slip, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "total",
		Selection: "under",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Under, slip.Side)
	require.NotNil(t, slip.Line)
	assert.Equal(t, 224.5, *slip.Line)
	assert.Equal(t, "Under 224.5 (-110)", slip.Bet)
}

func TestGenerate_ConsensusLineWins(t *testing.T) {
	// The over is posted at 224.5 by two books and 225.5 by one; the number
	// carried by more books is the slip's line.
	slip, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "total",
		Selection: "over",
	})
	require.NoError(t, err)
	require.NotNil(t, slip.Line)
	assert.Equal(t, 224.5, *slip.Line)
	assert.Equal(t, models.BookFanDuel, slip.Book, "-108 is the best 224.5 price")
}

func TestGenerate_PropSelectionNamesMarket(t *testing.T) {
	slip, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "player_prop",
		Selection: "lebron james player_points over",
	})
	require.NoError(t, err)
	assert.Equal(t, "LeBron James", slip.Selection)
	require.NotNil(t, slip.Line)
	assert.Equal(t, 25.5, *slip.Line)
	assert.Equal(t, "LeBron James Over 25.5 player_points (-115)", slip.Bet)
}

func TestGenerate_AmbiguousPropRejected(t *testing.T) {
	_, err := Generate(shopSlate(), BetslipRequest{
		Sport:     models.SportNBA,
		GameID:    "evt-lal-den",
		BetType:   "player_prop",
		Selection: "lebron james over",
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeValidation))
	assert.Contains(t, err.Error(), "matches 2 outcomes")
}

func TestGenerate_Validation(t *testing.T) {
	data := shopSlate()
	cases := []struct {
		name string
		req  BetslipRequest
		code string
	}{
		{"bad sport", BetslipRequest{Sport: "cricket", GameID: "evt-lal-den", BetType: "spread", Selection: "x"}, models.ErrCodeInvalidSport},
		{"bad bet type", BetslipRequest{Sport: models.SportNBA, GameID: "evt-lal-den", BetType: "parlay", Selection: "x"}, models.ErrCodeInvalidMarket},
		{"empty selection", BetslipRequest{Sport: models.SportNBA, GameID: "evt-lal-den", BetType: "spread", Selection: "  "}, models.ErrCodeValidation},
		{"bad book", BetslipRequest{Sport: models.SportNBA, GameID: "evt-lal-den", BetType: "spread", Selection: "lakers", Book: "bovada"}, models.ErrCodeValidation},
		{"unknown game", BetslipRequest{Sport: models.SportNBA, GameID: "evt-nope", BetType: "spread", Selection: "lakers"}, models.ErrCodeNotFound},
		{"unknown selection", BetslipRequest{Sport: models.SportNBA, GameID: "evt-lal-den", BetType: "spread", Selection: "warriors"}, models.ErrCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(data, tc.req)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, tc.code), "got %v", err)
		})
	}
}
