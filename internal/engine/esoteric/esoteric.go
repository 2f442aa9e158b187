// Package esoteric produces the edge score and the canonical 23-signal
// breakdown. Every signal carries full provenance: where its inputs came
// from, what the fetch actually did, and what it contributed. The engine
// reads no betting-split or gematria inputs; those edges belong to the
// research and Jarvis engines.
package esoteric

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
	slatecontext "github.com/slatepick/slatepick/internal/slate/context"
)

// scoreScale converts summed signal contributions into score space.
const scoreScale = 2.0

// Engine computes the esoteric breakdown. Safe for concurrent use; the
// referee book serializes its own updates.
type Engine struct {
	tuning config.Tuning
	tables slatecontext.Tables
	book   *slatecontext.RefereeBook
	log    zerolog.Logger
}

// New builds the engine over loaded tables. The referee book is shared with
// the weekly recalculation job.
func New(tuning config.Tuning, tables slatecontext.Tables, book *slatecontext.RefereeBook, log zerolog.Logger) *Engine {
	if book == nil {
		book = tables.Book()
	}
	return &Engine{
		tuning: tuning,
		tables: tables,
		book:   book,
		log:    log.With().Str("engine", "esoteric").Logger(),
	}
}

// Score evaluates all 23 signals for one candidate. The result's breakdown
// always contains every canonical signal.
func (e *Engine) Score(data *models.SlateData, c models.Candidate) models.EsotericResult {
	day := slateDay(data)

	breakdown := map[models.EsotericSignal]models.SignalResult{
		models.SignalChromeResonance: e.chromeResonance(data, c),
		models.SignalVoidMoon:        e.voidMoon(data),
		models.SignalNoosphere:       e.noosphere(data, c),
		models.SignalHurst:           e.hurst(data, c),
		models.SignalKpIndex:         e.kpIndex(data),
		models.SignalBenford:         e.benford(data),
		models.SignalBiorhythm:       e.biorhythm(c, day),
		models.SignalLifePath:        e.lifePath(c),
		models.SignalFoundersEcho:    e.foundersEcho(c, day),
		models.SignalGannSquare:      e.gannSquare(c),
		models.SignalFiftyRetrace:    e.fiftyRetrace(data, c),
		models.SignalSchumann:        e.schumann(data),
		models.SignalAtmospheric:     e.atmospheric(data, c),
		models.SignalVortex:          e.vortex(c),
		models.SignalFibonacci:       e.fibonacci(c),
		models.SignalPhiAlignment:    e.phiAlignment(c),
		models.SignalPlanetaryHour:   e.planetaryHour(data),
		models.SignalTesla369:        e.tesla369(c, day),
		models.SignalDailyEdge:       e.dailyEdge(data),
		models.SignalAltitude:        e.altitude(c),
		models.SignalWeather:         e.weather(data, c),
		models.SignalReferee:         e.referee(data, c),
		models.SignalTravel:          e.travel(data, c),
	}

	var sum float64
	for _, res := range breakdown {
		sum += res.Contribution
	}
	return models.EsotericResult{
		Score:     clamp10(5.0 + sum*scoreScale),
		Breakdown: breakdown,
	}
}

// slateDay parses the slate's ET date string; a zero time means unknown.
func slateDay(data *models.SlateData) time.Time {
	t, err := time.Parse("2006-01-02", data.DateStr)
	if err != nil {
		return time.Time{}
	}
	return t
}

// external builds a provenance record for a fetched signal, pulling status
// and call proof from the provider's recorded outcome.
func external(data *models.SlateData, provider string, value, contribution float64, triggered bool, summary string) models.SignalResult {
	out := data.Outcome(provider)
	api := provider
	return models.SignalResult{
		Value:            value,
		Status:           out.Status,
		SourceAPI:        &api,
		SourceType:       models.SourceExternal,
		RawInputsSummary: summary,
		CallProof:        out.Proof,
		Triggered:        triggered,
		Contribution:     contribution,
	}
}

// noData is the neutral record for a signal whose inputs never arrived.
func noData(sourceType models.SourceType, summary string) models.SignalResult {
	return models.SignalResult{
		Value:            0.5,
		Status:           models.StatusNoData,
		SourceType:       sourceType,
		RawInputsSummary: summary,
	}
}

// skipped marks a signal that does not apply to this candidate shape.
func skipped(summary string) models.SignalResult {
	return models.SignalResult{
		Value:            0.5,
		Status:           models.StatusSkipped,
		SourceType:       models.SourceInternal,
		RawInputsSummary: summary,
	}
}

// notRelevant marks a signal excluded by venue, not by data failure.
func notRelevant(summary string) models.SignalResult {
	return models.SignalResult{
		Value:            0.5,
		Status:           models.StatusNotRelevant,
		SourceType:       models.SourceInternal,
		RawInputsSummary: summary,
	}
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
