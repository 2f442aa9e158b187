// Package pipeline runs one slate end to end: fetch, time gate, candidate
// construction, the four engines plus confluence, validators, and the publish
// gate. Provider failures degrade the slate; only the tier invariant check
// rejects a request outright.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/engine/ai"
	"github.com/slatepick/slatepick/internal/engine/esoteric"
	"github.com/slatepick/slatepick/internal/engine/jarvis"
	"github.com/slatepick/slatepick/internal/engine/jasonsim"
	"github.com/slatepick/slatepick/internal/engine/research"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/picks"
	"github.com/slatepick/slatepick/internal/providers"
	"github.com/slatepick/slatepick/internal/publish"
	"github.com/slatepick/slatepick/internal/registry"
	slatecontext "github.com/slatepick/slatepick/internal/slate/context"
	"github.com/slatepick/slatepick/internal/telemetry"
	"github.com/slatepick/slatepick/internal/validate"
)

// Deps carries the shared collaborators a Pipeline runs over. Metrics may be
// nil; Clock and Book default to the system clock and the static table book.
type Deps struct {
	Config  *config.Config
	Tuning  config.Tuning
	Bundle  *providers.Bundle
	Tables  slatecontext.Tables
	Book    *slatecontext.RefereeBook
	Metrics *telemetry.Metrics
	Clock   clock.Clock
	Log     zerolog.Logger
}

// Pipeline owns the per-slate stage sequence. One instance serves all sports
// concurrently; per-request state lives on the context and in locals.
type Pipeline struct {
	cfg     *config.Config
	tuning  config.Tuning
	bundle  *providers.Bundle
	metrics *telemetry.Metrics
	clk     clock.Clock
	log     zerolog.Logger

	ai       *ai.Engine
	research *research.Engine
	esoteric *esoteric.Engine
	jarvis   *jarvis.Engine
	sim      *jasonsim.Engine
	chain    *validate.Chain
	gate     *publish.Gate
	builder  *picks.Builder
}

// New wires the engines and gates from one dependency set.
func New(d Deps) *Pipeline {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Book == nil {
		d.Book = d.Tables.Book()
	}
	logger := d.Log.With().Str("component", "pipeline").Logger()

	return &Pipeline{
		cfg:     d.Config,
		tuning:  d.Tuning,
		bundle:  d.Bundle,
		metrics: d.Metrics,
		clk:     d.Clock,
		log:     logger,

		ai:       ai.New(d.Tuning, d.Log),
		research: research.New(d.Tuning, d.Log),
		esoteric: esoteric.New(d.Tuning, d.Tables, d.Book, d.Log),
		jarvis:   jarvis.New(d.Tuning, d.Log),
		sim:      jasonsim.New(d.Tuning, d.Log),
		chain: validate.NewChain(validate.Flags{
			BlockDoubtful: d.Config.BlockDoubtful,
			BlockGTD:      d.Config.BlockGTD,
		}, d.Log),
		gate:    publish.NewGate(d.Tuning.Publish, d.Log),
		builder: picks.NewBuilder(d.Log),
	}
}

// Request identifies one slate run.
type Request struct {
	Sport models.Sport
	Date  string // YYYY-MM-DD in ET; empty means today
	Debug bool
}

// Result is everything one slate run produced. Scored holds every candidate
// after engine scoring and before validation, for the debug surfaces; Data is
// the assembled slate the line-shop reads.
type Result struct {
	Sport     models.Sport       `json:"sport"`
	DateStr   string             `json:"date"`
	RequestID string             `json:"request_id"`
	Health    models.SlateHealth `json:"slate_health"`

	Published []models.Candidate `json:"published"`
	Cards     []picks.PickCard   `json:"cards"`
	Receipts  []picks.Receipt    `json:"receipts,omitempty"`

	Scored         []models.Candidate `json:"-"`
	ValidatorDrops []validate.Drop    `json:"validator_drops,omitempty"`
	GateDrops      []publish.Drop     `json:"gate_drops,omitempty"`

	Data  *models.SlateData `json:"-"`
	Proof registry.Summary  `json:"proof"`

	GeneratedAt string        `json:"generated_at"`
	Duration    time.Duration `json:"-"`
}

// Run executes the full stage sequence for one sport and ET day. Provider
// failures never fail the run; the only errors are an unknown sport, a
// malformed date, and a tier invariant violation from the publish gate.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	if !req.Sport.Valid() {
		return nil, models.NewCodedError(models.ErrCodeInvalidSport, "unknown sport %q", req.Sport)
	}
	start, end, dateStr, err := clock.DayBounds(p.clk, req.Date)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, p.cfg.SlateDeadline)
	defer cancel()
	ctx, proof := registry.WithProof(ctx, requestID)

	lg := p.log.With().
		Str("request_id", requestID).
		Str("sport", string(req.Sport)).
		Str("date", dateStr).
		Logger()
	lg.Info().Msg("slate run starting")

	done := p.stage(req.Sport, "fetch")
	data := p.fetchSlate(ctx, req.Sport, dateStr, start, end)
	done()

	done = p.stage(req.Sport, "candidates")
	cands := p.buildCandidates(data)
	done()
	lg.Debug().Int("events", len(data.Events)).Int("candidates", len(cands)).Msg("slate assembled")

	done = p.stage(req.Sport, "engines")
	p.score(data, cands)
	done()

	done = p.stage(req.Sport, "validate")
	surviving, vdrops := p.chain.Run(data, cands)
	done()

	done = p.stage(req.Sport, "publish")
	gated, err := p.gate.Run(surviving)
	done()
	if err != nil {
		lg.Error().Err(err).Msg("publish gate rejected the slate")
		return nil, err
	}

	health := publish.Health(data, gated.Published)
	if p.metrics != nil {
		p.metrics.SetSlateHealth(req.Sport, health)
	}

	res := &Result{
		Sport:          req.Sport,
		DateStr:        dateStr,
		RequestID:      requestID,
		Health:         health,
		Published:      gated.Published,
		Cards:          p.builder.Cards(gated.Published),
		Scored:         cands,
		ValidatorDrops: vdrops,
		GateDrops:      gated.Drops,
		Data:           data,
		Proof:          proof.Summarize(),
		GeneratedAt:    clock.ISO(clock.NowET(p.clk)),
		Duration:       time.Since(started),
	}
	if req.Debug {
		now := clock.NowET(p.clk)
		res.Receipts = make([]picks.Receipt, 0, len(gated.Published))
		for _, c := range gated.Published {
			res.Receipts = append(res.Receipts, picks.BuildReceipt(c, now))
		}
	}

	lg.Info().
		Int("candidates", len(cands)).
		Int("published", len(res.Published)).
		Int("validator_drops", len(vdrops)).
		Int("gate_drops", len(gated.Drops)).
		Str("health", string(health)).
		Dur("duration", res.Duration).
		Msg("slate run complete")
	return res, nil
}

// score runs the engine stack over every candidate in place. AI scores the
// batch first so its degeneracy check sees the whole slate; the remaining
// engines run per candidate on the worker pool.
func (p *Pipeline) score(data *models.SlateData, cands []models.Candidate) {
	if len(cands) == 0 {
		return
	}
	aiResults := p.ai.ScoreSlate(data, cands)
	w := p.tuning.Engines

	p.fanout(len(cands), func(i int) {
		c := &cands[i]

		c.Breakdown.AI = aiResults[i]
		c.AIScore = aiResults[i].Score

		rr := p.research.Score(data, *c)
		c.Breakdown.Research = rr
		c.ResearchScore = rr.Score

		er := p.esoteric.Score(data, *c)
		c.Breakdown.Esoteric = er
		c.EsotericScore = er.Score

		jr := p.jarvis.Score(*c, er)
		c.Breakdown.Jarvis = jr
		c.JarvisScore = jr.Score

		base := w.AI*c.AIScore + w.Research*c.ResearchScore +
			w.Esoteric*c.EsotericScore + w.Jarvis*c.JarvisScore

		sr := p.sim.Evaluate(data, *c, base)
		c.Breakdown.JasonSim = sr
		c.JasonSimBoost = sr.Boost

		c.FinalScore = clampScore(base + sr.Boost)
		c.SignalsFired = firedSignals(er)
		c.UnderSupported = underSupported(data, *c)
		c.Reasons = buildReasons(*c)
	})
}

// underSupported reports whether an UNDER candidate carries real supporting
// evidence: scorers confirmed out, rough weather favoring the under, or
// sharp money on the Under side of the total.
func underSupported(data *models.SlateData, c models.Candidate) bool {
	if c.OverUnder != models.Under {
		return false
	}
	for _, v := range c.Breakdown.Research.Verdicts {
		if v.Pillar == models.PillarHospitalFade && v.Passed {
			return true
		}
	}
	if sig, ok := c.Breakdown.Esoteric.Breakdown[models.SignalWeather]; ok && sig.Triggered && sig.Contribution > 0 {
		return true
	}
	for _, sp := range data.Splits[c.EventID] {
		if sp.MarketKind == models.MarketTotal && strings.EqualFold(sp.SharpSide, "under") {
			return true
		}
	}
	return false
}

// firedSignals lists the triggered esoteric signals in canonical order.
func firedSignals(er models.EsotericResult) []string {
	var out []string
	for _, entry := range er.OrderedBreakdown() {
		if entry.Triggered {
			out = append(out, string(entry.Signal))
		}
	}
	return out
}

// buildReasons assembles the ordered reason list for the receipt: passed
// research pillars, Jarvis resonance, then the confluence verdict.
func buildReasons(c models.Candidate) []string {
	var out []string
	for _, v := range c.Breakdown.Research.Verdicts {
		if v.Passed && v.Note != "" {
			out = append(out, v.Note)
		}
	}
	if j := c.Breakdown.Jarvis; j.Active {
		out = append(out, fmt.Sprintf("jarvis resonance %.1f on %d hits", j.Score, j.HitsCount))
	}
	out = append(out, c.Breakdown.JasonSim.Reasons...)
	return out
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// fanout runs fn for every index on a bounded worker set.
func (p *Pipeline) fanout(n int, fn func(i int)) {
	workers := p.cfg.FanoutWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()
}

// stage starts a stage timer and returns its stop func. A nil metrics sink
// costs nothing.
func (p *Pipeline) stage(sport models.Sport, name string) func() {
	if p.metrics == nil {
		return func() {}
	}
	t := p.metrics.StartStage(sport, name)
	return t.Stop
}
