// Package publish is the final gate between scored candidates and the
// published pick list: dominance dedup, correlation penalty, quality floor,
// tier assignment and the publication caps, in that order.
package publish

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/tier"
)

// Gate stages and drop reasons as they appear in receipts.
const (
	StageDedup       = "dominance_dedup"
	StageCorrelation = "correlation_penalty"
	StageQuality     = "quality_gate"
	StageCaps        = "caps"

	ReasonDominated  = "DOMINATED"
	ReasonBelowFloor = "BELOW_QUALITY_FLOOR"

	CapGoldStar      = "CAP_GOLD_STAR"
	CapEdgeLean      = "CAP_EDGE_LEAN"
	CapTotal         = "CAP_TOTAL"
	CapPerPlayer     = "CAP_PER_PLAYER"
	CapGoldPerPlayer = "CAP_GOLD_PER_PLAYER"
	CapPerGame       = "CAP_PER_GAME"
)

// starvedMin is the published-pick count below which the slate is STARVED.
const starvedMin = 3

// lowEdgeAvg is the mean final score below which a boost-less slate is
// LOW_EDGE.
const lowEdgeAvg = 6.5

// Drop records one candidate the gate removed.
type Drop struct {
	PickID string `json:"pick_id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// Result is the gate outcome for one slate.
type Result struct {
	Published []models.Candidate `json:"published"`
	Drops     []Drop             `json:"drops,omitempty"`
}

// Gate applies the publish stages under the configured limits.
type Gate struct {
	limits config.PublishLimits
	log    zerolog.Logger
}

// NewGate builds the gate.
func NewGate(limits config.PublishLimits, log zerolog.Logger) *Gate {
	return &Gate{limits: limits, log: log.With().Str("component", "publish").Logger()}
}

// Run gates deep copies of cands. The returned list is sorted by final score
// descending, ties broken by pick id. A tier invariant violation returns an
// INTERNAL_ERROR and no list; callers must reject the whole request.
func (g *Gate) Run(cands []models.Candidate) (Result, error) {
	work := models.CloneAll(cands)
	var drops []Drop

	work, dedupDrops := g.dedup(work)
	drops = append(drops, dedupDrops...)

	g.correlationPenalty(work)

	work, qualityDrops := g.qualityGate(work)
	drops = append(drops, qualityDrops...)

	for i := range work {
		work[i] = tier.Apply(work[i])
	}

	published, capDrops := g.caps(work)
	drops = append(drops, capDrops...)

	for _, c := range published {
		if err := tier.Verify(c); err != nil {
			g.log.Error().Err(err).Str("pick_id", c.PickID).Msg("tier invariant violated")
			return Result{}, err
		}
	}

	g.log.Info().
		Int("in", len(cands)).
		Int("published", len(published)).
		Int("dropped", len(drops)).
		Msg("publish gate complete")
	return Result{Published: published, Drops: drops}, nil
}

// dedup keeps the best candidate per cluster: one pick per player and market,
// one per game-line outcome across books.
func (g *Gate) dedup(cands []models.Candidate) ([]models.Candidate, []Drop) {
	sortRanked(cands)
	seen := make(map[string]string, len(cands))
	kept := cands[:0]
	var drops []Drop
	for _, c := range cands {
		key := clusterKey(c)
		if winner, ok := seen[key]; ok {
			drops = append(drops, Drop{PickID: c.PickID, Stage: StageDedup, Reason: ReasonDominated})
			g.log.Debug().Str("pick_id", c.PickID).Str("dominated_by", winner).Msg("dedup drop")
			continue
		}
		seen[key] = c.PickID
		kept = append(kept, c)
	}
	return kept, drops
}

// correlationPenalty docks lower-ranked candidates that ride the same game
// script: same side of a game, or the same over/under direction in it. The
// dock grows with the candidate's rank inside its cluster.
func (g *Gate) correlationPenalty(cands []models.Candidate) {
	sortRanked(cands)
	rank := make(map[string]int, len(cands))
	for i := range cands {
		key := correlationKey(cands[i])
		if key == "" {
			continue
		}
		n := rank[key]
		rank[key] = n + 1
		if n == 0 {
			continue
		}
		penalty := g.limits.CorrelationPenalty * float64(n)
		cands[i].FinalScore -= penalty
		g.log.Debug().
			Str("pick_id", cands[i].PickID).
			Float64("penalty", penalty).
			Msg("correlated with higher-ranked pick")
	}
}

func (g *Gate) qualityGate(cands []models.Candidate) ([]models.Candidate, []Drop) {
	kept := cands[:0]
	var drops []Drop
	for _, c := range cands {
		if c.FinalScore < g.limits.QualityFloor {
			drops = append(drops, Drop{PickID: c.PickID, Stage: StageQuality, Reason: ReasonBelowFloor})
			continue
		}
		kept = append(kept, c)
	}
	return kept, drops
}

// caps fills the published list in descending final score, ties by pick id,
// skipping candidates that would break a cap. Titanium picks occupy gold
// slots.
func (g *Gate) caps(cands []models.Candidate) ([]models.Candidate, []Drop) {
	sortRanked(cands)

	var (
		published  []models.Candidate
		drops      []Drop
		gold       int
		edge       int
		perPlayer  = map[string]int{}
		goldPlayer = map[string]int{}
		perGame    = map[string]int{}
	)

	for _, c := range cands {
		// The UNDER dock at the tier stage can push a score back below
		// the floor; a PASS tier never publishes.
		if c.Tier == models.TierPass {
			drops = append(drops, Drop{PickID: c.PickID, Stage: StageQuality, Reason: ReasonBelowFloor})
			continue
		}
		if len(published) >= g.limits.MaxTotal {
			drops = append(drops, Drop{PickID: c.PickID, Stage: StageCaps, Reason: CapTotal})
			continue
		}

		premium := c.Tier == models.TierGoldStar || c.Tier == models.TierTitaniumSmash
		player := playerKey(c)
		game := c.GameID

		var reason string
		switch {
		case premium && gold >= g.limits.MaxGoldStar:
			reason = CapGoldStar
		case c.Tier == models.TierEdgeLean && edge >= g.limits.MaxEdgeLean:
			reason = CapEdgeLean
		case player != "" && perPlayer[player] >= g.limits.MaxPerPlayer:
			reason = CapPerPlayer
		case premium && player != "" && goldPlayer[player] >= g.limits.MaxGoldPerPlayer:
			reason = CapGoldPerPlayer
		case game != "" && perGame[game] >= g.limits.MaxPerGame:
			reason = CapPerGame
		}
		if reason != "" {
			drops = append(drops, Drop{PickID: c.PickID, Stage: StageCaps, Reason: reason})
			continue
		}

		if premium {
			gold++
			if player != "" {
				goldPlayer[player]++
			}
		}
		if c.Tier == models.TierEdgeLean {
			edge++
		}
		if player != "" {
			perPlayer[player]++
		}
		if game != "" {
			perGame[game]++
		}
		published = append(published, c)
	}
	return published, drops
}

// Health derives the slate health label from the slate and what got
// published.
func Health(data *models.SlateData, published []models.Candidate) models.SlateHealth {
	if data == nil || len(data.Events) == 0 {
		return models.SlateNoSlate
	}
	if len(published) == 0 {
		return models.SlateNoPicks
	}
	if len(published) < starvedMin {
		return models.SlateStarved
	}
	for _, o := range data.Outcomes {
		if o.Status == models.StatusError || o.Status == models.StatusFailed {
			return models.SlateDegraded
		}
	}

	var sum float64
	boosted := false
	for _, c := range published {
		sum += c.FinalScore
		if c.JasonSimBoost > 0 || c.TitaniumTriggered {
			boosted = true
		}
	}
	if sum/float64(len(published)) < lowEdgeAvg && !boosted {
		return models.SlateLowEdge
	}
	return models.SlateHealthy
}

// sortRanked orders by final score descending, ties by pick id ascending.
func sortRanked(cands []models.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].FinalScore != cands[j].FinalScore {
			return cands[i].FinalScore > cands[j].FinalScore
		}
		return cands[i].PickID < cands[j].PickID
	})
}

func clusterKey(c models.Candidate) string {
	if c.MarketKind == models.MarketPlayerProp && c.Player != nil {
		return "p|" + models.PropTrendKey(c.Player.PlayerName, c.Market)
	}
	return "g|" + c.EventID + "|" + string(c.MarketKind) + "|" + strings.ToLower(c.Selection)
}

// correlationKey groups candidates that win or lose together. Game lines on
// the same side share a key; totals and props share a key per direction.
func correlationKey(c models.Candidate) string {
	switch c.MarketKind {
	case models.MarketSpread, models.MarketMoneyline:
		if c.PickSide == "" {
			return ""
		}
		return c.GameID + "|side|" + strings.ToLower(c.PickSide)
	case models.MarketTotal, models.MarketPlayerProp:
		if c.OverUnder == "" {
			return ""
		}
		return c.GameID + "|ou|" + string(c.OverUnder)
	}
	return ""
}

func playerKey(c models.Candidate) string {
	if c.Player == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Player.PlayerName))
}
