package picks

import (
	"time"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
)

// legacyIdentityTrigger is carried on receipts for continuity with older
// feeds. Display only; it never moves a score.
const legacyIdentityTrigger = "TITANIUM:2178"

// TitaniumCheck is the receipt's titanium section: the engine quorum that
// drives the tier plus the cipher hits behind it.
type TitaniumCheck struct {
	TitaniumCount     int      `json:"titanium_count"`
	TitaniumTriggered bool     `json:"titanium_triggered"`
	CipherHits        int      `json:"cipher_hits"`
	Identity2178      bool     `json:"identity_2178"`
	Triggers          []string `json:"triggers"`
}

// Receipt is the reproducibility record behind one published pick. It
// enumerates all 8 models, all 8 pillars and all 23 signals whether or not
// they fired.
type Receipt struct {
	PickID       string                   `json:"pick_id"`
	GeneratedAt  string                   `json:"generated_at"`
	EngineScores EngineScores             `json:"engine_scores"`
	Models       []models.ModelResult     `json:"models"`
	Pillars      []models.PillarVerdict   `json:"pillars"`
	Signals      []models.SignalEntry     `json:"signals"`
	AIFallback   bool                     `json:"ai_fallback"`
	FallbackNote string                   `json:"fallback_note,omitempty"`
	JasonSim     models.JasonSimResult    `json:"jason_sim"`
	Titanium     TitaniumCheck            `json:"titanium"`
	Validators   []models.ValidatorResult `json:"validators"`
	Reasons      []string                 `json:"reasons"`
}

// BuildReceipt assembles the receipt for one candidate at the given instant.
func BuildReceipt(c models.Candidate, now time.Time) Receipt {
	return Receipt{
		PickID:      c.PickID,
		GeneratedAt: clock.ISO(now),
		EngineScores: EngineScores{
			AI:            c.AIScore,
			Research:      c.ResearchScore,
			Esoteric:      c.EsotericScore,
			Jarvis:        c.JarvisScore,
			JasonSimBoost: c.JasonSimBoost,
			Final:         c.FinalScore,
		},
		Models:       allModels(c.Breakdown.AI),
		Pillars:      allPillars(c.Breakdown.Research),
		Signals:      c.Breakdown.Esoteric.OrderedBreakdown(),
		AIFallback:   c.Breakdown.AI.UsedFallback,
		FallbackNote: c.Breakdown.AI.FallbackNote,
		JasonSim:     c.Breakdown.JasonSim,
		Titanium:     titaniumCheck(c),
		Validators:   append([]models.ValidatorResult(nil), c.ValidatorResults...),
		Reasons:      append([]string(nil), c.Reasons...),
	}
}

// allModels returns the 8 sub-models in canonical order, padding models the
// ensemble never ran with zero-confidence placeholders.
func allModels(ai models.AIResult) []models.ModelResult {
	byName := make(map[models.AIModel]models.ModelResult, len(ai.Models))
	for _, m := range ai.Models {
		byName[m.Model] = m
	}
	out := make([]models.ModelResult, 0, len(models.AllAIModels))
	for _, name := range models.AllAIModels {
		if m, ok := byName[name]; ok {
			out = append(out, m)
			continue
		}
		out = append(out, models.ModelResult{Model: name, Note: "not run"})
	}
	return out
}

// allPillars returns the 8 pillars in canonical order, padding any the
// engine skipped.
func allPillars(r models.ResearchResult) []models.PillarVerdict {
	byName := make(map[models.Pillar]models.PillarVerdict, len(r.Verdicts))
	for _, v := range r.Verdicts {
		byName[v.Pillar] = v
	}
	out := make([]models.PillarVerdict, 0, len(models.AllPillars))
	for _, name := range models.AllPillars {
		if v, ok := byName[name]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, models.PillarVerdict{Pillar: name, Note: "not evaluated"})
	}
	return out
}

func titaniumCheck(c models.Candidate) TitaniumCheck {
	check := TitaniumCheck{
		TitaniumCount:     c.TitaniumCount,
		TitaniumTriggered: c.TitaniumTriggered,
		CipherHits:        c.Breakdown.Jarvis.TitaniumCount,
		Triggers:          append([]string(nil), c.Breakdown.Jarvis.Triggers...),
	}
	for _, trig := range check.Triggers {
		if trig == legacyIdentityTrigger {
			check.Identity2178 = true
			break
		}
	}
	return check
}
