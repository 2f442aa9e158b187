package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/slatepick/slatepick/internal/models"
)

// EngineWeights blends the four engine scores into the preliminary score.
// Weights sum to 1.0 before micro adjustment.
type EngineWeights struct {
	AI       float64 `yaml:"ai"`
	Research float64 `yaml:"research"`
	Esoteric float64 `yaml:"esoteric"`
	Jarvis   float64 `yaml:"jarvis"`
}

// DefaultEngineWeights is the factory blend.
func DefaultEngineWeights() EngineWeights {
	return EngineWeights{AI: 0.35, Research: 0.30, Esoteric: 0.15, Jarvis: 0.20}
}

// PillarBoosts carries the factory contribution of each research pillar on
// top of the 5.0 base.
type PillarBoosts struct {
	SharpSplit       float64 `yaml:"sharp_split"`
	ReverseLineMove  float64 `yaml:"reverse_line_move"`
	HospitalFade     float64 `yaml:"hospital_fade"`
	SituationalSpot  float64 `yaml:"situational_spot"`
	ExpertConsensus  float64 `yaml:"expert_consensus"`
	PropCorrelation  float64 `yaml:"prop_correlation"`
	HookDiscipline   float64 `yaml:"hook_discipline"`
	VolumeDiscipline float64 `yaml:"volume_discipline"`
}

// DefaultPillarBoosts is the factory pillar weighting.
func DefaultPillarBoosts() PillarBoosts {
	return PillarBoosts{
		SharpSplit:       1.2,
		ReverseLineMove:  1.0,
		HospitalFade:     0.8,
		SituationalSpot:  0.6,
		ExpertConsensus:  0.5,
		PropCorrelation:  0.5,
		HookDiscipline:   0.4,
		VolumeDiscipline: 0.3,
	}
}

// Boost returns the factory boost for one pillar.
func (b PillarBoosts) Boost(p models.Pillar) float64 {
	switch p {
	case models.PillarSharpSplit:
		return b.SharpSplit
	case models.PillarReverseLineMove:
		return b.ReverseLineMove
	case models.PillarHospitalFade:
		return b.HospitalFade
	case models.PillarSituationalSpot:
		return b.SituationalSpot
	case models.PillarExpertConsensus:
		return b.ExpertConsensus
	case models.PillarPropCorrelation:
		return b.PropCorrelation
	case models.PillarHookDiscipline:
		return b.HookDiscipline
	case models.PillarVolumeDiscipline:
		return b.VolumeDiscipline
	}
	return 0
}

// MicroWeights holds per-pillar multipliers from offline tuning. Drift is
// bounded to ±15% of factory; anything further is clamped at load.
type MicroWeights struct {
	Multipliers map[string]float64 `yaml:"multipliers"`
}

// MaxMicroDrift bounds tuned multipliers to [0.85, 1.15].
const MaxMicroDrift = 0.15

// Clamped returns the multiplier for a pillar with drift bounds applied.
func (m MicroWeights) Clamped(p models.Pillar) float64 {
	mult, ok := m.Multipliers[string(p)]
	if !ok {
		return 1.0
	}
	if mult < 1.0-MaxMicroDrift {
		return 1.0 - MaxMicroDrift
	}
	if mult > 1.0+MaxMicroDrift {
		return 1.0 + MaxMicroDrift
	}
	return mult
}

// PublishLimits caps what one slate may publish.
type PublishLimits struct {
	MaxGoldStar        int     `yaml:"max_gold_star"`
	MaxEdgeLean        int     `yaml:"max_edge_lean"`
	MaxTotal           int     `yaml:"max_total"`
	MaxPerPlayer       int     `yaml:"max_per_player"`
	MaxGoldPerPlayer   int     `yaml:"max_gold_per_player"`
	MaxPerGame         int     `yaml:"max_per_game"`
	QualityFloor       float64 `yaml:"quality_floor"`
	CorrelationPenalty float64 `yaml:"correlation_penalty"`
}

// DefaultPublishLimits is the production cap set.
func DefaultPublishLimits() PublishLimits {
	return PublishLimits{
		MaxGoldStar:        5,
		MaxEdgeLean:        8,
		MaxTotal:           13,
		MaxPerPlayer:       2,
		MaxGoldPerPlayer:   1,
		MaxPerGame:         3,
		QualityFloor:       5.5,
		CorrelationPenalty: 0.15,
	}
}

// SportProfile carries per-sport scoring context.
type SportProfile struct {
	Indoor         bool      `yaml:"indoor"`
	TotalBandLow   float64   `yaml:"total_band_low"`
	TotalBandHigh  float64   `yaml:"total_band_high"`
	VarianceFactor float64   `yaml:"variance_factor"`
	KeyNumbers     []float64 `yaml:"key_numbers"`
}

// DefaultSportProfiles is the factory per-sport table.
func DefaultSportProfiles() map[models.Sport]SportProfile {
	return map[models.Sport]SportProfile{
		models.SportNBA:   {Indoor: true, TotalBandLow: 200, TotalBandHigh: 240, VarianceFactor: 1.0},
		models.SportNCAAB: {Indoor: true, TotalBandLow: 125, TotalBandHigh: 155, VarianceFactor: 1.05},
		models.SportNFL:   {Indoor: false, TotalBandLow: 38, TotalBandHigh: 54, VarianceFactor: 1.0, KeyNumbers: []float64{3, 7, 10}},
		models.SportMLB:   {Indoor: false, TotalBandLow: 7, TotalBandHigh: 10.5, VarianceFactor: 1.1},
		models.SportNHL:   {Indoor: true, TotalBandLow: 5, TotalBandHigh: 7, VarianceFactor: 1.15},
	}
}

// Tuning is the yaml-overridable scoring configuration.
type Tuning struct {
	Engines EngineWeights                 `yaml:"engines"`
	Pillars PillarBoosts                  `yaml:"pillars"`
	Micro   MicroWeights                  `yaml:"micro"`
	Publish PublishLimits                 `yaml:"publish"`
	Sports  map[models.Sport]SportProfile `yaml:"sports"`
}

// DefaultTuning is the factory configuration.
func DefaultTuning() Tuning {
	return Tuning{
		Engines: DefaultEngineWeights(),
		Pillars: DefaultPillarBoosts(),
		Micro:   MicroWeights{},
		Publish: DefaultPublishLimits(),
		Sports:  DefaultSportProfiles(),
	}
}

// LoadTuning reads tuning.yaml from dir, falling back to factory values when
// the file is absent. A malformed file is an error rather than a silent
// fallback.
func LoadTuning(dir string) (Tuning, error) {
	t := DefaultTuning()
	path := filepath.Join(dir, "tuning.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return DefaultTuning(), fmt.Errorf("parse %s: %w", path, err)
	}
	if t.Sports == nil {
		t.Sports = DefaultSportProfiles()
	}
	return t, nil
}

// Profile returns the sport profile, defaulting sensibly for unknown keys.
func (t Tuning) Profile(sport models.Sport) SportProfile {
	if p, ok := t.Sports[sport]; ok {
		return p
	}
	return SportProfile{Indoor: true, VarianceFactor: 1.0}
}
