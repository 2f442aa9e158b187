// Package registry declares the external integrations and tracks their
// health. The declaration table is the one place that knows which env vars
// each provider needs and which engine it feeds.
package registry

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slatepick/slatepick/internal/models"
)

// Criticality separates must-have integrations from nice-to-have ones.
type Criticality string

const (
	Critical Criticality = "CRITICAL"
	Optional Criticality = "OPTIONAL"
)

// Canonical provider names. Everything that records telemetry uses these.
const (
	ProviderOddsAPI     = "odds_api"
	ProviderESPN        = "espn_scoreboard"
	ProviderPlaybook    = "playbook"
	ProviderBallDontLie = "balldontlie"
	ProviderWeather     = "weather_api"
	ProviderNOAA        = "noaa_space_weather"
	ProviderAstronomy   = "astronomy_api"
	ProviderFinnhub     = "finnhub"
	ProviderFRED        = "fred"
	ProviderSerpAPI     = "serpapi_news"
	ProviderTwitter     = "twitter"
	ProviderWhop        = "whop"
	ProviderDatabase    = "database"
	ProviderRedis       = "redis"
)

// Probe checks reachability of a configured integration.
type Probe func(ctx context.Context) error

// Declaration is one integration's static contract.
type Declaration struct {
	Name        string      `json:"name"`
	Criticality Criticality `json:"criticality"`
	FeedsEngine string      `json:"feeds_engine"`
	// RequiredEnv lists env-var groups; each group is satisfied by any one
	// of its alternatives, and every group must be satisfied.
	RequiredEnv     [][]string            `json:"required_env,omitempty"`
	AllowedStatuses []models.SignalStatus `json:"allowed_statuses,omitempty"`
	Probe           Probe                 `json:"-"`
}

// Declarations returns the full integration table in canonical order.
func Declarations() []Declaration {
	return []Declaration{
		{Name: ProviderOddsAPI, Criticality: Critical, FeedsEngine: "all",
			RequiredEnv: [][]string{{"ODDS_API_KEY"}}},
		{Name: ProviderESPN, Criticality: Critical, FeedsEngine: "context"},
		{Name: ProviderPlaybook, Criticality: Optional, FeedsEngine: "research",
			RequiredEnv: [][]string{{"PLAYBOOK_API_KEY"}}},
		{Name: ProviderBallDontLie, Criticality: Optional, FeedsEngine: "ai",
			RequiredEnv: [][]string{{"BALLDONTLIE_API_KEY", "BDL_API_KEY"}}},
		{Name: ProviderWeather, Criticality: Optional, FeedsEngine: "esoteric",
			RequiredEnv: [][]string{{"WEATHER_API_KEY"}},
			AllowedStatuses: []models.SignalStatus{models.StatusSuccess, models.StatusNotRelevant, models.StatusNoData, models.StatusError}},
		{Name: ProviderNOAA, Criticality: Optional, FeedsEngine: "esoteric"},
		{Name: ProviderAstronomy, Criticality: Optional, FeedsEngine: "esoteric",
			RequiredEnv: [][]string{{"ASTRONOMY_API_ID"}, {"ASTRONOMY_API_SECRET"}}},
		{Name: ProviderFinnhub, Criticality: Optional, FeedsEngine: "esoteric",
			RequiredEnv: [][]string{{"FINNHUB_KEY"}}},
		{Name: ProviderFRED, Criticality: Optional, FeedsEngine: "esoteric",
			RequiredEnv: [][]string{{"FRED_API_KEY"}}},
		{Name: ProviderSerpAPI, Criticality: Optional, FeedsEngine: "research",
			RequiredEnv: [][]string{{"SERPAPI_KEY"}}},
		{Name: ProviderTwitter, Criticality: Optional, FeedsEngine: "esoteric",
			RequiredEnv: [][]string{{"TWITTER_BEARER"}}},
		{Name: ProviderWhop, Criticality: Optional, FeedsEngine: "auth",
			RequiredEnv: [][]string{{"WHOP_API_KEY"}}},
		{Name: ProviderDatabase, Criticality: Optional, FeedsEngine: "infra",
			RequiredEnv: [][]string{{"DATABASE_URL"}}},
		{Name: ProviderRedis, Criticality: Optional, FeedsEngine: "infra",
			RequiredEnv: [][]string{{"REDIS_URL"}}},
	}
}

// Configured reports whether every env group is satisfied, and which vars
// are missing when not. Reading env here is the declared exception to the
// load-once rule; the probe needs live values.
func (d Declaration) Configured() (bool, []string) {
	var missing []string
	for _, group := range d.RequiredEnv {
		satisfied := false
		for _, name := range group {
			if strings.TrimSpace(os.Getenv(name)) != "" {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, strings.Join(group, "|"))
		}
	}
	return len(missing) == 0, missing
}

// IntegrationStatus is one row of the readiness report.
type IntegrationStatus struct {
	Name        string             `json:"name"`
	Criticality Criticality        `json:"criticality"`
	FeedsEngine string             `json:"feeds_engine"`
	Configured  bool               `json:"configured"`
	Validated   bool               `json:"validated"`
	MissingEnv  []string           `json:"missing_env,omitempty"`
	ProbeError  string             `json:"probe_error,omitempty"`
	Health      *IntegrationHealth `json:"health,omitempty"`
}

// Registry binds the declaration table to a health tracker and optional
// probes wired at startup.
type Registry struct {
	mu     sync.RWMutex
	decls  []Declaration
	health *HealthTracker
}

// New builds a registry over the canonical declarations.
func New(health *HealthTracker) *Registry {
	return &Registry{decls: Declarations(), health: health}
}

// Health exposes the tracker for the fetch layer.
func (r *Registry) Health() *HealthTracker { return r.health }

// SetProbe attaches a connectivity probe to a declared provider.
func (r *Registry) SetProbe(name string, p Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.decls {
		if r.decls[i].Name == name {
			r.decls[i].Probe = p
			return
		}
	}
}

// Declaration looks up one provider's contract.
func (r *Registry) Declaration(name string) (Declaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.decls {
		if d.Name == name {
			return d, true
		}
	}
	return Declaration{}, false
}

// Readiness builds the full integration report. The returned error is
// non-nil when any CRITICAL integration is unconfigured; the report is
// complete either way so the caller can fail loud with detail.
func (r *Registry) Readiness(ctx context.Context, probeTimeout time.Duration) ([]IntegrationStatus, error) {
	r.mu.RLock()
	decls := make([]Declaration, len(r.decls))
	copy(decls, r.decls)
	r.mu.RUnlock()

	var failures []string
	out := make([]IntegrationStatus, 0, len(decls))
	for _, d := range decls {
		ok, missing := d.Configured()
		st := IntegrationStatus{
			Name:        d.Name,
			Criticality: d.Criticality,
			FeedsEngine: d.FeedsEngine,
			Configured:  ok,
			MissingEnv:  missing,
		}
		if ok && d.Probe != nil {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			if err := d.Probe(pctx); err != nil {
				st.ProbeError = err.Error()
			} else {
				st.Validated = true
			}
			cancel()
		} else if ok {
			st.Validated = true
		}
		if h, found := r.health.Snapshot(d.Name); found {
			st.Health = &h
		}
		if d.Criticality == Critical && !ok {
			failures = append(failures, d.Name+" missing "+strings.Join(missing, ","))
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if len(failures) > 0 {
		return out, models.NewCodedError(models.ErrCodeAPIKeyMissing, "critical integrations unconfigured: %s", strings.Join(failures, "; "))
	}
	return out, nil
}
