// Package fetch is the guarded HTTP layer every outbound provider call goes
// through: TTL cache, per-provider pacing, circuit breaker, bounded retries,
// and coded-error classification, with health and proof accounting on every
// path.
package fetch

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/slatepick/slatepick/internal/registry"
)

// BreakerSettings configures one provider's circuit breaker.
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	ErrorRateThreshold  float64
}

// Policy is the per-provider guard configuration. MinInterval paces calls,
// Retries/Backoff bound the retry loop, Timeout caps one HTTP attempt.
type Policy struct {
	MinInterval time.Duration
	Burst       int
	Retries     int
	Backoff     time.Duration
	Timeout     time.Duration
	Breaker     BreakerSettings
}

func defaultBreaker() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         2,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
		ErrorRateThreshold:  50.0,
	}
}

// DefaultPolicies returns the guard table for every HTTP provider. database
// and redis do not route through this layer.
func DefaultPolicies() map[string]Policy {
	base := Policy{
		MinInterval: 500 * time.Millisecond,
		Burst:       2,
		Retries:     2,
		Backoff:     500 * time.Millisecond,
		Timeout:     10 * time.Second,
		Breaker:     defaultBreaker(),
	}

	policies := map[string]Policy{
		registry.ProviderOddsAPI:     base,
		registry.ProviderESPN:        base,
		registry.ProviderPlaybook:    base,
		registry.ProviderBallDontLie: base,
		registry.ProviderWeather:     base,
		registry.ProviderNOAA:        base,
		registry.ProviderAstronomy:   base,
		registry.ProviderFinnhub:     base,
		registry.ProviderFRED:        base,
		registry.ProviderSerpAPI:     base,
		registry.ProviderTwitter:     base,
		registry.ProviderWhop:        base,
	}

	// ESPN and NOAA are keyless and tolerant; let them burst.
	relaxed := base
	relaxed.MinInterval = 200 * time.Millisecond
	relaxed.Burst = 4
	policies[registry.ProviderESPN] = relaxed
	policies[registry.ProviderNOAA] = relaxed

	// Free tiers with per-minute quotas get a full second between calls.
	slow := base
	slow.MinInterval = time.Second
	slow.Burst = 1
	policies[registry.ProviderBallDontLie] = slow
	policies[registry.ProviderFinnhub] = slow
	policies[registry.ProviderAstronomy] = slow
	policies[registry.ProviderWhop] = slow

	// Search quotas are the scarcest. Trip their breakers fast.
	scarce := slow
	scarce.MinInterval = 2 * time.Second
	scarce.Retries = 1
	scarce.Breaker.ConsecutiveFailures = 2
	policies[registry.ProviderSerpAPI] = scarce
	policies[registry.ProviderTwitter] = scarce

	return policies
}

// policyFor returns the provider's policy, or the base guard for providers
// added without a table entry.
func policyFor(policies map[string]Policy, provider string) Policy {
	if p, ok := policies[provider]; ok {
		return p
	}
	return Policy{
		MinInterval: 500 * time.Millisecond,
		Burst:       1,
		Retries:     2,
		Backoff:     500 * time.Millisecond,
		Timeout:     10 * time.Second,
		Breaker:     defaultBreaker(),
	}
}

func breakerSettings(provider string, b BreakerSettings) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        provider,
		MaxRequests: b.MaxRequests,
		Interval:    b.Interval,
		Timeout:     b.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= b.ConsecutiveFailures {
				return true
			}
			if counts.Requests >= 10 {
				errorRate := float64(counts.TotalFailures) / float64(counts.Requests) * 100
				return errorRate >= b.ErrorRateThreshold
			}
			return false
		},
	}
}
