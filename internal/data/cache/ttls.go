package cache

import "time"

// Per-provider TTL policy. These are operational constants, not tuning
// knobs; changing one changes how stale a published signal may be.
const (
	TTLOdds       = 2 * time.Minute
	TTLProps      = 2 * time.Minute
	TTLSplits     = 5 * time.Minute
	TTLInjuries   = 5 * time.Minute
	TTLScoreboard = 10 * time.Minute
	TTLSummary    = 10 * time.Minute
	TTLNews       = 20 * time.Minute
	TTLSentiment  = 20 * time.Minute
	TTLSocial     = 10 * time.Minute
	TTLWeather    = 30 * time.Minute
	TTLTeamStats  = time.Hour
	TTLKpIndex    = 3 * time.Hour
	TTLAstronomy  = 6 * time.Hour
	TTLEcon       = 6 * time.Hour
	TTLReferee    = 7 * 24 * time.Hour
	TTLAuth       = 10 * time.Minute
)

// Key namespaces a cache key by provider.
func Key(provider string, parts ...string) string {
	key := provider
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
