package registry

import (
	"sync"
	"time"
)

// IntegrationHealth is the per-provider telemetry tuple. Counters accumulate
// for the life of the process; the daily rollup snapshots and resets them.
type IntegrationHealth struct {
	Provider      string     `json:"provider"`
	Called        int64      `json:"called"`
	Succeeded     int64      `json:"succeeded"`
	Failed        int64      `json:"failed"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	LastErrorCode string     `json:"last_error_code,omitempty"`
	CacheHits     int64      `json:"cache_hits"`
	CacheMisses   int64      `json:"cache_misses"`
	Status2xx     int64      `json:"2xx"`
	Status4xx     int64      `json:"4xx"`
	Status5xx     int64      `json:"5xx"`
	Timeouts      int64      `json:"timeouts"`
	MeanLatencyMS float64    `json:"mean_latency_ms"`
	RateLimited   bool       `json:"rate_limited"`
	RateLimitHits int64      `json:"rate_limit_hits"`
}

// CallRecord is what the fetch layer reports after one outbound call.
type CallRecord struct {
	StatusCode int
	Latency    time.Duration
	Err        error
	ErrorCode  string
	Timeout    bool
	RateLimit  bool
}

// HealthTracker aggregates IntegrationHealth per provider under one lock.
// Writes are cheap; readers take snapshots.
type HealthTracker struct {
	mu     sync.RWMutex
	health map[string]*IntegrationHealth
}

// NewHealthTracker builds an empty tracker.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{health: make(map[string]*IntegrationHealth)}
}

func (t *HealthTracker) get(provider string) *IntegrationHealth {
	h, ok := t.health[provider]
	if !ok {
		h = &IntegrationHealth{Provider: provider}
		t.health[provider] = h
	}
	return h
}

// RecordCall folds one outbound call into the provider's tuple.
func (t *HealthTracker) RecordCall(provider string, rec CallRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.get(provider)
	h.Called++
	latencyMS := float64(rec.Latency.Milliseconds())
	if h.Called == 1 {
		h.MeanLatencyMS = latencyMS
	} else {
		h.MeanLatencyMS += (latencyMS - h.MeanLatencyMS) / float64(h.Called)
	}

	switch {
	case rec.StatusCode >= 200 && rec.StatusCode < 300:
		h.Status2xx++
	case rec.StatusCode >= 400 && rec.StatusCode < 500:
		h.Status4xx++
	case rec.StatusCode >= 500:
		h.Status5xx++
	}
	if rec.Timeout {
		h.Timeouts++
	}
	if rec.RateLimit {
		h.RateLimited = true
		h.RateLimitHits++
	}

	if rec.Err == nil && rec.StatusCode >= 200 && rec.StatusCode < 300 {
		h.Succeeded++
		now := time.Now()
		h.LastSuccessAt = &now
		return
	}
	h.Failed++
	if rec.Err != nil {
		h.LastError = rec.Err.Error()
	}
	if rec.ErrorCode != "" {
		h.LastErrorCode = rec.ErrorCode
	}
}

// RecordCache counts a cache lookup. Hits bypass HTTP but still count.
func (t *HealthTracker) RecordCache(provider string, hit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.get(provider)
	if hit {
		h.CacheHits++
	} else {
		h.CacheMisses++
	}
}

// ClearRateLimited resets the rate-limit flag, typically at day rollover.
func (t *HealthTracker) ClearRateLimited(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(provider).RateLimited = false
}

// Snapshot copies one provider's tuple.
func (t *HealthTracker) Snapshot(provider string) (IntegrationHealth, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.health[provider]
	if !ok {
		return IntegrationHealth{}, false
	}
	return *h, true
}

// SnapshotAll copies every tuple, keyed by provider.
func (t *HealthTracker) SnapshotAll() map[string]IntegrationHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]IntegrationHealth, len(t.health))
	for name, h := range t.health {
		out[name] = *h
	}
	return out
}

// Reset zeroes all counters, returning the pre-reset snapshot for rollup.
func (t *HealthTracker) Reset() map[string]IntegrationHealth {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]IntegrationHealth, len(t.health))
	for name, h := range t.health {
		out[name] = *h
	}
	t.health = make(map[string]*IntegrationHealth)
	return out
}
