package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"

	"github.com/slatepick/slatepick/internal/registry"
)

// ProviderRollup is the per-provider slice of a daily rollup.
type ProviderRollup struct {
	Calls        int64   `json:"calls"`
	TwoXX        int64   `json:"2xx"`
	FourXX       int64   `json:"4xx"`
	FiveXX       int64   `json:"5xx"`
	Timeouts     int64   `json:"timeouts"`
	RateLimited  int64   `json:"rate_limited"`
	CacheHits    int64   `json:"cache_hits"`
	P50LatencyMS float64 `json:"p50_latency_ms"`
	P99LatencyMS float64 `json:"p99_latency_ms"`
}

// Rollup is one day of integration counters, flushed to disk so history
// survives restarts.
type Rollup struct {
	Date        string                    `json:"date"`
	GeneratedAt string                    `json:"generated_at"`
	Providers   map[string]ProviderRollup `json:"providers"`
}

// BuildRollup folds the health tracker counters and the prometheus latency
// histogram into a dated rollup. date is an ET calendar day (YYYY-MM-DD).
func BuildRollup(g prometheus.Gatherer, health map[string]registry.IntegrationHealth, date, generatedAt string) Rollup {
	quantiles := latencyQuantiles(g)

	r := Rollup{
		Date:        date,
		GeneratedAt: generatedAt,
		Providers:   make(map[string]ProviderRollup, len(health)),
	}
	for provider, h := range health {
		q := quantiles[provider]
		r.Providers[provider] = ProviderRollup{
			Calls:        h.Called,
			TwoXX:        h.Status2xx,
			FourXX:       h.Status4xx,
			FiveXX:       h.Status5xx,
			Timeouts:     h.Timeouts,
			RateLimited:  h.RateLimitHits,
			CacheHits:    h.CacheHits,
			P50LatencyMS: q.p50 * 1000,
			P99LatencyMS: q.p99 * 1000,
		}
	}
	return r
}

// WriteRollup persists the rollup as rollup_<date>.json under dir, replacing
// any earlier flush for the same day. The write goes through a temp file and
// rename so readers never see a partial document.
func WriteRollup(dir string, r Rollup) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create rollup dir: %w", err)
	}
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal rollup: %w", err)
	}
	final := filepath.Join(dir, fmt.Sprintf("rollup_%s.json", r.Date))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write rollup: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("publish rollup: %w", err)
	}
	log.Info().Str("path", final).Int("providers", len(r.Providers)).Msg("integration rollup flushed")
	return final, nil
}

// ReadRollup loads a previously flushed rollup for a date, if present.
func ReadRollup(dir, date string) (Rollup, error) {
	var r Rollup
	payload, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("rollup_%s.json", date)))
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(payload, &r); err != nil {
		return r, fmt.Errorf("parse rollup: %w", err)
	}
	return r, nil
}

type latencyPair struct {
	p50 float64
	p99 float64
}

// latencyQuantiles reads the provider latency histogram back out of the
// registry and estimates p50/p99 per provider from the cumulative buckets.
func latencyQuantiles(g prometheus.Gatherer) map[string]latencyPair {
	out := make(map[string]latencyPair)
	families, err := g.Gather()
	if err != nil {
		log.Warn().Err(err).Msg("metrics gather failed, rollup latency omitted")
		return out
	}
	for _, family := range families {
		if family.GetName() != "slatepick_provider_latency_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			provider := labelValue(metric, "provider")
			if provider == "" {
				continue
			}
			hist := metric.GetHistogram()
			if hist == nil || hist.GetSampleCount() == 0 {
				continue
			}
			out[provider] = latencyPair{
				p50: histogramQuantile(hist, 0.50),
				p99: histogramQuantile(hist, 0.99),
			}
		}
	}
	return out
}

func labelValue(metric *io_prometheus_client.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}

// histogramQuantile estimates a quantile from cumulative histogram buckets
// with linear interpolation inside the target bucket. The top bucket has no
// upper bound, so estimates there clamp to the last finite boundary.
func histogramQuantile(hist *io_prometheus_client.Histogram, q float64) float64 {
	buckets := hist.GetBucket()
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].GetUpperBound() < buckets[j].GetUpperBound()
	})

	total := float64(hist.GetSampleCount())
	rank := q * total

	prevCount := 0.0
	prevBound := 0.0
	for _, b := range buckets {
		count := float64(b.GetCumulativeCount())
		bound := b.GetUpperBound()
		if math.IsInf(bound, +1) {
			break
		}
		if count >= rank {
			if count == prevCount {
				return bound
			}
			return prevBound + (bound-prevBound)*(rank-prevCount)/(count-prevCount)
		}
		prevCount = count
		prevBound = bound
	}
	return prevBound
}
