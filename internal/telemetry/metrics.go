// Package telemetry owns the prometheus metrics and the daily integration
// rollup. Metric names are stable; dashboards and the rollup reader both
// depend on them.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/slatepick/slatepick/internal/models"
)

// Metrics bundles every instrument on one registry so tests can build
// isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheEvents      *prometheus.CounterVec

	PipelineDuration *prometheus.HistogramVec
	PicksPublished   *prometheus.CounterVec
	ChangeEvents     *prometheus.CounterVec

	IntegrationUp *prometheus.GaugeVec
	SlateState    *prometheus.GaugeVec
	ActiveSlates  prometheus.Gauge
	SlatesTotal   prometheus.Counter
}

// NewMetrics builds and registers the full instrument set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slatepick_provider_requests_total",
				Help: "Outbound provider calls by outcome",
			},
			[]string{"provider", "status"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slatepick_provider_latency_seconds",
				Help:    "Provider call latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0},
			},
			[]string{"provider"},
		),
		CacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slatepick_cache_events_total",
				Help: "Cache hits and misses by provider",
			},
			[]string{"provider", "event"},
		),
		PipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slatepick_pipeline_duration_seconds",
				Help:    "Slate pipeline stage duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"sport", "stage"},
		),
		PicksPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slatepick_picks_published_total",
				Help: "Published picks by sport and tier",
			},
			[]string{"sport", "tier"},
		),
		ChangeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slatepick_change_events_total",
				Help: "Change monitor events by sport and type",
			},
			[]string{"sport", "type"},
		),
		IntegrationUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slatepick_integration_up",
				Help: "1 when the integration is configured and validated",
			},
			[]string{"provider"},
		),
		SlateState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slatepick_slate_health",
				Help: "Slate health per sport (0=NO_SLATE..5=HEALTHY)",
			},
			[]string{"sport"},
		),
		ActiveSlates: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "slatepick_active_slates",
				Help: "Slate requests currently in flight",
			},
		),
		SlatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "slatepick_slates_total",
				Help: "Total slate requests started",
			},
		),
	}

	m.registry.MustRegister(
		m.ProviderRequests,
		m.ProviderLatency,
		m.CacheEvents,
		m.PipelineDuration,
		m.PicksPublished,
		m.ChangeEvents,
		m.IntegrationUp,
		m.SlateState,
		m.ActiveSlates,
		m.SlatesTotal,
	)
	return m
}

// Gatherer exposes the underlying registry for the rollup reader.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProviderCall folds one outbound call into the counters.
func (m *Metrics) RecordProviderCall(provider, status string, latency time.Duration) {
	m.ProviderRequests.WithLabelValues(provider, status).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordCacheEvent counts a hit or miss for a provider cache.
func (m *Metrics) RecordCacheEvent(provider string, hit bool) {
	event := "miss"
	if hit {
		event = "hit"
	}
	m.CacheEvents.WithLabelValues(provider, event).Inc()
}

// StageTimer times one pipeline stage.
type StageTimer struct {
	metrics *Metrics
	sport   string
	stage   string
	start   time.Time
}

// StartStage begins timing a pipeline stage for a sport.
func (m *Metrics) StartStage(sport models.Sport, stage string) *StageTimer {
	return &StageTimer{metrics: m, sport: string(sport), stage: stage, start: time.Now()}
}

// Stop records the stage duration.
func (t *StageTimer) Stop() {
	elapsed := time.Since(t.start)
	t.metrics.PipelineDuration.WithLabelValues(t.sport, t.stage).Observe(elapsed.Seconds())
	log.Debug().Str("sport", t.sport).Str("stage", t.stage).Dur("duration", elapsed).Msg("pipeline stage done")
}

// SetSlateHealth publishes the numeric slate health gauge.
func (m *Metrics) SetSlateHealth(sport models.Sport, health models.SlateHealth) {
	m.SlateState.WithLabelValues(string(sport)).Set(slateHealthValue(health))
}

func slateHealthValue(h models.SlateHealth) float64 {
	switch h {
	case models.SlateHealthy:
		return 5
	case models.SlateDegraded:
		return 4
	case models.SlateLowEdge:
		return 3
	case models.SlateStarved:
		return 2
	case models.SlateNoPicks:
		return 1
	default:
		return 0
	}
}
