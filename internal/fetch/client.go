package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
	"github.com/slatepick/slatepick/internal/secrets"
	"github.com/slatepick/slatepick/internal/telemetry"
)

const maxBodyBytes = 32 << 20

// Client is the shared guarded HTTP client. Provider packages build URLs and
// parse payloads; everything between those two steps lives here.
type Client struct {
	http     *http.Client
	store    cache.Store
	health   *registry.HealthTracker
	metrics  *telemetry.Metrics
	redactor *secrets.Redactor
	policies map[string]Policy

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient wires the guard stack. Any of store, health, metrics, redactor
// may be nil; accounting on a nil collaborator is skipped.
func NewClient(store cache.Store, health *registry.HealthTracker, metrics *telemetry.Metrics, redactor *secrets.Redactor) *Client {
	return &Client{
		http: &http.Client{
			// Per-attempt deadlines come from the policy context. This cap
			// only catches a policy misconfigured past the 15s ceiling.
			Timeout: 15 * time.Second,
		},
		store:    store,
		health:   health,
		metrics:  metrics,
		redactor: redactor,
		policies: DefaultPolicies(),
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// SetHTTPClient swaps the transport, for tests against httptest servers.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetPolicy overrides one provider's guard policy. Limiters and breakers are
// built lazily from the table, so overrides must land before first use.
func (c *Client) SetPolicy(provider string, p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policies[provider] = p
	delete(c.limiters, provider)
	delete(c.breakers, provider)
}

// limiter returns the provider's pacer, creating it on first use.
func (c *Client) limiter(provider string) *rate.Limiter {
	c.mu.RLock()
	l, ok := c.limiters[provider]
	c.mu.RUnlock()
	if ok {
		return l
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok = c.limiters[provider]; ok {
		return l
	}
	pol := policyFor(c.policies, provider)
	l = rate.NewLimiter(rate.Every(pol.MinInterval), pol.Burst)
	c.limiters[provider] = l
	return l
}

// breaker returns the provider's circuit breaker, creating it on first use.
func (c *Client) breaker(provider string) *gobreaker.CircuitBreaker {
	c.mu.RLock()
	b, ok := c.breakers[provider]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok = c.breakers[provider]; ok {
		return b
	}
	pol := policyFor(c.policies, provider)
	b = gobreaker.NewCircuitBreaker(breakerSettings(provider, pol.Breaker))
	c.breakers[provider] = b
	return b
}

// BreakerState reports a provider's breaker state for the debug surface.
func (c *Client) BreakerState(provider string) string {
	return c.breaker(provider).State().String()
}

// GetJSON fetches url for provider, decodes the body into out, and caches the
// raw body for ttl. Cache hits skip the network entirely but still count in
// health and proof. A 429 latches the provider rate-limited for the rest of
// the request; subsequent calls return RATE_LIMITED without touching the API.
func (c *Client) GetJSON(ctx context.Context, provider, url string, headers map[string]string, ttl time.Duration, out any) error {
	key := cache.Key(provider, url)

	if c.store != nil {
		if body, ok := c.store.Get(key); ok {
			c.recordCache(ctx, provider, true)
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
			// A poisoned entry decodes for nobody. Drop it and refetch.
			c.store.Delete(key)
		}
	}
	c.recordCache(ctx, provider, false)

	proof := registry.FromContext(ctx)
	if proof.IsRateLimited(provider) {
		return models.ProviderError(provider, models.ErrCodeRateLimited,
			fmt.Errorf("provider limited earlier in this request"))
	}

	pol := policyFor(c.policies, provider)
	if err := c.limiter(provider).Wait(ctx); err != nil {
		return models.ProviderError(provider, models.ErrCodeAPITimeout, err)
	}

	res, err := c.breaker(provider).Execute(func() (interface{}, error) {
		return c.attempt(ctx, provider, url, headers, pol)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.countRequest(provider, "breaker_open")
			return models.ProviderError(provider, models.ErrCodeAPIUnavailable,
				fmt.Errorf("circuit open for %s", provider))
		}
		return err
	}

	body := res.([]byte)
	if err := json.Unmarshal(body, out); err != nil {
		c.recordFailure(ctx, provider, http.StatusOK, 0, models.ErrCodeAPIError, err)
		return models.ProviderError(provider, models.ErrCodeAPIError,
			fmt.Errorf("parse %s response: %w", provider, err))
	}
	if c.store != nil && ttl > 0 {
		c.store.Set(key, body, ttl)
	}
	return nil
}

// attempt runs the bounded retry loop for one logical call. Only timeouts and
// 5xx responses retry; auth failures, 404s and 429s surface immediately.
func (c *Client) attempt(ctx context.Context, provider, url string, headers map[string]string, pol Policy) ([]byte, error) {
	var lastErr error
	for try := 0; try <= pol.Retries; try++ {
		if try > 0 {
			// Linear backoff: 0.5s, 1.0s for the default policy.
			select {
			case <-time.After(time.Duration(try) * pol.Backoff):
			case <-ctx.Done():
				return nil, models.ProviderError(provider, models.ErrCodeAPITimeout, ctx.Err())
			}
		}

		body, err := c.do(ctx, provider, url, headers, pol.Timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var ce *models.CodedError
		if errors.As(err, &ce) && !ce.Temporary {
			return nil, err
		}
		if models.IsCode(err, models.ErrCodeRateLimited) {
			return nil, err
		}
		log.Debug().Str("provider", provider).Int("attempt", try+1).
			Str("code", models.CodeOf(err)).Msg("provider call retrying")
	}
	return nil, lastErr
}

// do executes a single HTTP attempt and classifies the outcome.
func (c *Client) do(ctx context.Context, provider, url string, headers map[string]string, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.ProviderError(provider, models.ErrCodeAPIError, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "slatepick/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)

	if err != nil {
		code := models.ErrCodeAPIUnavailable
		if isTimeout(err) {
			code = models.ErrCodeAPITimeout
		}
		c.recordFailure(ctx, provider, 0, latency, code, err)
		return nil, models.ProviderError(provider, code, c.redactErr(err))
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusOK:
		if readErr != nil {
			c.recordFailure(ctx, provider, resp.StatusCode, latency, models.ErrCodeAPIError, readErr)
			return nil, models.ProviderError(provider, models.ErrCodeAPIError, readErr)
		}
		c.recordSuccess(ctx, provider, latency)
		return body, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		err := fmt.Errorf("%s rejected credentials (HTTP %d)", provider, resp.StatusCode)
		c.recordFailure(ctx, provider, resp.StatusCode, latency, models.ErrCodeAPIKeyInvalid, err)
		return nil, models.ProviderError(provider, models.ErrCodeAPIKeyInvalid, err)

	case resp.StatusCode == http.StatusNotFound:
		err := fmt.Errorf("%s returned HTTP 404", provider)
		c.recordFailure(ctx, provider, resp.StatusCode, latency, models.ErrCodeNotFound, err)
		return nil, models.ProviderError(provider, models.ErrCodeNotFound, err)

	case resp.StatusCode == http.StatusTooManyRequests:
		registry.FromContext(ctx).MarkRateLimited(provider)
		err := fmt.Errorf("%s rate limited (HTTP 429)", provider)
		c.recordRateLimit(ctx, provider, latency, err)
		return nil, models.ProviderError(provider, models.ErrCodeRateLimited, err)

	case resp.StatusCode >= 500:
		err := fmt.Errorf("%s unavailable (HTTP %d)", provider, resp.StatusCode)
		c.recordFailure(ctx, provider, resp.StatusCode, latency, models.ErrCodeAPIUnavailable, err)
		return nil, models.ProviderError(provider, models.ErrCodeAPIUnavailable, err)

	default:
		err := fmt.Errorf("%s returned HTTP %d", provider, resp.StatusCode)
		c.recordFailure(ctx, provider, resp.StatusCode, latency, models.ErrCodeAPIError, err)
		return nil, models.ProviderError(provider, models.ErrCodeAPIError, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *Client) redactErr(err error) error {
	if c.redactor == nil || err == nil {
		return err
	}
	return errors.New(c.redactor.RedactErr(err))
}

func (c *Client) recordCache(ctx context.Context, provider string, hit bool) {
	if c.health != nil {
		c.health.RecordCache(provider, hit)
	}
	if c.metrics != nil {
		c.metrics.RecordCacheEvent(provider, hit)
	}
	if hit {
		registry.FromContext(ctx).RecordCacheHit(provider)
	}
}

func (c *Client) recordSuccess(ctx context.Context, provider string, latency time.Duration) {
	if c.health != nil {
		c.health.RecordCall(provider, registry.CallRecord{StatusCode: http.StatusOK, Latency: latency})
	}
	c.countRequest(provider, "ok")
	if c.metrics != nil {
		c.metrics.ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
	}
	registry.FromContext(ctx).RecordCall(provider, http.StatusOK, float64(latency.Milliseconds()))
}

func (c *Client) recordFailure(ctx context.Context, provider string, status int, latency time.Duration, code string, err error) {
	if c.health != nil {
		c.health.RecordCall(provider, registry.CallRecord{
			StatusCode: status,
			Latency:    latency,
			Err:        c.redactErr(err),
			ErrorCode:  code,
			Timeout:    code == models.ErrCodeAPITimeout,
		})
	}
	label := "error"
	if code == models.ErrCodeAPITimeout {
		label = "timeout"
	}
	c.countRequest(provider, label)
	if c.metrics != nil && latency > 0 {
		c.metrics.ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
	}
	registry.FromContext(ctx).RecordCall(provider, status, float64(latency.Milliseconds()))
}

func (c *Client) recordRateLimit(ctx context.Context, provider string, latency time.Duration, err error) {
	if c.health != nil {
		c.health.RecordCall(provider, registry.CallRecord{
			StatusCode: http.StatusTooManyRequests,
			Latency:    latency,
			Err:        err,
			ErrorCode:  models.ErrCodeRateLimited,
			RateLimit:  true,
		})
	}
	c.countRequest(provider, "rate_limited")
	registry.FromContext(ctx).RecordCall(provider, http.StatusTooManyRequests, float64(latency.Milliseconds()))
}

func (c *Client) countRequest(provider, status string) {
	if c.metrics != nil {
		c.metrics.ProviderRequests.WithLabelValues(provider, status).Inc()
	}
}
