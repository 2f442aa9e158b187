package registry

import (
	"context"
	"sync"

	"github.com/slatepick/slatepick/internal/models"
)

type proofKey struct{}

// Proof accumulates request-scoped call accounting. It rides the request
// context so every provider call made on behalf of one slate request can be
// attributed in the receipt.
type Proof struct {
	mu        sync.Mutex
	RequestID string

	calls       int
	twoXX       int
	cacheHits   int
	perSource   map[string]models.CallProof
	rateLimited map[string]bool
}

// WithProof attaches a fresh proof to ctx.
func WithProof(ctx context.Context, requestID string) (context.Context, *Proof) {
	p := &Proof{
		RequestID:   requestID,
		perSource:   make(map[string]models.CallProof),
		rateLimited: make(map[string]bool),
	}
	return context.WithValue(ctx, proofKey{}, p), p
}

// FromContext returns the attached proof, or nil when the caller did not
// start one. All methods are nil-safe so library code never has to check.
func FromContext(ctx context.Context) *Proof {
	p, _ := ctx.Value(proofKey{}).(*Proof)
	return p
}

// RecordCall notes one outbound call for a provider.
func (p *Proof) RecordCall(provider string, statusCode int, latencyMS float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	cp := p.perSource[provider]
	cp.LatencyMS = latencyMS
	if statusCode >= 200 && statusCode < 300 {
		p.twoXX++
		cp.TwoXXDelta++
	}
	p.perSource[provider] = cp
}

// RecordCacheHit notes a cache-served lookup for a provider.
func (p *Proof) RecordCacheHit(provider string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cacheHits++
	cp := p.perSource[provider]
	cp.CacheHit = true
	p.perSource[provider] = cp
}

// MarkRateLimited latches a 429 for the rest of this request. Later calls to
// the same provider go cache-or-empty instead of hammering the API again.
func (p *Proof) MarkRateLimited(provider string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rateLimited[provider] = true
}

// IsRateLimited reports whether this request already saw a 429 from provider.
func (p *Proof) IsRateLimited(provider string) bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rateLimited[provider]
}

// Source returns the accumulated proof for one provider.
func (p *Proof) Source(provider string) models.CallProof {
	if p == nil {
		return models.CallProof{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perSource[provider]
}

// Summary is the request-level rollup embedded in debug payloads.
type Summary struct {
	RequestID string                      `json:"request_id"`
	Calls     int                         `json:"calls"`
	TwoXX     int                         `json:"2xx"`
	CacheHits int                         `json:"cache_hits"`
	Sources   map[string]models.CallProof `json:"sources"`
}

// Summarize copies the proof for embedding in a response.
func (p *Proof) Summarize() Summary {
	if p == nil {
		return Summary{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	sources := make(map[string]models.CallProof, len(p.perSource))
	for k, v := range p.perSource {
		sources[k] = v
	}
	return Summary{
		RequestID: p.RequestID,
		Calls:     p.calls,
		TwoXX:     p.twoXX,
		CacheHits: p.cacheHits,
		Sources:   sources,
	}
}
