package http

import (
	"context"
	"sync"
	"time"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/pipeline"
)

// A full slate run costs real provider quota, so concurrent requests for the
// same sport share one run and the result serves for a short window. Debug
// receipts are always built; the renderers decide what leaves the house.
const slateResultTTL = 30 * time.Second

type slateCache struct {
	engine Engine
	clk    clock.Clock

	mu      sync.Mutex
	entries map[models.Sport]*slateEntry
}

type slateEntry struct {
	mu  sync.Mutex
	res *pipeline.Result
	err error
	at  time.Time
}

func newSlateCache(engine Engine, clk clock.Clock) *slateCache {
	return &slateCache{
		engine:  engine,
		clk:     clk,
		entries: make(map[models.Sport]*slateEntry, len(models.AllSports)),
	}
}

// get returns the cached run for the sport's current ET day, running the
// pipeline when the window lapsed. Errors cache for the same window; a flaky
// upstream is not retried on every request.
func (c *slateCache) get(ctx context.Context, sport models.Sport) (*pipeline.Result, error) {
	c.mu.Lock()
	entry, ok := c.entries[sport]
	if !ok {
		entry = &slateEntry{}
		c.entries[sport] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.at.IsZero() && time.Since(entry.at) < slateResultTTL && fresh(entry, c.clk) {
		return entry.res, entry.err
	}

	res, err := c.engine.Run(ctx, pipeline.Request{Sport: sport, Debug: true})
	entry.res, entry.err, entry.at = res, err, time.Now()
	return res, err
}

// fresh rejects a cached run once the ET day rolled over.
func fresh(entry *slateEntry, clk clock.Clock) bool {
	if entry.res == nil {
		return true
	}
	_, _, today, err := clock.DayBounds(clk, "")
	if err != nil {
		return true
	}
	return entry.res.DateStr == today
}
