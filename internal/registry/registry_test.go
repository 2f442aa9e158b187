package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/models"
)

func TestDeclarations_FourteenProviders(t *testing.T) {
	decls := Declarations()
	require.Len(t, decls, 14)

	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		assert.False(t, seen[d.Name], "duplicate declaration %s", d.Name)
		seen[d.Name] = true
	}
	assert.True(t, seen[ProviderOddsAPI])
	assert.True(t, seen[ProviderNOAA])
	assert.True(t, seen[ProviderRedis])
}

func TestConfigured_AliasGroup(t *testing.T) {
	t.Setenv("BALLDONTLIE_API_KEY", "")
	t.Setenv("BDL_API_KEY", "alias-value")

	var bdl Declaration
	for _, d := range Declarations() {
		if d.Name == ProviderBallDontLie {
			bdl = d
		}
	}
	ok, missing := bdl.Configured()
	assert.True(t, ok)
	assert.Empty(t, missing)
}

func TestReadiness_FailsLoudOnMissingCritical(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "")

	reg := New(NewHealthTracker())
	report, err := reg.Readiness(context.Background(), time.Second)

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeAPIKeyMissing, models.CodeOf(err))
	assert.Contains(t, err.Error(), "ODDS_API_KEY")
	assert.Len(t, report, 14, "report stays complete on failure")
}

func TestReadiness_ProbeFailureRecorded(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "k")

	reg := New(NewHealthTracker())
	reg.SetProbe(ProviderOddsAPI, func(ctx context.Context) error {
		return errors.New("dial tcp: connection refused")
	})

	report, err := reg.Readiness(context.Background(), time.Second)
	require.NoError(t, err)

	var odds IntegrationStatus
	for _, st := range report {
		if st.Name == ProviderOddsAPI {
			odds = st
		}
	}
	assert.True(t, odds.Configured)
	assert.False(t, odds.Validated)
	assert.Contains(t, odds.ProbeError, "connection refused")
}

func TestHealthTracker_Counters(t *testing.T) {
	tr := NewHealthTracker()

	tr.RecordCall("odds_api", CallRecord{StatusCode: 200, Latency: 100 * time.Millisecond})
	tr.RecordCall("odds_api", CallRecord{StatusCode: 500, Latency: 300 * time.Millisecond, Err: errors.New("boom"), ErrorCode: models.ErrCodeAPIError})
	tr.RecordCall("odds_api", CallRecord{Timeout: true, Err: errors.New("deadline"), ErrorCode: models.ErrCodeAPITimeout})
	tr.RecordCache("odds_api", true)
	tr.RecordCache("odds_api", false)

	h, ok := tr.Snapshot("odds_api")
	require.True(t, ok)
	assert.Equal(t, int64(3), h.Called)
	assert.Equal(t, int64(1), h.Succeeded)
	assert.Equal(t, int64(2), h.Failed)
	assert.Equal(t, int64(1), h.Status2xx)
	assert.Equal(t, int64(1), h.Status5xx)
	assert.Equal(t, int64(1), h.Timeouts)
	assert.Equal(t, int64(1), h.CacheHits)
	assert.Equal(t, int64(1), h.CacheMisses)
	assert.Equal(t, models.ErrCodeAPITimeout, h.LastErrorCode)
	assert.NotNil(t, h.LastSuccessAt)
	assert.InDelta(t, 133.3, h.MeanLatencyMS, 0.5)
}

func TestHealthTracker_Reset(t *testing.T) {
	tr := NewHealthTracker()
	tr.RecordCall("fred", CallRecord{StatusCode: 200})

	snap := tr.Reset()
	assert.Contains(t, snap, "fred")

	_, ok := tr.Snapshot("fred")
	assert.False(t, ok)
}

func TestProof_RequestScoped(t *testing.T) {
	ctx, proof := WithProof(context.Background(), "req-1")

	FromContext(ctx).RecordCall("weather_api", 200, 87.5)
	FromContext(ctx).RecordCacheHit("noaa_space_weather")

	sum := proof.Summarize()
	assert.Equal(t, "req-1", sum.RequestID)
	assert.Equal(t, 1, sum.Calls)
	assert.Equal(t, 1, sum.TwoXX)
	assert.Equal(t, 1, sum.CacheHits)
	assert.Equal(t, 1, sum.Sources["weather_api"].TwoXXDelta)
	assert.True(t, sum.Sources["noaa_space_weather"].CacheHit)
}

func TestProof_NilSafe(t *testing.T) {
	var p *Proof
	p.RecordCall("odds_api", 200, 1)
	p.RecordCacheHit("odds_api")
	assert.Equal(t, models.CallProof{}, p.Source("odds_api"))
	assert.Equal(t, Summary{}, p.Summarize())

	assert.Nil(t, FromContext(context.Background()))
}
