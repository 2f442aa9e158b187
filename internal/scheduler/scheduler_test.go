package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyLocker struct{}

func (denyLocker) Acquire(context.Context, string, time.Duration) (func(), bool) {
	return func() {}, false
}

func TestScheduler_RegistersOnlyConfiguredJobs(t *testing.T) {
	s := New(Jobs{RollupFlush: func(context.Context) error { return nil }}, nil, zerolog.Nop())

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "scheduled", status["rollup_flush"].Status)
	assert.Equal(t, scheduleRollup, status["rollup_flush"].Schedule)
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	s := New(Jobs{}, nil, zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}

func TestRunJob_Success(t *testing.T) {
	var runs atomic.Int64
	s := New(Jobs{SnapshotGC: func(context.Context) error {
		runs.Add(1)
		return nil
	}}, nil, zerolog.Nop())

	s.runJob(s.specs["snapshot_gc"])

	assert.Equal(t, int64(1), runs.Load())
	j := s.Status()["snapshot_gc"]
	assert.Equal(t, "completed", j.Status)
	assert.Equal(t, 1, j.RunCount)
	assert.Zero(t, j.ErrorCount)
	assert.Empty(t, j.LastError)
}

func TestRunJob_ErrorRecorded(t *testing.T) {
	s := New(Jobs{GradeSlates: func(context.Context) error {
		return errors.New("scoreboard unavailable")
	}}, nil, zerolog.Nop())

	s.runJob(s.specs["grade_slates"])

	j := s.Status()["grade_slates"]
	assert.Equal(t, "failed", j.Status)
	assert.Equal(t, 1, j.ErrorCount)
	assert.Equal(t, "scoreboard unavailable", j.LastError)
}

func TestRunJob_PanicRecovered(t *testing.T) {
	s := New(Jobs{RefereeRecalc: func(context.Context) error {
		panic("bad table")
	}}, nil, zerolog.Nop())

	require.NotPanics(t, func() { s.runJob(s.specs["referee_recalc"]) })

	j := s.Status()["referee_recalc"]
	assert.Equal(t, "failed", j.Status)
	assert.Contains(t, j.LastError, "panic: bad table")
}

func TestRunJob_SkipsWhenLockHeld(t *testing.T) {
	var runs atomic.Int64
	s := New(Jobs{RollupFlush: func(context.Context) error {
		runs.Add(1)
		return nil
	}}, denyLocker{}, zerolog.Nop())

	s.runJob(s.specs["rollup_flush"])

	assert.Zero(t, runs.Load())
	assert.Equal(t, "scheduled", s.Status()["rollup_flush"].Status)
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := New(Jobs{}, nil, zerolog.Nop())
	assert.Error(t, s.Trigger("vacuum_moon"))
}

func TestNopLocker_AlwaysGrants(t *testing.T) {
	release, ok := NopLocker{}.Acquire(context.Background(), "k", time.Minute)
	require.True(t, ok)
	release()
}

func TestNewLocker_EmptyURLIsNop(t *testing.T) {
	l := NewLocker(context.Background(), "")
	_, ok := l.(NopLocker)
	assert.True(t, ok)
}
