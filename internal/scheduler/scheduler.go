// Package scheduler runs the recurring maintenance jobs on ET wall time:
// hourly integration rollup flush, nightly grading, daily snapshot GC, and
// weekly referee recalculation. Jobs are serialized across replicas through
// a redis lock when REDIS_URL is configured.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
)

// Job schedules, in the standard five-field cron format, on ET wall time.
const (
	scheduleRollup  = "0 * * * *"  // hourly on the hour
	scheduleGrade   = "15 3 * * *" // nightly, after West Coast finals
	scheduleSnapGC  = "30 4 * * *" // daily
	scheduleReferee = "0 8 * * 1"  // Monday morning
)

// Jobs holds the work each schedule fires. Nil entries are not registered.
type Jobs struct {
	RollupFlush   func(ctx context.Context) error
	GradeSlates   func(ctx context.Context) error
	SnapshotGC    func(ctx context.Context) error
	RefereeRecalc func(ctx context.Context) error
}

// JobInfo tracks one job's run history for the debug surface.
type JobInfo struct {
	Name       string        `json:"name"`
	Schedule   string        `json:"schedule"`
	LastRun    time.Time     `json:"last_run"`
	Status     string        `json:"status"`
	RunCount   int           `json:"run_count"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type jobSpec struct {
	name     string
	schedule string
	ttl      time.Duration
	fn       func(ctx context.Context) error
}

// Scheduler owns the cron loop and per-job status.
type Scheduler struct {
	cron   *cron.Cron
	locker Locker
	log    zerolog.Logger

	mu      sync.RWMutex
	specs   map[string]jobSpec
	status  map[string]JobInfo
	running bool
}

// New wires the job set. A nil locker degrades to unlocked execution.
func New(jobs Jobs, locker Locker, log zerolog.Logger) *Scheduler {
	if locker == nil {
		locker = NopLocker{}
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(clock.ET())),
		locker: locker,
		log:    log.With().Str("component", "scheduler").Logger(),
		specs:  make(map[string]jobSpec),
		status: make(map[string]JobInfo),
	}

	// Lock TTL doubles as the job's context deadline, so it must cover the
	// slowest acceptable run.
	for _, spec := range []jobSpec{
		{name: "rollup_flush", schedule: scheduleRollup, ttl: 5 * time.Minute, fn: jobs.RollupFlush},
		{name: "grade_slates", schedule: scheduleGrade, ttl: 30 * time.Minute, fn: jobs.GradeSlates},
		{name: "snapshot_gc", schedule: scheduleSnapGC, ttl: 10 * time.Minute, fn: jobs.SnapshotGC},
		{name: "referee_recalc", schedule: scheduleReferee, ttl: 10 * time.Minute, fn: jobs.RefereeRecalc},
	} {
		if spec.fn == nil {
			continue
		}
		s.specs[spec.name] = spec
		s.status[spec.name] = JobInfo{Name: spec.name, Schedule: spec.schedule, Status: "scheduled"}
	}
	return s
}

// Start registers every job and begins the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	for name := range s.specs {
		spec := s.specs[name]
		if _, err := s.cron.AddFunc(spec.schedule, func() { s.runJob(spec) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", spec.name, err)
		}
	}
	s.cron.Start()
	s.running = true
	s.log.Info().Int("jobs", len(s.specs)).Msg("scheduler started")
	return nil
}

// Trigger runs a job immediately, outside its schedule. The run still takes
// the distributed lock.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	spec, ok := s.specs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.log.Info().Str("job", name).Msg("job triggered manually")
	go s.runJob(spec)
	return nil
}

func (s *Scheduler) runJob(spec jobSpec) {
	lockCtx, lockCancel := context.WithTimeout(context.Background(), 5*time.Second)
	release, ok := s.locker.Acquire(lockCtx, "slatepick:job:"+spec.name, spec.ttl)
	lockCancel()
	if !ok {
		s.log.Debug().Str("job", spec.name).Msg("job lock held elsewhere, skipping run")
		return
	}
	defer release()

	s.update(spec.name, func(j *JobInfo) {
		j.Status = "running"
		j.LastRun = time.Now()
		j.RunCount++
	})

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("job", spec.name).Interface("panic", r).Msg("job panicked")
			s.update(spec.name, func(j *JobInfo) {
				j.Status = "failed"
				j.ErrorCount++
				j.LastError = fmt.Sprintf("panic: %v", r)
				j.Duration = time.Since(start)
			})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), spec.ttl)
	defer cancel()

	err := spec.fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		s.log.Error().Err(err).Str("job", spec.name).Dur("duration", elapsed).Msg("job failed")
		s.update(spec.name, func(j *JobInfo) {
			j.Status = "failed"
			j.ErrorCount++
			j.LastError = err.Error()
			j.Duration = elapsed
		})
		return
	}

	s.log.Info().Str("job", spec.name).Dur("duration", elapsed).Msg("job completed")
	s.update(spec.name, func(j *JobInfo) {
		j.Status = "completed"
		j.LastError = ""
		j.Duration = elapsed
	})
}

func (s *Scheduler) update(name string, mut func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.status[name]
	if !ok {
		return
	}
	mut(&j)
	s.status[name] = j
}

// Status returns a copy of every job's run history.
func (s *Scheduler) Status() map[string]JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]JobInfo, len(s.status))
	for k, v := range s.status {
		out[k] = v
	}
	return out
}

// Stop halts the cron loop and waits briefly for running jobs to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.log.Info().Msg("scheduler stopped")
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
	s.running = false
}
