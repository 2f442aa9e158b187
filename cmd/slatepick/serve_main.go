package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slatepick/slatepick/internal/clock"
	httpapi "github.com/slatepick/slatepick/internal/interfaces/http"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
	"github.com/slatepick/slatepick/internal/scheduler"
	"github.com/slatepick/slatepick/internal/stream"
)

// runServe hosts the HTTP surface with the change monitor and the cron jobs
// in-process. Everything drains on SIGINT/SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	addr, _ := cmd.Flags().GetString("addr")
	noMonitor, _ := cmd.Flags().GetBool("no-monitor")
	noJobs, _ := cmd.Flags().GetBool("no-jobs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.Close()
	if addr != "" {
		a.cfg.ListenAddr = addr
	}

	hub := stream.NewHub(clock.System{}, a.log)
	go hub.Run()
	defer hub.Close()

	runner := monitor.WithArchive(a.pipe, a.picksRepo(), a.log)

	if !noMonitor {
		mon := monitor.New(runner, a.snaps, hub, clock.System{}, a.log)
		go func() {
			if err := mon.Watch(ctx, models.AllSports, a.cfg.MonitorEvery); err != nil && ctx.Err() == nil {
				a.log.Error().Err(err).Msg("monitor loop exited")
			}
		}()
	}

	if !noJobs {
		grader := a.grader()
		jobs := scheduler.Jobs{
			RollupFlush: a.rollupFlush,
			GradeSlates: func(ctx context.Context) error {
				date := clock.NowET(clock.System{}).AddDate(0, 0, -1).Format("2006-01-02")
				_, err := grader.GradeAll(ctx, date)
				return err
			},
			SnapshotGC: func(ctx context.Context) error {
				for _, sport := range models.AllSports {
					if _, err := a.snaps.GC(sport); err != nil {
						return err
					}
				}
				return nil
			},
			RefereeRecalc: func(ctx context.Context) error {
				n := a.book.Recalculate()
				a.log.Info().Int("referees", n).Msg("referee tendencies recalculated")
				return nil
			},
		}
		sched := scheduler.New(jobs, scheduler.NewLocker(ctx, a.cfg.RedisURL), a.log)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Config:   a.cfg,
		Engine:   runner,
		Registry: a.reg,
		Metrics:  a.metrics,
		Hub:      hub,
		Whop:     a.bundle.Whop,
		Clock:    clock.System{},
		Log:      a.log,
		Version:  version,
	})

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", srv.Addr()).
			Bool("monitor", !noMonitor).
			Bool("jobs", !noJobs).
			Bool("archive", a.db.IsEnabled()).
			Msg("slatepick server listening")
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server shutdown error")
		return err
	}

	// The hourly job flushes rollups on schedule; drain what accumulated
	// since the last tick before the process exits.
	if err := a.rollupFlush(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("final rollup flush failed")
	}

	a.log.Info().Msg("server shutdown complete")
	return nil
}
