package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
)

// runMonitor runs the change watch loop in the foreground. Changes land in
// the log; the websocket fanout only exists under serve.
func runMonitor(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	sportFlag, _ := cmd.Flags().GetString("sport")
	interval, _ := cmd.Flags().GetDuration("interval")

	sports := models.AllSports
	if sportFlag != "" {
		sport, err := parseSport(sportFlag)
		if err != nil {
			return err
		}
		sports = []models.Sport{sport}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	if interval <= 0 {
		interval = a.cfg.MonitorEvery
	}

	runner := monitor.WithArchive(a.pipe, a.picksRepo(), a.log)
	mon := monitor.New(runner, a.snaps, nil, clock.System{}, a.log)

	a.log.Info().
		Int("sports", len(sports)).
		Dur("interval", interval).
		Str("snapshots", a.snaps.Dir()).
		Msg("monitor loop starting")

	if err := mon.Watch(ctx, sports, interval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
