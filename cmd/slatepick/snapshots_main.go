package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
)

// runSnapshotsGC prunes snapshot archives past the retention count. This only
// touches the filesystem, so it skips the full engine bootstrap.
func runSnapshotsGC(cmd *cobra.Command, args []string) error {
	keep, _ := cmd.Flags().GetInt("keep")

	cfg := config.Load()
	if keep <= 0 {
		keep = cfg.SnapshotKeep
	}

	store := monitor.NewStore(cfg.SnapshotDir, keep)
	total := 0
	for _, sport := range models.AllSports {
		n, err := store.GC(sport)
		if err != nil {
			return fmt.Errorf("gc %s snapshots: %w", sport, err)
		}
		total += n
	}

	fmt.Printf("removed %d snapshot archives under %s (keeping %d per sport)\n",
		total, cfg.SnapshotDir, keep)
	return nil
}
