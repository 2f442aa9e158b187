package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "slatepick"
	version = "v1.4.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "slatepick",
		Short:   "Daily sports slate decision engine",
		Version: version,
		Long: `SlatePick assembles the day's slate for nba, nfl, mlb, nhl, and ncaab,
scores every candidate through the engine stack, and publishes tiered picks
with full receipts.

Run 'slatepick serve' for the HTTP surface, or 'slatepick scan' for a
one-shot slate in the terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			setupLogging(level)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace|debug|info|warn|error), overrides LOG_LEVEL")
	rootCmd.PersistentFlags().String("config-dir", "config", "Directory holding tuning.yaml and context.yaml")

	// Accept underscore spellings (--log_level) for parity with the env vars.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server with the monitor loop and scheduled jobs",
		Long:  "Serves /live/best-bets, /live/line-shop, /live/betslip, the debug surfaces, and the /ws/changes feed, with the change monitor and cron jobs running in-process",
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "Listen address, overrides LISTEN_ADDR")
	serveCmd.Flags().Bool("no-monitor", false, "Disable the background change monitor")
	serveCmd.Flags().Bool("no-jobs", false, "Disable the cron job scheduler")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one slate end to end and print the picks",
		Long:  "Fetches the board, scores every candidate, applies validators and the publish gate, and prints the tiered picks",
		RunE:  runScan,
	}
	scanCmd.Flags().String("sport", "", "Sport to scan (nba|nfl|mlb|nhl|ncaab)")
	scanCmd.Flags().String("date", "", "ET slate date (YYYY-MM-DD), defaults to today")
	scanCmd.Flags().Bool("debug", false, "Include receipts and request proof")
	scanCmd.Flags().String("output", "table", "Output format (table|json)")
	_ = scanCmd.MarkFlagRequired("sport")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch slates for line moves, injuries, and pick changes",
		Long:  "Rescans on an interval, diffs each run against the stored snapshot, and logs material changes until interrupted",
		RunE:  runMonitor,
	}
	monitorCmd.Flags().String("sport", "", "Single sport to watch, defaults to all")
	monitorCmd.Flags().Duration("interval", 0, "Rescan interval, overrides MONITOR_INTERVAL")

	integrationsCmd := &cobra.Command{
		Use:   "integrations",
		Short: "Report integration readiness",
		Long:  "Prints every declared integration with its configuration and probe status; exits non-zero when a critical integration is unconfigured",
		RunE:  runIntegrations,
	}

	gradeCmd := &cobra.Command{
		Use:   "grade",
		Short: "Settle published picks against final scores",
		Long:  "Grades snapshot picks against the ESPN scoreboard, appends results to the graded log, and writes back to the pick archive when configured",
		RunE:  runGrade,
	}
	gradeCmd.Flags().String("sport", "", "Single sport to grade, defaults to all")
	gradeCmd.Flags().String("date", "", "ET slate date (YYYY-MM-DD), defaults to yesterday")

	snapshotsCmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Snapshot store maintenance",
	}
	snapshotsGCCmd := &cobra.Command{
		Use:   "gc",
		Short: "Prune old snapshot archives",
		Long:  "Removes per-sport snapshot archives beyond the retention count, keeping the latest for each sport",
		RunE:  runSnapshotsGC,
	}
	snapshotsGCCmd.Flags().Int("keep", 0, "Archives to retain per sport, overrides SNAPSHOT_KEEP")
	snapshotsCmd.AddCommand(snapshotsGCCmd)

	rootCmd.AddCommand(serveCmd, scanCmd, monitorCmd, integrationsCmd, gradeCmd, snapshotsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging configures the global zerolog logger. Console formatting only
// happens on a real terminal; piped output stays JSON for log shippers.
func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
