package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/grade"
)

// runGrade settles one slate date against final scores.
func runGrade(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	sportFlag, _ := cmd.Flags().GetString("sport")
	date, _ := cmd.Flags().GetString("date")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	if date == "" {
		date = clock.NowET(clock.System{}).AddDate(0, 0, -1).Format("2006-01-02")
	}

	grader := a.grader()

	var sums []grade.Summary
	if sportFlag != "" {
		sport, err := parseSport(sportFlag)
		if err != nil {
			return err
		}
		sum, err := grader.GradeSport(ctx, sport, date)
		if err != nil {
			return err
		}
		sums = []grade.Summary{sum}
	} else {
		if sums, err = grader.GradeAll(ctx, date); err != nil {
			return err
		}
	}

	if len(sums) == 0 {
		fmt.Printf("no gradeable slates for %s\n", date)
		return nil
	}
	for _, sum := range sums {
		fmt.Printf("%-6s %s: %d graded (%dW-%dL-%dP, %d void), %d skipped\n",
			sum.Sport, sum.Date, sum.Graded, sum.Wins, sum.Losses, sum.Pushes, sum.Voids, sum.Skipped)
	}
	return nil
}
