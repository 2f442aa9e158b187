package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/slatepick/slatepick/internal/picks"
	"github.com/slatepick/slatepick/internal/pipeline"
)

// runScan executes one slate and prints it.
func runScan(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	sportFlag, _ := cmd.Flags().GetString("sport")
	date, _ := cmd.Flags().GetString("date")
	debug, _ := cmd.Flags().GetBool("debug")
	output, _ := cmd.Flags().GetString("output")

	sport, err := parseSport(sportFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pipe.Run(ctx, pipeline.Request{Sport: sport, Date: date, Debug: debug})
	if err != nil {
		return err
	}

	switch output {
	case "json":
		return printJSON(res)
	case "table", "":
		printSlate(res)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (table|json)", output)
	}
}

// printJSON writes the sanitized result, the same shape the debug HTTP
// surface serves.
func printJSON(res *pipeline.Result) error {
	clean, err := picks.Sanitize(res)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(clean)
}

func printSlate(res *pipeline.Result) {
	fmt.Printf("%s %s  slate health: %s  request: %s\n",
		strings.ToUpper(string(res.Sport)), res.DateStr, res.Health, res.RequestID)

	if len(res.Cards) == 0 {
		fmt.Println("no publishable picks")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tSCORE\tUNITS\tBET\tMATCHUP\tTIP (ET)")
	for _, c := range res.Cards {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%s\t%s\t%s\n",
			c.Tier, c.Score, c.Units, c.BetString, c.Matchup, c.StartTimeET)
	}
	w.Flush()

	fmt.Printf("\n%d picks from %d scored candidates in %s\n",
		len(res.Cards), len(res.Scored), res.Duration.Round(time.Millisecond))
	if len(res.ValidatorDrops) > 0 || len(res.GateDrops) > 0 {
		fmt.Printf("dropped: %d by validators, %d at the publish gate\n",
			len(res.ValidatorDrops), len(res.GateDrops))
	}
}
