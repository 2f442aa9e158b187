package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

const probeTimeout = 3 * time.Second

// runIntegrations prints the readiness report. A critical integration with
// no credentials makes the command fail so deploy checks catch it.
func runIntegrations(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	report, readyErr := a.reg.Readiness(ctx, probeTimeout)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATION\tCRITICALITY\tCONFIGURED\tVALIDATED\tDETAIL")
	for _, st := range report {
		detail := strings.Join(st.MissingEnv, ", ")
		if st.ProbeError != "" {
			detail = st.ProbeError
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\n",
			st.Name, st.Criticality, st.Configured, st.Validated, detail)
	}
	w.Flush()

	if readyErr != nil {
		return readyErr
	}
	fmt.Println("\nall critical integrations configured")
	return nil
}
