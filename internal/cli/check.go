package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// checkCmd runs a single tick, mainly to validate a device list.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every device once and record the results",
	Long: `Runs one monitoring pass against the configured devices, records the
results like the service would and prints the outcome per device.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.monitor.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tLATENCY\tCHANGED\tMESSAGE")
	for _, out := range report.Outcomes {
		tr := out.Transition
		if out.Err != nil {
			fmt.Fprintf(w, "%s\t%s\tERROR\t-\t-\t%v\n", tr.Device.ID, tr.Device.Name, out.Err)
			continue
		}
		state := "DOWN"
		if tr.Result.OK {
			state = "UP"
		}
		latency := "-"
		if tr.Result.ResponseTimeMs != nil {
			latency = fmt.Sprintf("%dms", *tr.Result.ResponseTimeMs)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", tr.Device.ID, tr.Device.Name, state, latency, tr.Changed, tr.Result.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logger.Debug("check completed", "tick", report.ID, "devices", len(report.Outcomes), "duration", report.Duration)
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d device(s) could not be recorded", failed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
