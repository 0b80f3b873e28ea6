package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"homepulse/internal/models"
)

// devicesCmd lists the configured devices next to their last known state.
var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"d", "device"},
	Short:   "List configured devices and their last known state",
	RunE:    runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	devices, err := cfg.DeviceSource().Devices(cmd.Context())
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices configured.")
		return nil
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tTYPE\tTARGET\tTIMEOUT\tSTATE\tLAST CHECK")
	for _, d := range devices {
		state, lastCheck := "-", "-"
		if st, ok, err := a.store.GetDeviceState(cmd.Context(), d.ID); err != nil {
			return err
		} else if ok {
			state = "DOWN"
			if st.IsUp {
				state = "UP"
			}
			lastCheck = unixTime(st.LastCheckTs)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\t%s\n", d.ID, d.Name, d.Type, target(d), d.Timeout(), state, lastCheck)
	}

	logger.Debug("device list completed", "count", len(devices))
	return nil
}

func target(d models.Device) string {
	switch d.Type {
	case models.DeviceTypeHTTP:
		return d.URL
	case models.DeviceTypeTCP:
		return fmt.Sprintf("%s:%d", d.Host, d.Port)
	default:
		return "?"
	}
}

func unixTime(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
