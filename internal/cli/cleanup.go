package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var retentionDays int

// cleanupCmd prunes old response-time samples. Run it from cron; the
// service never prunes on its own.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete response-time samples older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		days := cfg.RetentionDays
		if cmd.Flags().Changed("days") {
			days = retentionDays
		}
		if days < 1 {
			return errors.New("--days must be at least 1")
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		removed, err := a.store.CleanupResponseTimes(cmd.Context(), days)
		if err != nil {
			return err
		}
		logger.Info("response times pruned", "removed", removed, "retention_days", days)
		fmt.Printf("Removed %d sample(s) older than %d day(s).\n", removed, days)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&retentionDays, "days", 0, "Retention in days (defaults to retention_days from config)")
	rootCmd.AddCommand(cleanupCmd)
}
