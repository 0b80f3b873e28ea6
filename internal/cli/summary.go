package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sendSummary bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print yesterday's summary, optionally sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		if !sendSummary {
			text, err := a.builder.Compose(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		}

		text, err := a.daily.SendNow(cmd.Context())
		if text != "" {
			fmt.Println(text)
		}
		return err
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&sendSummary, "send", false, "Deliver the summary through the configured channels")
	rootCmd.AddCommand(summaryCmd)
}
