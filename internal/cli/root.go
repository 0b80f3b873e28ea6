package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"homepulse/internal/config"
)

var (
	configPath string
	dbOverride string
	verbose    bool
	logger     *slog.Logger
)

// rootCmd starts the monitor when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "homepulse",
	Short: "Home infrastructure availability monitor",
	Long: `HomePulse probes home devices over HTTP and TCP, records every state
change, alerts through Telegram or e-mail and serves a small dashboard.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	RunE: runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "homepulse.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Database path, overrides config and DB_PATH (\":memory:\" keeps data in memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
}

// setupLogger configures the logger based on the verbose flag
func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbOverride != "" {
		cfg.DatabasePath = dbOverride
	}
	return cfg, nil
}
