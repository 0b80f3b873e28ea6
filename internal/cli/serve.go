package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"homepulse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor, the daily summary and the dashboard",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	a.monitor.Start()
	defer a.monitor.Stop()
	a.daily.Start()
	defer a.daily.Stop()

	srv := server.New(cfg.Listen, a.dashboard(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("HomePulse listening",
		"addr", cfg.Listen,
		"interval_sec", cfg.CheckIntervalSec,
		"summary_hour", cfg.DailySummaryHour,
		"database", cfg.DatabasePath,
	)
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
