package cli

import (
	"fmt"
	"time"

	"homepulse/internal/clock"
	"homepulse/internal/config"
	"homepulse/internal/dashboard"
	"homepulse/internal/database"
	"homepulse/internal/monitor"
	"homepulse/internal/notify"
	"homepulse/internal/probe"
	"homepulse/internal/report"
	"homepulse/internal/store"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      config.Config
	store    store.Store
	notifier notify.Notifier
	engine   *monitor.Engine
	monitor  *monitor.Monitor
	builder  *report.Builder
	daily    *report.Daily
	close    func() error
}

func newApp(cfg config.Config) (*app, error) {
	clk := clock.Real()

	st, closeStore, err := openStore(cfg.DatabasePath, clk)
	if err != nil {
		return nil, err
	}

	notifier := buildNotifier(cfg)
	engine := monitor.NewEngine(st, notifier, clk, logger)
	mon := monitor.New(cfg.DeviceSource(), probe.New(), engine, monitor.Options{
		Interval: time.Duration(cfg.CheckIntervalSec) * time.Second,
		Workers:  cfg.ProbeWorkers,
		Clock:    clk,
		Logger:   logger,
	})
	builder := report.NewBuilder(st, clk)
	daily := report.NewDaily(builder, notifier, report.DailyOptions{
		Hour:    cfg.DailySummaryHour,
		SendNow: cfg.SendSummaryNow,
		Clock:   clk,
		Logger:  logger,
	})

	return &app{
		cfg:      cfg,
		store:    st,
		notifier: notifier,
		engine:   engine,
		monitor:  mon,
		builder:  builder,
		daily:    daily,
		close:    closeStore,
	}, nil
}

func (a *app) dashboard() *dashboard.Service {
	return dashboard.New(a.store, a.builder, a.daily, clock.Real())
}

// openStore uses SQLite unless the path asks for an in-memory store.
func openStore(path string, clk clock.Clock) (store.Store, func() error, error) {
	if path == database.MemoryPath {
		return store.NewMemoryStore(clk), func() error { return nil }, nil
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store.NewSQLStore(db, clk), func() error { return database.Close(db) }, nil
}

// buildNotifier combines every configured channel. Unconfigured channels
// are left out so no typed nil reaches the combinator.
func buildNotifier(cfg config.Config) notify.Notifier {
	var channels []notify.Named
	if tg := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID); tg != nil {
		channels = append(channels, notify.Named{Name: "telegram", Notifier: tg})
	}
	if email := notify.NewEmail(cfg.Email.APIKey, cfg.Email.From, cfg.Email.To); email != nil {
		channels = append(channels, notify.Named{Name: "email", Notifier: email})
	}
	if len(channels) == 0 {
		logger.Warn("no notification channel configured, alerts are only logged")
	}
	return notify.Combine(channels...)
}
