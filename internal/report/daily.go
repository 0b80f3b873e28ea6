package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"homepulse/internal/clock"
	"homepulse/internal/notify"
)

// DefaultHour is the local hour the summary goes out when unset.
const DefaultHour = 9

const day = 24 * time.Hour

// DailyOptions tune the summary scheduler.
type DailyOptions struct {
	Hour int
	// SendNow fires one extra summary at start. The regular schedule is
	// unaffected.
	SendNow bool
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Daily sends the summary once a day. Only the first firing is aligned to
// the wall clock; later ones follow a fixed 24h ticker.
type Daily struct {
	builder  *Builder
	notifier notify.Notifier
	hour     int
	sendNow  bool
	clock    clock.Clock
	logger   *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewDaily creates a daily summary scheduler. An hour outside 0-23 falls
// back to DefaultHour.
func NewDaily(builder *Builder, notifier notify.Notifier, opts DailyOptions) *Daily {
	if opts.Hour < 0 || opts.Hour > 23 {
		opts.Hour = DefaultHour
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Daily{
		builder:  builder,
		notifier: notifier,
		hour:     opts.Hour,
		sendNow:  opts.SendNow,
		clock:    opts.Clock,
		logger:   opts.Logger.With("component", "daily"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the scheduling goroutine.
func (d *Daily) Start() {
	go d.run()
}

// Stop ends the schedule and waits for a summary being sent.
func (d *Daily) Stop() {
	select {
	case <-d.doneCh:
		return
	default:
	}
	close(d.stopCh)
	<-d.doneCh
}

// SendNow composes the summary, sends it and returns the text. The text is
// returned even when delivery fails.
func (d *Daily) SendNow(ctx context.Context) (string, error) {
	text, err := d.builder.Compose(ctx)
	if err != nil {
		return "", fmt.Errorf("compose summary: %w", err)
	}
	if err := d.notifier.Notify(ctx, text); err != nil {
		return text, fmt.Errorf("send summary: %w", err)
	}
	return text, nil
}

func (d *Daily) run() {
	defer close(d.doneCh)

	if d.sendNow {
		d.fire()
	}

	now := d.clock.Now()
	next := NextFire(now, d.hour)
	d.logger.Info("daily summary scheduled", "next", next.Format(time.RFC3339))

	select {
	case <-d.clock.After(next.Sub(now)):
		d.fire()
	case <-d.stopCh:
		return
	}

	ticker := d.clock.NewTicker(day)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			d.fire()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Daily) fire() {
	text, err := d.SendNow(context.Background())
	if err != nil {
		d.logger.Error("daily summary failed", "error", err)
		return
	}
	d.logger.Info("daily summary sent", "length", len(text))
}
