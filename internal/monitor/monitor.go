package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"homepulse/internal/clock"
	"homepulse/internal/models"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 60 * time.Second

// DeviceSource yields the current device list. It is consulted on every
// tick so edits take effect without restarting the loop.
type DeviceSource interface {
	Devices(ctx context.Context) ([]models.Device, error)
}

// Prober checks a single device. Implementations never fail; problems are
// reported through the result.
type Prober interface {
	Probe(ctx context.Context, device models.Device) models.ProbeResult
}

// Options tune the monitor loop.
type Options struct {
	Interval time.Duration
	// Workers bounds how many devices are probed at once. One, the default,
	// probes devices strictly in order.
	Workers int
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Outcome is the per-device part of a tick report.
type Outcome struct {
	Transition Transition
	Err        error
}

// TickReport summarises one pass over all devices.
type TickReport struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []Outcome
}

// Failed counts devices whose state could not be recorded.
func (r TickReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Monitor periodically probes devices and feeds results to the engine.
type Monitor struct {
	source   DeviceSource
	prober   Prober
	engine   *Engine
	interval time.Duration
	workers  int
	clock    clock.Clock
	logger   *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a monitor. Ticks never overlap: a slow tick delays the next
// one instead of running alongside it.
func New(source DeviceSource, prober Prober, engine *Engine, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Monitor{
		source:   source,
		prober:   prober,
		engine:   engine,
		interval: opts.Interval,
		workers:  opts.Workers,
		clock:    opts.Clock,
		logger:   opts.Logger.With("component", "monitor"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// Stop requests loop termination and waits for the tick in progress.
func (m *Monitor) Stop() {
	select {
	case <-m.doneCh:
		return
	default:
	}
	close(m.stopCh)
	<-m.doneCh
}

// RunOnce executes a single tick. It fails only when the device list
// cannot be loaded; per-device failures are reported in the outcomes.
func (m *Monitor) RunOnce(ctx context.Context) (TickReport, error) {
	report := TickReport{
		ID:        uuid.NewString(),
		StartedAt: m.clock.Now(),
	}
	logger := m.logger.With("tick", report.ID)

	devices, err := m.source.Devices(ctx)
	if err != nil {
		return report, fmt.Errorf("load devices: %w", err)
	}

	report.Outcomes = make([]Outcome, len(devices))
	if m.workers == 1 || len(devices) < 2 {
		for i, device := range devices {
			report.Outcomes[i] = m.checkDevice(ctx, logger, device)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(m.workers)
		for i, device := range devices {
			i, device := i, device
			g.Go(func() error {
				report.Outcomes[i] = m.checkDevice(ctx, logger, device)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Duration = m.clock.Now().Sub(report.StartedAt)
	logger.Debug("tick complete", "devices", len(devices), "failed", report.Failed(), "duration", report.Duration)
	return report, nil
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	// The ticker starts with the first tick so intervals are measured from
	// tick start.
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick()

	for {
		select {
		case <-ticker.C():
			m.tick()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) tick() {
	if _, err := m.RunOnce(context.Background()); err != nil {
		m.logger.Error("monitor tick skipped", "error", err)
	}
}

// checkDevice probes one device and records the result. A store failure or
// a panic is contained here so the remaining devices are still checked.
func (m *Monitor) checkDevice(ctx context.Context, logger *slog.Logger, device models.Device) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Transition: Transition{Device: device},
				Err:        fmt.Errorf("check %s panicked: %v", device.ID, r),
			}
			logger.Error("device check panicked", "device", device.ID, "panic", r)
		}
	}()

	result := m.prober.Probe(ctx, device)
	logger.Debug("probe finished", "device", device.ID, "ok", result.OK, "message", result.Message)

	tr, err := m.engine.Apply(ctx, device, result)
	tr.Device, tr.Result = device, result
	out = Outcome{Transition: tr, Err: err}
	if err != nil {
		logger.Error("recording probe result failed", "device", device.ID, "error", err)
	}
	return out
}
