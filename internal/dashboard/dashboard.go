// Package dashboard is the read side used by the HTTP server and the CLI.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"homepulse/internal/clock"
	"homepulse/internal/history"
	"homepulse/internal/models"
)

// Limits applied to read queries.
const (
	DefaultEventLimit        = 50
	MaxEventLimit            = 500
	DefaultResponseTimeLimit = 60
	MaxResponseTimeLimit     = 1440
	DefaultStatsHours        = 24
	MaxStatsHours            = 168
)

// Store is the read part of the store contract.
type Store interface {
	ListDeviceStates(ctx context.Context) ([]models.DeviceState, error)
	ListEvents(ctx context.Context, limit int) ([]models.Event, error)
	ResponseTimes(ctx context.Context, deviceID string, limit int) ([]models.ResponseTimeSample, error)
	ResponseTimesSince(ctx context.Context, deviceID string, sinceTs int64) ([]models.ResponseTimeSample, error)
	UptimeStats(ctx context.Context) (models.UptimeStats, error)
	ResponseTimeStats(ctx context.Context, deviceID string, hours int) (models.ResponseTimeStats, error)
}

// Summarizer builds the summary view.
type Summarizer interface {
	View(ctx context.Context) (models.SummaryView, error)
}

// Sender composes and delivers the summary on demand.
type Sender interface {
	SendNow(ctx context.Context) (string, error)
}

// Snapshot is the live payload pushed to dashboard clients.
type Snapshot struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Devices     []models.DeviceState `json:"devices"`
	Events      []models.Event       `json:"events"`
	Uptime      models.UptimeStats   `json:"uptime"`
}

// Service answers dashboard queries. Reads may observe a tick in progress.
type Service struct {
	store   Store
	summary Summarizer
	sender  Sender
	clock   clock.Clock
}

// New builds the read-side service over store.
func New(store Store, summary Summarizer, sender Sender, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{store: store, summary: summary, sender: sender, clock: clk}
}

// Devices returns the current state of every device, ordered by name.
func (s *Service) Devices(ctx context.Context) ([]models.DeviceState, error) {
	return s.store.ListDeviceStates(ctx)
}

// Events returns the newest events, limit clamped to the events range.
func (s *Service) Events(ctx context.Context, limit int) ([]models.Event, error) {
	return s.store.ListEvents(ctx, Clamp(limit, DefaultEventLimit, MaxEventLimit))
}

// Summary returns yesterday's event counts next to the live uptime.
func (s *Service) Summary(ctx context.Context) (models.SummaryView, error) {
	return s.summary.View(ctx)
}

// SendSummary forces the daily summary out and returns its text.
func (s *Service) SendSummary(ctx context.Context) (string, error) {
	return s.sender.SendNow(ctx)
}

// AllResponseTimes returns the latest samples of every known device, keyed
// by device id.
func (s *Service) AllResponseTimes(ctx context.Context, limit int) (map[string]models.DeviceResponseTimes, error) {
	limit = Clamp(limit, DefaultResponseTimeLimit, MaxResponseTimeLimit)
	states, err := s.store.ListDeviceStates(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.DeviceResponseTimes, len(states))
	for _, state := range states {
		samples, err := s.store.ResponseTimes(ctx, state.ID, limit)
		if err != nil {
			return nil, fmt.Errorf("response times of %s: %w", state.ID, err)
		}
		if samples == nil {
			samples = []models.ResponseTimeSample{}
		}
		out[state.ID] = models.DeviceResponseTimes{Name: state.Name, Data: samples}
	}
	return out, nil
}

// AllResponseTimeStats aggregates latency over the trailing hours for every
// known device, keyed by device id.
func (s *Service) AllResponseTimeStats(ctx context.Context, hours int) (map[string]models.DeviceResponseTimeStats, error) {
	hours = Clamp(hours, DefaultStatsHours, MaxStatsHours)
	states, err := s.store.ListDeviceStates(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.DeviceResponseTimeStats, len(states))
	for _, state := range states {
		stats, err := s.store.ResponseTimeStats(ctx, state.ID, hours)
		if err != nil {
			return nil, fmt.Errorf("response time stats of %s: %w", state.ID, err)
		}
		out[state.ID] = models.DeviceResponseTimeStats{Name: state.Name, ResponseTimeStats: stats}
	}
	return out, nil
}

// Timelines buckets each device's samples over the trailing hours.
func (s *Service) Timelines(ctx context.Context, hours int) ([]models.DeviceTimeline, error) {
	hours = Clamp(hours, DefaultStatsHours, MaxStatsHours)
	end := s.clock.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	states, err := s.store.ListDeviceStates(ctx)
	if err != nil {
		return nil, err
	}
	series := make([]history.Series, 0, len(states))
	for _, state := range states {
		// Reach back one bucket so the first point can inherit state.
		since := start.Add(-time.Duration(hours) * time.Hour / history.DefaultTimelinePoints)
		samples, err := s.store.ResponseTimesSince(ctx, state.ID, since.Unix())
		if err != nil {
			return nil, fmt.Errorf("samples of %s: %w", state.ID, err)
		}
		series = append(series, history.Series{DeviceID: state.ID, DeviceName: state.Name, Samples: samples})
	}
	return history.BuildDeviceTimelines(series, start, end, history.DefaultTimelinePoints), nil
}

// Snapshot collects the live view pushed over the websocket.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	devices, err := s.store.ListDeviceStates(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	events, err := s.store.ListEvents(ctx, DefaultEventLimit)
	if err != nil {
		return Snapshot{}, err
	}
	uptime, err := s.store.UptimeStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		GeneratedAt: s.clock.Now().UTC(),
		Devices:     devices,
		Events:      events,
		Uptime:      uptime,
	}, nil
}

// Clamp returns fallback for non-positive values and caps at max.
func Clamp(value, fallback, max int) int {
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}
