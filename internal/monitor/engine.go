package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"homepulse/internal/clock"
	"homepulse/internal/models"
	"homepulse/internal/notify"
)

// StateStore is the part of the store the engine writes to.
type StateStore interface {
	GetDeviceState(ctx context.Context, id string) (models.DeviceState, bool, error)
	RecordTransition(ctx context.Context, state models.DeviceState, ev *models.Event) error
	AddResponseTime(ctx context.Context, sample models.ResponseTimeSample) error
}

// Transition describes what the engine did with one probe result.
type Transition struct {
	Device    models.Device
	Result    models.ProbeResult
	State     models.DeviceState
	Changed   bool
	Event     *models.Event
	Notified  bool
	NotifyErr error
}

// Engine turns probe results into persisted state, events and
// notifications. It is the only writer of device state and events.
type Engine struct {
	store    StateStore
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// NewEngine wires an engine; a nil notifier disables notifications.
func NewEngine(store StateStore, notifier notify.Notifier, clk clock.Clock, logger *slog.Logger) *Engine {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger.With("component", "engine"),
	}
}

// Apply records result for device. A device's first observation always
// counts as a change. State and event are committed together before the
// sample, so a failed write never leaves a flip without its event. Store
// errors are returned; notification errors are only logged.
func (e *Engine) Apply(ctx context.Context, device models.Device, result models.ProbeResult) (Transition, error) {
	checkedAt := e.clock.Now()
	now := checkedAt.Unix()

	prev, found, err := e.store.GetDeviceState(ctx, device.ID)
	if err != nil {
		return Transition{}, fmt.Errorf("read state of %s: %w", device.ID, err)
	}

	isUp := result.OK
	changed := !found || prev.IsUp != isUp
	lastChange := now
	if !changed && prev.LastChangeTs != 0 {
		lastChange = prev.LastChangeTs
	}

	state := models.DeviceState{
		ID:           device.ID,
		Name:         device.Name,
		IsUp:         isUp,
		LastChangeTs: lastChange,
		LastCheckTs:  now,
		LastMessage:  result.Message,
	}
	tr := Transition{Device: device, Result: result, State: state, Changed: changed}

	var ev *models.Event
	if changed {
		ev = &models.Event{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Type:       eventType(isUp),
			Message:    result.Message,
			Ts:         now,
		}
	}
	if err := e.store.RecordTransition(ctx, state, ev); err != nil {
		return tr, fmt.Errorf("write state of %s: %w", device.ID, err)
	}

	if changed {
		tr.Event = ev
		e.logger.Info("device state changed", "device", device.ID, "type", ev.Type, "message", result.Message)
		if err := e.notifier.Notify(ctx, FormatTransition(device, ev.Type, result.Message, checkedAt)); err != nil {
			tr.NotifyErr = err
			e.logger.Warn("notification failed", "device", device.ID, "type", ev.Type, "error", err)
		} else {
			tr.Notified = true
		}
	}

	sample := models.ResponseTimeSample{
		DeviceID:       device.ID,
		ResponseTimeMs: result.ResponseTimeMs,
		IsUp:           isUp,
		Ts:             now,
	}
	if err := e.store.AddResponseTime(ctx, sample); err != nil {
		return tr, fmt.Errorf("write response time of %s: %w", device.ID, err)
	}
	return tr, nil
}

func eventType(isUp bool) string {
	if isUp {
		return models.EventUp
	}
	return models.EventDown
}
