// Package store persists device state, the event log and response-time
// samples.
package store

import (
	"context"

	"homepulse/internal/models"
)

// Store is the persistence contract the monitor, reports and dashboard are
// built on. Implementations must make each single write atomic, and
// RecordTransition atomic as a whole.
type Store interface {
	GetDeviceState(ctx context.Context, id string) (models.DeviceState, bool, error)
	UpsertDeviceState(ctx context.Context, state models.DeviceState) error
	ListDeviceStates(ctx context.Context) ([]models.DeviceState, error)

	AddEvent(ctx context.Context, ev *models.Event) error
	// RecordTransition writes state and, when ev is non-nil, ev as one
	// atomic unit so a flip is never persisted without its event.
	RecordTransition(ctx context.Context, state models.DeviceState, ev *models.Event) error
	ListEvents(ctx context.Context, limit int) ([]models.Event, error)

	AddResponseTime(ctx context.Context, sample models.ResponseTimeSample) error
	ResponseTimes(ctx context.Context, deviceID string, limit int) ([]models.ResponseTimeSample, error)
	ResponseTimesSince(ctx context.Context, deviceID string, sinceTs int64) ([]models.ResponseTimeSample, error)

	EventStats(ctx context.Context, startTs, endTs int64) (models.EventStats, error)
	UptimeStats(ctx context.Context) (models.UptimeStats, error)
	ResponseTimeStats(ctx context.Context, deviceID string, hours int) (models.ResponseTimeStats, error)
	CleanupResponseTimes(ctx context.Context, retentionDays int) (int64, error)
}

const secondsPerDay = 24 * 3600
