package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homepulse/internal/clock"
	"homepulse/internal/metrics"
	"homepulse/internal/models"
)

// SQLStore implements Store on top of a migrated gorm database.
type SQLStore struct {
	db    *gorm.DB
	clock clock.Clock
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps db. The clock anchors the trailing windows used by
// ResponseTimeStats and CleanupResponseTimes.
func NewSQLStore(db *gorm.DB, clk clock.Clock) *SQLStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &SQLStore{db: db, clock: clk}
}

// GetDeviceState returns the state of id and whether it exists.
func (s *SQLStore) GetDeviceState(ctx context.Context, id string) (models.DeviceState, bool, error) {
	var state models.DeviceState
	err := s.db.WithContext(ctx).First(&state, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DeviceState{}, false, nil
	}
	if err != nil {
		return models.DeviceState{}, false, fmt.Errorf("get device state %s: %w", id, err)
	}
	return state, true, nil
}

// UpsertDeviceState inserts state or replaces the row with the same id.
func (s *SQLStore) UpsertDeviceState(ctx context.Context, state models.DeviceState) error {
	if err := upsertState(s.db.WithContext(ctx), state); err != nil {
		return fmt.Errorf("upsert device state %s: %w", state.ID, err)
	}
	return nil
}

// RecordTransition upserts state and, when ev is non-nil, inserts ev in the
// same transaction.
func (s *SQLStore) RecordTransition(ctx context.Context, state models.DeviceState, ev *models.Event) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertState(tx, state); err != nil {
			return err
		}
		if ev == nil {
			return nil
		}
		return tx.Create(ev).Error
	})
	if err != nil {
		return fmt.Errorf("record transition of %s: %w", state.ID, err)
	}
	return nil
}

func upsertState(db *gorm.DB, state models.DeviceState) error {
	return db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&state).Error
}

// ListDeviceStates returns all states ordered by name.
func (s *SQLStore) ListDeviceStates(ctx context.Context) ([]models.DeviceState, error) {
	var states []models.DeviceState
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("list device states: %w", err)
	}
	return states, nil
}

// AddEvent inserts ev and fills in its ID.
func (s *SQLStore) AddEvent(ctx context.Context, ev *models.Event) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("add event for %s: %w", ev.DeviceID, err)
	}
	return nil
}

// ListEvents returns up to limit events, newest first.
func (s *SQLStore) ListEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Order("ts DESC").
		Order("id DESC").
		Scopes(limitScope(limit)).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// AddResponseTime inserts one sample.
func (s *SQLStore) AddResponseTime(ctx context.Context, sample models.ResponseTimeSample) error {
	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		return fmt.Errorf("add response time for %s: %w", sample.DeviceID, err)
	}
	return nil
}

// ResponseTimes returns the latest limit samples for a device, oldest first.
func (s *SQLStore) ResponseTimes(ctx context.Context, deviceID string, limit int) ([]models.ResponseTimeSample, error) {
	var samples []models.ResponseTimeSample
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("ts DESC").
		Order("id DESC").
		Scopes(limitScope(limit)).
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("list response times for %s: %w", deviceID, err)
	}
	reverse(samples)
	return samples, nil
}

// ResponseTimesSince returns samples with ts >= sinceTs, oldest first.
func (s *SQLStore) ResponseTimesSince(ctx context.Context, deviceID string, sinceTs int64) ([]models.ResponseTimeSample, error) {
	var samples []models.ResponseTimeSample
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND ts >= ?", deviceID, sinceTs).
		Order("ts ASC").
		Order("id ASC").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("list response times for %s: %w", deviceID, err)
	}
	return samples, nil
}

// EventStats aggregates events in [startTs, endTs).
func (s *SQLStore) EventStats(ctx context.Context, startTs, endTs int64) (models.EventStats, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("ts >= ? AND ts < ?", startTs, endTs).
		Order("ts ASC").
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return models.EventStats{}, fmt.Errorf("event stats: %w", err)
	}
	return metrics.ComputeEventStats(events), nil
}

// UptimeStats reports how many devices are currently up.
func (s *SQLStore) UptimeStats(ctx context.Context) (models.UptimeStats, error) {
	states, err := s.ListDeviceStates(ctx)
	if err != nil {
		return models.UptimeStats{}, err
	}
	return metrics.ComputeUptime(states), nil
}

// ResponseTimeStats aggregates non-null latencies of the trailing hours.
func (s *SQLStore) ResponseTimeStats(ctx context.Context, deviceID string, hours int) (models.ResponseTimeStats, error) {
	since := s.clock.Now().Unix() - int64(hours)*3600

	var row struct {
		Avg   *float64
		Max   *int64
		Min   *int64
		Count int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.ResponseTimeSample{}).
		Select("AVG(response_time) AS avg, MAX(response_time) AS max, MIN(response_time) AS min, COUNT(*) AS count").
		Where("device_id = ? AND ts >= ? AND response_time IS NOT NULL", deviceID, since).
		Scan(&row).Error
	if err != nil {
		return models.ResponseTimeStats{}, fmt.Errorf("response time stats for %s: %w", deviceID, err)
	}

	stats := models.ResponseTimeStats{Count: row.Count}
	if row.Count == 0 {
		return stats, nil
	}
	if row.Avg != nil {
		avg := metrics.RoundAverage(*row.Avg)
		stats.Avg = &avg
	}
	stats.Max = row.Max
	stats.Min = row.Min
	return stats, nil
}

// CleanupResponseTimes deletes samples older than retentionDays and
// returns how many were removed.
func (s *SQLStore) CleanupResponseTimes(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.clock.Now().Unix() - int64(retentionDays)*secondsPerDay
	result := s.db.WithContext(ctx).
		Where("ts < ?", cutoff).
		Delete(&models.ResponseTimeSample{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup response times: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// limitScope applies limit when positive; otherwise all rows are returned.
func limitScope(limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	}
}

func reverse(samples []models.ResponseTimeSample) {
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
}
