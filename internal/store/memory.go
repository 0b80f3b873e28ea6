package store

import (
	"context"
	"sort"
	"sync"

	"homepulse/internal/clock"
	"homepulse/internal/metrics"
	"homepulse/internal/models"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// one-shot CLI commands run with --db :memory:.
type MemoryStore struct {
	mu      sync.RWMutex
	clock   clock.Clock
	states  map[string]models.DeviceState
	events  []models.Event
	samples []models.ResponseTimeSample
	nextID  int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryStore{
		clock:  clk,
		states: make(map[string]models.DeviceState),
	}
}

// GetDeviceState returns the state of id and whether it exists.
func (s *MemoryStore) GetDeviceState(_ context.Context, id string) (models.DeviceState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[id]
	return state, ok, nil
}

// UpsertDeviceState inserts or replaces the state with the same id.
func (s *MemoryStore) UpsertDeviceState(_ context.Context, state models.DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ID] = state
	return nil
}

// ListDeviceStates returns all states ordered by name.
func (s *MemoryStore) ListDeviceStates(_ context.Context) ([]models.DeviceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DeviceState, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// AddEvent appends ev and assigns its ID.
func (s *MemoryStore) AddEvent(_ context.Context, ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendEvent(ev)
	return nil
}

// RecordTransition stores state and, when ev is non-nil, appends ev under a
// single lock so readers never see one without the other.
func (s *MemoryStore) RecordTransition(_ context.Context, state models.DeviceState, ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ID] = state
	if ev != nil {
		s.appendEvent(ev)
	}
	return nil
}

func (s *MemoryStore) appendEvent(ev *models.Event) {
	s.nextID++
	ev.ID = s.nextID
	s.events = append(s.events, *ev)
}

// ListEvents returns up to limit events, newest first.
func (s *MemoryStore) ListEvents(_ context.Context, limit int) ([]models.Event, error) {
	s.mu.RLock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ts == out[j].Ts {
			return out[i].ID > out[j].ID
		}
		return out[i].Ts > out[j].Ts
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddResponseTime appends one sample.
func (s *MemoryStore) AddResponseTime(_ context.Context, sample models.ResponseTimeSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sample.ID = s.nextID
	s.samples = append(s.samples, sample)
	return nil
}

// ResponseTimes returns the latest limit samples for a device, oldest first.
func (s *MemoryStore) ResponseTimes(_ context.Context, deviceID string, limit int) ([]models.ResponseTimeSample, error) {
	out := s.deviceSamples(deviceID, func(models.ResponseTimeSample) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// ResponseTimesSince returns samples with ts >= sinceTs, oldest first.
func (s *MemoryStore) ResponseTimesSince(_ context.Context, deviceID string, sinceTs int64) ([]models.ResponseTimeSample, error) {
	return s.deviceSamples(deviceID, func(sample models.ResponseTimeSample) bool {
		return sample.Ts >= sinceTs
	}), nil
}

// EventStats aggregates events in [startTs, endTs).
func (s *MemoryStore) EventStats(_ context.Context, startTs, endTs int64) (models.EventStats, error) {
	s.mu.RLock()
	window := make([]models.Event, 0)
	for _, ev := range s.events {
		if ev.Ts >= startTs && ev.Ts < endTs {
			window = append(window, ev)
		}
	}
	s.mu.RUnlock()
	return metrics.ComputeEventStats(window), nil
}

// UptimeStats reports how many devices are currently up.
func (s *MemoryStore) UptimeStats(ctx context.Context) (models.UptimeStats, error) {
	states, err := s.ListDeviceStates(ctx)
	if err != nil {
		return models.UptimeStats{}, err
	}
	return metrics.ComputeUptime(states), nil
}

// ResponseTimeStats aggregates latencies of the trailing hours.
func (s *MemoryStore) ResponseTimeStats(_ context.Context, deviceID string, hours int) (models.ResponseTimeStats, error) {
	since := s.clock.Now().Unix() - int64(hours)*3600
	samples := s.deviceSamples(deviceID, func(sample models.ResponseTimeSample) bool {
		return sample.Ts >= since
	})
	return metrics.ComputeResponseTimeStats(samples), nil
}

// CleanupResponseTimes deletes samples older than retentionDays and
// returns how many were removed.
func (s *MemoryStore) CleanupResponseTimes(_ context.Context, retentionDays int) (int64, error) {
	cutoff := s.clock.Now().Unix() - int64(retentionDays)*secondsPerDay

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.samples[:0]
	var removed int64
	for _, sample := range s.samples {
		if sample.Ts < cutoff {
			removed++
			continue
		}
		kept = append(kept, sample)
	}
	s.samples = kept
	return removed, nil
}

// deviceSamples returns matching samples for a device ordered by ts.
func (s *MemoryStore) deviceSamples(deviceID string, keep func(models.ResponseTimeSample) bool) []models.ResponseTimeSample {
	s.mu.RLock()
	out := make([]models.ResponseTimeSample, 0)
	for _, sample := range s.samples {
		if sample.DeviceID == deviceID && keep(sample) {
			out = append(out, sample)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ts < out[j].Ts
	})
	return out
}
