package metrics

import (
	"math"
	"sort"
	"strconv"

	"homepulse/internal/models"
)

// ComputeUptime reports the share of devices whose current state is up.
// With no devices the percentage is "0" rather than a division fault.
func ComputeUptime(states []models.DeviceState) models.UptimeStats {
	total := len(states)
	up := 0
	for _, state := range states {
		if state.IsUp {
			up++
		}
	}

	percent := "0"
	if total > 0 {
		percent = strconv.FormatFloat(round1(float64(up)/float64(total)*100), 'f', 1, 64)
	}
	return models.UptimeStats{
		Total:         total,
		UpCount:       up,
		DownCount:     total - up,
		UptimePercent: percent,
	}
}

// ComputeEventStats counts UP and DOWN events and groups DOWN events by the
// device name recorded on the event.
func ComputeEventStats(events []models.Event) models.EventStats {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ts == sorted[j].Ts {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Ts < sorted[j].Ts
	})

	stats := models.EventStats{
		TotalEvents:      len(sorted),
		DeviceDownCounts: make(map[string]int),
		Events:           sorted,
	}
	for _, ev := range sorted {
		switch ev.Type {
		case models.EventDown:
			stats.DownCount++
			stats.DeviceDownCounts[ev.DeviceName]++
		case models.EventUp:
			stats.UpCount++
		}
	}
	return stats
}

// ComputeResponseTimeStats aggregates samples with a latency; samples
// without one are ignored. All fields stay nil when nothing qualifies.
func ComputeResponseTimeStats(samples []models.ResponseTimeSample) models.ResponseTimeStats {
	var (
		stats    models.ResponseTimeStats
		sum      int64
		min, max int64
	)
	for _, sample := range samples {
		if sample.ResponseTimeMs == nil {
			continue
		}
		value := *sample.ResponseTimeMs
		if stats.Count == 0 || value < min {
			min = value
		}
		if stats.Count == 0 || value > max {
			max = value
		}
		sum += value
		stats.Count++
	}
	if stats.Count == 0 {
		return stats
	}
	avg := RoundAverage(float64(sum) / float64(stats.Count))
	stats.Avg = &avg
	stats.Min = &min
	stats.Max = &max
	return stats
}

// SampleUptime returns the percentage of samples recorded as up, rounded to
// two decimals.
func SampleUptime(samples []models.ResponseTimeSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	up := 0
	for _, sample := range samples {
		if sample.IsUp {
			up++
		}
	}
	return round2(float64(up) / float64(len(samples)) * 100)
}

// RoundAverage rounds a mean latency to the nearest millisecond.
func RoundAverage(v float64) int64 {
	return int64(math.Round(v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
