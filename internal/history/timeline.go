package history

import (
	"sort"
	"strings"
	"time"

	"homepulse/internal/metrics"
	"homepulse/internal/models"
)

const (
	// DefaultTimelinePoints controls how many dots we generate per device.
	DefaultTimelinePoints = 80
	maxDetailsPerPoint    = 4
)

// Series is the sample history of one device.
type Series struct {
	DeviceID   string
	DeviceName string
	Samples    []models.ResponseTimeSample
}

// BuildDeviceTimelines converts per-device sample histories into compact
// timelines ordered by device name.
func BuildDeviceTimelines(series []Series, start, end time.Time, points int) []models.DeviceTimeline {
	if points <= 0 {
		points = DefaultTimelinePoints
	}
	if !end.After(start) {
		end = start.Add(time.Minute)
	}

	sorted := make([]Series, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(displayName(sorted[i])) < strings.ToLower(displayName(sorted[j]))
	})

	result := make([]models.DeviceTimeline, 0, len(sorted))
	for _, s := range sorted {
		samples := inWindowOrBefore(s.Samples, end)
		result = append(result, models.DeviceTimeline{
			DeviceID:      s.DeviceID,
			DeviceName:    displayName(s),
			UptimePercent: metrics.SampleUptime(inWindow(samples, start)),
			Timeline:      buildTimeline(samples, start, end, points),
		})
	}
	return result
}

func displayName(s Series) string {
	if s.DeviceName == "" {
		return s.DeviceID
	}
	return s.DeviceName
}

// inWindowOrBefore returns samples before end sorted by time.
func inWindowOrBefore(samples []models.ResponseTimeSample, end time.Time) []models.ResponseTimeSample {
	limit := end.Unix()
	out := make([]models.ResponseTimeSample, 0, len(samples))
	for _, s := range samples {
		if s.Ts < limit {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ts < out[j].Ts })
	return out
}

func inWindow(sorted []models.ResponseTimeSample, start time.Time) []models.ResponseTimeSample {
	from := start.Unix()
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].Ts >= from })
	return sorted[i:]
}

func buildTimeline(samples []models.ResponseTimeSample, start, end time.Time, points int) []models.TimelinePoint {
	bucketDuration := end.Sub(start) / time.Duration(points)
	if bucketDuration <= 0 {
		bucketDuration = time.Minute
	}
	gap := deriveGap(samples)

	output := make([]models.TimelinePoint, 0, points)
	idx := 0
	var last models.ResponseTimeSample
	haveLast := false
	for idx < len(samples) && at(samples[idx]).Before(start) {
		last = samples[idx]
		haveLast = true
		idx++
	}

	for i := 0; i < points; i++ {
		bucketStart := start.Add(time.Duration(i) * bucketDuration)
		bucketEnd := bucketStart.Add(bucketDuration)
		if i == points-1 {
			bucketEnd = end
		}

		var bucket []models.ResponseTimeSample
		for idx < len(samples) && at(samples[idx]).Before(bucketEnd) {
			bucket = append(bucket, samples[idx])
			last = samples[idx]
			haveLast = true
			idx++
		}

		point := models.TimelinePoint{Start: bucketStart, End: bucketEnd}
		switch {
		case len(bucket) > 0:
			point.ClassName, point.Label, point.Details = evaluateBucket(bucket)
		case haveLast && bucketStart.Sub(at(last)) <= gap:
			// Sparse checks: carry the previous state across short gaps.
			point.ClassName, point.Label = classify(last.IsUp)
		default:
			point.ClassName, point.Label = "state-missing", "No data"
		}
		output = append(output, point)
	}
	return output
}

// evaluateBucket marks a bucket unavailable if any check in it failed.
func evaluateBucket(bucket []models.ResponseTimeSample) (className, label string, details []models.TimelineDetail) {
	allUp := true
	for _, s := range bucket {
		if s.IsUp {
			continue
		}
		allUp = false
		if len(details) < maxDetailsPerPoint {
			details = append(details, models.TimelineDetail{Timestamp: at(s), State: "down"})
		}
	}
	className, label = classify(allUp)
	return className, label, details
}

func classify(up bool) (string, string) {
	if up {
		return "state-success", "Operational"
	}
	return "state-error", "Unavailable"
}

// deriveGap estimates how long a sample stays representative: twice the
// median spacing, clamped to [1m, 2h].
func deriveGap(samples []models.ResponseTimeSample) time.Duration {
	const defaultGap = 5 * time.Minute
	if len(samples) < 2 {
		return defaultGap
	}
	diffs := make([]int64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		if d := samples[i].Ts - samples[i-1].Ts; d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return defaultGap
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	gap := 2 * time.Duration(diffs[len(diffs)/2]) * time.Second
	if gap < time.Minute {
		return time.Minute
	}
	if gap > 2*time.Hour {
		return 2 * time.Hour
	}
	return gap
}

func at(s models.ResponseTimeSample) time.Time {
	return time.Unix(s.Ts, 0)
}
