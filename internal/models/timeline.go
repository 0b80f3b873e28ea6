package models

import "time"

// TimelinePoint represents a single compact point in a device timeline.
type TimelinePoint struct {
	ClassName string           `json:"className"`
	Label     string           `json:"label"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Details   []TimelineDetail `json:"details,omitempty"`
}

// TimelineDetail carries extra information for problematic buckets.
type TimelineDetail struct {
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state,omitempty"`
}

// DeviceTimeline aggregates timeline points for a single device.
type DeviceTimeline struct {
	DeviceID      string          `json:"device_id"`
	DeviceName    string          `json:"device_name"`
	UptimePercent float64         `json:"uptime_percent"`
	Timeline      []TimelinePoint `json:"timeline"`
}
