package models

// EventStats summarises events inside a window.
type EventStats struct {
	TotalEvents      int            `json:"totalEvents"`
	DownCount        int            `json:"downCount"`
	UpCount          int            `json:"upCount"`
	DeviceDownCounts map[string]int `json:"deviceDownCounts"`
	Events           []Event        `json:"events"`
}

// UptimeStats describes the share of devices currently up. UptimePercent is
// formatted with one decimal, or "0" when no devices are known.
type UptimeStats struct {
	Total         int    `json:"total"`
	UpCount       int    `json:"upCount"`
	DownCount     int    `json:"downCount"`
	UptimePercent string `json:"uptimePercent"`
}

// ResponseTimeStats aggregates non-null latency samples.
type ResponseTimeStats struct {
	Avg   *int64 `json:"avg"`
	Max   *int64 `json:"max"`
	Min   *int64 `json:"min"`
	Count int64  `json:"count"`
}

// SummaryView is the combined summary exposed to the dashboard.
type SummaryView struct {
	Date      string         `json:"date"`
	Current   UptimeStats    `json:"current"`
	Yesterday YesterdayStats `json:"yesterday"`
}

// YesterdayStats is the event part of the summary view.
type YesterdayStats struct {
	DownCount        int            `json:"downCount"`
	UpCount          int            `json:"upCount"`
	DeviceDownCounts map[string]int `json:"deviceDownCounts"`
}

// DeviceResponseTimes is one entry of the response-time map keyed by device id.
type DeviceResponseTimes struct {
	Name string               `json:"name"`
	Data []ResponseTimeSample `json:"data"`
}

// DeviceResponseTimeStats is one entry of the stats map keyed by device id.
type DeviceResponseTimeStats struct {
	Name string `json:"name"`
	ResponseTimeStats
}
