package metrics

import (
	"testing"

	"homepulse/internal/models"
)

func TestComputeUptime(t *testing.T) {
	cases := []struct {
		name   string
		states []models.DeviceState
		want   models.UptimeStats
	}{
		{"no devices", nil, models.UptimeStats{UptimePercent: "0"}},
		{"all up", []models.DeviceState{{IsUp: true}, {IsUp: true}}, models.UptimeStats{Total: 2, UpCount: 2, UptimePercent: "100.0"}},
		{"two of three", []models.DeviceState{{IsUp: true}, {IsUp: false}, {IsUp: true}}, models.UptimeStats{Total: 3, UpCount: 2, DownCount: 1, UptimePercent: "66.7"}},
		{"one of three", []models.DeviceState{{IsUp: true}, {}, {}}, models.UptimeStats{Total: 3, UpCount: 1, DownCount: 2, UptimePercent: "33.3"}},
	}
	for _, c := range cases {
		if got := ComputeUptime(c.states); got != c.want {
			t.Fatalf("%s: got %+v want %+v", c.name, got, c.want)
		}
	}
}

func TestComputeEventStats(t *testing.T) {
	events := []models.Event{
		{ID: 5, DeviceName: "Router", Type: models.EventUp, Ts: 50},
		{ID: 1, DeviceName: "NAS", Type: models.EventDown, Ts: 10},
		{ID: 2, DeviceName: "Router", Type: models.EventDown, Ts: 20},
		{ID: 3, DeviceName: "NAS", Type: models.EventUp, Ts: 30},
		{ID: 4, DeviceName: "NAS", Type: models.EventDown, Ts: 40},
	}

	stats := ComputeEventStats(events)
	if stats.DownCount != 3 || stats.UpCount != 2 || stats.TotalEvents != 5 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	sum := 0
	for _, n := range stats.DeviceDownCounts {
		sum += n
	}
	if sum != 3 || stats.DeviceDownCounts["NAS"] != 2 || stats.DeviceDownCounts["Router"] != 1 {
		t.Fatalf("unexpected per-device counts %v", stats.DeviceDownCounts)
	}
	for i := 1; i < len(stats.Events); i++ {
		if stats.Events[i-1].Ts > stats.Events[i].Ts {
			t.Fatalf("events not ordered by ts: %+v", stats.Events)
		}
	}
}

func TestComputeResponseTimeStats(t *testing.T) {
	empty := ComputeResponseTimeStats([]models.ResponseTimeSample{{IsUp: false}})
	if empty.Count != 0 || empty.Avg != nil || empty.Max != nil || empty.Min != nil {
		t.Fatalf("expected empty stats, got %+v", empty)
	}

	stats := ComputeResponseTimeStats([]models.ResponseTimeSample{
		{ResponseTimeMs: ms(10), IsUp: true},
		{ResponseTimeMs: nil},
		{ResponseTimeMs: ms(21), IsUp: true},
		{ResponseTimeMs: ms(15), IsUp: false},
	})
	if stats.Count != 3 || *stats.Min != 10 || *stats.Max != 21 || *stats.Avg != 15 {
		t.Fatalf("unexpected stats count=%d min=%d max=%d avg=%d", stats.Count, *stats.Min, *stats.Max, *stats.Avg)
	}
}

func TestSampleUptime(t *testing.T) {
	if got := SampleUptime(nil); got != 0 {
		t.Fatalf("got %v", got)
	}
	samples := []models.ResponseTimeSample{{IsUp: true}, {IsUp: true}, {IsUp: false}}
	if got := SampleUptime(samples); got != 66.67 {
		t.Fatalf("got %v", got)
	}
}

func ms(v int64) *int64 { return &v }
