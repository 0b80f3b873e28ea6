// Package report builds and schedules the daily availability summary.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"homepulse/internal/clock"
	"homepulse/internal/models"
)

// DateLayout formats the reported day.
const DateLayout = "2006-01-02"

// Source is the aggregation surface the summary reads from.
type Source interface {
	EventStats(ctx context.Context, startTs, endTs int64) (models.EventStats, error)
	UptimeStats(ctx context.Context) (models.UptimeStats, error)
}

// Window returns the previous calendar day in now's location as the
// half-open interval [start, end).
func Window(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return end.AddDate(0, 0, -1), end
}

// NextFire returns the next occurrence of hour:00 strictly after now.
func NextFire(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Builder assembles summary views from the store.
type Builder struct {
	source Source
	clock  clock.Clock
}

// NewBuilder returns a Builder reading from source; a nil clock means real time.
func NewBuilder(source Source, clk clock.Clock) *Builder {
	if clk == nil {
		clk = clock.Real()
	}
	return &Builder{source: source, clock: clk}
}

// View combines live uptime with yesterday's event counts.
func (b *Builder) View(ctx context.Context) (models.SummaryView, error) {
	start, end := Window(b.clock.Now())

	events, err := b.source.EventStats(ctx, start.Unix(), end.Unix())
	if err != nil {
		return models.SummaryView{}, fmt.Errorf("event stats: %w", err)
	}
	uptime, err := b.source.UptimeStats(ctx)
	if err != nil {
		return models.SummaryView{}, fmt.Errorf("uptime stats: %w", err)
	}

	downs := events.DeviceDownCounts
	if downs == nil {
		downs = map[string]int{}
	}
	return models.SummaryView{
		Date:    start.Format(DateLayout),
		Current: uptime,
		Yesterday: models.YesterdayStats{
			DownCount:        events.DownCount,
			UpCount:          events.UpCount,
			DeviceDownCounts: downs,
		},
	}, nil
}

// Compose renders the summary message.
func (b *Builder) Compose(ctx context.Context) (string, error) {
	view, err := b.View(ctx)
	if err != nil {
		return "", err
	}
	return Format(view), nil
}

// Format renders view as notification text. Devices are listed by
// failure count, most failures first.
func Format(view models.SummaryView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 HomePulse daily report (%s)\n", view.Date)
	fmt.Fprintf(&sb, "Current: %d/%d up (%s%%)\n", view.Current.UpCount, view.Current.Total, view.Current.UptimePercent)

	if view.Yesterday.DownCount == 0 {
		fmt.Fprintf(&sb, "Yesterday: no failures (%d recoveries)", view.Yesterday.UpCount)
		return sb.String()
	}
	fmt.Fprintf(&sb, "Yesterday: %d DOWN, %d UP", view.Yesterday.DownCount, view.Yesterday.UpCount)

	names := make([]string, 0, len(view.Yesterday.DeviceDownCounts))
	for name := range view.Yesterday.DeviceDownCounts {
		names = append(names, name)
	}
	counts := view.Yesterday.DeviceDownCounts
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] == counts[names[j]] {
			return names[i] < names[j]
		}
		return counts[names[i]] > counts[names[j]]
	})
	for _, name := range names {
		fmt.Fprintf(&sb, "\n- %s: %d", name, counts[name])
	}
	return sb.String()
}
