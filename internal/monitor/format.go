package monitor

import (
	"fmt"
	"time"

	"homepulse/internal/models"
)

// TimeLayout is used for timestamps in notification text.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTransition renders the notification sent when a device flips.
func FormatTransition(device models.Device, eventType, message string, at time.Time) string {
	emoji := "🚨"
	if eventType == models.EventUp {
		emoji = "✅"
	}
	return fmt.Sprintf("%s %s %s\n- %s\n- %s", emoji, device.Name, eventType, message, at.Format(TimeLayout))
}
