// Package probe runs single HTTP and TCP checks against devices.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"homepulse/internal/models"
)

// Prober executes one check for a device. Probe never fails: every error is
// folded into a ProbeResult with OK=false.
type Prober struct {
	client *http.Client
	dialer dialer
}

// New returns a Prober with its own HTTP client. The client has no timeout
// of its own; each probe bounds the request with a context deadline.
func New() *Prober {
	return &Prober{
		client: &http.Client{},
		dialer: netDialer{},
	}
}

// Probe checks the device using its configured type and timeout.
func (p *Prober) Probe(ctx context.Context, device models.Device) models.ProbeResult {
	timeout := time.Duration(device.Timeout()) * time.Millisecond

	switch device.Type {
	case models.DeviceTypeHTTP:
		return p.checkHTTP(ctx, device.URL, timeout)
	case models.DeviceTypeTCP:
		return p.checkTCP(ctx, device.Host, device.Port, timeout)
	default:
		return models.ProbeResult{OK: false, Message: fmt.Sprintf("Unknown type: %s", device.Type)}
	}
}

func elapsedMs(start time.Time) *int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}
