package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"homepulse/internal/models"
)

// drainLimit caps how much of a response body is read before closing, so
// keep-alive connections can be reused without reading huge pages.
const drainLimit = 64 << 10

func (p *Prober) checkHTTP(ctx context.Context, url string, timeout time.Duration) models.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ProbeResult{OK: false, Message: "HTTP error: " + errorCode(err)}
	}

	response, err := p.client.Do(req)
	if err != nil {
		category := errorCode(err)
		if ctx.Err() == context.DeadlineExceeded {
			category = "timeout"
		}
		return models.ProbeResult{OK: false, Message: "HTTP error: " + category}
	}
	latency := elapsedMs(start)
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, drainLimit))

	return models.ProbeResult{
		OK:             response.StatusCode >= 200 && response.StatusCode < 300,
		Message:        fmt.Sprintf("HTTP %d", response.StatusCode),
		ResponseTimeMs: latency,
	}
}
