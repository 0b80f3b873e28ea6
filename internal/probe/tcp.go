package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"homepulse/internal/models"
)

type dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type netDialer struct{}

func (netDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

// completion resolves a probe exactly once. A resolve call that loses the
// race returns false and changes nothing.
type completion struct {
	once   sync.Once
	result chan models.ProbeResult
}

func newCompletion() *completion {
	return &completion{result: make(chan models.ProbeResult, 1)}
}

func (c *completion) resolve(res models.ProbeResult) bool {
	won := false
	c.once.Do(func() {
		c.result <- res
		won = true
	})
	return won
}

func (c *completion) wait() models.ProbeResult {
	return <-c.result
}

// checkTCP races connect success, connect failure and the timeout. The
// first one wins; the dial is cancelled once a result is returned and any
// connection that lands late is closed by the dialing goroutine.
func (p *Prober) checkTCP(ctx context.Context, host string, port int, timeout time.Duration) models.ProbeResult {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := newCompletion()
	timer := time.AfterFunc(timeout, func() {
		done.resolve(models.ProbeResult{OK: false, Message: "TCP timeout"})
	})
	defer timer.Stop()

	start := time.Now()
	go func() {
		conn, err := p.dialer.DialContext(dialCtx, "tcp", address)
		if err != nil {
			done.resolve(models.ProbeResult{OK: false, Message: "TCP error: " + errorCode(err)})
			return
		}
		defer conn.Close()
		done.resolve(models.ProbeResult{
			OK:             true,
			Message:        fmt.Sprintf("TCP %s OK", address),
			ResponseTimeMs: elapsedMs(start),
		})
	}()

	return done.wait()
}
