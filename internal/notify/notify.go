// Package notify delivers alert and report text to external channels.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Notifier sends a text message. Callers treat delivery as best effort:
// an error is logged and never undoes work already committed.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop discards every message. It is used when no channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Named attaches a channel name to a notifier for error reporting.
type Named struct {
	Name     string
	Notifier Notifier
}

// Multi fans a message out to every channel and joins their errors.
type Multi []Named

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, channel := range m {
		if err := channel.Notifier.Notify(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", channel.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Combine returns Nop for no channels, the channel itself for one, and a
// Multi otherwise.
func Combine(channels ...Named) Notifier {
	active := make(Multi, 0, len(channels))
	for _, channel := range channels {
		if channel.Notifier != nil {
			active = append(active, channel)
		}
	}
	switch len(active) {
	case 0:
		return Nop{}
	case 1:
		return active[0].Notifier
	default:
		return active
	}
}
