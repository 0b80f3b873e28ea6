package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	f := NewFake(start)
	ch := f.After(time.Hour)

	f.Advance(59 * time.Minute)
	select {
	case <-ch:
		t.Fatal("timer fired early")
	default:
	}

	f.Advance(time.Minute)
	select {
	case got := <-ch:
		if !got.Equal(start.Add(time.Hour)) {
			t.Fatalf("fired at %v", got)
		}
	default:
		t.Fatal("timer did not fire")
	}
	if f.Waiters() != 0 {
		t.Fatalf("one-shot timer still pending: %d", f.Waiters())
	}
}

func TestFakeTickerRepeatsUntilStopped(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ticker := f.NewTicker(10 * time.Second)

	for i := 0; i < 3; i++ {
		f.Advance(10 * time.Second)
		select {
		case <-ticker.C():
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	ticker.Stop()
	f.Advance(10 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
