package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"homepulse/internal/clock"
	"homepulse/internal/models"
	"homepulse/internal/store"
)

var testStart = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return r.err
}

func (r *recordingNotifier) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func ms(v int64) *int64 { return &v }

func up(msg string) models.ProbeResult {
	return models.ProbeResult{OK: true, Message: msg, ResponseTimeMs: ms(12)}
}

func down(msg string) models.ProbeResult {
	return models.ProbeResult{OK: false, Message: msg}
}

var nas = models.Device{ID: "nas", Name: "NAS", Type: models.DeviceTypeTCP, Host: "10.0.0.5", Port: 445}

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore, *recordingNotifier, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(testStart)
	st := store.NewMemoryStore(clk)
	n := &recordingNotifier{}
	return NewEngine(st, n, clk, nil), st, n, clk
}

func TestFirstObservationIsAChange(t *testing.T) {
	engine, st, n, _ := newTestEngine(t)
	ctx := context.Background()

	tr, err := engine.Apply(ctx, nas, up("TCP 10.0.0.5:445 OK"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !tr.Changed || tr.Event == nil || tr.Event.Type != models.EventUp {
		t.Fatalf("expected UP event on first observation, got %+v", tr)
	}
	if !tr.Notified || len(n.sent()) != 1 {
		t.Fatalf("expected one notification, got %v", n.sent())
	}

	state, ok, _ := st.GetDeviceState(ctx, "nas")
	if !ok || !state.IsUp || state.LastChangeTs != testStart.Unix() || state.LastCheckTs != testStart.Unix() {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSteadyStateKeepsLastChange(t *testing.T) {
	engine, st, n, clk := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Apply(ctx, nas, up("ok")); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	tr, err := engine.Apply(ctx, nas, up("still ok"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Changed || tr.Event != nil {
		t.Fatalf("steady state must not emit an event: %+v", tr)
	}

	state, _, _ := st.GetDeviceState(ctx, "nas")
	if state.LastChangeTs != testStart.Unix() {
		t.Fatalf("last change moved to %d", state.LastChangeTs)
	}
	if state.LastCheckTs != testStart.Add(time.Minute).Unix() || state.LastMessage != "still ok" {
		t.Fatalf("check fields not refreshed: %+v", state)
	}

	events, _ := st.ListEvents(ctx, 10)
	if len(events) != 1 || len(n.sent()) != 1 {
		t.Fatalf("events=%d notifications=%d", len(events), len(n.sent()))
	}
}

func TestTransitionEmitsOneEventAndNotification(t *testing.T) {
	engine, st, n, clk := newTestEngine(t)
	ctx := context.Background()

	sequence := []models.ProbeResult{up("ok"), up("ok"), down("TCP timeout"), down("TCP timeout"), up("ok")}
	for _, res := range sequence {
		if _, err := engine.Apply(ctx, nas, res); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Minute)
	}

	events, _ := st.ListEvents(ctx, 10)
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	if got := strings.Join(types, ","); got != "UP,DOWN,UP" {
		t.Fatalf("events newest first = %s", got)
	}

	sent := n.sent()
	if len(sent) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(sent))
	}
	if !strings.HasPrefix(sent[1], "🚨 NAS DOWN\n- TCP timeout\n- ") {
		t.Fatalf("unexpected down message %q", sent[1])
	}

	samples, _ := st.ResponseTimes(ctx, "nas", 100)
	if len(samples) != len(sequence) {
		t.Fatalf("expected one sample per check, got %d", len(samples))
	}
	for _, s := range samples {
		if !s.IsUp && s.ResponseTimeMs != nil {
			t.Fatalf("down sample kept a latency: %+v", s)
		}
	}
}

func TestNotificationFailureKeepsState(t *testing.T) {
	engine, st, n, _ := newTestEngine(t)
	n.err = errors.New("telegram unreachable")
	ctx := context.Background()

	tr, err := engine.Apply(ctx, nas, down("TCP error: ECONNREFUSED"))
	if err != nil {
		t.Fatalf("notification errors must not fail apply: %v", err)
	}
	if tr.Notified || tr.NotifyErr == nil {
		t.Fatalf("expected notify error to be recorded: %+v", tr)
	}
	state, ok, _ := st.GetDeviceState(ctx, "nas")
	if !ok || state.IsUp {
		t.Fatalf("state not persisted: %+v", state)
	}
	events, _ := st.ListEvents(ctx, 10)
	if len(events) != 1 || events[0].Type != models.EventDown {
		t.Fatalf("event not persisted: %+v", events)
	}
}

type failingStore struct {
	*store.MemoryStore
	failSample     bool
	failTransition bool
}

func (f *failingStore) AddResponseTime(ctx context.Context, s models.ResponseTimeSample) error {
	if f.failSample {
		return errors.New("disk full")
	}
	return f.MemoryStore.AddResponseTime(ctx, s)
}

func (f *failingStore) RecordTransition(ctx context.Context, state models.DeviceState, ev *models.Event) error {
	if f.failTransition {
		return errors.New("database is locked")
	}
	return f.MemoryStore.RecordTransition(ctx, state, ev)
}

func eventTypes(t *testing.T, st *failingStore) string {
	t.Helper()
	events, err := st.ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return strings.Join(types, ",")
}

func TestFailedTransitionWriteIsRetriedNextTick(t *testing.T) {
	clk := clock.NewFake(testStart)
	st := &failingStore{MemoryStore: store.NewMemoryStore(clk)}
	n := &recordingNotifier{}
	engine := NewEngine(st, n, clk, nil)
	ctx := context.Background()

	if _, err := engine.Apply(ctx, nas, up("ok")); err != nil {
		t.Fatal(err)
	}

	clk.Advance(time.Minute)
	st.failTransition = true
	_, err := engine.Apply(ctx, nas, down("TCP timeout"))
	if err == nil || !strings.Contains(err.Error(), "database is locked") {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(n.sent()) != 1 {
		t.Fatal("nothing should be sent when the flip was not recorded")
	}
	if state, _, _ := st.GetDeviceState(ctx, "nas"); !state.IsUp {
		t.Fatal("state flipped without its event")
	}

	clk.Advance(time.Minute)
	st.failTransition = false
	tr, err := engine.Apply(ctx, nas, down("TCP timeout"))
	if err != nil {
		t.Fatal(err)
	}
	if !tr.Changed || !tr.Notified {
		t.Fatalf("flip must be recorded on the next tick: %+v", tr)
	}
	if got := eventTypes(t, st); got != "DOWN,UP" {
		t.Fatalf("events newest first = %s", got)
	}
}

func TestFailedSampleKeepsFlip(t *testing.T) {
	clk := clock.NewFake(testStart)
	st := &failingStore{MemoryStore: store.NewMemoryStore(clk)}
	n := &recordingNotifier{}
	engine := NewEngine(st, n, clk, nil)
	ctx := context.Background()

	if _, err := engine.Apply(ctx, nas, up("ok")); err != nil {
		t.Fatal(err)
	}

	clk.Advance(time.Minute)
	st.failSample = true
	tr, err := engine.Apply(ctx, nas, down("TCP timeout"))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected store error, got %v", err)
	}
	if tr.Event == nil || !tr.Notified || len(n.sent()) != 2 {
		t.Fatalf("flip must be recorded and sent before the sample: %+v", tr)
	}

	clk.Advance(time.Minute)
	st.failSample = false
	tr, err = engine.Apply(ctx, nas, down("TCP timeout"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Changed {
		t.Fatal("steady DOWN must not emit another event")
	}
	if got := eventTypes(t, st); got != "DOWN,UP" {
		t.Fatalf("events newest first = %s", got)
	}
	samples, _ := st.ResponseTimes(ctx, "nas", 10)
	if len(samples) != 2 {
		t.Fatalf("expected samples for the healthy ticks only, got %d", len(samples))
	}
}

func TestFormatTransition(t *testing.T) {
	at := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	got := FormatTransition(nas, models.EventUp, "TCP 10.0.0.5:445 OK", at)
	want := "✅ NAS UP\n- TCP 10.0.0.5:445 OK\n- 2026-10-15 08:30:00"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
