package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	brevo "github.com/getbrevo/brevo-go/lib"
)

func TestTelegramPostsMessage(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("123:abc", "42").WithBaseURL(srv.URL)
	if err := tg.Notify(context.Background(), "NAS DOWN"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("path %q", path)
	}
	if got.ChatID != "42" || got.Text != "NAS DOWN" || !got.DisableWebPagePreview {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestTelegramReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewTelegram("t", "c").WithBaseURL(srv.URL).Notify(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestUnconfiguredChannelsAreNil(t *testing.T) {
	if NewTelegram("", "42") != nil || NewTelegram("token", " ") != nil {
		t.Fatal("telegram without credentials must be nil")
	}
	if NewEmail("key", "", "to@example.com") != nil {
		t.Fatal("email without sender must be nil")
	}
}

func TestEmailBuildsBrevoMessage(t *testing.T) {
	sender := &recordingSender{}
	e := &Email{sender: sender, from: "pulse@example.com", to: "me@example.com"}

	if err := e.Notify(context.Background(), "🚨 NAS DOWN\n- TCP timeout"); err != nil {
		t.Fatal(err)
	}
	if sender.email.Subject != "HomePulse: 🚨 NAS DOWN" {
		t.Fatalf("subject %q", sender.email.Subject)
	}
	if sender.email.Sender.Email != "pulse@example.com" || sender.email.To[0].Email != "me@example.com" {
		t.Fatalf("unexpected addresses %+v", sender.email)
	}

	sender.err = errors.New("quota")
	if err := e.Notify(context.Background(), "x"); err == nil {
		t.Fatal("expected delivery error")
	}
}

func TestCombine(t *testing.T) {
	if _, ok := Combine().(Nop); !ok {
		t.Fatal("no channels should give Nop")
	}

	a := &countingNotifier{}
	if Combine(Named{Name: "a", Notifier: a}) != Notifier(a) {
		t.Fatal("single channel should be returned as is")
	}

	b := &countingNotifier{err: errors.New("down")}
	multi := Combine(Named{Name: "a", Notifier: a}, Named{Name: "b", Notifier: b})
	err := multi.Notify(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "b: down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls a=%d b=%d", a.calls, b.calls)
	}
}

type recordingSender struct {
	email brevo.SendSmtpEmail
	err   error
}

func (r *recordingSender) SendTransacEmail(_ context.Context, email brevo.SendSmtpEmail) error {
	r.email = email
	return r.err
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, string) error {
	c.calls++
	return c.err
}
