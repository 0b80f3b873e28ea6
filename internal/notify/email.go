package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// transactionalSender is the part of the Brevo client used for delivery.
type transactionalSender interface {
	SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) error
}

type brevoSender struct {
	client *brevo.APIClient
}

func (s brevoSender) SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) error {
	_, _, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	return err
}

// Email sends messages as transactional e-mail through Brevo.
type Email struct {
	sender transactionalSender
	from   string
	to     string
}

// NewEmail returns nil unless the API key and both addresses are set;
// callers skip the channel in that case.
func NewEmail(apiKey, from, to string) *Email {
	apiKey = strings.TrimSpace(apiKey)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if apiKey == "" || from == "" || to == "" {
		return nil
	}

	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	return &Email{
		sender: brevoSender{client: brevo.NewAPIClient(cfg)},
		from:   from,
		to:     to,
	}
}

func (e *Email) Notify(ctx context.Context, text string) error {
	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  "HomePulse",
			Email: e.from,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: e.to},
		},
		Subject:     subjectLine(text),
		HtmlContent: fmt.Sprintf("<pre>%s</pre>", html.EscapeString(text)),
		TextContent: text,
	}
	if err := e.sender.SendTransacEmail(ctx, email); err != nil {
		return fmt.Errorf("send email via Brevo: %w", err)
	}
	return nil
}

// subjectLine uses the first line of the message as the e-mail subject.
func subjectLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if line == "" {
		return "HomePulse notification"
	}
	return "HomePulse: " + line
}
