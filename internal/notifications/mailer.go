package notifications

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/inkingiwoods/sokohub-backend/pkg/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Outcome reports a single delivery attempt. Skipped means mail is not
// configured and nothing was attempted.
type Outcome struct {
	Recipient string
	Sent      bool
	Skipped   bool
	Err       error
}

// Mailer delivers messages. Implementations report the outcome instead
// of returning an error so callers are never tempted to propagate a
// delivery failure into business state.
type Mailer interface {
	Send(ctx context.Context, msg Message) Outcome
}

// NewMailer returns an SMTP mailer, or a no-op mailer when no SMTP host
// is configured.
func NewMailer(cfg config.MailConfig) Mailer {
	if !cfg.Enabled() {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg config.MailConfig
}

func (m *smtpMailer) Send(_ context.Context, msg Message) Outcome {
	if msg.To == "" {
		return Outcome{Recipient: msg.To, Err: fmt.Errorf("recipient required")}
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	payload := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.DefaultFrom, msg.To, msg.Subject, msg.Body)

	if err := smtp.SendMail(addr, auth, m.cfg.DefaultFrom, []string{msg.To}, []byte(payload)); err != nil {
		return Outcome{Recipient: msg.To, Err: err}
	}
	return Outcome{Recipient: msg.To, Sent: true}
}

type noopMailer struct{}

func (noopMailer) Send(_ context.Context, msg Message) Outcome {
	return Outcome{Recipient: msg.To, Skipped: true}
}
