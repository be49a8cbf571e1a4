package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gomail/gomail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer renders the patient emails and delivers them over SMTP. Times
// are shown in the clinic's location.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	loc    *time.Location
}

func NewSMTPMailer(cfg SMTPConfig, loc *time.Location) *SMTPMailer {
	if loc == nil {
		loc = time.UTC
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		loc:    loc,
	}
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, a Appointment) error {
	return m.send(ctx, kindConfirmation, view{Appointment: a})
}

func (m *SMTPMailer) SendReminder(ctx context.Context, r Reminder) error {
	return m.send(ctx, kindReminder, view{Appointment: r.Appointment, Label: r.Label})
}

func (m *SMTPMailer) SendCancellation(ctx context.Context, a Appointment) error {
	return m.send(ctx, kindCancellation, view{Appointment: a})
}

func (m *SMTPMailer) send(ctx context.Context, k kind, v view) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.To == "" {
		return fmt.Errorf("send %s: empty recipient", k)
	}

	v.At = v.At.In(m.loc)
	subject, body, err := render(k, v)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", v.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s email: %w", k, err)
	}
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
