package mailer

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogMailer renders emails into the log instead of sending them. Used when
// no SMTP host is configured.
type LogMailer struct {
	logger zerolog.Logger
	loc    *time.Location
}

func NewLogMailer(logger zerolog.Logger, loc *time.Location) *LogMailer {
	if loc == nil {
		loc = time.UTC
	}
	return &LogMailer{
		logger: logger.With().Str("component", "mailer").Logger(),
		loc:    loc,
	}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, a Appointment) error {
	return m.write(kindConfirmation, view{Appointment: a})
}

func (m *LogMailer) SendReminder(ctx context.Context, r Reminder) error {
	return m.write(kindReminder, view{Appointment: r.Appointment, Label: r.Label})
}

func (m *LogMailer) SendCancellation(ctx context.Context, a Appointment) error {
	return m.write(kindCancellation, view{Appointment: a})
}

func (m *LogMailer) write(k kind, v view) error {
	v.At = v.At.In(m.loc)
	subject, body, err := render(k, v)
	if err != nil {
		return err
	}

	m.logger.Info().
		Str("kind", string(k)).
		Str("to", v.To).
		Str("subject", subject).
		Str("body", body).
		Msg("email not sent: smtp disabled")
	return nil
}

var _ Mailer = (*LogMailer)(nil)
