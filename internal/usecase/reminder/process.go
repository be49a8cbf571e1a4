package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/reminder"
	"github.com/BruksfildServices01/clinic-scheduler/internal/mailer"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

const DefaultSendTimeout = 30 * time.Second

type Options struct {
	// Failed attempts after which a tier is given up for an appointment.
	MaxAttempts int
	// Used when the doctor has no location of their own.
	DefaultLocation string
	SendTimeout     time.Duration
}

// ProcessReminders runs one scan over upcoming appointments and sends the
// reminder tier that is due for each, at most once per tier.
type ProcessReminders struct {
	store  reminder.Store
	mailer mailer.Mailer
	clock  timezone.Clock
	logger zerolog.Logger
	opts   Options
}

func NewProcessReminders(
	store reminder.Store,
	m mailer.Mailer,
	clock timezone.Clock,
	logger zerolog.Logger,
	opts Options,
) *ProcessReminders {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}

	return &ProcessReminders{
		store:  store,
		mailer: m,
		clock:  clock,
		logger: logger.With().Str("component", "reminders").Logger(),
		opts:   opts,
	}
}

type Result struct {
	Candidates int
	Sent       int
	Failed     int
	Skipped    int
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeSent
	outcomeFailed
	outcomeSkipped
)

// Execute returns an error only when the pass could not run at all or was
// interrupted; per-appointment problems are logged and counted.
func (uc *ProcessReminders) Execute(ctx context.Context) (res Result, err error) {
	start := time.Now()
	log := uc.logger.With().Str("pass_id", uuid.NewString()).Logger()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminder pass panicked: %v", r)
		}
		metrics.ReminderPassDuration.Observe(time.Since(start).Seconds())
		log.Info().
			Int("candidates", res.Candidates).
			Int("sent", res.Sent).
			Int("failed", res.Failed).
			Int("skipped", res.Skipped).
			Dur("took", time.Since(start)).
			Err(err).
			Msg("reminder pass finished")
	}()

	now := uc.clock.Now()

	candidates, err := uc.store.ListUpcoming(ctx, now)
	if err != nil {
		return res, fmt.Errorf("list upcoming: %w", err)
	}

	res.Candidates = len(candidates)
	metrics.ReminderPassCandidates.Set(float64(len(candidates)))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		switch uc.processOne(ctx, log, c, now) {
		case outcomeSent:
			res.Sent++
		case outcomeFailed:
			res.Failed++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	return res, nil
}

func (uc *ProcessReminders) processOne(
	ctx context.Context,
	log zerolog.Logger,
	c reminder.Candidate,
	now time.Time,
) (out outcome) {

	log = log.With().Uint("appointment_id", c.AppointmentID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("reminder panicked")
			out = outcomeFailed
		}
	}()

	skip := func(k models.NotificationKind) bool {
		return c.Sent[k] || c.Failures[k] >= uc.opts.MaxAttempts
	}

	tier, ok := reminder.Due(c.ScheduledAt.Sub(now), skip)
	if !ok {
		return outcomeNone
	}

	log = log.With().Str("kind", string(tier.Kind)).Logger()

	if c.PatientEmail == "" {
		log.Warn().Msg("patient has no email, reminder skipped")
		return outcomeSkipped
	}

	location := c.Location
	if location == "" {
		location = uc.opts.DefaultLocation
	}

	// In-flight sends finish even when shutdown starts mid-pass.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.opts.SendTimeout)
	defer cancel()

	id := c.AppointmentID
	entry := reminder.Entry{
		Kind:          tier.Kind,
		UserID:        c.PatientID,
		AppointmentID: &id,
		Recipient:     c.PatientEmail,
		At:            now,
		RetryCount:    c.Failures[tier.Kind],
	}

	err := uc.mailer.SendReminder(sendCtx, mailer.Reminder{
		Appointment: mailer.Appointment{
			To:          c.PatientEmail,
			PatientName: c.PatientName,
			DoctorName:  c.DoctorName,
			Location:    location,
			At:          c.ScheduledAt,
		},
		Label: tier.Label,
	})
	if err != nil {
		metrics.ReminderFailed.WithLabelValues(string(tier.Kind)).Inc()
		log.Error().Err(err).Int("attempt", entry.RetryCount+1).Msg("reminder not sent")

		if rerr := uc.store.RecordFailure(sendCtx, entry, err); rerr != nil {
			log.Error().Err(rerr).Msg("record reminder failure")
		}
		return outcomeFailed
	}

	recorded, err := uc.store.RecordSent(sendCtx, entry)
	if err != nil {
		log.Error().Err(err).Msg("reminder sent but not recorded")
		return outcomeFailed
	}
	if !recorded {
		log.Warn().Msg("reminder already recorded by another pass")
		return outcomeSkipped
	}

	metrics.ReminderSent.WithLabelValues(string(tier.Kind)).Inc()
	log.Info().Msg("reminder sent")
	return outcomeSent
}
