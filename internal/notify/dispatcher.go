package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/reminder"
	"github.com/BruksfildServices01/clinic-scheduler/internal/mailer"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/validators"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

// Logs is the part of the notification log the dispatcher writes to.
type Logs interface {
	reminder.Recorder
	HasSent(ctx context.Context, appointmentID uint, kind models.NotificationKind) (bool, error)
}

// Job is one confirmation or cancellation email.
type Job struct {
	Kind          models.NotificationKind
	UserID        uint
	AppointmentID uint
	Mail          mailer.Appointment
}

type Options struct {
	QueueSize   int
	SendTimeout time.Duration
	// Resolve the recipient's domain before sending.
	LookupDomain bool
}

// Dispatcher sends booking emails off the request path. Each attempt ends
// up in the notification log.
type Dispatcher struct {
	mailer mailer.Mailer
	logs   Logs
	logger zerolog.Logger
	opts   Options
	now    func() time.Time

	queue     chan Job
	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(
	m mailer.Mailer,
	logs Logs,
	logger zerolog.Logger,
	opts Options,
) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		mailer: m,
		logs:   logs,
		logger: logger.With().Str("component", "notify").Logger(),
		opts:   opts,
		now:    time.Now,
		queue:  make(chan Job, opts.QueueSize),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

// Dispatch queues job and reports whether it was accepted. A full queue
// drops the email rather than blocking the caller.
func (d *Dispatcher) Dispatch(job Job) bool {
	select {
	case d.queue <- job:
		return true
	default:
		metrics.NotificationDropped.Inc()
		d.logger.Warn().
			Str("kind", string(job.Kind)).
			Uint("appointment_id", job.AppointmentID).
			Msg("notification queue full, dropping email")
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to be sent or for
// ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() { close(d.queue) })

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for job := range d.queue {
		d.deliver(job)
	}
}

func (d *Dispatcher) deliver(job Job) {
	log := d.logger.With().
		Str("kind", string(job.Kind)).
		Uint("appointment_id", job.AppointmentID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("notification panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.SendTimeout)
	defer cancel()

	sent, err := d.logs.HasSent(ctx, job.AppointmentID, job.Kind)
	if err != nil {
		log.Error().Err(err).Msg("check notification log")
		return
	}
	if sent {
		log.Debug().Msg("already sent")
		return
	}

	id := job.AppointmentID
	entry := reminder.Entry{
		Kind:          job.Kind,
		UserID:        job.UserID,
		AppointmentID: &id,
		Recipient:     job.Mail.To,
		At:            d.now(),
	}

	if err := d.send(ctx, job); err != nil {
		log.Error().Err(err).Msg("notification not sent")
		if rerr := d.logs.RecordFailure(ctx, entry, err); rerr != nil {
			log.Error().Err(rerr).Msg("record notification failure")
		}
		return
	}

	if _, err := d.logs.RecordSent(ctx, entry); err != nil {
		log.Error().Err(err).Msg("notification sent but not recorded")
		return
	}
	log.Info().Msg("notification sent")
}

func (d *Dispatcher) send(ctx context.Context, job Job) error {
	if !validators.IsEmailSyntaxValid(job.Mail.To) {
		return ErrInvalidRecipient
	}
	if d.opts.LookupDomain && !validators.IsEmailDomainValid(job.Mail.To) {
		return ErrInvalidRecipient
	}

	switch job.Kind {
	case models.KindConfirmation:
		return d.mailer.SendConfirmation(ctx, job.Mail)
	case models.KindCancellation:
		return d.mailer.SendCancellation(ctx, job.Mail)
	default:
		return fmt.Errorf("unsupported notification kind %q", job.Kind)
	}
}
