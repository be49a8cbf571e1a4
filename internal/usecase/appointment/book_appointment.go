package appointment

import (
	"context"
	"errors"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

const (
	DefaultDurationMinutes = 30
	MaxDurationMinutes     = 240

	codeAttempts = 3
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type BookAppointmentInput struct {
	Actor Actor

	PatientID uint
	DoctorID  uint

	Date string // YYYY-MM-DD, clinic time
	Time string // HH:MM, clinic time

	DurationMinutes int
	Reason          string
	Notes           string
	SymptomEntryID  *uint
}

type BookingResult struct {
	Appointment        *models.Appointment
	NotificationQueued bool
}

// ======================================================
// USE CASE
// ======================================================

type BookAppointment struct {
	repo            domain.Repository
	validator       *domain.Validator
	audit           Auditor
	notifier        Notifier
	clock           timezone.Clock
	defaultLocation string
}

func NewBookAppointment(
	repo domain.Repository,
	audit Auditor,
	notifier Notifier,
	clock timezone.Clock,
	defaultLocation string,
) *BookAppointment {
	return &BookAppointment{
		repo:            repo,
		validator:       domain.NewValidator(repo),
		audit:           audit,
		notifier:        notifier,
		clock:           clock,
		defaultLocation: defaultLocation,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *BookAppointment) Execute(
	ctx context.Context,
	in BookAppointmentInput,
) (*BookingResult, error) {

	// --------------------------------------------------
	// Who books for whom
	// --------------------------------------------------
	if in.Actor.Role == models.RolePatient && in.PatientID != in.Actor.ID {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if in.Actor.Role == models.RoleDoctor && in.DoctorID != in.Actor.ID {
		return nil, httperr.ErrBusiness("forbidden")
	}

	// --------------------------------------------------
	// Date / time in the clinic timezone
	// --------------------------------------------------
	now := uc.clock.Now()

	start, err := timezone.ParseDateTime(in.Date, in.Time, now.Location())
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	// a past start wins over every other field error
	if err := domain.CheckNotPast(start, now); err != nil {
		uc.reject(in.Actor, err, start)
		return nil, err
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if duration < 0 || duration > MaxDurationMinutes {
		return nil, httperr.ErrBusiness("invalid_duration")
	}

	// --------------------------------------------------
	// Doctor / patient
	// --------------------------------------------------
	doctor, err := uc.repo.GetDoctor(ctx, in.DoctorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("doctor_not_found")
	}
	if err != nil {
		return nil, err
	}

	patient, err := uc.repo.GetPatient(ctx, in.PatientID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("patient_not_found")
	}
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Booking rules
	// --------------------------------------------------
	if err := uc.validator.CheckBooking(ctx, doctor, patient.ID, start, now); err != nil {
		uc.reject(in.Actor, err, start)
		return nil, err
	}

	// --------------------------------------------------
	// Create (status centralised in the domain)
	// --------------------------------------------------
	ap := &models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		SymptomEntryID:  in.SymptomEntryID,
		ScheduledAt:     start,
		DurationMinutes: duration,
		Status:          domain.InitialStatus(),
		Reason:          in.Reason,
		Notes:           in.Notes,
	}

	if err := uc.create(ctx, ap, now); err != nil {
		uc.reject(in.Actor, err, start)
		return nil, err
	}

	// --------------------------------------------------
	// Audit + confirmation email
	// --------------------------------------------------
	uc.audit.Dispatch(in.Actor.event("appointment_created", &ap.ID, map[string]any{
		"doctor_id":    doctor.ID,
		"patient_id":   patient.ID,
		"scheduled_at": start,
	}))

	queued := uc.notifier.Dispatch(notify.Job{
		Kind:          models.KindConfirmation,
		UserID:        patient.ID,
		AppointmentID: ap.ID,
		Mail:          mailFor(ap, patient, doctor, uc.defaultLocation),
	})

	return &BookingResult{Appointment: ap, NotificationQueued: queued}, nil
}

// create draws a fresh confirmation code when the previous one collided.
func (uc *BookAppointment) create(ctx context.Context, ap *models.Appointment, now time.Time) error {
	var err error
	for i := 0; i < codeAttempts; i++ {
		ap.ConfirmationCode = domain.NewConfirmationCode(now)
		err = uc.repo.CreateAppointment(ctx, ap)
		if !errors.Is(err, domain.ErrConfirmationCodeTaken) {
			return err
		}
	}
	return err
}

func (uc *BookAppointment) reject(a Actor, err error, at any) {
	r, ok := domain.AsRejection(err)
	if !ok {
		return
	}
	countRejection(err)
	uc.audit.Dispatch(a.event("appointment_rejected", nil, map[string]any{
		"reason":       r.Reason,
		"scheduled_at": at,
	}))
}
