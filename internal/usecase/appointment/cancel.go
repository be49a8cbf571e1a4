package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type CancelAppointment struct {
	repo            domain.Repository
	audit           Auditor
	notifier        Notifier
	clock           timezone.Clock
	defaultLocation string
}

func NewCancelAppointment(
	repo domain.Repository,
	audit Auditor,
	notifier Notifier,
	clock timezone.Clock,
	defaultLocation string,
) *CancelAppointment {
	return &CancelAppointment{
		repo:            repo,
		audit:           audit,
		notifier:        notifier,
		clock:           clock,
		defaultLocation: defaultLocation,
	}
}

// Execute cancels while at least MinChangeLeadTime remains before the
// appointment. The patient gets a cancellation email.
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*BookingResult, error) {

	ap, err := loadForActor(ctx, uc.repo, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.CanCancel(ap.Status); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if err := domain.CheckLeadTime(ap.ScheduledAt, now); err != nil {
		countRejection(err)
		return nil, err
	}

	if err := domain.Cancel(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(actor.event("appointment_cancelled", &ap.ID, nil))

	queued := uc.notifier.Dispatch(notify.Job{
		Kind:          models.KindCancellation,
		UserID:        ap.PatientID,
		AppointmentID: ap.ID,
		Mail:          mailFor(ap, &ap.Patient, &ap.Doctor, uc.defaultLocation),
	})

	return &BookingResult{Appointment: ap, NotificationQueued: queued}, nil
}
