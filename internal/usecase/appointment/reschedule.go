package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type RescheduleAppointmentInput struct {
	Actor         Actor
	AppointmentID uint
	Date          string
	Time          string
}

type RescheduleAppointment struct {
	repo      domain.Repository
	validator *domain.Validator
	audit     Auditor
	clock     timezone.Clock
}

func NewRescheduleAppointment(
	repo domain.Repository,
	audit Auditor,
	clock timezone.Clock,
) *RescheduleAppointment {
	return &RescheduleAppointment{
		repo:      repo,
		validator: domain.NewValidator(repo),
		audit:     audit,
		clock:     clock,
	}
}

func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleAppointmentInput,
) (*models.Appointment, error) {

	now := uc.clock.Now()

	at, err := timezone.ParseDateTime(in.Date, in.Time, now.Location())
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	ap, err := loadForActor(ctx, uc.repo, in.Actor, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.CanReschedule(ap.Status); err != nil {
		return nil, err
	}

	doctor, err := uc.repo.GetDoctor(ctx, ap.DoctorID)
	if err != nil {
		return nil, err
	}

	if err := uc.validator.CheckReschedule(ctx, ap, doctor, at, now); err != nil {
		countRejection(err)
		return nil, err
	}

	previous := ap.ScheduledAt
	if err := domain.Reschedule(ap, at); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		countRejection(err)
		return nil, err
	}

	uc.audit.Dispatch(in.Actor.event("appointment_rescheduled", &ap.ID, map[string]any{
		"from": previous,
		"to":   at,
	}))

	return ap, nil
}
