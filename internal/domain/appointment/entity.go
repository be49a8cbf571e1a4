package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(ap.Status); err != nil {
		return err
	}

	ap.Status = StatusCancelled
	ap.CancelledAt = &now
	return nil
}

func Confirm(ap *models.Appointment) error {
	if err := CanConfirm(ap.Status); err != nil {
		return err
	}

	ap.Status = StatusConfirmed
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(ap.Status); err != nil {
		return err
	}

	ap.Status = StatusCompleted
	ap.CompletedAt = &now
	return nil
}

// MarkNoShow only applies once the appointment time has passed.
func MarkNoShow(ap *models.Appointment, now time.Time) error {
	if err := CanMarkNoShow(ap.Status); err != nil {
		return err
	}
	if !ap.ScheduledAt.Before(now) {
		return Reject(ReasonNotYetDue)
	}

	ap.Status = StatusNoShow
	return nil
}

// Reschedule moves the appointment in place; the confirmation code is kept.
func Reschedule(ap *models.Appointment, at time.Time) error {
	if err := CanReschedule(ap.Status); err != nil {
		return err
	}

	ap.ScheduledAt = at
	return nil
}
