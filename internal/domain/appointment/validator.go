package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// MinChangeLeadTime is how far ahead an appointment must still be for the
// patient to cancel or move it.
const MinChangeLeadTime = 24 * time.Hour

// ConflictReader is the read side the validator needs from storage.
type ConflictReader interface {
	DoctorHasAppointmentAt(
		ctx context.Context,
		doctorID uint,
		at time.Time,
		excludeID uint,
	) (bool, error)

	PatientHasActiveWithDoctor(
		ctx context.Context,
		patientID uint,
		doctorID uint,
		after time.Time,
	) (bool, error)
}

// Validator decides whether a slot may be taken. It never writes.
type Validator struct {
	reader ConflictReader
}

func NewValidator(reader ConflictReader) *Validator {
	return &Validator{reader: reader}
}

func CheckNotPast(at, now time.Time) error {
	if !at.After(now) {
		return Reject(ReasonPastDate)
	}
	return nil
}

func CheckLeadTime(existing, now time.Time) error {
	if existing.Sub(now) < MinChangeLeadTime {
		return Reject(ReasonLeadTimeViolation)
	}
	return nil
}

func CheckDoctorAvailable(doctor *models.Doctor, at time.Time) error {
	av, err := AvailabilityOf(doctor)
	if err != nil || !av.Allows(at) {
		return Reject(ReasonDoctorUnavailable)
	}
	return nil
}

// CheckBooking runs the rules for a brand new appointment.
func (v *Validator) CheckBooking(
	ctx context.Context,
	doctor *models.Doctor,
	patientID uint,
	at time.Time,
	now time.Time,
) error {

	if err := CheckNotPast(at, now); err != nil {
		return err
	}

	if err := CheckDoctorAvailable(doctor, at); err != nil {
		return err
	}

	if err := v.checkSlotFree(ctx, doctor.ID, at, 0); err != nil {
		return err
	}

	dup, err := v.reader.PatientHasActiveWithDoctor(ctx, patientID, doctor.ID, now)
	if err != nil {
		return err
	}
	if dup {
		return Reject(ReasonDuplicateBooking)
	}

	return nil
}

// CheckReschedule validates moving ap to at. The appointment being moved is
// ignored when looking for a clash.
func (v *Validator) CheckReschedule(
	ctx context.Context,
	ap *models.Appointment,
	doctor *models.Doctor,
	at time.Time,
	now time.Time,
) error {

	if err := CheckLeadTime(ap.ScheduledAt, now); err != nil {
		return err
	}

	if err := CheckNotPast(at, now); err != nil {
		return err
	}

	if err := CheckDoctorAvailable(doctor, at); err != nil {
		return err
	}

	return v.checkSlotFree(ctx, doctor.ID, at, ap.ID)
}

func (v *Validator) checkSlotFree(
	ctx context.Context,
	doctorID uint,
	at time.Time,
	excludeID uint,
) error {

	taken, err := v.reader.DoctorHasAppointmentAt(ctx, doctorID, at, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return Reject(ReasonSlotTaken)
	}
	return nil
}
