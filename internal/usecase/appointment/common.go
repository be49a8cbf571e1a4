package appointment

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/mailer"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

// ======================================================
// COLLABORATORS
// ======================================================

type Auditor interface {
	Dispatch(ev audit.Event)
}

type Notifier interface {
	Dispatch(job notify.Job) bool
}

// Actor is the authenticated caller. For patients and doctors ID is their
// own patient or doctor id.
type Actor struct {
	ID   uint
	Role models.Role
}

func (a Actor) event(action string, entityID *uint, meta any) audit.Event {
	id := a.ID
	return audit.Event{
		ActorID:   &id,
		ActorRole: string(a.Role),
		Action:    action,
		Entity:    "appointment",
		EntityID:  entityID,
		Metadata:  meta,
	}
}

// ======================================================
// HELPERS
// ======================================================

func canAccess(a Actor, ap *models.Appointment) bool {
	switch a.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return ap.DoctorID == a.ID
	case models.RolePatient:
		return ap.PatientID == a.ID
	}
	return false
}

func isStaff(a Actor) bool {
	return a.Role == models.RoleDoctor || a.Role == models.RoleAdmin
}

// loadForActor hides appointments the caller may not see behind not found.
func loadForActor(
	ctx context.Context,
	repo domain.Repository,
	a Actor,
	id uint,
) (*models.Appointment, error) {

	ap, err := repo.GetAppointment(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	if err != nil {
		return nil, err
	}
	if !canAccess(a, ap) {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}
	return ap, nil
}

func countRejection(err error) {
	if r, ok := domain.AsRejection(err); ok {
		metrics.BookingRejections.WithLabelValues(string(r.Reason)).Inc()
	}
}

func mailFor(
	ap *models.Appointment,
	patient *models.Patient,
	doctor *models.Doctor,
	defaultLocation string,
) mailer.Appointment {
	location := doctor.Location
	if location == "" {
		location = defaultLocation
	}
	return mailer.Appointment{
		To:               patient.Email,
		PatientName:      patient.Name,
		DoctorName:       doctor.Name,
		Location:         location,
		At:               ap.ScheduledAt,
		ConfirmationCode: ap.ConfirmationCode,
		Reason:           ap.Reason,
	}
}
