package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Repository interface {
	ConflictReader

	// -------- Doctor / Patient --------
	GetDoctor(
		ctx context.Context,
		id uint,
	) (*models.Doctor, error)

	UpdateDoctorAvailability(
		ctx context.Context,
		doctor *models.Doctor,
	) error

	GetPatient(
		ctx context.Context,
		id uint,
	) (*models.Patient, error)

	// -------- Appointment (create / state change) --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Availability / schedule --------
	ListActiveStartsForPeriod(
		ctx context.Context,
		doctorID uint,
		start time.Time,
		end time.Time,
	) ([]time.Time, error)

	ListAppointmentsForPeriod(
		ctx context.Context,
		doctorID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// -------- Housekeeping --------
	MarkNoShows(
		ctx context.Context,
		endedBefore time.Time,
	) (int64, error)
}
