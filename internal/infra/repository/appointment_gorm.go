package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/BruksfildServices01/clinic-scheduler/internal/db"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

var activeStatuses = []models.AppointmentStatus{
	models.StatusScheduled,
	models.StatusConfirmed,
}

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// --------------------------------------------------
// Doctor / Patient
// --------------------------------------------------

func (r *AppointmentGormRepository) GetDoctor(
	ctx context.Context,
	id uint,
) (*models.Doctor, error) {

	var doctor models.Doctor
	if err := r.db.WithContext(ctx).First(&doctor, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &doctor, nil
}

func (r *AppointmentGormRepository) UpdateDoctorAvailability(
	ctx context.Context,
	doctor *models.Doctor,
) error {

	return r.db.WithContext(ctx).
		Model(doctor).
		Select("available_days", "start_time", "end_time").
		Updates(doctor).Error
}

func (r *AppointmentGormRepository) GetPatient(
	ctx context.Context,
	id uint,
) (*models.Patient, error) {

	var patient models.Patient
	if err := r.db.WithContext(ctx).First(&patient, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &patient, nil
}

// --------------------------------------------------
// Conflicts
// --------------------------------------------------

func (r *AppointmentGormRepository) DoctorHasAppointmentAt(
	ctx context.Context,
	doctorID uint,
	at time.Time,
	excludeID uint,
) (bool, error) {

	var count int64
	q := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND scheduled_at = ? AND status IN ?", doctorID, at, activeStatuses)

	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AppointmentGormRepository) PatientHasActiveWithDoctor(
	ctx context.Context,
	patientID uint,
	doctorID uint,
	after time.Time,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"patient_id = ? AND doctor_id = ? AND scheduled_at > ? AND status IN ?",
			patientID, doctorID, after, activeStatuses,
		).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

// CreateAppointment maps unique violations to the domain: the doctor slot
// index becomes a SlotTaken rejection, the confirmation code index becomes
// ErrConfirmationCodeTaken so the caller can draw a new code.
func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	err := r.db.WithContext(ctx).Omit("Patient", "Doctor").Create(ap).Error
	switch {
	case err == nil:
		return nil
	case httperr.IsUniqueViolation(err, dbpkg.IndexDoctorSlot):
		return domain.Reject(domain.ReasonSlotTaken)
	case httperr.IsUniqueViolation(err, dbpkg.IndexConfirmationCode):
		return domain.ErrConfirmationCodeTaken
	default:
		return fmt.Errorf("create appointment: %w", err)
	}
}

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&ap, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	err := r.db.WithContext(ctx).Omit("Patient", "Doctor").Save(ap).Error
	if httperr.IsUniqueViolation(err, dbpkg.IndexDoctorSlot) {
		return domain.Reject(domain.ReasonSlotTaken)
	}
	return err
}

// --------------------------------------------------
// Availability / schedule
// --------------------------------------------------

func (r *AppointmentGormRepository) ListActiveStartsForPeriod(
	ctx context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) ([]time.Time, error) {

	var starts []time.Time
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"doctor_id = ? AND status IN ? AND scheduled_at >= ? AND scheduled_at < ?",
			doctorID, activeStatuses, start, end,
		).
		Order("scheduled_at ASC").
		Pluck("scheduled_at", &starts).Error; err != nil {
		return nil, err
	}

	return starts, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment

	err := r.db.WithContext(ctx).
		Preload("Patient").
		Where(
			"doctor_id = ? AND scheduled_at >= ? AND scheduled_at < ?",
			doctorID,
			start,
			end,
		).
		Order("scheduled_at ASC").
		Find(&apps).Error

	if err != nil {
		return nil, err
	}

	return apps, nil
}

// --------------------------------------------------
// Housekeeping
// --------------------------------------------------

// MarkNoShows flips active appointments whose end lies before endedBefore.
func (r *AppointmentGormRepository) MarkNoShows(
	ctx context.Context,
	endedBefore time.Time,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"status IN ? AND scheduled_at + (duration_minutes * interval '1 minute') < ?",
			activeStatuses, endedBefore,
		).
		Update("status", models.StatusNoShow)

	return res.RowsAffected, res.Error
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
