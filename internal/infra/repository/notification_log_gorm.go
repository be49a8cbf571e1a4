package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/reminder"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const summaryBatch = 500

type NotificationLogGormRepository struct {
	db *gorm.DB
}

func NewNotificationLogGormRepository(db *gorm.DB) *NotificationLogGormRepository {
	return &NotificationLogGormRepository{db: db}
}

type upcomingRow struct {
	AppointmentID  uint
	PatientID      uint
	PatientName    string
	PatientEmail   string
	DoctorName     string
	DoctorLocation string
	ScheduledAt    time.Time
}

type logSummary struct {
	AppointmentID uint
	Kind          models.NotificationKind
	Sent          bool
	Failures      int
}

// --------------------------------------------------
// Reminder projection
// --------------------------------------------------

func (r *NotificationLogGormRepository) ListUpcoming(
	ctx context.Context,
	now time.Time,
) ([]reminder.Candidate, error) {

	// One session per pass, shared by the projection and summary queries.
	db := r.db.WithContext(ctx).Session(&gorm.Session{NewDB: true})

	var rows []upcomingRow
	if err := db.
		Table("appointments AS a").
		Select(`a.id AS appointment_id, a.patient_id, a.scheduled_at,
			p.name AS patient_name, p.email AS patient_email,
			d.name AS doctor_name, d.location AS doctor_location`).
		Joins("JOIN patients p ON p.id = a.patient_id").
		Joins("JOIN doctors d ON d.id = a.doctor_id").
		Where("a.status = ? AND a.scheduled_at > ?", models.StatusScheduled, now).
		Order("a.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}

	out := make([]reminder.Candidate, 0, len(rows))
	index := make(map[uint]int, len(rows))
	ids := make([]uint, 0, len(rows))

	for _, row := range rows {
		index[row.AppointmentID] = len(out)
		ids = append(ids, row.AppointmentID)
		out = append(out, reminder.Candidate{
			AppointmentID: row.AppointmentID,
			PatientID:     row.PatientID,
			PatientName:   row.PatientName,
			PatientEmail:  row.PatientEmail,
			DoctorName:    row.DoctorName,
			Location:      row.DoctorLocation,
			ScheduledAt:   row.ScheduledAt,
			Sent:          map[models.NotificationKind]bool{},
			Failures:      map[models.NotificationKind]int{},
		})
	}

	for start := 0; start < len(ids); start += summaryBatch {
		end := min(start+summaryBatch, len(ids))

		var sums []logSummary
		if err := db.
			Model(&models.NotificationLog{}).
			Select(`appointment_id, kind,
				bool_or(sent) AS sent,
				count(*) FILTER (WHERE NOT sent) AS failures`).
			Where("appointment_id IN ?", ids[start:end]).
			Group("appointment_id, kind").
			Scan(&sums).Error; err != nil {
			return nil, fmt.Errorf("summarise notification logs: %w", err)
		}

		for _, s := range sums {
			c := &out[index[s.AppointmentID]]
			if s.Sent {
				c.Sent[s.Kind] = true
			}
			c.Failures[s.Kind] = s.Failures
		}
	}

	return out, nil
}

// --------------------------------------------------
// Dedup store
// --------------------------------------------------

// RecordSent relies on the partial unique index over (appointment_id, kind)
// WHERE sent: a second delivered row is silently skipped.
func (r *NotificationLogGormRepository) RecordSent(
	ctx context.Context,
	e reminder.Entry,
) (bool, error) {

	at := e.At
	row := models.NotificationLog{
		Kind:          e.Kind,
		UserID:        e.UserID,
		AppointmentID: e.AppointmentID,
		Recipient:     e.Recipient,
		Sent:          true,
		SentAt:        &at,
		RetryCount:    e.RetryCount,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("record sent notification: %w", res.Error)
	}

	return res.RowsAffected == 1, nil
}

func (r *NotificationLogGormRepository) RecordFailure(
	ctx context.Context,
	e reminder.Entry,
	cause error,
) error {

	row := models.NotificationLog{
		Kind:          e.Kind,
		UserID:        e.UserID,
		AppointmentID: e.AppointmentID,
		Recipient:     e.Recipient,
		Sent:          false,
		Error:         cause.Error(),
		RetryCount:    e.RetryCount,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record failed notification: %w", err)
	}
	return nil
}

func (r *NotificationLogGormRepository) HasSent(
	ctx context.Context,
	appointmentID uint,
	kind models.NotificationKind,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationLog{}).
		Where("appointment_id = ? AND kind = ? AND sent", appointmentID, kind).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (r *NotificationLogGormRepository) List(
	ctx context.Context,
	f reminder.LogFilter,
	limit int,
	offset int,
) ([]models.NotificationLog, int64, error) {

	q := r.db.WithContext(ctx).Model(&models.NotificationLog{})

	if f.AppointmentID != nil {
		q = q.Where("appointment_id = ?", *f.AppointmentID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Sent != nil {
		q = q.Where("sent = ?", *f.Sent)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.NotificationLog
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

var _ reminder.Store = (*NotificationLogGormRepository)(nil)
