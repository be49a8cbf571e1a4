// Package memory keeps appointments and notification logs in process. It
// enforces the same uniqueness rules as the postgres indexes and backs the
// use case, worker, notify and handler tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/reminder"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Store struct {
	mu sync.Mutex

	doctors      map[uint]models.Doctor
	patients     map[uint]models.Patient
	appointments map[uint]models.Appointment
	logs         []models.NotificationLog

	nextAppointmentID uint
	nextLogID         uint

	// FailList makes ListUpcoming return this error when set.
	FailList error
}

func New() *Store {
	return &Store{
		doctors:      map[uint]models.Doctor{},
		patients:     map[uint]models.Patient{},
		appointments: map[uint]models.Appointment{},
	}
}

// --------------------------------------------------
// Seeding
// --------------------------------------------------

func (s *Store) AddDoctor(d models.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
}

func (s *Store) AddPatient(p models.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
}

// Logs returns a copy of every notification log row in insertion order.
func (s *Store) Logs() []models.NotificationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.NotificationLog(nil), s.logs...)
}

// --------------------------------------------------
// Doctor / Patient
// --------------------------------------------------

func (s *Store) GetDoctor(_ context.Context, id uint) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (s *Store) UpdateDoctorAvailability(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[doctor.ID]
	if !ok {
		return domain.ErrNotFound
	}
	d.AvailableDays = doctor.AvailableDays
	d.StartTime = doctor.StartTime
	d.EndTime = doctor.EndTime
	s.doctors[d.ID] = d
	return nil
}

func (s *Store) GetPatient(_ context.Context, id uint) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// --------------------------------------------------
// Conflicts
// --------------------------------------------------

func (s *Store) DoctorHasAppointmentAt(
	_ context.Context,
	doctorID uint,
	at time.Time,
	excludeID uint,
) (bool, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotTaken(doctorID, at, excludeID), nil
}

func (s *Store) PatientHasActiveWithDoctor(
	_ context.Context,
	patientID uint,
	doctorID uint,
	after time.Time,
) (bool, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ap := range s.appointments {
		if ap.PatientID == patientID &&
			ap.DoctorID == doctorID &&
			ap.Status.Active() &&
			ap.ScheduledAt.After(after) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) slotTaken(doctorID uint, at time.Time, excludeID uint) bool {
	for _, ap := range s.appointments {
		if ap.ID != excludeID &&
			ap.DoctorID == doctorID &&
			ap.Status.Active() &&
			ap.ScheduledAt.Equal(at) {
			return true
		}
	}
	return false
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (s *Store) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ap.Status.Active() && s.slotTaken(ap.DoctorID, ap.ScheduledAt, 0) {
		return domain.Reject(domain.ReasonSlotTaken)
	}
	for _, other := range s.appointments {
		if other.ConfirmationCode == ap.ConfirmationCode {
			return domain.ErrConfirmationCodeTaken
		}
	}

	s.nextAppointmentID++
	ap.ID = s.nextAppointmentID
	now := time.Now()
	ap.CreatedAt, ap.UpdatedAt = now, now

	s.appointments[ap.ID] = *ap
	return nil
}

func (s *Store) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ap.Patient = s.patients[ap.PatientID]
	ap.Doctor = s.doctors[ap.DoctorID]
	return &ap, nil
}

func (s *Store) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[ap.ID]; !ok {
		return domain.ErrNotFound
	}
	if ap.Status.Active() && s.slotTaken(ap.DoctorID, ap.ScheduledAt, ap.ID) {
		return domain.Reject(domain.ReasonSlotTaken)
	}

	ap.UpdatedAt = time.Now()
	stored := *ap
	stored.Patient = models.Patient{}
	stored.Doctor = models.Doctor{}
	s.appointments[ap.ID] = stored
	return nil
}

// --------------------------------------------------
// Availability / schedule
// --------------------------------------------------

func (s *Store) ListActiveStartsForPeriod(
	_ context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) ([]time.Time, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var starts []time.Time
	for _, ap := range s.appointments {
		if ap.DoctorID == doctorID && ap.Status.Active() && inPeriod(ap.ScheduledAt, start, end) {
			starts = append(starts, ap.ScheduledAt)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts, nil
}

func (s *Store) ListAppointmentsForPeriod(
	_ context.Context,
	doctorID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.DoctorID == doctorID && inPeriod(ap.ScheduledAt, start, end) {
			ap.Patient = s.patients[ap.PatientID]
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func inPeriod(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// --------------------------------------------------
// Housekeeping
// --------------------------------------------------

func (s *Store) MarkNoShows(_ context.Context, endedBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, ap := range s.appointments {
		if ap.Status.Active() && ap.EndsAt().Before(endedBefore) {
			ap.Status = models.StatusNoShow
			s.appointments[id] = ap
			n++
		}
	}
	return n, nil
}

// --------------------------------------------------
// Reminder projection / dedup
// --------------------------------------------------

func (s *Store) ListUpcoming(_ context.Context, now time.Time) ([]reminder.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailList != nil {
		return nil, s.FailList
	}

	ids := make([]uint, 0, len(s.appointments))
	for id, ap := range s.appointments {
		if ap.Status == models.StatusScheduled && ap.ScheduledAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]reminder.Candidate, 0, len(ids))
	for _, id := range ids {
		ap := s.appointments[id]
		p := s.patients[ap.PatientID]
		d := s.doctors[ap.DoctorID]

		c := reminder.Candidate{
			AppointmentID: ap.ID,
			PatientID:     ap.PatientID,
			PatientName:   p.Name,
			PatientEmail:  p.Email,
			DoctorName:    d.Name,
			Location:      d.Location,
			ScheduledAt:   ap.ScheduledAt,
			Sent:          map[models.NotificationKind]bool{},
			Failures:      map[models.NotificationKind]int{},
		}
		for _, l := range s.logs {
			if l.AppointmentID == nil || *l.AppointmentID != id {
				continue
			}
			if l.Sent {
				c.Sent[l.Kind] = true
			} else {
				c.Failures[l.Kind]++
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) RecordSent(_ context.Context, e reminder.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.AppointmentID != nil && s.hasSent(*e.AppointmentID, e.Kind) {
		return false, nil
	}

	at := e.At
	s.append(models.NotificationLog{
		Kind:          e.Kind,
		UserID:        e.UserID,
		AppointmentID: e.AppointmentID,
		Recipient:     e.Recipient,
		Sent:          true,
		SentAt:        &at,
		RetryCount:    e.RetryCount,
	})
	return true, nil
}

func (s *Store) RecordFailure(_ context.Context, e reminder.Entry, cause error) error {
	if cause == nil {
		return errors.New("record failure: nil cause")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(models.NotificationLog{
		Kind:          e.Kind,
		UserID:        e.UserID,
		AppointmentID: e.AppointmentID,
		Recipient:     e.Recipient,
		Error:         cause.Error(),
		RetryCount:    e.RetryCount,
	})
	return nil
}

func (s *Store) HasSent(_ context.Context, appointmentID uint, kind models.NotificationKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSent(appointmentID, kind), nil
}

func (s *Store) List(
	_ context.Context,
	f reminder.LogFilter,
	limit int,
	offset int,
) ([]models.NotificationLog, int64, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.NotificationLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if f.AppointmentID != nil && (l.AppointmentID == nil || *l.AppointmentID != *f.AppointmentID) {
			continue
		}
		if f.Kind != "" && l.Kind != f.Kind {
			continue
		}
		if f.Sent != nil && l.Sent != *f.Sent {
			continue
		}
		matched = append(matched, l)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.NotificationLog{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *Store) hasSent(appointmentID uint, kind models.NotificationKind) bool {
	for _, l := range s.logs {
		if l.Sent && l.Kind == kind && l.AppointmentID != nil && *l.AppointmentID == appointmentID {
			return true
		}
	}
	return false
}

func (s *Store) append(l models.NotificationLog) {
	s.nextLogID++
	l.ID = s.nextLogID
	l.CreatedAt = time.Now()
	s.logs = append(s.logs, l)
}

var (
	_ domain.Repository = (*Store)(nil)
	_ reminder.Store    = (*Store)(nil)
)
