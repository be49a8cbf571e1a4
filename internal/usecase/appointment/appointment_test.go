package appointment

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// FAKES
// ======================================================

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Dispatch(ev audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}

type recordingNotifier struct {
	jobs []notify.Job
	full bool
}

func (n *recordingNotifier) Dispatch(job notify.Job) bool {
	if n.full {
		return false
	}
	n.jobs = append(n.jobs, job)
	return true
}

// Saturday 17 October 2026, 09:00 UTC.
var now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

var (
	admin   = Actor{ID: 99, Role: models.RoleAdmin}
	ana     = Actor{ID: 1, Role: models.RolePatient}
	bia     = Actor{ID: 2, Role: models.RolePatient}
	drSilva = Actor{ID: 10, Role: models.RoleDoctor}
	drLima  = Actor{ID: 11, Role: models.RoleDoctor}
)

type env struct {
	store    *memory.Store
	audit    *recordingAuditor
	notifier *recordingNotifier
}

func newEnv() *env {
	s := memory.New()
	s.AddPatient(models.Patient{ID: 1, Name: "Ana", Email: "ana@example.com"})
	s.AddPatient(models.Patient{ID: 2, Name: "Bia", Email: "bia@example.com"})
	s.AddDoctor(models.Doctor{
		ID: 10, Name: "Dr. Silva", Location: "Room 4",
		AvailableDays: "Monday,Tuesday,Wednesday,Thursday,Friday",
		StartTime:     "09:00", EndTime: "17:00",
	})
	s.AddDoctor(models.Doctor{
		ID: 11, Name: "Dr. Lima",
		AvailableDays: "Mon,Wed",
		StartTime:     "08:00", EndTime: "12:00",
	})

	return &env{store: s, audit: &recordingAuditor{}, notifier: &recordingNotifier{}}
}

func (e *env) booker(at time.Time) *BookAppointment {
	return NewBookAppointment(e.store, e.audit, e.notifier, timezone.Fixed(at), "Main clinic")
}

func (e *env) book(t *testing.T, actor Actor, patientID uint, date, clock string) *models.Appointment {
	t.Helper()
	res, err := e.booker(now).Execute(context.Background(), BookAppointmentInput{
		Actor: actor, PatientID: patientID, DoctorID: 10, Date: date, Time: clock,
	})
	require.NoError(t, err)
	return res.Appointment
}

// ======================================================
// BOOK
// ======================================================

func TestBook_Success(t *testing.T) {
	e := newEnv()

	res, err := e.booker(now).Execute(context.Background(), BookAppointmentInput{
		Actor: ana, PatientID: 1, DoctorID: 10,
		Date: "2026-10-19", Time: "10:00", Reason: "check-up",
	})
	require.NoError(t, err)

	ap := res.Appointment
	assert.NotZero(t, ap.ID)
	assert.Equal(t, models.StatusScheduled, ap.Status)
	assert.Equal(t, DefaultDurationMinutes, ap.DurationMinutes)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), ap.ScheduledAt)
	assert.Regexp(t, regexp.MustCompile(`^APT-\d{14}-\d{4}$`), ap.ConfirmationCode)

	assert.True(t, res.NotificationQueued)
	require.Len(t, e.notifier.jobs, 1)
	job := e.notifier.jobs[0]
	assert.Equal(t, models.KindConfirmation, job.Kind)
	assert.Equal(t, "ana@example.com", job.Mail.To)
	assert.Equal(t, "Room 4", job.Mail.Location)
	assert.Equal(t, ap.ConfirmationCode, job.Mail.ConfirmationCode)
	assert.Equal(t, "check-up", job.Mail.Reason)

	assert.Equal(t, []string{"appointment_created"}, e.audit.actions())
}

func TestBook_Rejections(t *testing.T) {
	cases := []struct {
		name      string
		patientID uint
		doctorID  uint
		date      string
		time      string
		reason    domain.Reason
	}{
		{"slot taken", 2, 10, "2026-10-19", "10:00", domain.ReasonSlotTaken},
		{"same patient same doctor", 1, 10, "2026-10-20", "11:00", domain.ReasonDuplicateBooking},
		{"in the past", 2, 10, "2026-10-16", "10:00", domain.ReasonPastDate},
		{"lunch", 2, 10, "2026-10-19", "13:00", domain.ReasonDoctorUnavailable},
		{"weekend", 2, 10, "2026-10-18", "10:00", domain.ReasonDoctorUnavailable},
		{"after hours", 2, 10, "2026-10-19", "17:00", domain.ReasonDoctorUnavailable},
		{"not a working day", 2, 11, "2026-10-20", "09:00", domain.ReasonDoctorUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv()
			e.book(t, ana, 1, "2026-10-19", "10:00")

			actor := Actor{ID: tc.patientID, Role: models.RolePatient}
			_, err := e.booker(now).Execute(context.Background(), BookAppointmentInput{
				Actor: actor, PatientID: tc.patientID, DoctorID: tc.doctorID,
				Date: tc.date, Time: tc.time,
			})
			assert.True(t, domain.IsRejected(err, tc.reason), "got %v", err)
			assert.Contains(t, e.audit.actions(), "appointment_rejected")
		})
	}
}

func TestBook_SamePatientOtherDoctorIsFine(t *testing.T) {
	e := newEnv()
	e.book(t, ana, 1, "2026-10-19", "10:00")

	_, err := e.booker(now).Execute(context.Background(), BookAppointmentInput{
		Actor: ana, PatientID: 1, DoctorID: 11, Date: "2026-10-19", Time: "10:00",
	})
	assert.NoError(t, err)
}

func TestBook_CancelledSlotCanBeRebooked(t *testing.T) {
	e := newEnv()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")

	_, err := NewCancelAppointment(e.store, e.audit, e.notifier, timezone.Fixed(now), "").
		Execute(context.Background(), ana, ap.ID)
	require.NoError(t, err)

	_, err = e.booker(now).Execute(context.Background(), BookAppointmentInput{
		Actor: bia, PatientID: 2, DoctorID: 10, Date: "2026-10-19", Time: "10:00",
	})
	assert.NoError(t, err)
}

func TestBook_InputErrors(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: ana, PatientID: 1, DoctorID: 10, Date: "19/10/2026", Time: "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, "invalid_date_or_time"))

	_, err = e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: ana, PatientID: 2, DoctorID: 10, Date: "2026-10-19", Time: "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	_, err = e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: admin, PatientID: 1, DoctorID: 404, Date: "2026-10-19", Time: "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, "doctor_not_found"))

	_, err = e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: admin, PatientID: 404, DoctorID: 10, Date: "2026-10-19", Time: "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, "patient_not_found"))

	_, err = e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: ana, PatientID: 1, DoctorID: 10, Date: "2026-10-19", Time: "10:00", DurationMinutes: 600,
	})
	assert.True(t, httperr.IsBusiness(err, "invalid_duration"))
}

func TestBook_PastDateBeatsOtherFieldErrors(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: ana, PatientID: 1, DoctorID: 10, Date: "2026-10-16", Time: "10:00", DurationMinutes: 600,
	})
	assert.True(t, domain.IsRejected(err, domain.ReasonPastDate), "got %v", err)

	_, err = e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: admin, PatientID: 1, DoctorID: 404, Date: "2026-10-16", Time: "10:00",
	})
	assert.True(t, domain.IsRejected(err, domain.ReasonPastDate), "got %v", err)

	_, err = e.booker(now).Execute(ctx, BookAppointmentInput{
		Actor: admin, PatientID: 404, DoctorID: 10, Date: "2026-10-16", Time: "10:00",
	})
	assert.True(t, domain.IsRejected(err, domain.ReasonPastDate), "got %v", err)

	assert.Equal(t, []string{"appointment_rejected", "appointment_rejected", "appointment_rejected"}, e.audit.actions())
}

func TestBook_NotificationQueueFull(t *testing.T) {
	e := newEnv()
	e.notifier.full = true

	res, err := e.booker(now).Execute(context.Background(), BookAppointmentInput{
		Actor: ana, PatientID: 1, DoctorID: 10, Date: "2026-10-19", Time: "10:00",
	})
	require.NoError(t, err)
	assert.False(t, res.NotificationQueued)
	assert.NotZero(t, res.Appointment.ID)
}

type collidingStore struct {
	*memory.Store
	collisions int
}

func (s *collidingStore) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	if s.collisions > 0 {
		s.collisions--
		return domain.ErrConfirmationCodeTaken
	}
	return s.Store.CreateAppointment(ctx, ap)
}

func TestBook_RetriesConfirmationCode(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	in := BookAppointmentInput{Actor: ana, PatientID: 1, DoctorID: 10, Date: "2026-10-19", Time: "10:00"}

	retry := &collidingStore{Store: e.store, collisions: 2}
	res, err := NewBookAppointment(retry, e.audit, e.notifier, timezone.Fixed(now), "").Execute(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, res.Appointment.ID)

	giveUp := &collidingStore{Store: newEnv().store, collisions: codeAttempts}
	_, err = NewBookAppointment(giveUp, e.audit, e.notifier, timezone.Fixed(now), "").Execute(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConfirmationCodeTaken)
}

// ======================================================
// RESCHEDULE
// ======================================================

func TestReschedule(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")
	e.book(t, bia, 2, "2026-10-19", "11:00")

	uc := NewRescheduleAppointment(e.store, e.audit, timezone.Fixed(now))

	_, err := uc.Execute(ctx, RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-19", Time: "11:00"})
	assert.True(t, domain.IsRejected(err, domain.ReasonSlotTaken))

	// moving onto its own slot is not a clash
	_, err = uc.Execute(ctx, RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-19", Time: "10:00"})
	assert.NoError(t, err)

	moved, err := uc.Execute(ctx, RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-21", Time: "15:30"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC), moved.ScheduledAt)
	assert.Equal(t, ap.ConfirmationCode, moved.ConfirmationCode)

	_, err = uc.Execute(ctx, RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-16", Time: "10:00"})
	assert.True(t, domain.IsRejected(err, domain.ReasonPastDate))

	_, err = uc.Execute(ctx, RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-22", Time: "12:30"})
	assert.True(t, domain.IsRejected(err, domain.ReasonDoctorUnavailable))

	_, err = uc.Execute(ctx, RescheduleAppointmentInput{Actor: bia, AppointmentID: ap.ID, Date: "2026-10-22", Time: "10:00"})
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
}

func TestReschedule_LeadTime(t *testing.T) {
	e := newEnv()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")

	// Sunday 11:00: 23h before the appointment.
	late := time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)
	_, err := NewRescheduleAppointment(e.store, e.audit, timezone.Fixed(late)).Execute(context.Background(),
		RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-21", Time: "10:00"})
	assert.True(t, domain.IsRejected(err, domain.ReasonLeadTimeViolation))

	// Exactly 24h ahead is still allowed.
	edge := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	_, err = NewRescheduleAppointment(e.store, e.audit, timezone.Fixed(edge)).Execute(context.Background(),
		RescheduleAppointmentInput{Actor: ana, AppointmentID: ap.ID, Date: "2026-10-21", Time: "10:00"})
	assert.NoError(t, err)
}

// ======================================================
// CANCEL
// ======================================================

func TestCancel(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")
	e.notifier.jobs = nil

	uc := NewCancelAppointment(e.store, e.audit, e.notifier, timezone.Fixed(now), "Main clinic")

	_, err := uc.Execute(ctx, bia, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))

	res, err := uc.Execute(ctx, ana, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.Appointment.Status)
	assert.NotNil(t, res.Appointment.CancelledAt)
	assert.True(t, res.NotificationQueued)
	require.Len(t, e.notifier.jobs, 1)
	assert.Equal(t, models.KindCancellation, e.notifier.jobs[0].Kind)
	assert.Equal(t, "Dr. Silva", e.notifier.jobs[0].Mail.DoctorName)

	_, err = uc.Execute(ctx, ana, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestCancel_LeadTime(t *testing.T) {
	e := newEnv()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")

	late := time.Date(2026, 10, 18, 10, 0, 1, 0, time.UTC)
	_, err := NewCancelAppointment(e.store, e.audit, e.notifier, timezone.Fixed(late), "").
		Execute(context.Background(), ana, ap.ID)
	assert.True(t, domain.IsRejected(err, domain.ReasonLeadTimeViolation))

	got, _ := e.store.GetAppointment(context.Background(), ap.ID)
	assert.Equal(t, models.StatusScheduled, got.Status)
}

// ======================================================
// CONFIRM / COMPLETE / NO-SHOW
// ======================================================

func TestStatusTransitions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")

	after := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)

	_, err := NewCompleteAppointment(e.store, e.audit, timezone.Fixed(after)).Execute(ctx, drSilva, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"), "scheduled cannot complete")

	confirmed, err := NewConfirmAppointment(e.store, e.audit, timezone.Fixed(now)).Execute(ctx, ana, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	_, err = NewCompleteAppointment(e.store, e.audit, timezone.Fixed(after)).Execute(ctx, ana, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	_, err = NewCompleteAppointment(e.store, e.audit, timezone.Fixed(after)).Execute(ctx, drLima, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))

	done, err := NewCompleteAppointment(e.store, e.audit, timezone.Fixed(after)).Execute(ctx, drSilva, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	assert.Contains(t, e.audit.actions(), "appointment_completed")
}

func TestMarkNoShow(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ap := e.book(t, ana, 1, "2026-10-19", "10:00")

	_, err := NewMarkNoShow(e.store, e.audit, timezone.Fixed(now)).Execute(ctx, drSilva, ap.ID)
	assert.True(t, domain.IsRejected(err, domain.ReasonNotYetDue))

	after := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)
	got, err := NewMarkNoShow(e.store, e.audit, timezone.Fixed(after)).Execute(ctx, admin, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, got.Status)
}

// ======================================================
// SLOTS / SCHEDULE
// ======================================================

func TestGetAvailableSlots(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	e.book(t, ana, 1, "2026-10-19", "10:00")

	slots, err := NewGetAvailableSlots(e.store, timezone.Fixed(now)).Execute(ctx, 10, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, slots, 13)

	for _, s := range slots {
		assert.NotContains(t, []string{"12:30", "13:00", "13:30"}, s.StartTime)
		assert.Equal(t, s.StartTime != "10:00", s.IsAvailable, s.StartTime)
	}
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "16:30", slots[len(slots)-1].StartTime)
	assert.Equal(t, "2026-10-19T10:00:00Z", slots[2].ISODateTime)

	// Same Monday at 11:00: nothing at or before now.
	today := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)
	slots, err = NewGetAvailableSlots(e.store, timezone.Fixed(today)).Execute(ctx, 10, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, slots, 8)
	assert.Equal(t, "11:30", slots[0].StartTime)

	slots, err = NewGetAvailableSlots(e.store, timezone.Fixed(now)).Execute(ctx, 10, "2026-10-18")
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = NewGetAvailableSlots(e.store, timezone.Fixed(now)).Execute(ctx, 10, "tomorrow")
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))
}

func TestListAppointments(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	e.book(t, ana, 1, "2026-10-19", "10:00")
	e.book(t, bia, 2, "2026-10-20", "09:00")

	byDate := NewListAppointmentsByDate(e.store, timezone.Fixed(now))
	list, err := byDate.Execute(ctx, drSilva, 10, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].PatientName)
	assert.Equal(t, list[0].StartTime.Add(30*time.Minute), list[0].EndTime)

	_, err = byDate.Execute(ctx, drLima, 10, "2026-10-19")
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	byMonth := NewListAppointmentsByMonth(e.store, timezone.Fixed(now))
	list, err = byMonth.Execute(ctx, admin, 10, 2026, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = byMonth.Execute(ctx, admin, 10, 2026, 13)
	assert.True(t, httperr.IsBusiness(err, "invalid_month"))
}

func TestDoctorAvailability(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	uc := NewDoctorAvailability(e.store, e.audit)

	got, err := uc.Get(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Wednesday"}, got.AvailableDays)
	assert.Equal(t, "12:30", got.LunchStart)

	updated, err := uc.Update(ctx, UpdateAvailabilityInput{
		Actor: drLima, DoctorID: 11,
		AvailableDays: []string{"fri", "Tuesday"}, StartTime: "10:00", EndTime: "18:00",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tuesday", "Friday"}, updated.AvailableDays)

	_, err = uc.Update(ctx, UpdateAvailabilityInput{
		Actor: drLima, DoctorID: 11, AvailableDays: []string{"Monday"}, StartTime: "18:00", EndTime: "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, "invalid_availability"))

	_, err = uc.Update(ctx, UpdateAvailabilityInput{
		Actor: drSilva, DoctorID: 11, AvailableDays: []string{"Monday"}, StartTime: "08:00", EndTime: "10:00",
	})
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	_, err = uc.Get(ctx, 404)
	assert.True(t, httperr.IsBusiness(err, "doctor_not_found"))
}
