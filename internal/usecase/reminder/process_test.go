package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/clinic-scheduler/internal/mailer"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendConfirmation(ctx context.Context, a mailer.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockMailer) SendReminder(ctx context.Context, r mailer.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockMailer) SendCancellation(ctx context.Context, a mailer.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

var now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	mailer *mockMailer
	uc     *ProcessReminders
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()

	store := memory.New()
	store.AddDoctor(models.Doctor{ID: 1, Name: "Dr. Silva"})

	m := &mockMailer{}
	uc := NewProcessReminders(store, m, timezone.Fixed(now), zerolog.Nop(), Options{
		MaxAttempts:     maxAttempts,
		DefaultLocation: "Main clinic",
		SendTimeout:     time.Second,
	})

	return &fixture{store: store, mailer: m, uc: uc}
}

// book creates a scheduled appointment starting `until` from now for a new patient.
func (f *fixture) book(t *testing.T, patientID uint, email string, until time.Duration) uint {
	t.Helper()

	f.store.AddPatient(models.Patient{ID: patientID, Name: fmt.Sprintf("P%d", patientID), Email: email})

	ap := &models.Appointment{
		PatientID:        patientID,
		DoctorID:         1,
		ScheduledAt:      now.Add(until),
		DurationMinutes:  30,
		Status:           models.StatusScheduled,
		ConfirmationCode: fmt.Sprintf("APT-%d", patientID),
	}
	require.NoError(t, f.store.CreateAppointment(context.Background(), ap))
	return ap.ID
}

func to(email string) any {
	return mock.MatchedBy(func(r mailer.Reminder) bool { return r.To == email })
}

func TestExecute_SendsOncePerTier(t *testing.T) {
	f := newFixture(t, 5)
	id := f.book(t, 1, "ana@example.com", 20*time.Hour)

	f.mailer.On("SendReminder", mock.Anything, to("ana@example.com")).Return(nil).Once()

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	res, err = f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Sent)

	f.mailer.AssertNumberOfCalls(t, "SendReminder", 1)

	logs := f.store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.KindReminderOneDay, logs[0].Kind)
	assert.Equal(t, id, *logs[0].AppointmentID)
	assert.True(t, logs[0].Sent)
}

func TestExecute_TierLabelAndLocationFallback(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, "ana@example.com", 72*time.Hour)

	f.mailer.On("SendReminder", mock.Anything, mock.MatchedBy(func(r mailer.Reminder) bool {
		return r.Label == "in 3 days" && r.Location == "Main clinic" && r.At.Equal(now.Add(72*time.Hour))
	})).Return(nil).Once()

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, models.KindReminderThreeDays, f.store.Logs()[0].Kind)
	f.mailer.AssertExpectations(t)
}

func TestExecute_OutsideEveryWindow(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, "ana@example.com", 4*time.Hour)
	f.book(t, 2, "bia@example.com", 10*24*time.Hour)
	f.book(t, 3, "caio@example.com", 20*time.Minute)

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Candidates)
	assert.Zero(t, res.Sent)
	f.mailer.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
}

func TestExecute_FailureIsRetriedNextPass(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, "ana@example.com", 2*time.Hour)

	f.mailer.On("SendReminder", mock.Anything, to("ana@example.com")).Return(errors.New("smtp down")).Once()
	f.mailer.On("SendReminder", mock.Anything, to("ana@example.com")).Return(nil).Once()

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	res, err = f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	logs := f.store.Logs()
	require.Len(t, logs, 2)
	assert.False(t, logs[0].Sent)
	assert.Equal(t, "smtp down", logs[0].Error)
	assert.True(t, logs[1].Sent)
	assert.Equal(t, 1, logs[1].RetryCount)
	assert.Equal(t, models.KindReminderSameDay, logs[1].Kind)
}

func TestExecute_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, 2)
	f.book(t, 1, "ana@example.com", 2*time.Hour)

	f.mailer.On("SendReminder", mock.Anything, mock.Anything).Return(errors.New("mailbox full"))

	for i := 0; i < 4; i++ {
		_, err := f.uc.Execute(context.Background())
		require.NoError(t, err)
	}

	f.mailer.AssertNumberOfCalls(t, "SendReminder", 2)
	assert.Len(t, f.store.Logs(), 2)
}

func TestExecute_PanicDoesNotStopPass(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, "ana@example.com", 20*time.Hour)
	f.book(t, 2, "bia@example.com", 20*time.Hour+30*time.Minute)

	f.mailer.On("SendReminder", mock.Anything, to("ana@example.com")).
		Run(func(mock.Arguments) { panic("template exploded") }).
		Return(nil)
	f.mailer.On("SendReminder", mock.Anything, to("bia@example.com")).Return(nil).Once()

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Sent)
}

func TestExecute_SkipsPatientWithoutEmail(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, "", 20*time.Hour)

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, f.store.Logs())
}

func TestExecute_StopsWhenCancelled(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, "ana@example.com", 20*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	f.mailer.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
}

func TestExecute_ListErrorIsReturned(t *testing.T) {
	f := newFixture(t, 5)
	f.store.FailList = errors.New("connection refused")

	_, err := f.uc.Execute(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestExecute_SkipsConfirmedAndCancelled(t *testing.T) {
	f := newFixture(t, 5)
	id := f.book(t, 1, "ana@example.com", 20*time.Hour)

	ap, err := f.store.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	ap.Status = models.StatusCancelled
	require.NoError(t, f.store.UpdateAppointment(context.Background(), ap))

	res, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Candidates)
}
