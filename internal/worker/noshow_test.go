package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

func TestNoShowSweep_MarksAfterGrace(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	start := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	for i, st := range []models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed, models.StatusCompleted} {
		require.NoError(t, store.CreateAppointment(ctx, &models.Appointment{
			PatientID:        uint(i + 1),
			DoctorID:         uint(i + 1),
			ScheduledAt:      start,
			DurationMinutes:  30,
			Status:           st,
			ConfirmationCode: string(st),
		}))
	}

	// 23h after the end: still inside the grace period.
	early := NewNoShowSweep(store, timezone.Fixed(start.Add(30*time.Minute+23*time.Hour)), 24*time.Hour, zerolog.Nop())
	n, err := early.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	late := NewNoShowSweep(store, timezone.Fixed(start.Add(30*time.Minute+25*time.Hour)), 24*time.Hour, zerolog.Nop())
	n, err = late.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	done, err := store.GetAppointment(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
}

func TestNoShowSweep_StartSchedulesDailyJob(t *testing.T) {
	w := NewNoShowSweep(memory.New(), timezone.Fixed(time.Now()), time.Hour, zerolog.Nop())

	s, err := w.Start(context.Background(), "03:00", time.UTC)
	require.NoError(t, err)
	defer s.Stop()

	require.Len(t, s.Jobs(), 1)
	next := s.Jobs()[0].NextRun()
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestNoShowSweep_StartRejectsBadTime(t *testing.T) {
	w := NewNoShowSweep(memory.New(), timezone.Fixed(time.Now()), time.Hour, zerolog.Nop())

	_, err := w.Start(context.Background(), "25:99", time.UTC)
	assert.Error(t, err)
}
