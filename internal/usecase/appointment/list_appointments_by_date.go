package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ListAppointmentsByDate struct {
	repo  domain.Repository
	clock timezone.Clock
}

func NewListAppointmentsByDate(
	repo domain.Repository,
	clock timezone.Clock,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo:  repo,
		clock: clock,
	}
}

func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	actor Actor,
	doctorID uint,
	date string,
) ([]dto.AppointmentListDTO, error) {

	if !canReadSchedule(actor, doctorID) {
		return nil, httperr.ErrBusiness("forbidden")
	}

	day, err := timezone.ParseDate(date, uc.clock.Now().Location())
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date")
	}

	start, end := domain.DayBounds(day)

	appointments, err := uc.repo.ListAppointmentsForPeriod(
		ctx,
		doctorID,
		start,
		end,
	)
	if err != nil {
		return nil, err
	}

	return dto.AppointmentList(appointments), nil
}

// A doctor's schedule is visible to that doctor and to admins.
func canReadSchedule(a Actor, doctorID uint) bool {
	return a.Role == models.RoleAdmin || (a.Role == models.RoleDoctor && a.ID == doctorID)
}

func monthBounds(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
