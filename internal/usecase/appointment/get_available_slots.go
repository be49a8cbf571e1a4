package appointment

import (
	"context"
	"errors"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type GetAvailableSlots struct {
	repo  domain.Repository
	clock timezone.Clock
}

func NewGetAvailableSlots(repo domain.Repository, clock timezone.Clock) *GetAvailableSlots {
	return &GetAvailableSlots{repo: repo, clock: clock}
}

// Execute lists the doctor's half-hour slots for date (YYYY-MM-DD, clinic
// time). A doctor without a usable schedule has no slots.
func (uc *GetAvailableSlots) Execute(
	ctx context.Context,
	doctorID uint,
	date string,
) ([]domain.TimeSlot, error) {

	now := uc.clock.Now()

	day, err := timezone.ParseDate(date, now.Location())
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date")
	}

	doctor, err := uc.repo.GetDoctor(ctx, doctorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("doctor_not_found")
	}
	if err != nil {
		return nil, err
	}

	av, err := domain.AvailabilityOf(doctor)
	if err != nil {
		return []domain.TimeSlot{}, nil
	}

	start, end := domain.DayBounds(day)

	booked, err := uc.repo.ListActiveStartsForPeriod(ctx, doctor.ID, start, end)
	if err != nil {
		return nil, err
	}

	return domain.GenerateSlots(av, day, booked, now), nil
}
