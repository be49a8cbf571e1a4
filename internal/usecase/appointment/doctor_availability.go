package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type UpdateAvailabilityInput struct {
	Actor         Actor
	DoctorID      uint
	AvailableDays []string
	StartTime     string
	EndTime       string
}

// DoctorAvailability reads and replaces a doctor's weekly schedule.
type DoctorAvailability struct {
	repo  domain.Repository
	audit Auditor
}

func NewDoctorAvailability(repo domain.Repository, audit Auditor) *DoctorAvailability {
	return &DoctorAvailability{repo: repo, audit: audit}
}

func (uc *DoctorAvailability) Get(ctx context.Context, doctorID uint) (*dto.AvailabilityDTO, error) {
	doctor, err := uc.loadDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return availabilityDTO(doctor), nil
}

func (uc *DoctorAvailability) Update(
	ctx context.Context,
	in UpdateAvailabilityInput,
) (*dto.AvailabilityDTO, error) {

	if !canReadSchedule(in.Actor, in.DoctorID) {
		return nil, httperr.ErrBusiness("forbidden")
	}

	doctor, err := uc.loadDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	doctor.AvailableDays = strings.Join(in.AvailableDays, ",")
	doctor.StartTime = in.StartTime
	doctor.EndTime = in.EndTime

	av, err := domain.AvailabilityOf(doctor)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_availability")
	}
	doctor.AvailableDays = strings.Join(dayNames(av), ",")

	if err := uc.repo.UpdateDoctorAvailability(ctx, doctor); err != nil {
		return nil, err
	}

	id := doctor.ID
	ev := in.Actor.event("availability_updated", &id, map[string]any{
		"available_days": doctor.AvailableDays,
		"start_time":     doctor.StartTime,
		"end_time":       doctor.EndTime,
	})
	ev.Entity = "doctor"
	uc.audit.Dispatch(ev)

	return availabilityDTO(doctor), nil
}

func (uc *DoctorAvailability) loadDoctor(ctx context.Context, id uint) (*models.Doctor, error) {
	doctor, err := uc.repo.GetDoctor(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("doctor_not_found")
	}
	return doctor, err
}

// dayNames renders the configured days Monday first.
func dayNames(av domain.Availability) []string {
	names := []string{}
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		if av.Days[wd] {
			names = append(names, wd.String())
		}
	}
	return names
}

func availabilityDTO(d *models.Doctor) *dto.AvailabilityDTO {
	days := []string{}
	if av, err := domain.AvailabilityOf(d); err == nil {
		days = dayNames(av)
	}
	return &dto.AvailabilityDTO{
		DoctorID:      d.ID,
		AvailableDays: days,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		LunchStart:    domain.LunchStart,
		LunchEnd:      domain.LunchEnd,
	}
}
