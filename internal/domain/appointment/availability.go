package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const (
	SlotLength = 30 * time.Minute

	// Lunch blackout applies to every doctor: [12:30, 14:00).
	lunchStartMinute = 12*60 + 30
	lunchEndMinute   = 14 * 60

	LunchStart = "12:30"
	LunchEnd   = "14:00"
)

type Availability struct {
	Days  map[time.Weekday]bool
	Start int // minutes after midnight
	End   int
}

type TimeSlot struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	ISODateTime string `json:"iso_date_time"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// AvailabilityOf reads the doctor's configured days and working window.
func AvailabilityOf(d *models.Doctor) (Availability, error) {
	av := Availability{Days: map[time.Weekday]bool{}}

	for _, raw := range strings.Split(d.AvailableDays, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return Availability{}, fmt.Errorf("unknown weekday %q", raw)
		}
		av.Days[wd] = true
	}

	var err error
	if av.Start, err = parseClock(d.StartTime); err != nil {
		return Availability{}, fmt.Errorf("start time: %w", err)
	}
	if av.End, err = parseClock(d.EndTime); err != nil {
		return Availability{}, fmt.Errorf("end time: %w", err)
	}
	if av.End <= av.Start {
		return Availability{}, fmt.Errorf("end time %s is not after start time %s", d.EndTime, d.StartTime)
	}

	return av, nil
}

// Allows reports whether an appointment may start at t.
func (av Availability) Allows(t time.Time) bool {
	if !av.Days[t.Weekday()] {
		return false
	}

	m := t.Hour()*60 + t.Minute()
	if m < av.Start || m >= av.End {
		return false
	}

	return !inLunch(m)
}

func inLunch(minute int) bool {
	return minute >= lunchStartMinute && minute < lunchEndMinute
}

func parseClock(hm string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hm))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DayBounds returns [00:00, next 00:00) of the calendar day of t in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
