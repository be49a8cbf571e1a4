package appointment

import "time"

// GenerateSlots lists the half-hour slots of day between the doctor's start
// and end time. Slots touching the lunch blackout are left out, as are slots
// that already started (start <= now). A slot is unavailable when an active
// appointment starts inside it.
func GenerateSlots(
	av Availability,
	day time.Time,
	booked []time.Time,
	now time.Time,
) []TimeSlot {

	slots := []TimeSlot{}

	dayStart, dayEnd := DayBounds(day)
	if !av.Days[dayStart.Weekday()] || !dayEnd.After(now) {
		return slots
	}

	step := int(SlotLength / time.Minute)

	for m := av.Start; m+step <= av.End; m += step {

		// lunch
		if m < lunchEndMinute && m+step > lunchStartMinute {
			continue
		}

		start := time.Date(
			dayStart.Year(), dayStart.Month(), dayStart.Day(),
			m/60, m%60, 0, 0,
			dayStart.Location(),
		)
		end := start.Add(SlotLength)

		if !start.After(now) {
			continue
		}

		available := true
		for _, b := range booked {
			if !b.Before(start) && b.Before(end) {
				available = false
				break
			}
		}

		slots = append(slots, TimeSlot{
			StartTime:   start.Format("15:04"),
			EndTime:     end.Format("15:04"),
			IsAvailable: available,
			ISODateTime: start.Format(time.RFC3339),
		})
	}

	return slots
}
