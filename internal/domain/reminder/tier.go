package reminder

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Tier is one reminder stage and the window (relative to the appointment)
// in which it fires.
type Tier struct {
	Kind  models.NotificationKind
	Label string
	in    func(hours float64) bool
}

// Tiers is evaluated in order; the first unsent tier whose window contains
// the remaining time wins.
var Tiers = []Tier{
	{
		Kind:  models.KindReminderThreeWeeks,
		Label: "in 3 weeks",
		in:    func(h float64) bool { d := h / 24; return d > 20 && d <= 21 },
	},
	{
		Kind:  models.KindReminderThreeDays,
		Label: "in 3 days",
		in:    func(h float64) bool { return h > 48 && h <= 72 },
	},
	{
		Kind:  models.KindReminderOneDay,
		Label: "tomorrow",
		in:    func(h float64) bool { return h > 6 && h <= 26 },
	},
	{
		Kind:  models.KindReminderSameDay,
		Label: "today",
		in:    func(h float64) bool { return h > 0.5 && h <= 3 },
	},
}

func (t Tier) Contains(until time.Duration) bool {
	return t.in(until.Hours())
}

// Due picks the tier to fire for an appointment starting after until.
// skip reports kinds that must not fire (already sent, or given up on).
func Due(until time.Duration, skip func(models.NotificationKind) bool) (Tier, bool) {
	for _, t := range Tiers {
		if t.Contains(until) && !skip(t.Kind) {
			return t, true
		}
	}
	return Tier{}, false
}

func IsReminder(kind models.NotificationKind) bool {
	for _, t := range Tiers {
		if t.Kind == kind {
			return true
		}
	}
	return false
}
