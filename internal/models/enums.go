package models

import (
	"database/sql/driver"
	"fmt"
)

// ===============================
// Appointment status
// ===============================

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the appointment still holds its slot.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

func (s AppointmentStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid appointment status %q", string(s))
	}
	return string(s), nil
}

func (s *AppointmentStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	st := AppointmentStatus(v)
	if !st.Valid() {
		return fmt.Errorf("invalid appointment status %q", v)
	}
	*s = st
	return nil
}

// ===============================
// Notification kind
// ===============================

type NotificationKind string

const (
	KindReminderThreeWeeks NotificationKind = "reminder_3_weeks"
	KindReminderThreeDays  NotificationKind = "reminder_3_days"
	KindReminderOneDay     NotificationKind = "reminder_1_day"
	KindReminderSameDay    NotificationKind = "reminder_same_day"
	KindConfirmation       NotificationKind = "confirmation"
	KindCancellation       NotificationKind = "cancellation"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case KindReminderThreeWeeks, KindReminderThreeDays, KindReminderOneDay, KindReminderSameDay,
		KindConfirmation, KindCancellation:
		return true
	}
	return false
}

func (k NotificationKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid notification kind %q", string(k))
	}
	return string(k), nil
}

func (k *NotificationKind) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	nk := NotificationKind(v)
	if !nk.Valid() {
		return fmt.Errorf("invalid notification kind %q", v)
	}
	*k = nk
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL")
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}
