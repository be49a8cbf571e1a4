package mailer

import (
	"context"
	"time"
)

// Appointment is what every patient-facing email needs to know.
type Appointment struct {
	To               string
	PatientName      string
	DoctorName       string
	Location         string
	At               time.Time
	ConfirmationCode string
	Reason           string
}

// Reminder adds the tier label ("tomorrow", "in 3 days"...) to the subject.
type Reminder struct {
	Appointment
	Label string
}

type Mailer interface {
	SendConfirmation(ctx context.Context, a Appointment) error
	SendReminder(ctx context.Context, r Reminder) error
	SendCancellation(ctx context.Context, a Appointment) error
}
