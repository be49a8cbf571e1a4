package reminder

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Candidate is the read projection of an upcoming appointment with
// everything a reminder needs, including what was already sent.
type Candidate struct {
	AppointmentID uint
	PatientID     uint
	PatientName   string
	PatientEmail  string
	DoctorName    string
	Location      string
	ScheduledAt   time.Time

	Sent     map[models.NotificationKind]bool
	Failures map[models.NotificationKind]int
}

// Entry describes one delivery attempt to be logged.
type Entry struct {
	Kind          models.NotificationKind
	UserID        uint
	AppointmentID *uint
	Recipient     string
	At            time.Time
	RetryCount    int
}

// Recorder appends delivery attempts to the notification log.
type Recorder interface {
	// RecordSent stores a delivered row. It returns false when a delivered
	// row for the same appointment and kind already exists.
	RecordSent(ctx context.Context, e Entry) (bool, error)

	RecordFailure(ctx context.Context, e Entry, cause error) error
}

type Store interface {
	Recorder

	// ListUpcoming returns scheduled appointments starting after now.
	ListUpcoming(ctx context.Context, now time.Time) ([]Candidate, error)
}

// LogFilter narrows a notification log listing. Zero fields match anything.
type LogFilter struct {
	AppointmentID *uint
	Kind          models.NotificationKind
	Sent          *bool
}
