package models

import "time"

// NotificationLog is append-only. A partial unique index on
// (appointment_id, kind) WHERE sent keeps a single delivered row per kind.
type NotificationLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Kind          NotificationKind `gorm:"size:32;not null;index" json:"kind"`
	UserID        uint             `gorm:"not null;index" json:"user_id"`
	AppointmentID *uint            `gorm:"index" json:"appointment_id"`
	Recipient     string           `gorm:"size:255;not null" json:"recipient"`

	Sent       bool       `gorm:"not null;default:false" json:"sent"`
	SentAt     *time.Time `json:"sent_at"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
	RetryCount int        `gorm:"not null;default:0" json:"retry_count"`

	CreatedAt time.Time `json:"created_at"`
}
