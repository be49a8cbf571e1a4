package models

import "time"

type Doctor struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:100;not null" json:"name"`
	Email          string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Specialization string `gorm:"size:100" json:"specialization"`
	Location       string `gorm:"size:255" json:"location"`

	// Weekday names separated by commas, e.g. "Monday,Tuesday,Friday".
	AvailableDays string `gorm:"size:100" json:"available_days"`
	StartTime     string `gorm:"size:5" json:"start_time"`
	EndTime       string `gorm:"size:5" json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
