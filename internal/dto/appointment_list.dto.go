package dto

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID               uint      `json:"id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Status           string    `json:"status"`
	PatientID        uint      `json:"patient_id"`
	PatientName      string    `json:"patient_name"`
	Reason           string    `json:"reason"`
	ConfirmationCode string    `json:"confirmation_code"`
}

func AppointmentList(apps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		out = append(out, AppointmentListDTO{
			ID:               ap.ID,
			StartTime:        ap.ScheduledAt,
			EndTime:          ap.EndsAt(),
			Status:           string(ap.Status),
			PatientID:        ap.PatientID,
			PatientName:      ap.Patient.Name,
			Reason:           ap.Reason,
			ConfirmationCode: ap.ConfirmationCode,
		})
	}
	return out
}

type AvailabilityDTO struct {
	DoctorID      uint     `json:"doctor_id"`
	AvailableDays []string `json:"available_days"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	LunchStart    string   `json:"lunch_start"`
	LunchEnd      string   `json:"lunch_end"`
}
