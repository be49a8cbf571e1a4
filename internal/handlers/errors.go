package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logging"
)

var rejectionMessages = map[domain.Reason]string{
	domain.ReasonPastDate:          "The requested time is in the past.",
	domain.ReasonDoctorUnavailable: "The doctor does not attend at the requested time.",
	domain.ReasonSlotTaken:         "The doctor already has an appointment at that time.",
	domain.ReasonLeadTimeViolation: "Appointments can only be changed up to 24 hours in advance.",
	domain.ReasonDuplicateBooking:  "The patient already has an upcoming appointment with this doctor.",
	domain.ReasonNotYetDue:         "The appointment has not happened yet.",
}

var businessMessages = map[string]string{
	"forbidden":             "You are not allowed to do this.",
	"invalid_state":         "The appointment cannot change from its current status.",
	"invalid_date":          "Date must be YYYY-MM-DD.",
	"invalid_date_or_time":  "Date must be YYYY-MM-DD and time HH:MM.",
	"invalid_duration":      "Duration must be between 1 and 240 minutes.",
	"invalid_month":         "Year and month are out of range.",
	"invalid_availability":  "Available days or hours are not valid.",
	"appointment_not_found": "Appointment not found.",
	"doctor_not_found":      "Doctor not found.",
	"patient_not_found":     "Patient not found.",
}

// writeError maps use case errors to a response. Anything unexpected is
// logged and answered with a generic 500.
func writeError(c *gin.Context, logger zerolog.Logger, err error) {
	if r, ok := domain.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		if r.Reason == domain.ReasonSlotTaken || r.Reason == domain.ReasonDuplicateBooking {
			status = http.StatusConflict
		}
		httperr.Write(c, status, string(r.Reason), rejectionMessages[r.Reason])
		return
	}

	if code, ok := httperr.BusinessCode(err); ok {
		msg := businessMessages[code]
		if msg == "" {
			msg = code
		}
		switch {
		case code == "forbidden":
			httperr.Forbidden(c, code, msg)
		case code == "invalid_state":
			httperr.Conflict(c, code, msg)
		case strings.HasSuffix(code, "_not_found"):
			httperr.NotFound(c, code, msg)
		default:
			httperr.BadRequest(c, code, msg)
		}
		return
	}

	logger.Error().
		Err(err).
		Str("request_id", logging.RequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")
	httperr.Internal(c, "internal_error", "Something went wrong.")
}
