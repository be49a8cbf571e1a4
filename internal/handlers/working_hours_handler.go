package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// WorkingHoursHandler exposes a doctor's weekly availability. Lunch is
// fixed for the whole clinic and only reported back.
type WorkingHoursHandler struct {
	uc     *ucAppointment.DoctorAvailability
	logger zerolog.Logger
}

func NewWorkingHoursHandler(
	uc *ucAppointment.DoctorAvailability,
	logger zerolog.Logger,
) *WorkingHoursHandler {
	return &WorkingHoursHandler{uc: uc, logger: logger}
}

type WorkingHoursUpdateRequest struct {
	AvailableDays []string `json:"available_days" binding:"required,min=1,dive,required"`
	StartTime     string   `json:"start_time" binding:"required"`
	EndTime       string   `json:"end_time" binding:"required"`
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	doctorID, ok := idParam(c, "invalid_doctor_id")
	if !ok {
		return
	}

	av, err := h.uc.Get(c.Request.Context(), doctorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, av)
}

func (h *WorkingHoursHandler) Update(c *gin.Context) {
	doctorID, ok := idParam(c, "invalid_doctor_id")
	if !ok {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	av, err := h.uc.Update(c.Request.Context(), ucAppointment.UpdateAvailabilityInput{
		Actor:         actorFrom(c),
		DoctorID:      doctorID,
		AvailableDays: req.AvailableDays,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, av)
}
