package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type DoctorScheduleHandler struct {
	slots   *ucAppointment.GetAvailableSlots
	byDate  *ucAppointment.ListAppointmentsByDate
	byMonth *ucAppointment.ListAppointmentsByMonth
	logger  zerolog.Logger
}

func NewDoctorScheduleHandler(
	slots *ucAppointment.GetAvailableSlots,
	byDate *ucAppointment.ListAppointmentsByDate,
	byMonth *ucAppointment.ListAppointmentsByMonth,
	logger zerolog.Logger,
) *DoctorScheduleHandler {
	return &DoctorScheduleHandler{
		slots:   slots,
		byDate:  byDate,
		byMonth: byMonth,
		logger:  logger,
	}
}

// ======================================================
// SLOTS
// ======================================================

func (h *DoctorScheduleHandler) Slots(c *gin.Context) {
	doctorID, ok := idParam(c, "invalid_doctor_id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Query parameter date is required.")
		return
	}

	slots, err := h.slots.Execute(c.Request.Context(), doctorID, date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     slots,
	})
}

// ======================================================
// LIST BY DATE
// ======================================================

func (h *DoctorScheduleHandler) ListByDate(c *gin.Context) {
	doctorID, ok := idParam(c, "invalid_doctor_id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Query parameter date is required.")
		return
	}

	list, err := h.byDate.Execute(c.Request.Context(), actorFrom(c), doctorID, date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	httpresp.List(c, list)
}

// ======================================================
// LIST BY MONTH
// ======================================================

func (h *DoctorScheduleHandler) ListByMonth(c *gin.Context) {
	doctorID, ok := idParam(c, "invalid_doctor_id")
	if !ok {
		return
	}

	yearStr := c.Query("year")
	monthStr := c.Query("month")
	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Query parameters year and month are required.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_year", "Year must be a number.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_month", "Month must be a number.")
		return
	}

	list, err := h.byMonth.Execute(c.Request.Context(), actorFrom(c), doctorID, year, month)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	httpresp.List(c, list)
}
