package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type statusChanger interface {
	Execute(ctx context.Context, actor ucAppointment.Actor, appointmentID uint) (*models.Appointment, error)
}

type AppointmentHandler struct {
	book       *ucAppointment.BookAppointment
	reschedule *ucAppointment.RescheduleAppointment
	cancel     *ucAppointment.CancelAppointment
	confirm    statusChanger
	complete   statusChanger
	noShow     statusChanger
	logger     zerolog.Logger
}

func NewAppointmentHandler(
	book *ucAppointment.BookAppointment,
	reschedule *ucAppointment.RescheduleAppointment,
	cancel *ucAppointment.CancelAppointment,
	confirm statusChanger,
	complete statusChanger,
	noShow statusChanger,
	logger zerolog.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		book:       book,
		reschedule: reschedule,
		cancel:     cancel,
		confirm:    confirm,
		complete:   complete,
		noShow:     noShow,
		logger:     logger,
	}
}

// ======================================================
// REQUESTS / RESPONSES
// ======================================================

type CreateAppointmentRequest struct {
	PatientID       uint   `json:"patient_id" binding:"required"`
	DoctorID        uint   `json:"doctor_id" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason" binding:"max=500"`
	Notes           string `json:"notes" binding:"max=1000"`
	SymptomEntryID  *uint  `json:"symptom_entry_id"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type BookingResponse struct {
	Appointment        *models.Appointment `json:"appointment"`
	ConfirmationCode   string              `json:"confirmation_code"`
	NotificationQueued bool                `json:"notification_queued"`
}

// ======================================================
// HELPERS
// ======================================================

func actorFrom(c *gin.Context) ucAppointment.Actor {
	return ucAppointment.Actor{
		ID:   c.MustGet(middleware.ContextUserID).(uint),
		Role: c.MustGet(middleware.ContextUserRole).(models.Role),
	}
}

func idParam(c *gin.Context, code string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, code, "Invalid id.")
		return 0, false
	}
	return uint(id), true
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	res, err := h.book.Execute(c.Request.Context(), ucAppointment.BookAppointmentInput{
		Actor:           actorFrom(c),
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Notes:           req.Notes,
		SymptomEntryID:  req.SymptomEntryID,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, BookingResponse{
		Appointment:        res.Appointment,
		ConfirmationCode:   res.Appointment.ConfirmationCode,
		NotificationQueued: res.NotificationQueued,
	})
}

// ======================================================
// RESCHEDULE
// ======================================================

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := idParam(c, "invalid_appointment_id")
	if !ok {
		return
	}

	var req RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	ap, err := h.reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleAppointmentInput{
		Actor:         actorFrom(c),
		AppointmentID: id,
		Date:          req.Date,
		Time:          req.Time,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

// ======================================================
// CANCEL
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "invalid_appointment_id")
	if !ok {
		return
	}

	res, err := h.cancel.Execute(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, BookingResponse{
		Appointment:        res.Appointment,
		ConfirmationCode:   res.Appointment.ConfirmationCode,
		NotificationQueued: res.NotificationQueued,
	})
}

// ======================================================
// STATUS TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.changeStatus(c, h.confirm)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.changeStatus(c, h.complete)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	h.changeStatus(c, h.noShow)
}

func (h *AppointmentHandler) changeStatus(c *gin.Context, uc statusChanger) {
	id, ok := idParam(c, "invalid_appointment_id")
	if !ok {
		return
	}

	ap, err := uc.Execute(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}
