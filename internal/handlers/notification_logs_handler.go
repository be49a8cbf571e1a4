package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/reminder"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type NotificationLister interface {
	List(ctx context.Context, f reminder.LogFilter, limit, offset int) ([]models.NotificationLog, int64, error)
}

type NotificationLogsHandler struct {
	logs   NotificationLister
	logger zerolog.Logger
}

func NewNotificationLogsHandler(logs NotificationLister, logger zerolog.Logger) *NotificationLogsHandler {
	return &NotificationLogsHandler{logs: logs, logger: logger}
}

func (h *NotificationLogsHandler) List(c *gin.Context) {
	var f reminder.LogFilter

	if s := c.Query("appointment_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_appointment_id", "appointment_id must be a number.")
			return
		}
		v := uint(id)
		f.AppointmentID = &v
	}

	if s := c.Query("kind"); s != "" {
		kind := models.NotificationKind(s)
		if !kind.Valid() {
			httperr.BadRequest(c, "invalid_kind", "Unknown notification kind.")
			return
		}
		f.Kind = kind
	}

	if s := c.Query("sent"); s != "" {
		sent, err := strconv.ParseBool(s)
		if err != nil {
			httperr.BadRequest(c, "invalid_sent", "sent must be true or false.")
			return
		}
		f.Sent = &sent
	}

	p := httpresp.PagingFrom(c)

	logs, total, err := h.logs.List(c.Request.Context(), f, p.Limit, p.Offset())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	httpresp.Page(c, p, logs, total)
}
