package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLister interface {
	List(ctx context.Context, f audit.Filter, limit, offset int) ([]models.AuditLog, int64, error)
}

type AuditLogsHandler struct {
	logs   AuditLister
	logger zerolog.Logger
}

func NewAuditLogsHandler(logs AuditLister, logger zerolog.Logger) *AuditLogsHandler {
	return &AuditLogsHandler{logs: logs, logger: logger}
}

// List filters by action, entity and a from/to date range (YYYY-MM-DD,
// "to" inclusive).
func (h *AuditLogsHandler) List(c *gin.Context) {
	f := audit.Filter{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			httperr.BadRequest(c, "invalid_from", "from must be YYYY-MM-DD.")
			return
		}
		f.From = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			httperr.BadRequest(c, "invalid_to", "to must be YYYY-MM-DD.")
			return
		}
		to = to.Add(24 * time.Hour)
		f.To = &to
	}

	p := httpresp.PagingFrom(c)

	logs, total, err := h.logs.List(c.Request.Context(), f, p.Limit, p.Offset())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	httpresp.Page(c, p, logs, total)
}
