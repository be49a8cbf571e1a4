package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ProfileReader interface {
	GetPatient(ctx context.Context, id uint) (*models.Patient, error)
	GetDoctor(ctx context.Context, id uint) (*models.Doctor, error)
}

type MeHandler struct {
	profiles ProfileReader
	logger   zerolog.Logger
}

func NewMeHandler(profiles ProfileReader, logger zerolog.Logger) *MeHandler {
	return &MeHandler{profiles: profiles, logger: logger}
}

// GetMe echoes the token identity with the matching patient or doctor
// record. Admins have no profile.
func (h *MeHandler) GetMe(c *gin.Context) {
	actor := actorFrom(c)
	ctx := c.Request.Context()

	var (
		profile any
		err     error
	)

	switch actor.Role {
	case models.RolePatient:
		profile, err = h.profiles.GetPatient(ctx, actor.ID)
	case models.RoleDoctor:
		profile, err = h.profiles.GetDoctor(ctx, actor.ID)
	}

	if errors.Is(err, domain.ErrNotFound) {
		httperr.NotFound(c, "profile_not_found", "No record matches this token.")
		return
	}
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      actor.ID,
		"role":    actor.Role,
		"profile": profile,
	})
}
