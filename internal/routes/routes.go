package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/handlers"
	infraRepo "github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logging"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// Deps are the long-lived pieces built by the caller, which also owns
// their shutdown.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   zerolog.Logger
	Clock    timezone.Clock
	Audit    ucAppointment.Auditor
	Notifier ucAppointment.Notifier
}

func RegisterRoutes(r *gin.Engine, d Deps) error {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(d.Logger))
	r.Use(middleware.CORSMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// ======================================================
	// INFRA
	// ======================================================
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}

	appointmentRepo := infraRepo.NewAppointmentGormRepository(d.DB)
	notificationRepo := infraRepo.NewNotificationLogGormRepository(d.DB)
	auditLogger := audit.New(d.DB)

	location := d.Config.ClinicLocation

	// ======================================================
	// USE CASES
	// ======================================================
	bookUC := ucAppointment.NewBookAppointment(appointmentRepo, d.Audit, d.Notifier, d.Clock, location)
	rescheduleUC := ucAppointment.NewRescheduleAppointment(appointmentRepo, d.Audit, d.Clock)
	cancelUC := ucAppointment.NewCancelAppointment(appointmentRepo, d.Audit, d.Notifier, d.Clock, location)
	confirmUC := ucAppointment.NewConfirmAppointment(appointmentRepo, d.Audit, d.Clock)
	completeUC := ucAppointment.NewCompleteAppointment(appointmentRepo, d.Audit, d.Clock)
	noShowUC := ucAppointment.NewMarkNoShow(appointmentRepo, d.Audit, d.Clock)

	slotsUC := ucAppointment.NewGetAvailableSlots(appointmentRepo, d.Clock)
	byDateUC := ucAppointment.NewListAppointmentsByDate(appointmentRepo, d.Clock)
	byMonthUC := ucAppointment.NewListAppointmentsByMonth(appointmentRepo, d.Clock)
	availabilityUC := ucAppointment.NewDoctorAvailability(appointmentRepo, d.Audit)

	// ======================================================
	// HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(
		bookUC,
		rescheduleUC,
		cancelUC,
		confirmUC,
		completeUC,
		noShowUC,
		d.Logger,
	)
	scheduleHandler := handlers.NewDoctorScheduleHandler(slotsUC, byDateUC, byMonthUC, d.Logger)
	workingHoursHandler := handlers.NewWorkingHoursHandler(availabilityUC, d.Logger)
	auditLogsHandler := handlers.NewAuditLogsHandler(auditLogger, d.Logger)
	notificationLogsHandler := handlers.NewNotificationLogsHandler(notificationRepo, d.Logger)
	meHandler := handlers.NewMeHandler(appointmentRepo, d.Logger)
	healthHandler := handlers.NewHealthHandler(sqlDB)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", healthHandler.Check)
	r.GET("/metrics", metrics.Handler())

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(d.Config.JWTSecret))
	{
		api.GET("/me", meHandler.GetMe)

		// ------------------------------
		// APPOINTMENTS
		// ------------------------------
		api.POST("/appointments", appointmentHandler.Create)
		api.PATCH("/appointments/:id/reschedule", appointmentHandler.Reschedule)
		api.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
		api.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
		api.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
		api.PATCH("/appointments/:id/no-show", appointmentHandler.NoShow)

		// ------------------------------
		// DOCTORS
		// ------------------------------
		api.GET("/doctors/:id/slots", scheduleHandler.Slots)
		api.GET("/doctors/:id/appointments", scheduleHandler.ListByDate)
		api.GET("/doctors/:id/appointments/month", scheduleHandler.ListByMonth)
		api.GET("/doctors/:id/availability", workingHoursHandler.Get)
		api.PUT(
			"/doctors/:id/availability",
			middleware.RequireRole(models.RoleDoctor, models.RoleAdmin),
			workingHoursHandler.Update,
		)

		// ------------------------------
		// ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/audit-logs", auditLogsHandler.List)
			admin.GET("/notification-logs", notificationLogsHandler.List)
		}
	}

	return nil
}
