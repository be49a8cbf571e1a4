package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logging"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const (
	// One active appointment per doctor and start time.
	IndexDoctorSlot = "ux_appointments_doctor_slot"
	// One delivered notification per appointment and kind.
	IndexNotificationSent = "ux_notification_logs_sent"
	// Created by gorm from the uniqueIndex tag on ConfirmationCode.
	IndexConfirmationCode = "idx_appointments_confirmation_code"
)

var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexDoctorSlot + `
		ON appointments (doctor_id, scheduled_at)
		WHERE status IN ('scheduled', 'confirmed')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + IndexNotificationSent + `
		ON notification_logs (appointment_id, kind)
		WHERE sent`,
}

func NewDB(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsDev() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger: logging.NewGormLogger(logger, logging.GormConfig{
			Level:         level,
			SlowThreshold: 500 * time.Millisecond,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

// Migrate creates tables and the partial unique indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Patient{},
		&models.Doctor{},
		&models.Appointment{},
		&models.NotificationLog{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
