package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/clinic-scheduler/internal/db"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	infraRepo "github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logging"
	"github.com/BruksfildServices01/clinic-scheduler/internal/mailer"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/routes"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	ucReminder "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/reminder"
	"github.com/BruksfildServices01/clinic-scheduler/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-scheduler",
		Short:         "Clinic appointment API and reminder worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(remindOnceCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// ======================================================
// COMMANDS
// ======================================================

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the reminder scheduler and the no-show sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}

			if err := dbpkg.Migrate(db); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}

func remindOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind-once",
		Short: "Run a single reminder pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}

			metrics.Register()

			scheduler, closeLocker := newReminderScheduler(ctx, cfg, logger, db)
			defer closeLocker()

			ran, err := scheduler.RunOnce(ctx)
			if err != nil {
				return err
			}
			if !ran {
				logger.Info().Msg("another instance holds the reminder lock, nothing to do")
			}
			return nil
		},
	}
}

// ======================================================
// WIRING
// ======================================================

func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDev())

	db, err := dbpkg.NewDB(cfg, logger)
	if err != nil {
		return nil, logger, nil, err
	}

	return cfg, logger, db, nil
}

func newMailer(cfg *config.Config, logger zerolog.Logger) mailer.Mailer {
	loc := timezone.Location(cfg.ClinicTimezone)
	if cfg.SMTPEnabled() {
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, loc)
	}
	logger.Warn().Msg("SMTP_HOST not set, emails will only be logged")
	return mailer.NewLogMailer(logger, loc)
}

// newReminderScheduler wires a pass over the database. With REDIS_URL set
// passes are serialized across instances.
func newReminderScheduler(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	db *gorm.DB,
) (*worker.ReminderScheduler, func()) {

	pass := ucReminder.NewProcessReminders(
		infraRepo.NewNotificationLogGormRepository(db),
		newMailer(cfg, logger),
		timezone.NewClock(cfg.ClinicTimezone),
		logger,
		ucReminder.Options{
			MaxAttempts:     cfg.ReminderMaxAttempts,
			DefaultLocation: cfg.ClinicLocation,
		},
	)

	var locker lock.Locker = lock.Nop{}
	closeLocker := func() {}

	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, reminder passes run unlocked")
		} else {
			locker = lock.NewRedisLocker(client)
			closeLocker = func() { _ = client.Close() }
		}
	}

	s := worker.NewReminderScheduler(pass, locker, logger, worker.SchedulerConfig{
		StartupDelay: cfg.ReminderStartupDelay,
		Interval:     cfg.ReminderPollInterval,
	})
	return s, closeLocker
}

// ======================================================
// SERVER
// ======================================================

func runServer(parent context.Context) error {
	ctx, cancelWorkers := context.WithCancel(parent)
	defer cancelWorkers()

	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}

	metrics.Register()

	clock := timezone.NewClock(cfg.ClinicTimezone)
	loc := timezone.Location(cfg.ClinicTimezone)

	// --------------------------------------------------
	// Background dispatchers
	// --------------------------------------------------
	auditDispatcher := audit.NewDispatcher(audit.New(db), logger)
	notifyDispatcher := notify.NewDispatcher(
		newMailer(cfg, logger),
		infraRepo.NewNotificationLogGormRepository(db),
		logger,
		notify.Options{LookupDomain: cfg.IsProduction()},
	)

	// --------------------------------------------------
	// HTTP
	// --------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if err := routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Logger:   logger,
		Clock:    clock,
		Audit:    auditDispatcher,
		Notifier: notifyDispatcher,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --------------------------------------------------
	// Workers
	// --------------------------------------------------
	var wg sync.WaitGroup
	closeLocker := func() {}

	if cfg.ReminderEnabled {
		var scheduler *worker.ReminderScheduler
		scheduler, closeLocker = newReminderScheduler(ctx, cfg, logger, db)

		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Run(ctx)
		}()
	} else {
		logger.Info().Msg("reminder scheduler disabled")
	}
	defer closeLocker()

	sweep := worker.NewNoShowSweep(
		infraRepo.NewAppointmentGormRepository(db),
		clock,
		cfg.NoShowGrace,
		logger,
	)
	cron, err := sweep.Start(ctx, cfg.NoShowSweepAt, loc)
	if err != nil {
		return err
	}

	// --------------------------------------------------
	// Run until signalled
	// --------------------------------------------------
	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
		}
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	cancelWorkers()
	cron.Stop()
	wg.Wait()

	if err := notifyDispatcher.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("notification queue not drained")
	}
	if err := auditDispatcher.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("audit queue not drained")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info().Msg("stopped")
	return nil
}
