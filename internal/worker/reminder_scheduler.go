package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	usecase "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/reminder"
)

const ReminderLockKey = "reminders:scan-lock"

// State of the reminder loop.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateWaiting
	StateScanning
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWaiting:
		return "waiting"
	case StateScanning:
		return "scanning"
	default:
		return "stopped"
	}
}

// Pass is one reminder scan.
type Pass interface {
	Execute(ctx context.Context) (usecase.Result, error)
}

type SchedulerConfig struct {
	StartupDelay time.Duration
	Interval     time.Duration
}

// ReminderScheduler waits StartupDelay, then runs a pass every Interval
// until its context is cancelled. A failing pass never stops the loop.
type ReminderScheduler struct {
	pass   Pass
	locker lock.Locker
	logger zerolog.Logger
	cfg    SchedulerConfig

	state atomic.Int32
}

func NewReminderScheduler(
	pass Pass,
	locker lock.Locker,
	logger zerolog.Logger,
	cfg SchedulerConfig,
) *ReminderScheduler {
	if locker == nil {
		locker = lock.Nop{}
	}
	return &ReminderScheduler{
		pass:   pass,
		locker: locker,
		logger: logger.With().Str("component", "reminder_scheduler").Logger(),
		cfg:    cfg,
	}
}

func (s *ReminderScheduler) State() State {
	return State(s.state.Load())
}

func (s *ReminderScheduler) setState(st State) {
	s.state.Store(int32(st))
	s.logger.Debug().Str("state", st.String()).Msg("reminder scheduler state")
}

// Run blocks until ctx is cancelled. A pass in progress is allowed to reach
// the next appointment boundary before Run returns.
func (s *ReminderScheduler) Run(ctx context.Context) {
	defer s.setState(StateStopped)

	s.setState(StateStarting)
	s.logger.Info().
		Dur("startup_delay", s.cfg.StartupDelay).
		Dur("interval", s.cfg.Interval).
		Msg("reminder scheduler started")

	if !sleep(ctx, s.cfg.StartupDelay) {
		s.logger.Info().Msg("reminder scheduler stopped before first pass")
		return
	}

	for {
		s.setState(StateWaiting)
		if !sleep(ctx, s.cfg.Interval) {
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		}

		s.setState(StateScanning)
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("reminder pass failed")
		}
	}
}

// RunOnce runs a single pass under the distributed lock. It reports
// ran=false when another instance holds the lock.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (ran bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminder pass panicked: %v", r)
		}
	}()

	ttl := s.cfg.Interval
	if ttl <= 0 {
		ttl = time.Hour
	}

	token, ok, lerr := s.locker.Acquire(ctx, ReminderLockKey, ttl)
	switch {
	case lerr != nil:
		// Storage dedup still prevents double-recording, so run unlocked.
		s.logger.Warn().Err(lerr).Msg("reminder lock unavailable, running unlocked")
	case !ok:
		s.logger.Info().Msg("reminder pass skipped: lock held by another instance")
		return false, nil
	default:
		defer func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.locker.Release(rctx, ReminderLockKey, token); err != nil {
				s.logger.Warn().Err(err).Msg("release reminder lock")
			}
		}()
	}

	_, err = s.pass.Execute(ctx)
	return true, err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
