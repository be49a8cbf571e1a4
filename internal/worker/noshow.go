package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type NoShowMarker interface {
	MarkNoShows(ctx context.Context, endedBefore time.Time) (int64, error)
}

// NoShowSweep flips appointments nobody closed to no_show once their end
// plus grace has passed.
type NoShowSweep struct {
	repo   NoShowMarker
	clock  timezone.Clock
	grace  time.Duration
	logger zerolog.Logger
}

func NewNoShowSweep(
	repo NoShowMarker,
	clock timezone.Clock,
	grace time.Duration,
	logger zerolog.Logger,
) *NoShowSweep {
	return &NoShowSweep{
		repo:   repo,
		clock:  clock,
		grace:  grace,
		logger: logger.With().Str("component", "noshow_sweep").Logger(),
	}
}

func (w *NoShowSweep) Sweep(ctx context.Context) (int64, error) {
	cutoff := w.clock.Now().Add(-w.grace)

	n, err := w.repo.MarkNoShows(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	w.logger.Info().Int64("marked", n).Time("ended_before", cutoff).Msg("no-show sweep done")
	return n, nil
}

// Start schedules Sweep daily at the given HH:MM in loc. Stop the returned
// scheduler on shutdown.
func (w *NoShowSweep) Start(ctx context.Context, at string, loc *time.Location) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	_, err := s.Every(1).Day().At(at).Do(func() {
		if _, err := w.Sweep(ctx); err != nil {
			w.logger.Error().Err(err).Msg("no-show sweep failed")
		}
	})
	if err != nil {
		return nil, err
	}

	s.StartAsync()
	w.logger.Info().Str("at", at).Str("tz", loc.String()).Msg("no-show sweep scheduled")
	return s, nil
}
