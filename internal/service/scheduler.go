package service

import (
	"time"

	"pylearn_backend/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler runs the periodic maintenance jobs: challenge generation, expiry
// sweeps and broken-streak resets. Jobs fire at midnight in the configured
// timezone, matching the day boundary the rest of the system uses.
type Scheduler struct {
	Challenges *ChallengeService
	Streaks    *StreakService
	sched      gocron.Scheduler
	loc        *time.Location
}

func NewScheduler(challenges *ChallengeService, streaks *StreakService, loc *time.Location) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		Challenges: challenges,
		Streaks:    streaks,
		sched:      sched,
		loc:        loc,
	}, nil
}

// Start registers the jobs and launches the scheduler. The daily job also
// runs once immediately so a freshly booted instance has challenges for the
// current period without waiting for midnight.
func (s *Scheduler) Start() error {
	_, err := s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 30))),
		gocron.NewTask(s.runDailyMaintenance),
		gocron.WithName("daily-maintenance"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	_, err = s.sched.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(time.Monday), gocron.NewAtTimes(gocron.NewAtTime(0, 1, 0))),
		gocron.NewTask(s.runWeeklyMaintenance),
		gocron.WithName("weekly-maintenance"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	s.sched.Start()
	logger.Log.Info("maintenance scheduler started", zap.String("timezone", s.loc.String()))
	return nil
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// runDailyMaintenance is safe to run more than once per day: generation is
// idempotent per period and the sweeps only touch stale rows.
func (s *Scheduler) runDailyMaintenance() {
	if _, err := s.Challenges.DeactivateExpired(); err != nil {
		logger.Log.Error("expiring challenges failed", zap.Error(err))
	}
	if created, err := s.Challenges.GenerateDaily(); err != nil {
		logger.Log.Error("daily challenge generation failed", zap.Error(err))
	} else if len(created) > 0 {
		logger.Log.Info("daily challenges ready", zap.Int("count", len(created)))
	}
	if _, err := s.Streaks.CheckBrokenStreaks(); err != nil {
		logger.Log.Error("broken streak sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) runWeeklyMaintenance() {
	if created, err := s.Challenges.GenerateWeekly(); err != nil {
		logger.Log.Error("weekly challenge generation failed", zap.Error(err))
	} else if len(created) > 0 {
		logger.Log.Info("weekly challenges ready", zap.Int("count", len(created)))
	}
}
