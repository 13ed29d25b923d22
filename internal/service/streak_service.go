package service

import (
	"errors"
	"time"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/pkg/logger"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StreakResult classifies what a Touch did to the user's streak.
type StreakResult string

const (
	StreakCreated   StreakResult = "created"
	StreakContinued StreakResult = "continued"
	StreakBroken    StreakResult = "broken"
	StreakUnchanged StreakResult = "unchanged"
)

// StreakService maintains consecutive-day activity counters. A "day" is a
// civil date in the configured timezone; stored dates are normalized to
// midnight UTC so comparisons are exact.
type StreakService struct {
	StreakRepo *repository.StreakRepository
	Badges     *BadgeService
	clock      clockwork.Clock
	loc        *time.Location
}

func NewStreakService(streakRepo *repository.StreakRepository, badges *BadgeService, clock clockwork.Clock, loc *time.Location) *StreakService {
	return &StreakService{
		StreakRepo: streakRepo,
		Badges:     badges,
		clock:      clock,
		loc:        loc,
	}
}

// Today returns the current civil date as a midnight-UTC timestamp.
func (s *StreakService) Today() time.Time {
	now := s.clock.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Touch records activity for today and updates the streak accordingly:
// first activity ever creates a 1-day streak, activity the day after the
// last one extends it, a later day resets it to 1, and repeated activity on
// the same day changes nothing. Longest streak is maintained as a
// high-water mark and never reset.
func (s *StreakService) Touch(user *model.User) (StreakResult, error) {
	today := s.Today()
	yesterday := today.AddDate(0, 0, -1)

	streak, err := s.StreakRepo.FindByUser(user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		streak = &model.DailyStreak{
			UserID:           user.ID,
			CurrentStreak:    1,
			LongestStreak:    1,
			LastActivityDate: today,
		}
		if err := s.StreakRepo.Create(streak); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the first-touch race; the other writer owns today.
				return StreakUnchanged, nil
			}
			return "", err
		}
		return StreakCreated, nil
	}
	if err != nil {
		return "", err
	}

	last := streak.LastActivityDate
	var result StreakResult
	switch {
	case last.Equal(today):
		return StreakUnchanged, nil
	case last.Equal(yesterday):
		streak.CurrentStreak++
		result = StreakContinued
	default:
		streak.CurrentStreak = 1
		result = StreakBroken
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastActivityDate = today

	if err := s.StreakRepo.Save(streak); err != nil {
		return "", err
	}

	if _, err := s.Badges.CheckAndAward(user); err != nil {
		logger.Log.Warn("badge check after streak update failed",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return result, nil
}

// GetStreak returns the user's streak record, or a zeroed one if the user
// has never been active.
func (s *StreakService) GetStreak(userID uint) (*model.DailyStreak, error) {
	streak, err := s.StreakRepo.FindByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.DailyStreak{UserID: userID}, nil
	}
	return streak, err
}

// CheckBrokenStreaks zeroes the current streak of everyone whose last
// activity predates yesterday. Runs from the daily maintenance job; a user
// touching their streak later the same day gets a fresh 1-day streak either
// way, so the job and the request path cannot disagree.
func (s *StreakService) CheckBrokenStreaks() (int64, error) {
	yesterday := s.Today().AddDate(0, 0, -1)
	reset, err := s.StreakRepo.ResetBroken(yesterday)
	if err != nil {
		return 0, err
	}
	if reset > 0 {
		logger.Log.Info("reset broken streaks", zap.Int64("count", reset))
	}
	return reset, nil
}
