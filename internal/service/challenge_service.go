package service

import (
	"errors"
	"math/rand"
	"time"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/pkg/logger"
	"pylearn_backend/pkg/monitoring"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// challengeTemplate is a blueprint a period's challenges are sampled from.
type challengeTemplate struct {
	Title        string
	Description  string
	TargetMetric model.TargetMetric
	TargetValue  int
	XPReward     int
}

var dailyTemplates = []challengeTemplate{
	{"Daily Exercise Sprint", "Complete 3 coding exercises today", model.MetricExercisesSolved, 3, 150},
	{"Quick Learner", "Complete 1 lesson today", model.MetricLessonsCompleted, 1, 100},
	{"XP Hunter", "Earn 200 XP today", model.MetricXPEarned, 200, 100},
	{"Code Warrior", "Submit 5 code solutions today", model.MetricCodeSubmissions, 5, 120},
}

var weeklyTemplates = []challengeTemplate{
	{"Weekly Marathon", "Complete 15 exercises this week", model.MetricExercisesSolved, 15, 500},
	{"Knowledge Seeker", "Complete 5 lessons this week", model.MetricLessonsCompleted, 5, 400},
	{"XP Master", "Earn 1,000 XP this week", model.MetricXPEarned, 1000, 300},
}

const (
	dailyPickCount  = 3
	weeklyPickCount = 2
)

// ChallengeService generates time-boxed challenges from template pools and
// tracks per-user progress. Generation is idempotent per period: a second
// run for the same day or week creates nothing.
type ChallengeService struct {
	ChallengeRepo *repository.ChallengeRepository
	Progression   *ProgressionService
	clock         clockwork.Clock
	loc           *time.Location
	rng           *rand.Rand
}

func NewChallengeService(challengeRepo *repository.ChallengeRepository, progression *ProgressionService, clock clockwork.Clock, loc *time.Location) *ChallengeService {
	return &ChallengeService{
		ChallengeRepo: challengeRepo,
		Progression:   progression,
		clock:         clock,
		loc:           loc,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Today returns the current civil date as a midnight-UTC timestamp.
func (s *ChallengeService) Today() time.Time {
	now := s.clock.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// weekBounds returns the Monday and Sunday (inclusive) of the week containing
// the given date.
func weekBounds(day time.Time) (time.Time, time.Time) {
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// GenerateDaily deactivates expired daily challenges and, unless today's set
// already exists, samples dailyPickCount templates and creates them for
// today. Returns the challenges created, empty on the idempotent path.
func (s *ChallengeService) GenerateDaily() ([]model.Challenge, error) {
	today := s.Today()

	if _, err := s.ChallengeRepo.DeactivateExpiredByType(model.ChallengeDaily, today); err != nil {
		return nil, err
	}

	exists, err := s.ChallengeRepo.ExistsActiveForPeriod(model.ChallengeDaily, today)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	challenges := s.buildFromTemplates(dailyTemplates, dailyPickCount, model.ChallengeDaily, today, today)
	if err := s.ChallengeRepo.CreateBatch(challenges); err != nil {
		return nil, err
	}
	logger.Log.Info("generated daily challenges",
		zap.Int("count", len(challenges)), zap.Time("date", today))
	return challenges, nil
}

// GenerateWeekly does the same for the Monday-anchored week containing today.
func (s *ChallengeService) GenerateWeekly() ([]model.Challenge, error) {
	today := s.Today()
	start, end := weekBounds(today)

	if _, err := s.ChallengeRepo.DeactivateExpiredByType(model.ChallengeWeekly, today); err != nil {
		return nil, err
	}

	exists, err := s.ChallengeRepo.ExistsActiveForPeriod(model.ChallengeWeekly, start)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	challenges := s.buildFromTemplates(weeklyTemplates, weeklyPickCount, model.ChallengeWeekly, start, end)
	if err := s.ChallengeRepo.CreateBatch(challenges); err != nil {
		return nil, err
	}
	logger.Log.Info("generated weekly challenges",
		zap.Int("count", len(challenges)), zap.Time("week_start", start))
	return challenges, nil
}

func (s *ChallengeService) buildFromTemplates(pool []challengeTemplate, pick int, ctype model.ChallengeType, start, end time.Time) []model.Challenge {
	idx := s.rng.Perm(len(pool))
	if pick > len(pool) {
		pick = len(pool)
	}

	challenges := make([]model.Challenge, 0, pick)
	for _, i := range idx[:pick] {
		t := pool[i]
		challenges = append(challenges, model.Challenge{
			Title:        t.Title,
			Description:  t.Description,
			Type:         ctype,
			StartDate:    start,
			EndDate:      end,
			TargetMetric: t.TargetMetric,
			TargetValue:  t.TargetValue,
			XPReward:     t.XPReward,
			IsActive:     true,
		})
	}
	return challenges
}

// UpdateProgress increments the user's progress on every active challenge
// tracking the metric and awards the XP reward for any that complete.
// Completion is one-way: a completed challenge never accrues further
// progress and never re-awards. Returns the challenges completed by this
// increment.
func (s *ChallengeService) UpdateProgress(user *model.User, metric model.TargetMetric, increment int) ([]model.Challenge, error) {
	if increment <= 0 {
		return nil, nil
	}
	today := s.Today()

	active, err := s.ChallengeRepo.FindActiveByMetric(metric, today)
	if err != nil {
		return nil, err
	}

	var completed []model.Challenge
	for i := range active {
		challenge := active[i]

		uc, err := s.getOrCreateUserChallenge(user.ID, challenge.ID)
		if err != nil {
			return completed, err
		}
		if uc.Completed {
			continue
		}

		uc.Progress += increment
		if uc.Progress >= challenge.TargetValue {
			now := s.clock.Now()
			uc.Completed = true
			uc.CompletedAt = &now
		}
		if err := s.ChallengeRepo.SaveUserChallenge(uc); err != nil {
			return completed, err
		}

		if uc.Completed {
			monitoring.ChallengesCompleted.WithLabelValues(string(challenge.Type)).Inc()
			if err := s.Progression.AddXP(user, challenge.XPReward); err != nil {
				return completed, err
			}
			completed = append(completed, challenge)
		}
	}
	return completed, nil
}

// getOrCreateUserChallenge resolves the progress row, absorbing the
// concurrent-create race through the unique index: losing the insert means
// another request created the row, so re-read it.
func (s *ChallengeService) getOrCreateUserChallenge(userID, challengeID uint) (*model.UserChallenge, error) {
	uc, err := s.ChallengeRepo.FindUserChallenge(userID, challengeID)
	if err == nil {
		return uc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &model.UserChallenge{UserID: userID, ChallengeID: challengeID}
	if err := s.ChallengeRepo.CreateUserChallenge(fresh); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.ChallengeRepo.FindUserChallenge(userID, challengeID)
		}
		return nil, err
	}
	return fresh, nil
}

// ChallengeStatus pairs a live challenge with the user's progress on it.
type ChallengeStatus struct {
	Challenge model.Challenge `json:"challenge"`
	Progress  int             `json:"progress"`
	Completed bool            `json:"completed"`
	Percent   int             `json:"percent"`
}

// GetActiveChallenges lists every challenge live today together with the
// user's progress; users who never touched a challenge see zero progress.
func (s *ChallengeService) GetActiveChallenges(userID uint) ([]ChallengeStatus, error) {
	today := s.Today()

	active, err := s.ChallengeRepo.FindActiveOn(today)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(active))
	for i, c := range active {
		ids[i] = c.ID
	}
	ucs, err := s.ChallengeRepo.FindUserChallenges(userID, ids)
	if err != nil {
		return nil, err
	}
	byChallenge := make(map[uint]model.UserChallenge, len(ucs))
	for _, uc := range ucs {
		byChallenge[uc.ChallengeID] = uc
	}

	result := make([]ChallengeStatus, 0, len(active))
	for _, challenge := range active {
		status := ChallengeStatus{Challenge: challenge}
		if uc, ok := byChallenge[challenge.ID]; ok {
			status.Progress = uc.Progress
			status.Completed = uc.Completed
		}
		if challenge.TargetValue > 0 {
			pct := status.Progress * 100 / challenge.TargetValue
			if pct > 100 {
				pct = 100
			}
			status.Percent = pct
		}
		result = append(result, status)
	}
	return result, nil
}

// DeactivateExpired flips is_active off for every challenge of any type whose
// end date has passed. Runs from the daily maintenance job.
func (s *ChallengeService) DeactivateExpired() (int64, error) {
	return s.ChallengeRepo.DeactivateExpired(s.Today())
}
