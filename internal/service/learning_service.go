package service

import (
	"context"
	"errors"
	"time"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/internal/util"
	"pylearn_backend/pkg/logger"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CodeEvaluator judges a submission against its exercise. Implemented by the
// AI tutor; tests substitute a deterministic fake.
type CodeEvaluator interface {
	EvaluateSubmission(ctx context.Context, exercise *model.Exercise, code string) (correct bool, feedback string, err error)
}

// LearningService drives the learning pipeline. Every rewarding event flows
// through the same sequence: XP first, then badges, then streak, then
// challenges, so badge criteria always see the post-award XP and level.
type LearningService struct {
	LearningRepo *repository.LearningRepository
	ExerciseRepo *repository.ExerciseRepository
	StatsRepo    *repository.StatsRepository
	UserRepo     *repository.UserRepository
	Progression  *ProgressionService
	Badges       *BadgeService
	Streaks      *StreakService
	Challenges   *ChallengeService
	Evaluator    CodeEvaluator
	clock        clockwork.Clock
}

func NewLearningService(
	learningRepo *repository.LearningRepository,
	exerciseRepo *repository.ExerciseRepository,
	statsRepo *repository.StatsRepository,
	userRepo *repository.UserRepository,
	progression *ProgressionService,
	badges *BadgeService,
	streaks *StreakService,
	challenges *ChallengeService,
	evaluator CodeEvaluator,
	clock clockwork.Clock,
) *LearningService {
	return &LearningService{
		LearningRepo: learningRepo,
		ExerciseRepo: exerciseRepo,
		StatsRepo:    statsRepo,
		UserRepo:     userRepo,
		Progression:  progression,
		Badges:       badges,
		Streaks:      streaks,
		Challenges:   challenges,
		Evaluator:    evaluator,
		clock:        clock,
	}
}

// RewardSummary reports everything a learning event earned.
type RewardSummary struct {
	XPAwarded           int               `json:"xpAwarded"`
	NewLevel            int               `json:"newLevel"`
	BadgesEarned        []model.Badge     `json:"badgesEarned"`
	ChallengesCompleted []model.Challenge `json:"challengesCompleted"`
	StreakResult        StreakResult      `json:"streakResult,omitempty"`
}

// runPipeline applies the reward sequence for one event. Challenge metric
// increments are passed per metric because one event can advance several
// (an exercise solve advances both exercises_solved and code_submissions).
func (s *LearningService) runPipeline(user *model.User, xp int, metrics map[model.TargetMetric]int) (*RewardSummary, error) {
	summary := &RewardSummary{XPAwarded: xp}

	if xp > 0 {
		if err := s.Progression.AddXP(user, xp); err != nil {
			return nil, err
		}
		// XP gained also advances xp_earned challenges.
		if metrics == nil {
			metrics = map[model.TargetMetric]int{}
		}
		metrics[model.MetricXPEarned] += xp
	}

	badges, err := s.Badges.CheckAndAward(user)
	if err != nil {
		logger.Log.Warn("badge check failed during reward pipeline",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}
	summary.BadgesEarned = badges

	streakResult, err := s.Streaks.Touch(user)
	if err != nil {
		logger.Log.Warn("streak update failed during reward pipeline",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}
	summary.StreakResult = streakResult

	for metric, increment := range metrics {
		completed, err := s.Challenges.UpdateProgress(user, metric, increment)
		if err != nil {
			logger.Log.Warn("challenge update failed during reward pipeline",
				zap.Uint("user_id", user.ID), zap.String("metric", string(metric)), zap.Error(err))
			continue
		}
		summary.ChallengesCompleted = append(summary.ChallengesCompleted, completed...)
	}

	summary.NewLevel = user.Level
	return summary, nil
}

// GetModules lists the active curriculum.
func (s *LearningService) GetModules() ([]model.LearningModule, error) {
	return s.LearningRepo.FindModules()
}

// GetLessons lists a module's lessons in curriculum order.
func (s *LearningService) GetLessons(moduleID uint) ([]model.Lesson, error) {
	return s.LearningRepo.FindLessonsByModule(moduleID)
}

// StartLesson marks a lesson as in progress, creating the record on first
// open. Re-opening an in-progress or completed lesson is a no-op.
func (s *LearningService) StartLesson(user *model.User, lessonID uint) (*model.LessonProgress, error) {
	if _, err := s.LearningRepo.FindLessonByID(lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	progress, err := s.LearningRepo.FindProgress(user.ID, lessonID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = &model.LessonProgress{
		UserID:   user.ID,
		LessonID: lessonID,
		Status:   model.ProgressInProgress,
	}
	if err := s.LearningRepo.CreateProgress(progress); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.LearningRepo.FindProgress(user.ID, lessonID)
		}
		return nil, err
	}
	return progress, nil
}

// CompleteLesson marks the lesson completed and runs the reward pipeline.
// Completing an already-completed lesson returns ErrLessonCompleted and
// awards nothing, so lesson XP is earned at most once.
func (s *LearningService) CompleteLesson(user *model.User, lessonID uint) (*RewardSummary, error) {
	lesson, err := s.LearningRepo.FindLessonByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	progress, err := s.StartLesson(user, lessonID)
	if err != nil {
		return nil, err
	}
	if progress.Status == model.ProgressCompleted {
		return nil, util.ErrLessonCompleted
	}

	now := s.clock.Now()
	progress.Status = model.ProgressCompleted
	progress.CompletedAt = &now
	if err := s.LearningRepo.SaveProgress(progress); err != nil {
		return nil, err
	}

	return s.runPipeline(user, lesson.XPReward, map[model.TargetMetric]int{
		model.MetricLessonsCompleted: 1,
	})
}

// SubmitCode evaluates and records a code submission. Every submission
// advances the code_submissions challenge metric; XP, badges, streak and
// the exercises_solved metric fire only on the first correct solution of an
// exercise, so resubmitting a solved exercise never double-rewards.
func (s *LearningService) SubmitCode(ctx context.Context, user *model.User, exerciseID uint, code string) (*model.Submission, *RewardSummary, error) {
	exercise, err := s.ExerciseRepo.FindByID(exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrExerciseNotFound
		}
		return nil, nil, err
	}

	alreadySolved, err := s.StatsRepo.HasCorrectSubmission(user.ID, exerciseID)
	if err != nil {
		return nil, nil, err
	}

	correct, feedback, err := s.Evaluator.EvaluateSubmission(ctx, exercise, code)
	if err != nil {
		return nil, nil, err
	}

	submission := &model.Submission{
		UserID:      user.ID,
		ExerciseID:  exerciseID,
		Code:        code,
		IsCorrect:   correct,
		Feedback:    feedback,
		SubmittedAt: s.clock.Now(),
	}
	if err := s.ExerciseRepo.CreateSubmission(submission); err != nil {
		return nil, nil, err
	}

	metrics := map[model.TargetMetric]int{model.MetricCodeSubmissions: 1}
	xp := 0
	if correct && !alreadySolved {
		xp = exercise.XPReward
		metrics[model.MetricExercisesSolved] = 1
	}

	summary, err := s.runPipeline(user, xp, metrics)
	if err != nil {
		return submission, nil, err
	}
	return submission, summary, nil
}

// GetUserProgress returns the user's lesson progress records with lessons
// preloaded, for the dashboard.
func (s *LearningService) GetUserProgress(userID uint) ([]model.LessonProgress, error) {
	return s.LearningRepo.FindUserProgress(userID)
}

// GetExercises lists a lesson's exercises.
func (s *LearningService) GetExercises(lessonID uint) ([]model.Exercise, error) {
	return s.ExerciseRepo.FindByLesson(lessonID)
}

// GetSubmissions returns the user's submission history for an exercise in
// chronological order.
func (s *LearningService) GetSubmissions(userID, exerciseID uint) ([]model.Submission, error) {
	return s.ExerciseRepo.FindSubmissions(userID, exerciseID)
}

// ProgressOverview is the dashboard summary of a user's standing.
type ProgressOverview struct {
	XP               int        `json:"xp"`
	Level            int        `json:"level"`
	XPForNextLevel   int        `json:"xpForNextLevel"`
	LevelProgressPct int        `json:"levelProgressPct"`
	LessonsCompleted int64      `json:"lessonsCompleted"`
	ExercisesSolved  int64      `json:"exercisesSolved"`
	CurrentStreak    int        `json:"currentStreak"`
	LongestStreak    int        `json:"longestStreak"`
	LastActivity     *time.Time `json:"lastActivity,omitempty"`
	BadgeCount       int        `json:"badgeCount"`
}

// GetOverview assembles the dashboard numbers for a user.
func (s *LearningService) GetOverview(user *model.User) (*ProgressOverview, error) {
	lessons, err := s.StatsRepo.CompletedLessonCount(user.ID)
	if err != nil {
		return nil, err
	}
	solved, err := s.StatsRepo.DistinctExercisesSolved(user.ID)
	if err != nil {
		return nil, err
	}
	streak, err := s.Streaks.GetStreak(user.ID)
	if err != nil {
		return nil, err
	}
	earned, err := s.Badges.BadgeRepo.FindEarnedBadgeIDs(user.ID)
	if err != nil {
		return nil, err
	}

	overview := &ProgressOverview{
		XP:               user.XP,
		Level:            user.Level,
		XPForNextLevel:   s.Progression.XPForNextLevel(user),
		LevelProgressPct: s.Progression.XPProgressPercentage(user),
		LessonsCompleted: lessons,
		ExercisesSolved:  solved,
		CurrentStreak:    streak.CurrentStreak,
		LongestStreak:    streak.LongestStreak,
		BadgeCount:       len(earned),
	}
	if !streak.LastActivityDate.IsZero() {
		last := streak.LastActivityDate
		overview.LastActivity = &last
	}
	return overview, nil
}
