package repository

import (
	"errors"

	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

// StatsRepository serves the read-only aggregates badge criteria evaluate
// against: submission counts, completed-lesson counts, module mastery.
type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// DistinctExercisesSolved counts distinct exercises with at least one correct
// submission by the user.
func (r *StatsRepository) DistinctExercisesSolved(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Distinct("exercise_id").
		Count(&count).Error
	return count, err
}

func (r *StatsRepository) CompletedLessonCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND status = ?", userID, model.ProgressCompleted).
		Count(&count).Error
	return count, err
}

// FirstSubmissionCorrect reports whether the user's chronologically first
// submission for the exercise was correct. False when no submission exists.
func (r *StatsRepository) FirstSubmissionCorrect(userID, exerciseID uint) (bool, error) {
	var first model.Submission
	err := r.DB.Where("user_id = ? AND exercise_id = ?", userID, exerciseID).
		Order("submitted_at ASC").
		First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return first.IsCorrect, nil
}

// ModuleMastered reports whether the user has completed every lesson of the
// module, requiring at least one lesson to exist.
func (r *StatsRepository) ModuleMastered(userID, moduleID uint) (bool, error) {
	var total int64
	if err := r.DB.Model(&model.Lesson{}).
		Where("module_id = ?", moduleID).
		Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}

	var completed int64
	err := r.DB.Model(&model.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Where("lesson_progress.user_id = ? AND lesson_progress.status = ? AND lessons.module_id = ?",
			userID, model.ProgressCompleted, moduleID).
		Count(&completed).Error
	if err != nil {
		return false, err
	}
	return completed == total, nil
}

// HasCorrectSubmission reports whether the user already solved the exercise,
// used to award exercise XP only on the first correct solution.
func (r *StatsRepository) HasCorrectSubmission(userID, exerciseID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("user_id = ? AND exercise_id = ? AND is_correct = ?", userID, exerciseID, true).
		Count(&count).Error
	return count > 0, err
}
