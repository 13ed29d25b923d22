package repository

import (
	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

func (r *ExerciseRepository) FindByID(id uint) (*model.Exercise, error) {
	var exercise model.Exercise
	err := r.DB.First(&exercise, id).Error
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *ExerciseRepository) FindByLesson(lessonID uint) ([]model.Exercise, error) {
	var exercises []model.Exercise
	err := r.DB.Where("lesson_id = ?", lessonID).Find(&exercises).Error
	return exercises, err
}

func (r *ExerciseRepository) CreateSubmission(sub *model.Submission) error {
	return r.DB.Create(sub).Error
}

func (r *ExerciseRepository) FindSubmissions(userID, exerciseID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("user_id = ? AND exercise_id = ?", userID, exerciseID).
		Order("submitted_at ASC").
		Find(&subs).Error
	return subs, err
}
