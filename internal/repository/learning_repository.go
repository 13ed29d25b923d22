package repository

import (
	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

type LearningRepository struct {
	DB *gorm.DB
}

func NewLearningRepository(db *gorm.DB) *LearningRepository {
	return &LearningRepository{DB: db}
}

func (r *LearningRepository) FindModules() ([]model.LearningModule, error) {
	var modules []model.LearningModule
	err := r.DB.Where("is_active = ?", true).Order("sort_order").Find(&modules).Error
	return modules, err
}

func (r *LearningRepository) FindLessonByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.First(&lesson, id).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LearningRepository) FindLessonsByModule(moduleID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("module_id = ?", moduleID).Order("sort_order").Find(&lessons).Error
	return lessons, err
}

func (r *LearningRepository) FindProgress(userID, lessonID uint) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *LearningRepository) CreateProgress(progress *model.LessonProgress) error {
	return r.DB.Create(progress).Error
}

func (r *LearningRepository) SaveProgress(progress *model.LessonProgress) error {
	return r.DB.Save(progress).Error
}

func (r *LearningRepository) FindUserProgress(userID uint) ([]model.LessonProgress, error) {
	var progress []model.LessonProgress
	err := r.DB.Preload("Lesson").Where("user_id = ?", userID).Find(&progress).Error
	return progress, err
}
