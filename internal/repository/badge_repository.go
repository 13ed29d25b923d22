package repository

import (
	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) FindActive() ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Where("is_active = ?", true).
		Order("type, name").
		Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) FindByID(id uint) (*model.Badge, error) {
	var badge model.Badge
	err := r.DB.First(&badge, id).Error
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

// FindEarnedBadgeIDs returns the ids of badges the user already holds.
func (r *BadgeRepository) FindEarnedBadgeIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	return ids, err
}

func (r *BadgeRepository) HasBadge(userID, badgeID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	return count > 0, err
}

// CreateUserBadge inserts an earned-badge record. A concurrent duplicate
// surfaces as gorm.ErrDuplicatedKey via the (user_id, badge_id) unique index.
func (r *BadgeRepository) CreateUserBadge(ub *model.UserBadge) error {
	return r.DB.Create(ub).Error
}

func (r *BadgeRepository) FindUserBadges(userID uint) ([]model.UserBadge, error) {
	var earned []model.UserBadge
	err := r.DB.Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&earned).Error
	return earned, err
}
