package repository

import (
	"time"

	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

func (r *ChallengeRepository) CreateBatch(challenges []model.Challenge) error {
	return r.DB.Create(&challenges).Error
}

// DeactivateExpiredByType flips is_active for challenges of one type whose
// end date has passed. Returns the number of rows affected.
func (r *ChallengeRepository) DeactivateExpiredByType(ctype model.ChallengeType, today time.Time) (int64, error) {
	res := r.DB.Model(&model.Challenge{}).
		Where("type = ? AND is_active = ? AND end_date < ?", ctype, true, today).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *ChallengeRepository) DeactivateExpired(today time.Time) (int64, error) {
	res := r.DB.Model(&model.Challenge{}).
		Where("is_active = ? AND end_date < ?", true, today).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ExistsActiveForPeriod reports whether active challenges of the given type
// already start on the given period boundary. Used for idempotent generation.
func (r *ChallengeRepository) ExistsActiveForPeriod(ctype model.ChallengeType, startDate time.Time) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Challenge{}).
		Where("type = ? AND is_active = ? AND start_date = ?", ctype, true, startDate).
		Count(&count).Error
	return count > 0, err
}

// FindActiveByMetric returns active challenges for a metric whose inclusive
// [start_date, end_date] window contains today.
func (r *ChallengeRepository) FindActiveByMetric(metric model.TargetMetric, today time.Time) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.Where("target_metric = ? AND is_active = ? AND start_date <= ? AND end_date >= ?",
		metric, true, today, today).
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) FindActiveOn(today time.Time) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, today, today).
		Order("type, start_date").
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) FindUserChallenge(userID, challengeID uint) (*model.UserChallenge, error) {
	var uc model.UserChallenge
	err := r.DB.Where("user_id = ? AND challenge_id = ?", userID, challengeID).First(&uc).Error
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

// CreateUserChallenge inserts a progress row. A concurrent duplicate surfaces
// as gorm.ErrDuplicatedKey via the (user_id, challenge_id) unique index.
func (r *ChallengeRepository) CreateUserChallenge(uc *model.UserChallenge) error {
	return r.DB.Create(uc).Error
}

func (r *ChallengeRepository) SaveUserChallenge(uc *model.UserChallenge) error {
	return r.DB.Save(uc).Error
}

func (r *ChallengeRepository) FindUserChallenges(userID uint, challengeIDs []uint) ([]model.UserChallenge, error) {
	var ucs []model.UserChallenge
	if len(challengeIDs) == 0 {
		return ucs, nil
	}
	err := r.DB.Where("user_id = ? AND challenge_id IN ?", userID, challengeIDs).Find(&ucs).Error
	return ucs, err
}
