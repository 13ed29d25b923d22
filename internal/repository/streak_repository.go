package repository

import (
	"time"

	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) FindByUser(userID uint) (*model.DailyStreak, error) {
	var streak model.DailyStreak
	err := r.DB.Where("user_id = ?", userID).First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *StreakRepository) Create(streak *model.DailyStreak) error {
	return r.DB.Create(streak).Error
}

func (r *StreakRepository) Save(streak *model.DailyStreak) error {
	return r.DB.Save(streak).Error
}

// ResetBroken zeroes current_streak for every record whose last activity is
// before the cutoff (exclusive) and whose streak is still positive. Longest
// streaks are left untouched. Safe to run repeatedly.
func (r *StreakRepository) ResetBroken(cutoff time.Time) (int64, error) {
	res := r.DB.Model(&model.DailyStreak{}).
		Where("last_activity_date < ? AND current_streak > 0", cutoff).
		Update("current_streak", 0)
	return res.RowsAffected, res.Error
}
