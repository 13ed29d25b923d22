package repository

import (
	"pylearn_backend/internal/model"

	"gorm.io/gorm"
)

type TutorRepository struct {
	DB *gorm.DB
}

func NewTutorRepository(db *gorm.DB) *TutorRepository {
	return &TutorRepository{DB: db}
}

func (r *TutorRepository) CreateMessage(msg *model.TutorMessage) error {
	return r.DB.Create(msg).Error
}

// FindSessionMessages returns the conversation in chronological order,
// capped to the most recent `limit` turns.
func (r *TutorRepository) FindSessionMessages(userID uint, sessionID string, limit int) ([]model.TutorMessage, error) {
	var msgs []model.TutorMessage
	err := r.DB.Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
