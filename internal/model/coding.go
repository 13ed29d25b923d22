package model

import "time"

type Exercise struct {
	BaseModel
	LessonID    uint   `gorm:"index" json:"lessonId"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Prompt      string `gorm:"type:text" json:"prompt"`
	StarterCode string `gorm:"type:text" json:"starterCode"`
	Difficulty  string `gorm:"size:20;default:'easy'" json:"difficulty"`
	XPReward    int    `gorm:"default:100" json:"xpReward"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// Submission records one code submission. SubmittedAt orders submissions for
// the first-try (perfect_exercise) badge criterion.
type Submission struct {
	BaseModel
	UserID      uint      `gorm:"index:idx_user_exercise;not null" json:"userId"`
	ExerciseID  uint      `gorm:"index:idx_user_exercise;not null" json:"exerciseId"`
	Code        string    `gorm:"type:text" json:"code"`
	IsCorrect   bool      `gorm:"default:false" json:"isCorrect"`
	Feedback    string    `gorm:"type:text" json:"feedback"`
	SubmittedAt time.Time `gorm:"not null;index" json:"submittedAt"`
}

func (Submission) TableName() string {
	return "submissions"
}
