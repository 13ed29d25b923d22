package model

import "time"

// LearningModule groups lessons into a curriculum unit.
type LearningModule struct {
	BaseModel
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Order       int    `gorm:"column:sort_order;default:0" json:"order"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

func (LearningModule) TableName() string {
	return "learning_modules"
}

type Lesson struct {
	BaseModel
	ModuleID uint   `gorm:"index;not null" json:"moduleId"`
	Title    string `gorm:"size:200;not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	Order    int    `gorm:"column:sort_order;default:0" json:"order"`
	XPReward int    `gorm:"default:50" json:"xpReward"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type ProgressStatus string

const (
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// LessonProgress is the completed-lesson record badge criteria and challenge
// metrics aggregate over.
type LessonProgress struct {
	BaseModel
	UserID      uint           `gorm:"uniqueIndex:idx_user_lesson;not null" json:"userId"`
	LessonID    uint           `gorm:"uniqueIndex:idx_user_lesson;not null" json:"lessonId"`
	Lesson      Lesson         `gorm:"foreignKey:LessonID;references:ID;constraint:false" json:"lesson,omitempty"`
	Status      ProgressStatus `gorm:"size:20;default:'in_progress'" json:"status"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
