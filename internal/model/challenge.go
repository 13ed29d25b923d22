package model

import "time"

type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

type TargetMetric string

const (
	MetricExercisesSolved  TargetMetric = "exercises_solved"
	MetricLessonsCompleted TargetMetric = "lessons_completed"
	MetricXPEarned         TargetMetric = "xp_earned"
	MetricCodeSubmissions  TargetMetric = "code_submissions"
)

// Challenge is a time-boxed goal generated from a template pool. StartDate and
// EndDate are date-precision bounds (inclusive), normalized to midnight UTC.
type Challenge struct {
	BaseModel
	Title        string        `gorm:"size:200;not null" json:"title"`
	Description  string        `gorm:"size:500" json:"description"`
	Type         ChallengeType `gorm:"size:20;index:idx_challenge_period;not null" json:"type"`
	StartDate    time.Time     `gorm:"index:idx_challenge_period;not null" json:"startDate"`
	EndDate      time.Time     `gorm:"not null" json:"endDate"`
	TargetMetric TargetMetric  `gorm:"size:50;index;not null" json:"targetMetric"`
	TargetValue  int           `gorm:"not null" json:"targetValue"`
	XPReward     int           `gorm:"default:100" json:"xpReward"`
	IsActive     bool          `gorm:"default:true;index" json:"isActive"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// UserChallenge tracks one user's progress on one challenge. Completed flips
// false→true exactly once; the unique (user_id, challenge_id) index absorbs
// concurrent get-or-create races.
type UserChallenge struct {
	BaseModel
	UserID      uint       `gorm:"uniqueIndex:idx_user_challenge;not null" json:"userId"`
	ChallengeID uint       `gorm:"uniqueIndex:idx_user_challenge;not null" json:"challengeId"`
	Challenge   Challenge  `gorm:"foreignKey:ChallengeID;references:ID;constraint:false" json:"challenge,omitempty"`
	Progress    int        `gorm:"default:0" json:"progress"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (UserChallenge) TableName() string {
	return "user_challenges"
}
