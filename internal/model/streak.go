package model

import "time"

// DailyStreak tracks consecutive days of qualifying activity, one row per
// user. LastActivityDate is stored at date precision (midnight UTC) so
// comparisons are civil-date comparisons regardless of server timezone.
type DailyStreak struct {
	BaseModel
	UserID           uint      `gorm:"uniqueIndex;not null" json:"userId"`
	CurrentStreak    int       `gorm:"default:0" json:"currentStreak"`
	LongestStreak    int       `gorm:"default:0" json:"longestStreak"`
	LastActivityDate time.Time `gorm:"not null" json:"lastActivityDate"`
}

func (DailyStreak) TableName() string {
	return "daily_streaks"
}
