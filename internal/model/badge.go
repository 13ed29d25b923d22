package model

import "time"

type BadgeType string

const (
	BadgeAchievement BadgeType = "achievement"
	BadgeMilestone   BadgeType = "milestone"
	BadgeSpecial     BadgeType = "special"
)

// Badge is an immutable catalog entry. Criteria holds the persisted JSON
// descriptor; it is decoded into a Criteria value at load time, never
// interpreted as a loose map at evaluation time.
type Badge struct {
	BaseModel
	Name        string    `gorm:"size:100;unique;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`
	Type        BadgeType `gorm:"size:20;default:'achievement'" json:"type"`
	Criteria    string    `gorm:"size:500;not null" json:"criteria"`
	XPReward    int       `gorm:"default:0" json:"xpReward"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge records an earned badge. The unique index on (user_id, badge_id)
// is what makes awards idempotent under concurrent checks.
type UserBadge struct {
	BaseModel
	UserID   uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"userId"`
	BadgeID  uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"badgeId"`
	Badge    Badge     `gorm:"foreignKey:BadgeID;references:ID;constraint:false" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`
	Progress int       `gorm:"default:100" json:"progress"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
