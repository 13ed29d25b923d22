package database

import (
	"fmt"
	"log"

	"pylearn_backend/internal/config"
	"pylearn_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// Duplicate-key violations must surface as gorm.ErrDuplicatedKey so
		// the services can treat a lost uniqueness race as "already exists".
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Badge{},
		&model.UserBadge{},
		&model.DailyStreak{},
		&model.Challenge{},
		&model.UserChallenge{},
		&model.Friendship{},
		&model.LearningModule{},
		&model.Lesson{},
		&model.LessonProgress{},
		&model.Exercise{},
		&model.Submission{},
		&model.TutorMessage{},
	)
}

// SeedDefaultBadges inserts the default badge catalog on first boot. Existing
// rows are left alone; the catalog is keyed by unique badge name.
func SeedDefaultBadges(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Badge{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.Badge{
		{Name: "First Steps", Description: "Complete your first exercise", Icon: "🎯", Type: model.BadgeAchievement,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 1}), XPReward: 50},
		{Name: "Quick Learner", Description: "Complete 10 exercises", Icon: "⚡", Type: model.BadgeAchievement,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 10}), XPReward: 100},
		{Name: "Century Club", Description: "Complete 100 exercises", Icon: "💯", Type: model.BadgeMilestone,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 100}), XPReward: 500},
		{Name: "Knowledge Seeker", Description: "Complete 5 lessons", Icon: "📚", Type: model.BadgeAchievement,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaLessonsCompleted, Count: 5}), XPReward: 100},
		{Name: "Perfect Week", Description: "Maintain a 7-day learning streak", Icon: "🔥", Type: model.BadgeAchievement,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaStreakDays, Days: 7}), XPReward: 200},
		{Name: "Unstoppable", Description: "Maintain a 30-day learning streak", Icon: "🚀", Type: model.BadgeMilestone,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaStreakDays, Days: 30}), XPReward: 1000},
		{Name: "Social Butterfly", Description: "Add 5 friends", Icon: "🦋", Type: model.BadgeAchievement,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaFriendsCount, Count: 5}), XPReward: 150},
		{Name: "Rising Star", Description: "Reach level 5", Icon: "⭐", Type: model.BadgeMilestone,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaLevelReached, Level: 5}), XPReward: 250},
		{Name: "Python Master", Description: "Reach level 10", Icon: "🐍", Type: model.BadgeMilestone,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaLevelReached, Level: 10}), XPReward: 500},
		{Name: "XP Collector", Description: "Earn 5,000 XP", Icon: "💎", Type: model.BadgeMilestone,
			Criteria: model.EncodeCriteria(model.Criteria{Kind: model.CriteriaXPEarned, XP: 5000}), XPReward: 300},
	}

	for i := range defaults {
		defaults[i].IsActive = true
		if err := db.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
