package service

import (
	"context"
	"os"
	"testing"
	"time"

	"pylearn_backend/internal/config"
	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/pkg/database"
	"pylearn_backend/pkg/logger"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// istanbul is the timezone the default config ships with; tests pin it so
// day-boundary arithmetic is deterministic.
var istanbul = mustLoadLocation("Europe/Istanbul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// testClockAt returns a fake clock pinned to the given Istanbul wall time.
func testClockAt(year int, month time.Month, day, hour int) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(year, month, day, hour, 0, 0, 0, istanbul))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A shared in-memory database needs a single connection, or each pooled
	// connection sees its own empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

var testGamificationCfg = config.GamificationConfig{
	XPBase:       1000,
	XPMultiplier: 1.5,
	Timezone:     "Europe/Istanbul",
}

// testEnv bundles the full service graph over one in-memory database.
type testEnv struct {
	db          *gorm.DB
	clock       *clockwork.FakeClock
	users       *repository.UserRepository
	badges      *repository.BadgeRepository
	streaks     *repository.StreakRepository
	challenges  *repository.ChallengeRepository
	friendships *repository.FriendshipRepository
	stats       *repository.StatsRepository
	learning    *repository.LearningRepository
	exercises   *repository.ExerciseRepository

	progression *ProgressionService
	badgeSvc    *BadgeService
	streakSvc   *StreakService
	chalSvc     *ChallengeService
	socialSvc   *SocialService
	learnSvc    *LearningService
}

// fakeEvaluator returns a fixed verdict; tests that need a failing verdict
// swap in their own instance.
type fakeEvaluator struct {
	correct  bool
	feedback string
}

func (f fakeEvaluator) EvaluateSubmission(_ context.Context, _ *model.Exercise, _ string) (bool, string, error) {
	return f.correct, f.feedback, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := testClockAt(2025, time.March, 15, 10)

	env := &testEnv{
		db:          db,
		clock:       clock,
		users:       repository.NewUserRepository(db),
		badges:      repository.NewBadgeRepository(db),
		streaks:     repository.NewStreakRepository(db),
		challenges:  repository.NewChallengeRepository(db),
		friendships: repository.NewFriendshipRepository(db, nil),
		stats:       repository.NewStatsRepository(db),
		learning:    repository.NewLearningRepository(db),
		exercises:   repository.NewExerciseRepository(db),
	}

	env.progression = NewProgressionService(env.users, testGamificationCfg)
	env.badgeSvc = NewBadgeService(env.badges, env.stats, env.streaks, env.friendships, env.progression)
	env.streakSvc = NewStreakService(env.streaks, env.badgeSvc, clock, istanbul)
	env.chalSvc = NewChallengeService(env.challenges, env.progression, clock, istanbul)
	env.socialSvc = NewSocialService(env.friendships, env.users, env.badgeSvc, nil)
	env.learnSvc = NewLearningService(
		env.learning, env.exercises, env.stats, env.users,
		env.progression, env.badgeSvc, env.streakSvc, env.chalSvc,
		fakeEvaluator{correct: true, feedback: "nice"}, clock,
	)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     model.Student,
		Level:    1,
	}
	require.NoError(t, e.users.Create(user))
	return user
}
