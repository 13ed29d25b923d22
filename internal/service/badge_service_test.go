package service

import (
	"testing"
	"time"

	"pylearn_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createBadge(t *testing.T, name string, criteria model.Criteria, xpReward int) *model.Badge {
	t.Helper()
	badge := &model.Badge{
		Name:     name,
		Type:     model.BadgeAchievement,
		Criteria: model.EncodeCriteria(criteria),
		XPReward: xpReward,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(badge).Error)
	return badge
}

func (e *testEnv) solveExercise(t *testing.T, user *model.User, exerciseID uint) {
	t.Helper()
	require.NoError(t, e.exercises.CreateSubmission(&model.Submission{
		UserID:      user.ID,
		ExerciseID:  exerciseID,
		Code:        "print('ok')",
		IsCorrect:   true,
		SubmittedAt: e.clock.Now(),
	}))
}

func TestCheckAndAwardFirstExerciseBadge(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "solver")
	badge := env.createBadge(t, "First Steps",
		model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 1}, 50)

	// Nothing solved yet: no award.
	awarded, err := env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	env.solveExercise(t, user, 1)

	awarded, err = env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, badge.Name, awarded[0].Name)

	// The badge's XP reward was credited.
	assert.Equal(t, 50, user.XP)
}

func TestCheckAndAwardIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "repeat")
	env.createBadge(t, "First Steps",
		model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 1}, 50)
	env.solveExercise(t, user, 1)

	awarded, err := env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)
	require.Len(t, awarded, 1)

	// A second evaluation finds nothing new and re-awards nothing.
	awarded, err = env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)
	assert.Empty(t, awarded)
	assert.Equal(t, 50, user.XP)

	earned, err := env.badges.FindUserBadges(user.ID)
	require.NoError(t, err)
	assert.Len(t, earned, 1)
}

func TestCheckAndAwardXPAndLevelBadges(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grinder")
	env.createBadge(t, "XP Collector",
		model.Criteria{Kind: model.CriteriaXPEarned, XP: 1000}, 0)
	env.createBadge(t, "Level 2",
		model.Criteria{Kind: model.CriteriaLevelReached, Level: 2}, 0)

	require.NoError(t, env.progression.AddXP(user, 1000))

	awarded, err := env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)
	assert.Len(t, awarded, 2)
}

func TestCheckAndAwardStreakBadge(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "regular")
	env.createBadge(t, "Three In A Row",
		model.Criteria{Kind: model.CriteriaStreakDays, Days: 3}, 0)

	// Day 1: create. Days 2 and 3: continue. The continuation path re-checks
	// badges, so the award fires inside the third Touch.
	_, err := env.streakSvc.Touch(user)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		env.clock.Advance(24 * time.Hour)
		_, err = env.streakSvc.Touch(user)
		require.NoError(t, err)
	}

	has, err := env.badges.HasBadge(user.ID, 1)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMalformedCriteriaIsNeverAwarded(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "safe")

	// Bypass EncodeCriteria to persist a descriptor with an unknown kind.
	require.NoError(t, env.db.Create(&model.Badge{
		Name:     "Broken",
		Type:     model.BadgeSpecial,
		Criteria: `{"type":"world_domination","count":1}`,
		IsActive: true,
	}).Error)

	awarded, err := env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestGetProgressReportsPartialCounts(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "partial")
	env.createBadge(t, "Solve Ten",
		model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 10}, 0)

	for i := uint(1); i <= 4; i++ {
		env.solveExercise(t, user, i)
	}

	progress, err := env.badgeSvc.GetProgress(user)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.False(t, progress[0].Earned)
	assert.Equal(t, 4, progress[0].Current)
	assert.Equal(t, 10, progress[0].Target)
	assert.Equal(t, 40, progress[0].Percent)
}

func TestGetProgressMarksEarnedBadges(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "earner")
	env.createBadge(t, "First Steps",
		model.Criteria{Kind: model.CriteriaExercisesSolved, Count: 1}, 0)
	env.solveExercise(t, user, 1)

	_, err := env.badgeSvc.CheckAndAward(user)
	require.NoError(t, err)

	progress, err := env.badgeSvc.GetProgress(user)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.True(t, progress[0].Earned)
	assert.NotNil(t, progress[0].EarnedAt)
	assert.Equal(t, 100, progress[0].Percent)
}

func TestFriendsCountBadgeCountsEitherDirection(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.createBadge(t, "Social Butterfly",
		model.Criteria{Kind: model.CriteriaFriendsCount, Count: 1}, 0)

	// Bob sends, Alice accepts: the stored edge points bob→alice, but both
	// sides satisfy the friends-count criterion.
	_, err := env.socialSvc.SendRequest(bob, alice.ID)
	require.NoError(t, err)
	_, err = env.socialSvc.AcceptRequest(alice, bob.ID)
	require.NoError(t, err)

	for _, u := range []*model.User{alice, bob} {
		has, err := env.badges.HasBadge(u.ID, 1)
		require.NoError(t, err)
		assert.True(t, has, "user %s should hold the badge", u.Name)
	}
}
