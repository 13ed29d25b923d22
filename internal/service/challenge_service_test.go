package service

import (
	"testing"
	"time"

	"pylearn_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createChallenge(t *testing.T, metric model.TargetMetric, target, xpReward int) *model.Challenge {
	t.Helper()
	today := e.chalSvc.Today()
	challenge := &model.Challenge{
		Title:        "Test Challenge",
		Type:         model.ChallengeDaily,
		StartDate:    today,
		EndDate:      today,
		TargetMetric: metric,
		TargetValue:  target,
		XPReward:     xpReward,
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(challenge).Error)
	return challenge
}

func TestGenerateDailyCreatesThreeForToday(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.chalSvc.GenerateDaily()
	require.NoError(t, err)
	require.Len(t, created, 3)

	today := env.chalSvc.Today()
	for _, c := range created {
		assert.Equal(t, model.ChallengeDaily, c.Type)
		assert.True(t, c.StartDate.Equal(today))
		assert.True(t, c.EndDate.Equal(today))
		assert.True(t, c.IsActive)
	}
}

func TestGenerateDailyIsIdempotentPerDay(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.chalSvc.GenerateDaily()
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := env.chalSvc.GenerateDaily()
	require.NoError(t, err)
	assert.Empty(t, second)

	// The next day produces a fresh set and expires the old one.
	env.clock.Advance(24 * time.Hour)
	third, err := env.chalSvc.GenerateDaily()
	require.NoError(t, err)
	assert.Len(t, third, 3)

	active, err := env.challenges.FindActiveOn(env.chalSvc.Today())
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestGenerateWeeklyAnchorsOnMonday(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.chalSvc.GenerateWeekly()
	require.NoError(t, err)
	require.Len(t, created, 2)

	// 2025-03-15 is a Saturday; its week runs Monday the 10th through Sunday
	// the 16th.
	monday := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	for _, c := range created {
		assert.Equal(t, model.ChallengeWeekly, c.Type)
		assert.True(t, c.StartDate.Equal(monday), "start %v", c.StartDate)
		assert.True(t, c.EndDate.Equal(sunday), "end %v", c.EndDate)
	}

	// Re-running within the same week creates nothing.
	second, err := env.chalSvc.GenerateWeekly()
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestUpdateProgressCompletesAndRewardsOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "challenger")
	challenge := env.createChallenge(t, model.MetricExercisesSolved, 3, 150)

	// Two increments: not there yet.
	completed, err := env.chalSvc.UpdateProgress(user, model.MetricExercisesSolved, 2)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Equal(t, 0, user.XP)

	// Third increment completes and pays out.
	completed, err = env.chalSvc.UpdateProgress(user, model.MetricExercisesSolved, 1)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, challenge.ID, completed[0].ID)
	assert.Equal(t, 150, user.XP)

	uc, err := env.challenges.FindUserChallenge(user.ID, challenge.ID)
	require.NoError(t, err)
	assert.True(t, uc.Completed)
	assert.NotNil(t, uc.CompletedAt)
}

func TestCompletedChallengeNeverReopens(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "overachiever")
	challenge := env.createChallenge(t, model.MetricXPEarned, 100, 50)

	completed, err := env.chalSvc.UpdateProgress(user, model.MetricXPEarned, 200)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	xpAfterCompletion := user.XP

	// Further progress on a completed challenge changes nothing.
	completed, err = env.chalSvc.UpdateProgress(user, model.MetricXPEarned, 500)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Equal(t, xpAfterCompletion, user.XP)

	uc, err := env.challenges.FindUserChallenge(user.ID, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, uc.Progress)
}

func TestUpdateProgressIgnoresOtherMetrics(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "specific")
	env.createChallenge(t, model.MetricLessonsCompleted, 1, 100)

	completed, err := env.chalSvc.UpdateProgress(user, model.MetricExercisesSolved, 5)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Equal(t, 0, user.XP)
}

func TestUpdateProgressSkipsExpiredChallenges(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "late")
	env.createChallenge(t, model.MetricExercisesSolved, 1, 100)

	// The challenge was scoped to today; tomorrow it no longer matches.
	env.clock.Advance(24 * time.Hour)
	completed, err := env.chalSvc.UpdateProgress(user, model.MetricExercisesSolved, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)
}

func TestGetActiveChallengesIncludesZeroProgress(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "viewer")
	env.createChallenge(t, model.MetricExercisesSolved, 3, 150)
	env.createChallenge(t, model.MetricXPEarned, 200, 100)

	_, err := env.chalSvc.UpdateProgress(user, model.MetricExercisesSolved, 1)
	require.NoError(t, err)

	statuses, err := env.chalSvc.GetActiveChallenges(user.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byMetric := make(map[model.TargetMetric]ChallengeStatus, len(statuses))
	for _, s := range statuses {
		byMetric[s.Challenge.TargetMetric] = s
	}
	assert.Equal(t, 1, byMetric[model.MetricExercisesSolved].Progress)
	assert.Equal(t, 33, byMetric[model.MetricExercisesSolved].Percent)
	assert.Equal(t, 0, byMetric[model.MetricXPEarned].Progress)
}

func TestDeactivateExpired(t *testing.T) {
	env := newTestEnv(t)
	env.createChallenge(t, model.MetricExercisesSolved, 3, 150)

	env.clock.Advance(48 * time.Hour)
	n, err := env.chalSvc.DeactivateExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := env.challenges.FindActiveOn(env.chalSvc.Today())
	require.NoError(t, err)
	assert.Empty(t, active)
}
