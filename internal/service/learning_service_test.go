package service

import (
	"context"
	"testing"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createLesson(t *testing.T, xpReward int) *model.Lesson {
	t.Helper()
	module := &model.LearningModule{Title: "Basics", IsActive: true}
	require.NoError(t, e.db.Create(module).Error)
	lesson := &model.Lesson{ModuleID: module.ID, Title: "Variables", XPReward: xpReward}
	require.NoError(t, e.db.Create(lesson).Error)
	return lesson
}

func (e *testEnv) createExercise(t *testing.T, lessonID uint, xpReward int) *model.Exercise {
	t.Helper()
	exercise := &model.Exercise{
		LessonID: lessonID,
		Title:    "Sum two numbers",
		Prompt:   "Write a function add(a, b).",
		XPReward: xpReward,
	}
	require.NoError(t, e.db.Create(exercise).Error)
	return exercise
}

func TestCompleteLessonAwardsOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reader")
	lesson := env.createLesson(t, 50)

	summary, err := env.learnSvc.CompleteLesson(user, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, summary.XPAwarded)
	assert.Equal(t, 50, user.XP)
	assert.Equal(t, StreakCreated, summary.StreakResult)

	// Completing again is rejected and pays nothing.
	_, err = env.learnSvc.CompleteLesson(user, lesson.ID)
	assert.ErrorIs(t, err, util.ErrLessonCompleted)
	assert.Equal(t, 50, user.XP)
}

func TestCompleteLessonUnknownLesson(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "lost")

	_, err := env.learnSvc.CompleteLesson(user, 999)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestCompleteLessonAdvancesLessonChallenges(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "student")
	lesson := env.createLesson(t, 50)
	env.createChallenge(t, model.MetricLessonsCompleted, 1, 100)

	summary, err := env.learnSvc.CompleteLesson(user, lesson.ID)
	require.NoError(t, err)
	require.Len(t, summary.ChallengesCompleted, 1)

	// Lesson XP plus the challenge reward.
	assert.Equal(t, 150, user.XP)
}

func TestSubmitCodeFirstCorrectSolutionRewards(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "coder")
	lesson := env.createLesson(t, 50)
	exercise := env.createExercise(t, lesson.ID, 100)

	submission, summary, err := env.learnSvc.SubmitCode(context.Background(), user, exercise.ID, "def add(a,b): return a+b")
	require.NoError(t, err)
	assert.True(t, submission.IsCorrect)
	assert.Equal(t, "nice", submission.Feedback)
	assert.Equal(t, 100, summary.XPAwarded)
	assert.Equal(t, 100, user.XP)
	assert.Equal(t, StreakCreated, summary.StreakResult)
}

func TestSubmitCodeResolvedExerciseDoesNotDoubleReward(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "resubmitter")
	lesson := env.createLesson(t, 50)
	exercise := env.createExercise(t, lesson.ID, 100)
	ctx := context.Background()

	_, _, err := env.learnSvc.SubmitCode(ctx, user, exercise.ID, "def add(a,b): return a+b")
	require.NoError(t, err)
	require.Equal(t, 100, user.XP)

	// A second correct submission records but does not pay again.
	submission, summary, err := env.learnSvc.SubmitCode(ctx, user, exercise.ID, "def add(a,b): return b+a")
	require.NoError(t, err)
	assert.True(t, submission.IsCorrect)
	assert.Equal(t, 0, summary.XPAwarded)
	assert.Equal(t, 100, user.XP)

	subs, err := env.learnSvc.GetSubmissions(user.ID, exercise.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSubmitCodeIncorrectRecordsWithoutReward(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "beginner")
	lesson := env.createLesson(t, 50)
	exercise := env.createExercise(t, lesson.ID, 100)

	env.learnSvc.Evaluator = fakeEvaluator{correct: false, feedback: "add returns the wrong sum"}

	submission, summary, err := env.learnSvc.SubmitCode(context.Background(), user, exercise.ID, "def add(a,b): return a-b")
	require.NoError(t, err)
	assert.False(t, submission.IsCorrect)
	assert.Equal(t, "add returns the wrong sum", submission.Feedback)
	assert.Equal(t, 0, summary.XPAwarded)
	assert.Equal(t, 0, user.XP)
}

func TestSubmitCodeAdvancesSubmissionChallenges(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "warrior")
	lesson := env.createLesson(t, 50)
	exercise := env.createExercise(t, lesson.ID, 100)
	challenge := env.createChallenge(t, model.MetricCodeSubmissions, 2, 120)

	env.learnSvc.Evaluator = fakeEvaluator{correct: false}
	ctx := context.Background()

	// Incorrect submissions still count toward code_submissions.
	_, _, err := env.learnSvc.SubmitCode(ctx, user, exercise.ID, "pass")
	require.NoError(t, err)
	_, summary, err := env.learnSvc.SubmitCode(ctx, user, exercise.ID, "pass")
	require.NoError(t, err)
	require.Len(t, summary.ChallengesCompleted, 1)
	assert.Equal(t, challenge.ID, summary.ChallengesCompleted[0].ID)
}

func TestStartLessonIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "opener")
	lesson := env.createLesson(t, 50)

	first, err := env.learnSvc.StartLesson(user, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressInProgress, first.Status)

	second, err := env.learnSvc.StartLesson(user, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOverview(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "dashboard")
	lesson := env.createLesson(t, 50)
	exercise := env.createExercise(t, lesson.ID, 100)
	ctx := context.Background()

	_, err := env.learnSvc.CompleteLesson(user, lesson.ID)
	require.NoError(t, err)
	_, _, err = env.learnSvc.SubmitCode(ctx, user, exercise.ID, "def add(a,b): return a+b")
	require.NoError(t, err)

	overview, err := env.learnSvc.GetOverview(user)
	require.NoError(t, err)
	assert.Equal(t, 150, overview.XP)
	assert.Equal(t, 1, overview.Level)
	assert.Equal(t, 1000, overview.XPForNextLevel)
	assert.EqualValues(t, 1, overview.LessonsCompleted)
	assert.EqualValues(t, 1, overview.ExercisesSolved)
	assert.Equal(t, 1, overview.CurrentStreak)
	assert.NotNil(t, overview.LastActivity)
}

func TestFullPipelineOrderingXPBeforeBadges(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "pipeline")
	lesson := env.createLesson(t, 1000)

	// The badge requires the XP the lesson itself grants: it can only be
	// awarded if XP is credited before badges are evaluated.
	env.createBadge(t, "XP Collector",
		model.Criteria{Kind: model.CriteriaXPEarned, XP: 1000}, 0)

	summary, err := env.learnSvc.CompleteLesson(user, lesson.ID)
	require.NoError(t, err)
	require.Len(t, summary.BadgesEarned, 1)
	assert.Equal(t, "XP Collector", summary.BadgesEarned[0].Name)
	assert.Equal(t, 2, summary.NewLevel)
}
