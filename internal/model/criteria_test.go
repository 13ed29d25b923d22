package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriteriaValidKinds(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		kind   CriteriaKind
		target int
	}{
		{"exercises solved", `{"type":"exercises_solved","count":10}`, CriteriaExercisesSolved, 10},
		{"lessons completed", `{"type":"lessons_completed","count":5}`, CriteriaLessonsCompleted, 5},
		{"xp earned", `{"type":"xp_earned","xp":5000}`, CriteriaXPEarned, 5000},
		{"level reached", `{"type":"level_reached","level":5}`, CriteriaLevelReached, 5},
		{"streak days", `{"type":"streak_days","days":7}`, CriteriaStreakDays, 7},
		{"friends count", `{"type":"friends_count","count":3}`, CriteriaFriendsCount, 3},
		{"perfect exercise", `{"type":"perfect_exercise","exercise_id":42}`, CriteriaPerfectExercise, 1},
		{"module master", `{"type":"module_master","module_id":2}`, CriteriaModuleMaster, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseCriteria(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, c.Kind)
			assert.Equal(t, tc.target, c.Target())
		})
	}
}

func TestParseCriteriaRejectsUnknownKind(t *testing.T) {
	_, err := ParseCriteria(`{"type":"world_peace","count":1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown criteria kind")
}

func TestParseCriteriaRejectsMissingParams(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"count missing", `{"type":"exercises_solved"}`},
		{"count zero", `{"type":"friends_count","count":0}`},
		{"negative count", `{"type":"lessons_completed","count":-1}`},
		{"xp missing", `{"type":"xp_earned"}`},
		{"level missing", `{"type":"level_reached"}`},
		{"days missing", `{"type":"streak_days"}`},
		{"exercise id missing", `{"type":"perfect_exercise"}`},
		{"module id missing", `{"type":"module_master"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCriteria(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseCriteriaRejectsMalformedJSON(t *testing.T) {
	_, err := ParseCriteria(`not json at all`)
	assert.Error(t, err)
}

func TestEncodeCriteriaRoundTrip(t *testing.T) {
	original := Criteria{Kind: CriteriaStreakDays, Days: 30}
	parsed, err := ParseCriteria(EncodeCriteria(original))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestBadgeParsedCriteria(t *testing.T) {
	badge := &Badge{Criteria: `{"type":"xp_earned","xp":1000}`}
	c, err := badge.ParsedCriteria()
	require.NoError(t, err)
	assert.Equal(t, CriteriaXPEarned, c.Kind)
	assert.Equal(t, 1000, c.XP)
}
