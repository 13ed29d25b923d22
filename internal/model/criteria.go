package model

import (
	"encoding/json"
	"fmt"
)

type CriteriaKind string

const (
	CriteriaExercisesSolved  CriteriaKind = "exercises_solved"
	CriteriaLessonsCompleted CriteriaKind = "lessons_completed"
	CriteriaXPEarned         CriteriaKind = "xp_earned"
	CriteriaLevelReached     CriteriaKind = "level_reached"
	CriteriaStreakDays       CriteriaKind = "streak_days"
	CriteriaFriendsCount     CriteriaKind = "friends_count"
	CriteriaPerfectExercise  CriteriaKind = "perfect_exercise"
	CriteriaModuleMaster     CriteriaKind = "module_master"
)

// Criteria is the decoded form of a badge's criteria descriptor. Only the
// parameter matching the kind is meaningful; the rest stay zero.
type Criteria struct {
	Kind       CriteriaKind `json:"type"`
	Count      int          `json:"count,omitempty"`
	XP         int          `json:"xp,omitempty"`
	Level      int          `json:"level,omitempty"`
	Days       int          `json:"days,omitempty"`
	ExerciseID uint         `json:"exercise_id,omitempty"`
	ModuleID   uint         `json:"module_id,omitempty"`
}

// ParseCriteria decodes and validates a persisted criteria descriptor.
// Unknown kinds and missing parameters are rejected here, at load time, so a
// malformed badge can never be awarded.
func ParseCriteria(raw string) (Criteria, error) {
	var c Criteria
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Criteria{}, fmt.Errorf("invalid criteria descriptor: %w", err)
	}

	switch c.Kind {
	case CriteriaExercisesSolved, CriteriaLessonsCompleted, CriteriaFriendsCount:
		if c.Count <= 0 {
			return Criteria{}, fmt.Errorf("criteria %q requires a positive count", c.Kind)
		}
	case CriteriaXPEarned:
		if c.XP <= 0 {
			return Criteria{}, fmt.Errorf("criteria %q requires a positive xp", c.Kind)
		}
	case CriteriaLevelReached:
		if c.Level <= 0 {
			return Criteria{}, fmt.Errorf("criteria %q requires a positive level", c.Kind)
		}
	case CriteriaStreakDays:
		if c.Days <= 0 {
			return Criteria{}, fmt.Errorf("criteria %q requires a positive days", c.Kind)
		}
	case CriteriaPerfectExercise:
		if c.ExerciseID == 0 {
			return Criteria{}, fmt.Errorf("criteria %q requires an exercise_id", c.Kind)
		}
	case CriteriaModuleMaster:
		if c.ModuleID == 0 {
			return Criteria{}, fmt.Errorf("criteria %q requires a module_id", c.Kind)
		}
	default:
		return Criteria{}, fmt.Errorf("unknown criteria kind %q", c.Kind)
	}

	return c, nil
}

// Target returns the numeric goal used for progress display. Kinds without a
// meaningful counter (perfect_exercise) report a target of 1.
func (c Criteria) Target() int {
	switch c.Kind {
	case CriteriaExercisesSolved, CriteriaLessonsCompleted, CriteriaFriendsCount:
		return c.Count
	case CriteriaXPEarned:
		return c.XP
	case CriteriaLevelReached:
		return c.Level
	case CriteriaStreakDays:
		return c.Days
	default:
		return 1
	}
}

// ParsedCriteria decodes the badge's persisted descriptor.
func (b *Badge) ParsedCriteria() (Criteria, error) {
	return ParseCriteria(b.Criteria)
}

// EncodeCriteria renders a Criteria back to its storage form. Used by the
// default-badge seeder.
func EncodeCriteria(c Criteria) string {
	raw, _ := json.Marshal(c)
	return string(raw)
}
