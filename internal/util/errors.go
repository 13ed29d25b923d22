package util

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailRegistered = errors.New("email already registered")

	// Progression
	ErrNegativeXP = errors.New("xp amount must not be negative")

	// Social graph guard violations. These are expected user-input
	// conditions, returned as structured failures and never logged as errors.
	ErrSelfFriendRequest  = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrRequestPending     = errors.New("friend request already pending")
	ErrRequestNotFound    = errors.New("friend request not found")
	ErrFriendshipNotFound = errors.New("friendship not found")

	// Learning
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrLessonCompleted  = errors.New("lesson already completed")
)
