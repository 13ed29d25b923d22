package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/internal/util"
	"pylearn_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const friendCacheTTL = 5 * time.Minute

// SocialService manages the friendship graph. A friendship is stored as a
// directed request edge; once accepted, the relation is treated as
// undirected everywhere reads happen.
type SocialService struct {
	FriendRepo *repository.FriendshipRepository
	UserRepo   *repository.UserRepository
	Badges     *BadgeService
	Redis      *redis.Client
}

func NewSocialService(friendRepo *repository.FriendshipRepository, userRepo *repository.UserRepository, badges *BadgeService, rdb *redis.Client) *SocialService {
	return &SocialService{
		FriendRepo: friendRepo,
		UserRepo:   userRepo,
		Badges:     badges,
		Redis:      rdb,
	}
}

// SendRequest creates a pending edge from the sender to the target. Guards:
// no self-requests, the target must exist, an accepted pair rejects with
// ErrAlreadyFriends, a pending edge in either direction rejects with
// ErrRequestPending. A previously rejected edge from the same sender is
// reused and flipped back to pending so re-requests do not hit the unique
// index.
func (s *SocialService) SendRequest(sender *model.User, targetID uint) (*model.Friendship, error) {
	if sender.ID == targetID {
		return nil, util.ErrSelfFriendRequest
	}

	if _, err := s.UserRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	rows, err := s.FriendRepo.FindBetween(sender.ID, targetID)
	if err != nil {
		return nil, err
	}

	var reusable *model.Friendship
	for i := range rows {
		row := &rows[i]
		switch row.Status {
		case model.FriendshipAccepted:
			return nil, util.ErrAlreadyFriends
		case model.FriendshipPending:
			return nil, util.ErrRequestPending
		case model.FriendshipRejected:
			if row.UserID == sender.ID {
				reusable = row
			}
		}
	}

	if reusable != nil {
		reusable.Status = model.FriendshipPending
		if err := s.FriendRepo.Save(reusable); err != nil {
			return nil, err
		}
		return reusable, nil
	}

	f := &model.Friendship{
		UserID:   sender.ID,
		FriendID: targetID,
		Status:   model.FriendshipPending,
	}
	if err := s.FriendRepo.Create(f); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against an identical request; the edge exists now.
			return nil, util.ErrRequestPending
		}
		return nil, err
	}
	return f, nil
}

// AcceptRequest flips the pending edge requester→user to accepted. Only the
// recipient can accept. Both sides get a badge re-check because
// friends-count criteria may now be satisfied for either.
func (s *SocialService) AcceptRequest(user *model.User, requesterID uint) (*model.Friendship, error) {
	f, err := s.FriendRepo.FindDirectedWithStatus(requesterID, user.ID, model.FriendshipPending)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	f.Status = model.FriendshipAccepted
	if err := s.FriendRepo.Save(f); err != nil {
		return nil, err
	}

	s.recheckBadges(user)
	if requester, err := s.UserRepo.FindByID(requesterID); err == nil {
		s.recheckBadges(requester)
	}
	return f, nil
}

// RejectRequest flips the pending edge requester→user to rejected. The row
// is kept so the sender can re-request later.
func (s *SocialService) RejectRequest(user *model.User, requesterID uint) error {
	f, err := s.FriendRepo.FindDirectedWithStatus(requesterID, user.ID, model.FriendshipPending)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrRequestNotFound
	}
	if err != nil {
		return err
	}

	f.Status = model.FriendshipRejected
	return s.FriendRepo.Save(f)
}

// RemoveFriend deletes the accepted edge between the two users, whichever
// direction it was stored in.
func (s *SocialService) RemoveFriend(user *model.User, friendID uint) error {
	rows, err := s.FriendRepo.FindBetween(user.ID, friendID)
	if err != nil {
		return err
	}
	for i := range rows {
		if rows[i].Status == model.FriendshipAccepted {
			return s.FriendRepo.Delete(&rows[i])
		}
	}
	return util.ErrFriendshipNotFound
}

// RelationStatus reports the effective relation between two users. When both
// directions carry rows, the strongest wins: accepted > pending > rejected.
// An empty string means no relation.
func (s *SocialService) RelationStatus(a, b uint) (model.FriendshipStatus, error) {
	rows, err := s.FriendRepo.FindBetween(a, b)
	if err != nil {
		return "", err
	}

	var status model.FriendshipStatus
	rank := func(st model.FriendshipStatus) int {
		switch st {
		case model.FriendshipAccepted:
			return 3
		case model.FriendshipPending:
			return 2
		case model.FriendshipRejected:
			return 1
		}
		return 0
	}
	for _, row := range rows {
		if rank(row.Status) > rank(status) {
			status = row.Status
		}
	}
	return status, nil
}

// GetFriends returns the user's accepted friends. The resolved list is
// cached in Redis for a few minutes; writes to the graph invalidate it.
func (s *SocialService) GetFriends(ctx context.Context, userID uint) ([]model.User, error) {
	cacheKey := fmt.Sprintf("social:friends:%d", userID)

	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached []model.User
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	ids, err := s.FriendRepo.FriendIDs(userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(friends); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, raw, friendCacheTTL).Err(); err != nil {
				logger.Log.Warn("friend list cache write failed",
					zap.Uint("user_id", userID), zap.Error(err))
			}
		}
	}
	return friends, nil
}

// GetPendingRequests lists incoming pending requests, newest first, with the
// sender preloaded.
func (s *SocialService) GetPendingRequests(userID uint) ([]model.Friendship, error) {
	return s.FriendRepo.FindPendingFor(userID)
}

// FriendLeaderboard ranks the user and their friends by XP, ties broken by
// level, truncated to the top limit entries. The user always appears even
// with zero friends, but may fall off the board when the limit is smaller
// than the friend circle.
func (s *SocialService) FriendLeaderboard(ctx context.Context, user *model.User, limit int) ([]model.User, error) {
	if limit <= 0 {
		limit = 10
	}

	friends, err := s.GetFriends(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	board := append(friends, *user)
	sort.SliceStable(board, func(i, j int) bool {
		if board[i].XP != board[j].XP {
			return board[i].XP > board[j].XP
		}
		return board[i].Level > board[j].Level
	})
	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// SearchUsers finds users by name fragment for the add-friend flow, the
// caller excluded.
func (s *SocialService) SearchUsers(query string, excludeID uint, limit int) ([]model.User, error) {
	return s.UserRepo.SearchByName(query, excludeID, limit)
}

func (s *SocialService) recheckBadges(user *model.User) {
	if _, err := s.Badges.CheckAndAward(user); err != nil {
		logger.Log.Warn("badge check after friendship change failed",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}
}
