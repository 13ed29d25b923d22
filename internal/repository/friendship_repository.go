package repository

import (
	"context"
	"fmt"

	"pylearn_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type FriendshipRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewFriendshipRepository(db *gorm.DB, rdb *redis.Client) *FriendshipRepository {
	return &FriendshipRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// FindBetween returns every row linking the two users, in either direction.
// At most two rows exist (one per direction).
func (r *FriendshipRepository) FindBetween(a, b uint) ([]model.Friendship, error) {
	var rows []model.Friendship
	err := r.DB.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Find(&rows).Error
	return rows, err
}

func (r *FriendshipRepository) FindDirected(fromID, toID uint) (*model.Friendship, error) {
	var f model.Friendship
	err := r.DB.Where("user_id = ? AND friend_id = ?", fromID, toID).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FriendshipRepository) FindDirectedWithStatus(fromID, toID uint, status model.FriendshipStatus) (*model.Friendship, error) {
	var f model.Friendship
	err := r.DB.Where("user_id = ? AND friend_id = ? AND status = ?", fromID, toID, status).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a request edge. A concurrent duplicate for the same ordered
// pair surfaces as gorm.ErrDuplicatedKey.
func (r *FriendshipRepository) Create(f *model.Friendship) error {
	return r.DB.Create(f).Error
}

func (r *FriendshipRepository) Save(f *model.Friendship) error {
	err := r.DB.Save(f).Error
	if err == nil {
		r.invalidateCache(f.UserID, f.FriendID)
	}
	return err
}

func (r *FriendshipRepository) Delete(f *model.Friendship) error {
	err := r.DB.Unscoped().Delete(f).Error
	if err == nil {
		r.invalidateCache(f.UserID, f.FriendID)
	}
	return err
}

// FindAcceptedFor returns all accepted rows touching the user, in either
// direction.
func (r *FriendshipRepository) FindAcceptedFor(userID uint) ([]model.Friendship, error) {
	var rows []model.Friendship
	err := r.DB.Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Find(&rows).Error
	return rows, err
}

func (r *FriendshipRepository) CountAccepted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Friendship{}).
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Count(&count).Error
	return count, err
}

func (r *FriendshipRepository) FindPendingFor(userID uint) ([]model.Friendship, error) {
	var rows []model.Friendship
	err := r.DB.Preload("User").
		Where("friend_id = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FriendIDs resolves the "other party" of every accepted row, deduplicated.
func (r *FriendshipRepository) FriendIDs(userID uint) ([]uint, error) {
	rows, err := r.FindAcceptedFor(userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, f := range rows {
		other := f.FriendID
		if f.FriendID == userID {
			other = f.UserID
		}
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (r *FriendshipRepository) invalidateCache(a, b uint) {
	if r.Redis == nil {
		return
	}
	r.Redis.Del(r.ctx, fmt.Sprintf("social:friends:%d", a))
	r.Redis.Del(r.ctx, fmt.Sprintf("social:friends:%d", b))
}
