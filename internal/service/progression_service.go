package service

import (
	"math"

	"pylearn_backend/internal/config"
	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/internal/util"
)

// ProgressionService owns the XP ledger and the level derived from it. Levels
// follow a geometric schedule: going from level L to L+1 costs
// base * multiplier^(L-1) XP, so the cumulative threshold for holding level L
// is the partial sum of that series.
type ProgressionService struct {
	UserRepo   *repository.UserRepository
	baseXP     float64
	multiplier float64
}

func NewProgressionService(userRepo *repository.UserRepository, cfg config.GamificationConfig) *ProgressionService {
	return &ProgressionService{
		UserRepo:   userRepo,
		baseXP:     cfg.XPBase,
		multiplier: cfg.XPMultiplier,
	}
}

// AddXP adds a non-negative amount to the user's total, recomputes the level
// and persists. Negative amounts are a caller contract violation and are
// rejected rather than silently applied.
func (s *ProgressionService) AddXP(user *model.User, amount int) error {
	if amount < 0 {
		return util.ErrNegativeXP
	}
	user.XP += amount
	s.RecomputeLevel(user)
	return s.UserRepo.Save(user)
}

// RecomputeLevel raises user.Level to the unique L with
// threshold(L) <= xp < threshold(L+1). It never lowers a level. The loop
// terminates because multiplier > 1 makes the threshold series diverge.
func (s *ProgressionService) RecomputeLevel(user *model.User) {
	if user.Level < 1 {
		user.Level = 1
	}

	required := s.cumulativeThreshold(user.Level)
	for float64(user.XP) >= required {
		user.Level++
		required += s.baseXP * math.Pow(s.multiplier, float64(user.Level-1))
	}
}

// XPForNextLevel returns the cumulative XP total at which the user reaches
// the next level.
func (s *ProgressionService) XPForNextLevel(user *model.User) int {
	return int(s.cumulativeThreshold(user.Level))
}

// XPProgressPercentage reports progress through the current level band,
// clamped to [0,100]. A non-positive band is reported as 100 rather than
// dividing by zero; it cannot occur for a consistent schedule.
func (s *ProgressionService) XPProgressPercentage(user *model.User) int {
	level := user.Level
	if level < 1 {
		level = 1
	}

	floor := s.cumulativeThreshold(level - 1)
	ceil := floor + s.baseXP*math.Pow(s.multiplier, float64(level-1))

	band := ceil - floor
	if band <= 0 {
		return 100
	}

	pct := int((float64(user.XP) - floor) / band * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// cumulativeThreshold returns the XP total required to hold level+1, i.e.
// the sum of the first `level` schedule terms. Level 1 costs nothing.
func (s *ProgressionService) cumulativeThreshold(level int) float64 {
	total := 0.0
	for i := 0; i < level; i++ {
		total += s.baseXP * math.Pow(s.multiplier, float64(i))
	}
	return total
}
