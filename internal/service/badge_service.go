package service

import (
	"errors"
	"fmt"
	"time"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/repository"
	"pylearn_backend/pkg/logger"
	"pylearn_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BadgeService evaluates every active badge's criteria against a user's
// current stats and awards the ones newly satisfied. Awarding is idempotent:
// the (user_id, badge_id) unique index is the source of truth, so concurrent
// evaluations of the same user collapse to a single award.
type BadgeService struct {
	BadgeRepo   *repository.BadgeRepository
	StatsRepo   *repository.StatsRepository
	StreakRepo  *repository.StreakRepository
	FriendRepo  *repository.FriendshipRepository
	Progression *ProgressionService
}

func NewBadgeService(
	badgeRepo *repository.BadgeRepository,
	statsRepo *repository.StatsRepository,
	streakRepo *repository.StreakRepository,
	friendRepo *repository.FriendshipRepository,
	progression *ProgressionService,
) *BadgeService {
	return &BadgeService{
		BadgeRepo:   badgeRepo,
		StatsRepo:   statsRepo,
		StreakRepo:  streakRepo,
		FriendRepo:  friendRepo,
		Progression: progression,
	}
}

// BadgeProgress is the per-badge progress view: how far the user is toward a
// badge they have not earned yet, or 100% for ones they hold.
type BadgeProgress struct {
	Badge    model.Badge `json:"badge"`
	Earned   bool        `json:"earned"`
	EarnedAt *time.Time  `json:"earned_at,omitempty"`
	Current  int         `json:"current"`
	Target   int         `json:"target"`
	Percent  int         `json:"percent"`
}

// CheckAndAward evaluates all active badges the user does not yet hold and
// awards every one whose criteria are satisfied. Returns the badges awarded
// in this call. A badge whose stored criteria fail to parse is skipped and
// logged, never awarded.
func (s *BadgeService) CheckAndAward(user *model.User) ([]model.Badge, error) {
	badges, err := s.BadgeRepo.FindActive()
	if err != nil {
		return nil, fmt.Errorf("loading badge catalog: %w", err)
	}

	earnedIDs, err := s.BadgeRepo.FindEarnedBadgeIDs(user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading earned badges: %w", err)
	}
	earned := make(map[uint]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	var awarded []model.Badge
	for i := range badges {
		badge := &badges[i]
		if earned[badge.ID] {
			continue
		}

		criteria, err := badge.ParsedCriteria()
		if err != nil {
			logger.Log.Warn("skipping badge with malformed criteria",
				zap.Uint("badge_id", badge.ID),
				zap.String("badge", badge.Name),
				zap.Error(err))
			continue
		}

		ok, err := s.satisfies(user, criteria)
		if err != nil {
			return awarded, err
		}
		if !ok {
			continue
		}

		if err := s.award(user, badge); err != nil {
			return awarded, err
		}
		awarded = append(awarded, *badge)
	}
	return awarded, nil
}

// award records the earned badge and credits its XP reward. Losing the insert
// race to a concurrent evaluation means the badge is already held, which is
// the desired end state, so the duplicate is swallowed.
func (s *BadgeService) award(user *model.User, badge *model.Badge) error {
	ub := &model.UserBadge{
		UserID:   user.ID,
		BadgeID:  badge.ID,
		EarnedAt: time.Now(),
		Progress: 100,
	}
	if err := s.BadgeRepo.CreateUserBadge(ub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("recording badge %q: %w", badge.Name, err)
	}

	monitoring.BadgesAwarded.WithLabelValues(string(badge.Type)).Inc()
	logger.Log.Info("badge awarded",
		zap.Uint("user_id", user.ID),
		zap.String("badge", badge.Name),
		zap.Int("xp_reward", badge.XPReward))

	if badge.XPReward > 0 {
		return s.Progression.AddXP(user, badge.XPReward)
	}
	return nil
}

// satisfies checks one decoded criterion against the user's live stats.
func (s *BadgeService) satisfies(user *model.User, c model.Criteria) (bool, error) {
	switch c.Kind {
	case model.CriteriaExercisesSolved:
		solved, err := s.StatsRepo.DistinctExercisesSolved(user.ID)
		return solved >= int64(c.Count), err

	case model.CriteriaLessonsCompleted:
		completed, err := s.StatsRepo.CompletedLessonCount(user.ID)
		return completed >= int64(c.Count), err

	case model.CriteriaXPEarned:
		return user.XP >= c.XP, nil

	case model.CriteriaLevelReached:
		return user.Level >= c.Level, nil

	case model.CriteriaStreakDays:
		streak, err := s.StreakRepo.FindByUser(user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return streak.CurrentStreak >= c.Days, nil

	case model.CriteriaFriendsCount:
		friends, err := s.FriendRepo.CountAccepted(user.ID)
		return friends >= int64(c.Count), err

	case model.CriteriaPerfectExercise:
		return s.StatsRepo.FirstSubmissionCorrect(user.ID, c.ExerciseID)

	case model.CriteriaModuleMaster:
		return s.StatsRepo.ModuleMastered(user.ID, c.ModuleID)
	}

	// ParsedCriteria already rejected unknown kinds; this is unreachable for
	// persisted badges.
	return false, fmt.Errorf("unhandled criteria kind %q", c.Kind)
}

// GetProgress reports the user's standing against the whole active catalog,
// earned badges first in recency order, then unearned ones with live
// progress counters.
func (s *BadgeService) GetProgress(user *model.User) ([]BadgeProgress, error) {
	badges, err := s.BadgeRepo.FindActive()
	if err != nil {
		return nil, err
	}

	userBadges, err := s.BadgeRepo.FindUserBadges(user.ID)
	if err != nil {
		return nil, err
	}
	earnedAt := make(map[uint]time.Time, len(userBadges))
	for _, ub := range userBadges {
		earnedAt[ub.BadgeID] = ub.EarnedAt
	}

	result := make([]BadgeProgress, 0, len(badges))
	for i := range badges {
		badge := badges[i]
		criteria, err := badge.ParsedCriteria()
		if err != nil {
			continue
		}

		target := criteria.Target()
		entry := BadgeProgress{Badge: badge, Target: target}

		if at, ok := earnedAt[badge.ID]; ok {
			at := at
			entry.Earned = true
			entry.EarnedAt = &at
			entry.Current = target
			entry.Percent = 100
			result = append(result, entry)
			continue
		}

		current, err := s.currentValue(user, criteria)
		if err != nil {
			return nil, err
		}
		if current > target {
			current = target
		}
		entry.Current = current
		if target > 0 {
			entry.Percent = current * 100 / target
		}
		result = append(result, entry)
	}
	return result, nil
}

// currentValue returns the user's live counter for the criterion, used for
// progress display only.
func (s *BadgeService) currentValue(user *model.User, c model.Criteria) (int, error) {
	switch c.Kind {
	case model.CriteriaExercisesSolved:
		n, err := s.StatsRepo.DistinctExercisesSolved(user.ID)
		return int(n), err
	case model.CriteriaLessonsCompleted:
		n, err := s.StatsRepo.CompletedLessonCount(user.ID)
		return int(n), err
	case model.CriteriaXPEarned:
		return user.XP, nil
	case model.CriteriaLevelReached:
		return user.Level, nil
	case model.CriteriaStreakDays:
		streak, err := s.StreakRepo.FindByUser(user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return streak.CurrentStreak, nil
	case model.CriteriaFriendsCount:
		n, err := s.FriendRepo.CountAccepted(user.ID)
		return int(n), err
	case model.CriteriaPerfectExercise:
		ok, err := s.StatsRepo.FirstSubmissionCorrect(user.ID, c.ExerciseID)
		if ok {
			return 1, err
		}
		return 0, err
	case model.CriteriaModuleMaster:
		ok, err := s.StatsRepo.ModuleMastered(user.ID, c.ModuleID)
		if ok {
			return 1, err
		}
		return 0, err
	}
	return 0, nil
}
