package controller

import (
	"strconv"

	"pylearn_backend/internal/service"
	"pylearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// GamificationController exposes the progression, badge, streak and
// challenge views.
type GamificationController struct {
	AuthService      *service.AuthService
	LearningService  *service.LearningService
	BadgeService     *service.BadgeService
	StreakService    *service.StreakService
	ChallengeService *service.ChallengeService
}

func NewGamificationController(
	authService *service.AuthService,
	learningService *service.LearningService,
	badgeService *service.BadgeService,
	streakService *service.StreakService,
	challengeService *service.ChallengeService,
) *GamificationController {
	return &GamificationController{
		AuthService:      authService,
		LearningService:  learningService,
		BadgeService:     badgeService,
		StreakService:    streakService,
		ChallengeService: challengeService,
	}
}

// @Summary Progress overview
// @Description XP, level, streak and badge counters for the dashboard
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/gamification/overview [get]
func (c *GamificationController) GetOverview(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.LearningService.GetOverview(user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// @Summary Badge progress
// @Description Every active badge with the user's earned state and progress
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/gamification/badges [get]
func (c *GamificationController) GetBadges(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.BadgeService.GetProgress(user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary Current streak
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/gamification/streak [get]
func (c *GamificationController) GetStreak(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	streak, err := c.StreakService.GetStreak(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, streak)
}

// @Summary Active challenges
// @Description Challenges live today with the user's progress on each
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/gamification/challenges [get]
func (c *GamificationController) GetChallenges(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	challenges, err := c.ChallengeService.GetActiveChallenges(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, challenges)
}

// @Summary Global leaderboard
// @Description Top users by XP
// @Tags gamification
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} util.Response
// @Router /api/gamification/leaderboard [get]
func (c *GamificationController) GetLeaderboard(ctx *gin.Context) {
	limit := 10
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	top, err := c.AuthService.UserRepo.FindTopByXP(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, top)
}

// @Summary Regenerate challenges
// @Description Force the daily and weekly challenge generation to run now
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/admin/challenges/generate [post]
func (c *GamificationController) RegenerateChallenges(ctx *gin.Context) {
	if _, err := c.ChallengeService.DeactivateExpired(); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	daily, err := c.ChallengeService.GenerateDaily()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	weekly, err := c.ChallengeService.GenerateWeekly()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"daily": len(daily), "weekly": len(weekly)})
}

// @Summary Reset broken streaks
// @Description Force the broken-streak maintenance sweep to run now
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/admin/streaks/check [post]
func (c *GamificationController) ResetBrokenStreaks(ctx *gin.Context) {
	affected, err := c.StreakService.CheckBrokenStreaks()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reset": affected})
}
