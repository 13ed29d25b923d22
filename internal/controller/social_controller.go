package controller

import (
	"errors"
	"net/http"
	"strconv"

	"pylearn_backend/internal/service"
	"pylearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SocialController struct {
	AuthService   *service.AuthService
	SocialService *service.SocialService
}

func NewSocialController(authService *service.AuthService, socialService *service.SocialService) *SocialController {
	return &SocialController{
		AuthService:   authService,
		SocialService: socialService,
	}
}

// socialGuardStatus maps the social graph's expected-failure sentinels to
// HTTP statuses; anything unmapped is a real server error.
func socialGuardStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, util.ErrSelfFriendRequest),
		errors.Is(err, util.ErrAlreadyFriends),
		errors.Is(err, util.ErrRequestPending):
		return http.StatusConflict, true
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrRequestNotFound),
		errors.Is(err, util.ErrFriendshipNotFound):
		return http.StatusNotFound, true
	}
	return 0, false
}

func parseUserID(ctx *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid user id")
		return 0, false
	}
	return uint(id), true
}

// @Summary Send friend request
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target user id"
// @Success 201 {object} util.Response
// @Router /api/social/requests/{id} [post]
func (c *SocialController) SendRequest(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	targetID, ok := parseUserID(ctx, "id")
	if !ok {
		return
	}

	f, err := c.SocialService.SendRequest(user, targetID)
	if err != nil {
		if status, known := socialGuardStatus(err); known {
			util.Error(ctx, status, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, f)
}

// @Summary Accept friend request
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param id path int true "Requester user id"
// @Success 200 {object} util.Response
// @Router /api/social/requests/{id}/accept [post]
func (c *SocialController) AcceptRequest(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	requesterID, ok := parseUserID(ctx, "id")
	if !ok {
		return
	}

	f, err := c.SocialService.AcceptRequest(user, requesterID)
	if err != nil {
		if status, known := socialGuardStatus(err); known {
			util.Error(ctx, status, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, f)
}

// @Summary Reject friend request
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param id path int true "Requester user id"
// @Success 200 {object} util.Response
// @Router /api/social/requests/{id}/reject [post]
func (c *SocialController) RejectRequest(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	requesterID, ok := parseUserID(ctx, "id")
	if !ok {
		return
	}

	if err := c.SocialService.RejectRequest(user, requesterID); err != nil {
		if status, known := socialGuardStatus(err); known {
			util.Error(ctx, status, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"rejected": requesterID})
}

// @Summary Remove friend
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param id path int true "Friend user id"
// @Success 200 {object} util.Response
// @Router /api/social/friends/{id} [delete]
func (c *SocialController) RemoveFriend(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	friendID, ok := parseUserID(ctx, "id")
	if !ok {
		return
	}

	if err := c.SocialService.RemoveFriend(user, friendID); err != nil {
		if status, known := socialGuardStatus(err); known {
			util.Error(ctx, status, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"removed": friendID})
}

// @Summary Friend list
// @Tags social
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/social/friends [get]
func (c *SocialController) GetFriends(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	friends, err := c.SocialService.GetFriends(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, friends)
}

// @Summary Incoming friend requests
// @Tags social
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/social/requests [get]
func (c *SocialController) GetPendingRequests(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	pending, err := c.SocialService.GetPendingRequests(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, pending)
}

// @Summary Friend leaderboard
// @Description The user and their friends ranked by XP
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} util.Response
// @Router /api/social/leaderboard [get]
func (c *SocialController) GetFriendLeaderboard(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := 10
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	board, err := c.SocialService.FriendLeaderboard(ctx.Request.Context(), user, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, board)
}

// @Summary Search users
// @Description Find users by name for the add-friend flow
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param q query string true "Name fragment"
// @Success 200 {object} util.Response
// @Router /api/social/search [get]
func (c *SocialController) SearchUsers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	query := ctx.Query("q")
	if len(query) < 2 {
		util.BadRequest(ctx, "query must be at least 2 characters")
		return
	}

	users, err := c.SocialService.SearchUsers(query, user.UserID, 20)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}
