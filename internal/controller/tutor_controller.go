package controller

import (
	"pylearn_backend/internal/service"
	"pylearn_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TutorController struct {
	AuthService  *service.AuthService
	TutorService *service.TutorService
}

func NewTutorController(authService *service.AuthService, tutorService *service.TutorService) *TutorController {
	return &TutorController{
		AuthService:  authService,
		TutorService: tutorService,
	}
}

type AskRequest struct {
	// SessionID groups follow-up questions; omit it to start a new session.
	SessionID string `json:"sessionId" binding:"omitempty,uuid"`
	Question  string `json:"question" binding:"required,max=4000"`
}

// @Summary Ask the AI tutor
// @Description Answers a question, or serves a fallback when the daily AI quota is spent
// @Tags tutor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question body AskRequest true "Question"
// @Success 200 {object} util.Response
// @Router /api/tutor/ask [post]
func (c *TutorController) Ask(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := c.TutorService.Ask(ctx.Request.Context(), user, req.SessionID, req.Question)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// @Summary Conversation history
// @Tags tutor
// @Produce json
// @Security BearerAuth
// @Param session path string true "Session id"
// @Success 200 {object} util.Response
// @Router /api/tutor/sessions/{session} [get]
func (c *TutorController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionID := ctx.Param("session")
	if _, err := uuid.Parse(sessionID); err != nil {
		util.BadRequest(ctx, "invalid session id")
		return
	}

	history, err := c.TutorService.GetHistory(user.UserID, sessionID, 50)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// @Summary AI quota status
// @Description Remaining daily AI requests, without consuming one
// @Tags tutor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/tutor/quota [get]
func (c *TutorController) GetQuota(ctx *gin.Context) {
	status, err := c.TutorService.QuotaStatus(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, status)
}
