package controller

import (
	"errors"
	"net/http"
	"strconv"

	"pylearn_backend/internal/service"
	"pylearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningController struct {
	AuthService     *service.AuthService
	LearningService *service.LearningService
}

func NewLearningController(authService *service.AuthService, learningService *service.LearningService) *LearningController {
	return &LearningController{
		AuthService:     authService,
		LearningService: learningService,
	}
}

type SubmitCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// @Summary List modules
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/learning/modules [get]
func (c *LearningController) GetModules(ctx *gin.Context) {
	modules, err := c.LearningService.GetModules()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// @Summary List module lessons
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Param id path int true "Module id"
// @Success 200 {object} util.Response
// @Router /api/learning/modules/{id}/lessons [get]
func (c *LearningController) GetLessons(ctx *gin.Context) {
	moduleID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	lessons, err := c.LearningService.GetLessons(moduleID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// @Summary Start a lesson
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson id"
// @Success 200 {object} util.Response
// @Router /api/learning/lessons/{id}/start [post]
func (c *LearningController) StartLesson(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	lessonID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	progress, err := c.LearningService.StartLesson(user, lessonID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary Complete a lesson
// @Description Marks the lesson completed and returns the rewards earned
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson id"
// @Success 200 {object} util.Response
// @Router /api/learning/lessons/{id}/complete [post]
func (c *LearningController) CompleteLesson(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	lessonID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	summary, err := c.LearningService.CompleteLesson(user, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrLessonCompleted):
			util.Error(ctx, http.StatusConflict, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, summary)
}

// @Summary List lesson exercises
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson id"
// @Success 200 {object} util.Response
// @Router /api/learning/lessons/{id}/exercises [get]
func (c *LearningController) GetExercises(ctx *gin.Context) {
	lessonID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	exercises, err := c.LearningService.GetExercises(lessonID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exercises)
}

// @Summary Submit exercise code
// @Description Evaluates the code and returns the submission plus rewards
// @Tags learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exercise id"
// @Param submission body SubmitCodeRequest true "Code"
// @Success 200 {object} util.Response
// @Router /api/learning/exercises/{id}/submit [post]
func (c *LearningController) SubmitCode(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	exerciseID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req SubmitCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, summary, err := c.LearningService.SubmitCode(ctx.Request.Context(), user, exerciseID, req.Code)
	if err != nil {
		if errors.Is(err, util.ErrExerciseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"submission": submission,
		"rewards":    summary,
	})
}

// @Summary Submission history
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exercise id"
// @Success 200 {object} util.Response
// @Router /api/learning/exercises/{id}/submissions [get]
func (c *LearningController) GetSubmissions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	exerciseID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	subs, err := c.LearningService.GetSubmissions(user.UserID, exerciseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// @Summary Lesson progress
// @Description The user's progress records across all lessons
// @Tags learning
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/learning/progress [get]
func (c *LearningController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.LearningService.GetUserProgress(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
