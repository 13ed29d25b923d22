package app

import (
	"pylearn_backend/docs"
	"pylearn_backend/internal/config"
	"pylearn_backend/internal/middleware"
	"pylearn_backend/internal/model"
	"pylearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// Authenticated routes
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		gamification := authGroup.Group("/gamification")
		{
			gamification.GET("/overview", c.gamification.GetOverview)
			gamification.GET("/badges", c.gamification.GetBadges)
			gamification.GET("/streak", c.gamification.GetStreak)
			gamification.GET("/challenges", c.gamification.GetChallenges)
			gamification.GET("/leaderboard", c.gamification.GetLeaderboard)
		}

		social := authGroup.Group("/social")
		{
			social.GET("/friends", c.social.GetFriends)
			social.DELETE("/friends/:id", c.social.RemoveFriend)
			social.GET("/requests", c.social.GetPendingRequests)
			social.POST("/requests/:id", c.social.SendRequest)
			social.POST("/requests/:id/accept", c.social.AcceptRequest)
			social.POST("/requests/:id/reject", c.social.RejectRequest)
			social.GET("/leaderboard", c.social.GetFriendLeaderboard)
			social.GET("/search", c.social.SearchUsers)
		}

		learning := authGroup.Group("/learning")
		{
			learning.GET("/modules", c.learning.GetModules)
			learning.GET("/modules/:id/lessons", c.learning.GetLessons)
			learning.POST("/lessons/:id/start", c.learning.StartLesson)
			learning.POST("/lessons/:id/complete", c.learning.CompleteLesson)
			learning.GET("/lessons/:id/exercises", c.learning.GetExercises)
			learning.POST("/exercises/:id/submit", c.learning.SubmitCode)
			learning.GET("/exercises/:id/submissions", c.learning.GetSubmissions)
			learning.GET("/progress", c.learning.GetProgress)
		}

		tutor := authGroup.Group("/tutor")
		{
			tutor.POST("/ask", c.tutor.Ask)
			tutor.GET("/sessions/:session", c.tutor.GetHistory)
			tutor.GET("/quota", c.tutor.GetQuota)
		}

		// Maintenance endpoints; the scheduler runs the same jobs on a timer.
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/challenges/generate", c.gamification.RegenerateChallenges)
			admin.POST("/streaks/check", c.gamification.ResetBrokenStreaks)
		}
	}
}
