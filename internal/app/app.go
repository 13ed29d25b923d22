package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pylearn_backend/internal/config"
	"pylearn_backend/internal/controller"
	"pylearn_backend/internal/repository"
	"pylearn_backend/internal/service"
	"pylearn_backend/pkg/database"
	"pylearn_backend/pkg/logger"
	"pylearn_backend/pkg/monitoring"
	"pylearn_backend/pkg/security"
	"pylearn_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user       *repository.UserRepository
	badge      *repository.BadgeRepository
	streak     *repository.StreakRepository
	challenge  *repository.ChallengeRepository
	friendship *repository.FriendshipRepository
	stats      *repository.StatsRepository
	learning   *repository.LearningRepository
	exercise   *repository.ExerciseRepository
	tutor      *repository.TutorRepository
}

type services struct {
	auth        *service.AuthService
	progression *service.ProgressionService
	badge       *service.BadgeService
	streak      *service.StreakService
	challenge   *service.ChallengeService
	social      *service.SocialService
	learning    *service.LearningService
	tutor       *service.TutorService
	gate        *service.RateGate
	scheduler   *service.Scheduler
}

type controllers struct {
	auth         *controller.AuthController
	gamification *controller.GamificationController
	social       *controller.SocialController
	learning     *controller.LearningController
	tutor        *controller.TutorController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		badge:      repository.NewBadgeRepository(db),
		streak:     repository.NewStreakRepository(db),
		challenge:  repository.NewChallengeRepository(db),
		friendship: repository.NewFriendshipRepository(db, rdb),
		stats:      repository.NewStatsRepository(db),
		learning:   repository.NewLearningRepository(db),
		exercise:   repository.NewExerciseRepository(db),
		tutor:      repository.NewTutorRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	// Validated at config load.
	loc, err := time.LoadLocation(cfg.Gamification.Timezone)
	if err != nil {
		return nil, err
	}
	clock := clockwork.NewRealClock()

	s := &services{}
	s.auth = service.NewAuthService(repos.user, cfg)
	s.progression = service.NewProgressionService(repos.user, cfg.Gamification)
	s.badge = service.NewBadgeService(repos.badge, repos.stats, repos.streak, repos.friendship, s.progression)
	s.streak = service.NewStreakService(repos.streak, s.badge, clock, loc)
	s.challenge = service.NewChallengeService(repos.challenge, s.progression, clock, loc)
	s.social = service.NewSocialService(repos.friendship, repos.user, s.badge, rdb)
	s.gate = service.NewRateGate(rdb, cfg.AI.DailyLimit, clock, loc)
	s.tutor = service.NewTutorService(repos.tutor, s.gate, cfg.AI)
	s.learning = service.NewLearningService(
		repos.learning,
		repos.exercise,
		repos.stats,
		repos.user,
		s.progression,
		s.badge,
		s.streak,
		s.challenge,
		s.tutor,
		clock,
	)

	s.scheduler, err = service.NewScheduler(s.challenge, s.streak, loc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		gamification: controller.NewGamificationController(s.auth, s.learning, s.badge, s.streak, s.challenge),
		social:       controller.NewSocialController(s.auth, s.social),
		learning:     controller.NewLearningController(s.auth, s.learning),
		tutor:        controller.NewTutorController(s.auth, s.tutor),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.SeedDefaultBadges(db); err != nil {
		logger.Log.Fatal("Failed to seed badge catalog", zap.Error(err))
	}
	if cfg.MigrateOnly {
		logger.Log.Info("Migrations complete, exiting (migrate-only)")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("pylearn-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if err := services.scheduler.Start(); err != nil {
		logger.Log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
	}

	return app
}

// ApplyConfig applies the hot-reloadable subset of a freshly loaded config.
// Anything requiring reconnects (database, redis, JWT secret) needs a
// restart and is deliberately left alone.
func (a *App) ApplyConfig(cfg *config.Config) {
	if a.services != nil && a.services.gate != nil {
		a.services.gate.SetLimit(cfg.AI.DailyLimit)
	}
	logger.Log.Info("config reloaded",
		zap.Int("ai_daily_limit", cfg.AI.DailyLimit))
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.services != nil && a.services.scheduler != nil {
		if err := a.services.scheduler.Shutdown(); err != nil {
			logger.Log.Error("Scheduler shutdown failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}
