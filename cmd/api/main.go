package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/formula-ihu/quiz-api/internal/config"
	"github.com/formula-ihu/quiz-api/internal/handler"
	"github.com/formula-ihu/quiz-api/internal/middleware"
	"github.com/formula-ihu/quiz-api/internal/quizcache"
	pgRepo "github.com/formula-ihu/quiz-api/internal/repository/postgres"
	redisRepo "github.com/formula-ihu/quiz-api/internal/repository/redis"
	"github.com/formula-ihu/quiz-api/internal/service"
	"github.com/formula-ihu/quiz-api/pkg/auth"
	"github.com/formula-ihu/quiz-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Printf("Invalid server config: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Repositories
	quizRepo := pgRepo.NewQuizRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)
	progressRepo := pgRepo.NewProgressRepo(db)
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to create cache repository: %v", err)
		os.Exit(1)
	}

	// Services
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From, cacheRepo)
		if err != nil {
			log.Printf("Failed to create email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
		log.Printf("Confirmation emails enabled (from %s)", cfg.Email.From)
	}

	quizService := service.NewQuizService(quizRepo, quizcache.New(cfg.Quiz.CacheLiveTTL, cfg.Quiz.CacheIdleTTL, time.Now))
	submissionService := service.NewSubmissionService(quizService, submissionRepo, progressRepo, emailService, service.SubmissionOptions{
		ContentTimeout: cfg.Quiz.ContentTimeout,
		Grace:          cfg.Quiz.SubmissionGrace,
		EmailTimeout:   cfg.Email.SendTimeout,
	})
	progressService := service.NewProgressService(progressRepo, submissionRepo)
	exportService := service.NewExportService(quizService, submissionRepo)

	sessionService, err := auth.NewSessionService(cfg.Admin.PasswordHash, cfg.Admin.SessionSecret, cfg.Admin.SessionTTL)
	if err != nil {
		log.Printf("Failed to create admin session service: %v", err)
		os.Exit(1)
	}

	// Middleware
	rateLimiter := middleware.NewRateLimiter(cacheRepo)
	adminSession := middleware.NewAdminSession(sessionService, cfg.Admin.CookieName)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	trusted := cfg.Server.TrustedProxies
	if !isProduction && len(trusted) == 0 {
		trusted = []string{"127.0.0.1", "::1"}
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes := &handler.Routes{
		Quiz:   handler.NewQuizHandler(quizService, submissionService, progressService, cfg.Quiz.AutosaveDebounce, cfg.Quiz.AutosaveInterval),
		Export: handler.NewExportHandler(exportService),
		Admin:  handler.NewAdminHandler(sessionService, cfg.Admin.CookieName, isProduction),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
		RequireAdmin:  adminSession.RequireAdmin(),
		ProgressLimit: rateLimiter.Limit(middleware.ProgressRateLimitConfig(cfg.RateLimit.ProgressRequests, cfg.RateLimit.Window)),
		SubmitLimit:   rateLimiter.Limit(middleware.SubmitRateLimitConfig(cfg.RateLimit.SubmitRequests, cfg.RateLimit.Window)),
		LoginLimit:    rateLimiter.Limit(middleware.AdminLoginRateLimitConfig()),
	}
	routes.Register(router)

	// Warm the config cache so the first visitors do not all hit the content store
	go func() {
		if _, err := quizService.GetQuiz(ctx); err != nil {
			log.Printf("Quiz config not available at startup: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
