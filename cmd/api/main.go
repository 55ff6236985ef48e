package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/config"
	"github.com/noah-isme/lesson-ledger-api/internal/database"
	"github.com/noah-isme/lesson-ledger-api/internal/handler"
	"github.com/noah-isme/lesson-ledger-api/internal/middleware"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
	"github.com/noah-isme/lesson-ledger-api/internal/router"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database handle: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	var sessions service.SessionStore
	if redisClient != nil {
		defer redisClient.Close()
		sessions = service.NewRedisSessionStore(redisClient)
	} else {
		logger.Warn().Msg("redis not configured, sessions and dashboard cache are kept in process")
		sessions = service.NewMemorySessionStore()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	lessonLogRepo := repository.NewLessonLogRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	dashboardService := service.NewDashboardService(studentRepo, lessonLogRepo, reviewRepo, archiveRepo, redisClient, cfg.DashboardCacheTTL, cfg.Timezone, logger)
	studentService := service.NewStudentService(studentRepo, archiveRepo, validate, activityService, dashboardService, logger)
	lessonService := service.NewLessonService(lessonLogRepo, archiveRepo, validate, dashboardService, logger)
	reviewService := service.NewReviewService(reviewRepo, studentRepo, validate, dashboardService, logger)
	archiveService := service.NewArchiveService(archiveRepo, studentRepo, validate, activityService, dashboardService, service.ArchiveLimits{
		MaxSizeMB:   cfg.UploadMaxSizeMB,
		MaxFiles:    cfg.UploadMaxFiles,
		Concurrency: cfg.UploadConcurrency,
	}, logger)
	authService := service.NewAuthService(credentialRepo, sessions, validate, activityService, cfg.JWTSecret, cfg.SessionTTL, logger)
	reportService := service.NewReportService(snapshotRepo, cfg.Timezone, logger)
	snapshotService, err := service.NewSnapshotService(snapshotRepo, activityService, dashboardService, logger)
	if err != nil {
		log.Fatalf("failed to compile snapshot schemas: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB*cfg.UploadMaxFiles + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:   handler.NewStudentHandler(studentService, logger),
		LessonHandler:    handler.NewLessonHandler(lessonService, logger),
		ReviewHandler:    handler.NewReviewHandler(reviewService, logger),
		ArchiveHandler:   handler.NewArchiveHandler(archiveService, logger),
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, logger),
		SnapshotHandler:  handler.NewSnapshotHandler(snapshotService, logger),
		ActivityHandler:  handler.NewActivityHandler(activityService, logger),
		ReportHandler:    handler.NewReportHandler(reportService, logger),
		SessionGuard:     middleware.SessionProtected(authService),
		HealthProbe:      sqlDB,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("driver", cfg.DatabaseDriver).Msg("lesson ledger api started")
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
