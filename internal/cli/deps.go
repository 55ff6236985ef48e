package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/config"
	"github.com/noah-isme/lesson-ledger-api/internal/database"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
)

// operatorSession tags activity recorded by CLI commands.
const operatorSession = "ledgerctl"

// Services are the operations the CLI drives.
type Services struct {
	Snapshots service.SnapshotService
	Auth      service.AuthService
	Reports   service.ReportService
}

// Loader opens the ledger and returns its services plus a release function.
type Loader func(ctx context.Context) (Services, func(), error)

// DefaultLoader wires services from the same configuration the API server uses.
func DefaultLoader(ctx context.Context) (Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "ledgerctl").Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return Services{}, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return Services{}, nil, fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return Services{}, nil, err
	}

	var sessions service.SessionStore = service.NewMemorySessionStore()
	if redisClient != nil {
		sessions = service.NewRedisSessionStore(redisClient)
	}

	release := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	dashboard := service.NewDashboardService(
		repository.NewStudentRepository(db),
		repository.NewLessonLogRepository(db),
		repository.NewReviewRepository(db),
		repository.NewArchiveRepository(db),
		redisClient, cfg.DashboardCacheTTL, cfg.Timezone, logger,
	)

	snapshots, err := service.NewSnapshotService(repository.NewSnapshotRepository(db), activity, dashboard, logger)
	if err != nil {
		release()
		return Services{}, nil, err
	}
	auth := service.NewAuthService(repository.NewCredentialRepository(db), sessions, validate, activity, cfg.JWTSecret, cfg.SessionTTL, logger)

	reports := service.NewReportService(repository.NewSnapshotRepository(db), cfg.Timezone, logger)

	return Services{Snapshots: snapshots, Auth: auth, Reports: reports}, release, nil
}

func withServices(parent context.Context, load Loader, fn func(ctx context.Context, svc Services) error) error {
	ctx := service.ContextWithSession(parent, operatorSession)
	svc, release, err := load(ctx)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return fn(ctx, svc)
}
