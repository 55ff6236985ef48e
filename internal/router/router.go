package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lesson-ledger-api/internal/config"
	"github.com/noah-isme/lesson-ledger-api/internal/handler"
	"github.com/noah-isme/lesson-ledger-api/internal/middleware"
	"github.com/noah-isme/lesson-ledger-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler   *handler.StudentHandler
	LessonHandler    *handler.LessonHandler
	ReviewHandler    *handler.ReviewHandler
	ArchiveHandler   *handler.ArchiveHandler
	AuthHandler      *handler.AuthHandler
	DashboardHandler *handler.DashboardHandler
	SnapshotHandler  *handler.SnapshotHandler
	ActivityHandler  *handler.ActivityHandler
	ReportHandler    *handler.ReportHandler
	SessionGuard     fiber.Handler
	HealthProbe      handler.Pinger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbe))
	api.Get("/metrics", observability.MetricsHandler())

	// Without a guard every route is open; only tests wire it that way.
	sessionGuard := deps.SessionGuard
	if sessionGuard == nil {
		sessionGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		var loginGuard fiber.Handler
		if cfg.LoginRateLimit > 0 {
			loginGuard = middleware.RateLimit("login", cfg.LoginRateLimit, time.Minute)
		}
		deps.AuthHandler.Register(api.Group("/auth"), loginGuard, sessionGuard)
	}

	protected := api.Group("", sessionGuard)

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(protected.Group("/students"))
	}
	if deps.LessonHandler != nil {
		deps.LessonHandler.Register(protected)
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.Register(protected)
	}
	if deps.ArchiveHandler != nil {
		deps.ArchiveHandler.Register(protected)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(protected.Group("/dashboard"))
	}
	if deps.SnapshotHandler != nil {
		deps.SnapshotHandler.Register(protected.Group("/snapshot"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected.Group("/activity"))
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(protected.Group("/reports"))
	}
}
