package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/config"
	"github.com/noah-isme/lesson-ledger-api/internal/handler"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "Lesson Ledger API", AppEnv: "test", Timezone: time.UTC}

	cases := []struct {
		name     string
		pinger   handler.Pinger
		status   int
		database string
	}{
		{name: "no probe", pinger: nil, status: fiber.StatusOK, database: "unchecked"},
		{name: "healthy", pinger: stubPinger{}, status: fiber.StatusOK, database: "ok"},
		{name: "unreachable", pinger: stubPinger{err: errors.New("closed")}, status: fiber.StatusServiceUnavailable, database: "unreachable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", handler.HealthCheck(cfg, tc.pinger))

			resp := doJSON(t, app, http.MethodGet, "/health", nil)
			require.Equal(t, tc.status, resp.StatusCode)

			var body struct {
				Data handler.HealthResponse `json:"data"`
			}
			decodeResponse(t, resp, &body)
			require.Equal(t, tc.database, body.Data.Database)
			require.Equal(t, "UTC", body.Data.Timezone)
		})
	}
}
