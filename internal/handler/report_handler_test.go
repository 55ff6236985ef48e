package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/handler"
)

type mockReportService struct{ err error }

func (m mockReportService) WriteWorkbook(_ context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

func TestReportHandlerWorkbook(t *testing.T) {
	app := fiber.New()
	handler.NewReportHandler(mockReportService{}, zerolog.Nop()).Register(app.Group("/reports"))

	resp := doJSON(t, app, http.MethodGet, "/reports/ledger.xlsx", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	require.Contains(t, resp.Header.Get("Content-Disposition"), "lesson-ledger-")

	failing := fiber.New()
	handler.NewReportHandler(mockReportService{err: errors.New("boom")}, zerolog.Nop()).Register(failing.Group("/reports"))
	resp = doJSON(t, failing, http.MethodGet, "/reports/ledger.xlsx", nil)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
