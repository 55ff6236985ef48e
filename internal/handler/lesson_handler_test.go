package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/handler"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
)

type mockLessonService struct {
	changeErr  error
	applied    bool
	lastChange dto.LessonChangeRequest
	lastList   dto.LessonLogListRequest
}

func (m *mockLessonService) Change(_ context.Context, studentID string, payload dto.LessonChangeRequest) (dto.LessonChangeResponse, error) {
	m.lastChange = payload
	if m.changeErr != nil {
		return dto.LessonChangeResponse{}, m.changeErr
	}
	if !m.applied {
		return dto.LessonChangeResponse{Applied: false}, nil
	}
	student := dto.StudentResponse{ID: studentID, RemainingLessons: 17}
	return dto.LessonChangeResponse{Applied: true, Student: &student}, nil
}

func (m *mockLessonService) ListLogs(_ context.Context, req dto.LessonLogListRequest) (dto.LessonLogListResponse, error) {
	m.lastList = req
	return dto.LessonLogListResponse{Items: []dto.LessonLogResponse{}, Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, 0)}, nil
}

func newLessonApp(svc service.LessonService) *fiber.App {
	app := fiber.New()
	handler.NewLessonHandler(svc, zerolog.Nop()).Register(app)
	return app
}

func TestLessonHandlerChangeApplied(t *testing.T) {
	svc := &mockLessonService{applied: true}
	app := newLessonApp(svc)

	resp := doJSON(t, app, http.MethodPost, "/students/s1/lessons", dto.LessonChangeRequest{Amount: 3, Type: "consume"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Message string                   `json:"message"`
		Data    dto.LessonChangeResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Data.Applied)
	require.Equal(t, 17, body.Data.Student.RemainingLessons)
	require.Equal(t, "consume", svc.lastChange.Type)
}

func TestLessonHandlerChangeUnknownStudentIsNoop(t *testing.T) {
	app := newLessonApp(&mockLessonService{})

	resp := doJSON(t, app, http.MethodPost, "/students/ghost/lessons", dto.LessonChangeRequest{Amount: 3, Type: "refill"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Message string                   `json:"message"`
		Data    dto.LessonChangeResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Data.Applied)
	require.Equal(t, "student not found, nothing changed", body.Message)
}

func TestLessonHandlerChangeErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "insufficient", err: service.ErrInsufficientBalance, status: fiber.StatusConflict},
		{name: "validation", err: validationErrorFor(t, dto.LessonChangeRequest{}), status: fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newLessonApp(&mockLessonService{changeErr: tc.err})
			resp := doJSON(t, app, http.MethodPost, "/students/s1/lessons", dto.LessonChangeRequest{Amount: 20, Type: "consume"})
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestLessonHandlerListScopes(t *testing.T) {
	svc := &mockLessonService{}
	app := newLessonApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/students/s1/logs?type=refill", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.LessonLogListRequest{StudentID: "s1", Type: "refill", Page: 1, PageSize: 20}, svc.lastList)

	resp = doJSON(t, app, http.MethodGet, "/logs?student_id=s2&page=3", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.LessonLogListRequest{StudentID: "s2", Page: 3, PageSize: 20}, svc.lastList)
}
