package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
	"github.com/noah-isme/lesson-ledger-api/internal/utils"
)

// LessonHandler exposes lesson balance changes and the log history.
type LessonHandler struct {
	service service.LessonService
	logger  zerolog.Logger
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service service.LessonService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register attaches lesson routes. The router is expected to be the protected api group.
func (h *LessonHandler) Register(router fiber.Router) {
	router.Post("/students/:id/lessons", h.change)
	router.Get("/students/:id/logs", h.listForStudent)
	router.Get("/logs", h.list)
}

func (h *LessonHandler) change(c *fiber.Ctx) error {
	var payload dto.LessonChangeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Change(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return sendValidationError(c, err)
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrUnknownLogType):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientBalance):
			return utils.SendError(c, fiber.StatusConflict, "insufficient lesson balance")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to change lessons")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to change lessons")
		}
	}

	message := "lesson balance updated"
	if !response.Applied {
		message = "student not found, nothing changed"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *LessonHandler) listForStudent(c *fiber.Ctx) error {
	return h.respondList(c, c.Params("id"))
}

func (h *LessonHandler) list(c *fiber.Ctx) error {
	return h.respondList(c, c.Query("student_id"))
}

func (h *LessonHandler) respondList(c *fiber.Ctx, studentID string) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.LessonLogListRequest{
		StudentID: studentID,
		Type:      c.Query("type"),
		Page:      page,
		PageSize:  pageSize,
	}

	response, err := h.service.ListLogs(c.UserContext(), req)
	if err != nil {
		if isValidationError(err) {
			return sendValidationError(c, err)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list lesson logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list lesson logs")
	}

	return utils.OK(c, response.Items, "lesson logs retrieved", response.Pagination)
}
