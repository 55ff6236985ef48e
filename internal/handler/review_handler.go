package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
	"github.com/noah-isme/lesson-ledger-api/internal/utils"
)

// ReviewHandler exposes teacher reviews of student work.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches review routes to the protected api group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/students/:id/reviews", h.listForStudent)
	router.Post("/students/:id/reviews", h.create)
	router.Get("/reviews/recent", h.recent)
}

func (h *ReviewHandler) create(c *fiber.Ctx) error {
	var payload dto.ReviewCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return sendValidationError(c, err)
		case errors.Is(err, service.ErrEmptyText):
			return utils.SendError(c, fiber.StatusBadRequest, "review content must not be empty")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create review")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create review")
		}
	}

	if !response.Applied {
		return utils.SendSuccess(c, "student not found, nothing recorded", response)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "review recorded", response)
}

func (h *ReviewHandler) listForStudent(c *fiber.Ctx) error {
	reviews, err := h.service.ListByStudent(c.UserContext(), c.Params("id"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list reviews")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list reviews")
	}

	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *ReviewHandler) recent(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	reviews, err := h.service.Recent(c.UserContext(), limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list recent reviews")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list recent reviews")
	}

	return utils.SendSuccess(c, "recent reviews retrieved", reviews)
}
