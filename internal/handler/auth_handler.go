package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
	"github.com/noah-isme/lesson-ledger-api/internal/utils"
)

// AuthHandler exposes the passcode gate.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes. loginGuard wraps the login route (rate limiting)
// and sessionGuard protects logout; either may be nil.
func (h *AuthHandler) Register(router fiber.Router, loginGuard, sessionGuard fiber.Handler) {
	router.Get("/status", h.status)

	loginHandlers := []fiber.Handler{h.login}
	if loginGuard != nil {
		loginHandlers = append([]fiber.Handler{loginGuard}, loginHandlers...)
	}
	router.Post("/login", loginHandlers...)

	logoutHandlers := []fiber.Handler{h.logout}
	if sessionGuard != nil {
		logoutHandlers = append([]fiber.Handler{sessionGuard}, logoutHandlers...)
	}
	router.Post("/logout", logoutHandlers...)
}

func (h *AuthHandler) status(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to read auth status")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to read auth status")
	}

	return utils.SendSuccess(c, "auth status retrieved", status)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return sendValidationError(c, err)
		case errors.Is(err, service.ErrPasscodeTooShort):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidPasscode):
			requestLogger(h.logger, c).Warn().Str("ip", c.IP()).Msg("login rejected")
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid passcode")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "login failed")
		}
	}

	message := "login successful"
	if response.FirstRun {
		message = "passcode set, login successful"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), sessionIDFromContext(c)); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("logout failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "logout failed")
	}

	return utils.SendSuccess(c, "logged out", fiber.Map{"logged_out": true})
}
