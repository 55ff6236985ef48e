package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/service"
	"github.com/noah-isme/lesson-ledger-api/internal/utils"
)

// SnapshotHandler exports and imports the whole ledger in the legacy
// browser-storage layout.
type SnapshotHandler struct {
	service service.SnapshotService
	logger  zerolog.Logger
}

// NewSnapshotHandler constructs the handler.
func NewSnapshotHandler(service service.SnapshotService, logger zerolog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		service: service,
		logger:  logger.With().Str("component", "snapshot_handler").Logger(),
	}
}

// Register wires snapshot routes.
func (h *SnapshotHandler) Register(router fiber.Router) {
	router.Get("", h.export)
	router.Post("", h.importSnapshot)
}

// export returns the bare slot document rather than the response envelope so
// it can be fed back into import unchanged.
func (h *SnapshotHandler) export(c *fiber.Ctx) error {
	snapshot, err := h.service.Export(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export snapshot")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export snapshot")
	}

	if parseQueryBool(c, "download") {
		name := "ledger-snapshot-" + time.Now().UTC().Format("20060102-150405") + ".json"
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	}
	return c.Status(fiber.StatusOK).JSON(snapshot)
}

func (h *SnapshotHandler) importSnapshot(c *fiber.Ctx) error {
	if !requireConfirm(c) {
		return nil
	}

	response, err := h.service.Import(c.UserContext(), c.Body())
	if err != nil {
		if errors.Is(err, service.ErrSnapshotMalformed) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to import snapshot")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to import snapshot")
	}

	return utils.SendSuccess(c, "snapshot imported", response)
}
