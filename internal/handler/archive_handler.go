package handler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/service"
	"github.com/noah-isme/lesson-ledger-api/internal/utils"
)

// ArchiveHandler exposes the per-student artwork archive.
type ArchiveHandler struct {
	service service.ArchiveService
	logger  zerolog.Logger
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(service service.ArchiveService, logger zerolog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		service: service,
		logger:  logger.With().Str("component", "archive_handler").Logger(),
	}
}

// Register wires archive routes on the protected api group.
func (h *ArchiveHandler) Register(router fiber.Router) {
	router.Get("/students/:id/archive", h.list)
	router.Post("/students/:id/archive", h.upload)
	router.Get("/students/:id/archive/download", h.downloadBatch)
	router.Get("/archive/:imageId/download", h.download)
	router.Delete("/archive", h.delete)
}

func (h *ArchiveHandler) list(c *fiber.Ctx) error {
	images, err := h.service.List(c.UserContext(), c.Params("id"), parseQueryBool(c, "payload"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list archive images")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list archive images")
	}

	return utils.SendSuccess(c, "archive images retrieved", images)
}

func (h *ArchiveHandler) upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form with files is required")
	}

	response, err := h.service.Upload(c.UserContext(), c.Params("id"), form.File["files"])
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFiles), errors.Is(err, service.ErrTooManyFiles):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("archive upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "archive upload failed")
		}
	}

	switch {
	case !response.Applied:
		return utils.SendSuccess(c, "student not found, nothing stored", response)
	case len(response.Stored) == 0:
		return utils.SendSuccess(c, "no files were stored", response)
	default:
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "archive images stored", response)
	}
}

func (h *ArchiveHandler) download(c *fiber.Ctx) error {
	file, err := h.service.Download(c.UserContext(), c.Params("imageId"))
	if err != nil {
		if errors.Is(err, service.ErrArchiveImageNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "archive image not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to download archive image")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to download archive image")
	}

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.FileName))
	return c.Send(file.Content)
}

func (h *ArchiveHandler) downloadBatch(c *fiber.Ctx) error {
	studentID := c.Params("id")
	var buf bytes.Buffer
	count, err := h.service.DownloadBatch(c.UserContext(), studentID, splitAndTrim(c.Query("ids")), &buf)
	if err != nil {
		if errors.Is(err, service.ErrArchiveImageNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "no archive images matched")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build archive download")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build archive download")
	}

	requestLogger(h.logger, c).Debug().Str("student_id", studentID).Int("images", count).Msg("archive batch download")
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("student-archive-%s.zip", studentID)))
	return c.Send(buf.Bytes())
}

func (h *ArchiveHandler) delete(c *fiber.Ctx) error {
	if !requireConfirm(c) {
		return nil
	}

	var payload dto.ArchiveDeleteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Delete(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) {
			return sendValidationError(c, err)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete archive images")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete archive images")
	}

	return utils.SendSuccess(c, "archive images deleted", response)
}
