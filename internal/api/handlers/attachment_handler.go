package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/elektrine/mailroute/internal/api"
	"github.com/elektrine/mailroute/internal/repository"
	"github.com/elektrine/mailroute/internal/storage"
	"github.com/labstack/echo/v4"
)

// AttachmentHandler serves attachment metadata and file downloads.
type AttachmentHandler struct {
	attachmentRepo repository.AttachmentRepository
	messageRepo    repository.MessageRepository
	fileStorage    storage.FileStorage
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(
	attachmentRepo repository.AttachmentRepository,
	messageRepo repository.MessageRepository,
	fileStorage storage.FileStorage,
) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentRepo: attachmentRepo,
		messageRepo:    messageRepo,
		fileStorage:    fileStorage,
	}
}

func attachmentIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid attachment ID")
	}
	return uint(id), nil
}

// List handles GET /api/messages/:message_id/attachments
func (h *AttachmentHandler) List(c echo.Context) error {
	messageID, err := strconv.ParseUint(c.Param("message_id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid message ID")
	}

	// The message must exist, an empty list is not a 404
	_, err = h.messageRepo.GetByID(c.Request().Context(), uint(messageID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "message not found")
		}
		return api.InternalError(c, "failed to get message")
	}

	attachments, err := h.attachmentRepo.ListByMessage(c.Request().Context(), uint(messageID))
	if err != nil {
		return api.InternalError(c, "failed to list attachments")
	}

	return api.Success(c, attachments)
}

// Get handles GET /api/attachments/:id
func (h *AttachmentHandler) Get(c echo.Context) error {
	id, err := attachmentIDParam(c)
	if err != nil {
		return api.BadRequest(c, err.Error())
	}

	attachment, err := h.attachmentRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "attachment not found")
		}
		return api.InternalError(c, "failed to get attachment")
	}

	return api.Success(c, attachment)
}

// Download handles GET /api/attachments/:id/download. The file content is
// streamed straight from storage with download headers set.
func (h *AttachmentHandler) Download(c echo.Context) error {
	id, err := attachmentIDParam(c)
	if err != nil {
		return api.BadRequest(c, err.Error())
	}

	attachment, err := h.attachmentRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "attachment not found")
		}
		return api.InternalError(c, "failed to get attachment")
	}

	file, err := h.fileStorage.Get(attachment.FilePath)
	if err != nil {
		return api.InternalError(c, "failed to retrieve file")
	}
	defer file.Close()

	c.Response().Header().Set("Content-Type", attachment.ContentType)
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, attachment.Filename))
	if attachment.SizeBytes > 0 {
		c.Response().Header().Set("Content-Length", strconv.FormatInt(attachment.SizeBytes, 10))
	}

	if _, err := io.Copy(c.Response().Writer, file); err != nil {
		return api.InternalError(c, "failed to send file")
	}

	return nil
}
