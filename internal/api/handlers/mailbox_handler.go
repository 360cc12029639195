package handlers

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/elektrine/mailroute/internal/api"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/repository"
	"github.com/elektrine/mailroute/internal/routing"
	"github.com/elektrine/mailroute/internal/validator"
)

// MailboxHandler handles mailbox-related HTTP requests. A mailbox is keyed
// by username and reachable under every supported domain, so creation takes
// a username rather than a full address.
type MailboxHandler struct {
	mailboxRepo repository.MailboxRepository
	guard       *routing.WriteTimeGuard
}

// NewMailboxHandler creates a new MailboxHandler
func NewMailboxHandler(mailboxRepo repository.MailboxRepository, guard *routing.WriteTimeGuard) *MailboxHandler {
	return &MailboxHandler{
		mailboxRepo: mailboxRepo,
		guard:       guard,
	}
}

// CreateMailboxRequest represents the request body for creating a mailbox
type CreateMailboxRequest struct {
	Username string `json:"username" validate:"required"`
	UserID   *uint  `json:"user_id,omitempty"`
}

// UpdateForwardingRequest represents the request body for configuring
// mailbox forwarding
type UpdateForwardingRequest struct {
	Enabled   bool   `json:"enabled"`
	ForwardTo string `json:"forward_to"`
}

// Create handles POST /api/mailboxes
func (h *MailboxHandler) Create(c echo.Context) error {
	var req CreateMailboxRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	if req.Username == "" {
		return api.BadRequest(c, "username is required")
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		return api.BadRequest(c, err.Error())
	}

	mailbox := &models.Mailbox{
		Username: req.Username,
		UserID:   req.UserID,
	}

	if err := h.mailboxRepo.Create(c.Request().Context(), mailbox); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return api.Conflict(c, "mailbox already exists")
		}
		return api.InternalError(c, "failed to create mailbox")
	}

	return api.Created(c, mailbox)
}

// CreateRandom handles POST /api/mailboxes/random
func (h *MailboxHandler) CreateRandom(c echo.Context) error {
	// Generate random 8-character alphanumeric username
	username := generateRandomString(8)

	mailbox := &models.Mailbox{Username: username}

	if err := h.mailboxRepo.Create(c.Request().Context(), mailbox); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Extremely rare collision, try again
			mailbox.Username = generateRandomString(8)
			if err := h.mailboxRepo.Create(c.Request().Context(), mailbox); err != nil {
				return api.InternalError(c, "failed to create mailbox")
			}
		} else {
			return api.InternalError(c, "failed to create mailbox")
		}
	}

	return api.Created(c, mailbox)
}

// List handles GET /api/mailboxes
func (h *MailboxHandler) List(c echo.Context) error {
	limit := 20
	offset := 0

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	mailboxes, total, err := h.mailboxRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return api.InternalError(c, "failed to list mailboxes")
	}

	return api.Paginated(c, mailboxes, total, limit, offset)
}

// Get handles GET /api/mailboxes/:id
func (h *MailboxHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid mailbox ID")
	}

	mailbox, err := h.mailboxRepo.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "mailbox not found")
		}
		return api.InternalError(c, "failed to get mailbox")
	}

	// Update last accessed timestamp
	_ = h.mailboxRepo.UpdateLastAccessed(c.Request().Context(), uint(id))

	return api.Success(c, mailbox)
}

// UpdateForwarding handles PUT /api/mailboxes/:id/forwarding. The proposed
// target is validated with a dry-run resolution walk before anything is
// persisted, so a configuration that would cycle back to this mailbox is
// refused with 422.
func (h *MailboxHandler) UpdateForwarding(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid mailbox ID")
	}

	var req UpdateForwardingRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	if req.Enabled && req.ForwardTo == "" {
		return api.BadRequest(c, "forward_to is required when forwarding is enabled")
	}

	mailbox, err := h.mailboxRepo.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "mailbox not found")
		}
		return api.InternalError(c, "failed to get mailbox")
	}

	var forwardTo *string
	if req.Enabled {
		if err := h.guard.ValidateMailboxForward(c.Request().Context(), mailbox.Username, req.ForwardTo); err != nil {
			return api.Error(c, err)
		}
		forwardTo = &req.ForwardTo
	}

	if err := h.mailboxRepo.UpdateForwarding(c.Request().Context(), uint(id), req.Enabled, forwardTo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "mailbox not found")
		}
		return api.InternalError(c, "failed to update forwarding")
	}

	mailbox.ForwardEnabled = req.Enabled
	mailbox.ForwardTo = forwardTo
	return api.SuccessWithMessage(c, mailbox, "forwarding updated")
}

// Delete handles DELETE /api/mailboxes/:id
func (h *MailboxHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid mailbox ID")
	}

	if err := h.mailboxRepo.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "mailbox not found")
		}
		return api.InternalError(c, "failed to delete mailbox")
	}

	return api.NoContent(c)
}

// generateRandomString generates a random alphanumeric string of given length
func generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}
