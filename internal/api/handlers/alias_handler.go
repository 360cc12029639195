package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/elektrine/mailroute/internal/api"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/repository"
	"github.com/elektrine/mailroute/internal/routing"
	"github.com/elektrine/mailroute/internal/validator"
)

// AliasHandler handles alias-related HTTP requests. Every write that sets a
// forwarding target runs the write-time guard first: the proposed target is
// resolved with a dry-run walk seeded with this alias, so a chain that would
// cycle back is refused before it is persisted.
type AliasHandler struct {
	aliasRepo   repository.AliasRepository
	messageRepo repository.MessageRepository
	guard       *routing.WriteTimeGuard
}

// NewAliasHandler creates a new AliasHandler
func NewAliasHandler(aliasRepo repository.AliasRepository, messageRepo repository.MessageRepository, guard *routing.WriteTimeGuard) *AliasHandler {
	return &AliasHandler{
		aliasRepo:   aliasRepo,
		messageRepo: messageRepo,
		guard:       guard,
	}
}

// CreateAliasRequest represents the request body for creating an alias
type CreateAliasRequest struct {
	AliasEmail  string `json:"alias_email" validate:"required"`
	TargetEmail string `json:"target_email"`
	UserID      uint   `json:"user_id" validate:"required"`
}

// UpdateAliasRequest represents the request body for updating an alias
type UpdateAliasRequest struct {
	TargetEmail *string `json:"target_email"`
	Enabled     *bool   `json:"enabled"`
}

// Create handles POST /api/aliases
func (h *AliasHandler) Create(c echo.Context) error {
	var req CreateAliasRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	if req.AliasEmail == "" {
		return api.BadRequest(c, "alias_email is required")
	}
	if req.UserID == 0 {
		return api.BadRequest(c, "user_id is required")
	}
	if err := validator.ValidateEmail(req.AliasEmail); err != nil {
		return api.BadRequest(c, err.Error())
	}

	if err := h.guard.ValidateAliasTarget(c.Request().Context(), req.AliasEmail, req.TargetEmail); err != nil {
		return api.Error(c, err)
	}

	alias := &models.Alias{
		AliasEmail: req.AliasEmail,
		Enabled:    true,
		UserID:     req.UserID,
	}
	if req.TargetEmail != "" {
		alias.TargetEmail = &req.TargetEmail
	}

	if err := h.aliasRepo.Create(c.Request().Context(), alias); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return api.Conflict(c, "alias already exists")
		}
		return api.InternalError(c, "failed to create alias")
	}

	return api.Created(c, alias)
}

// List handles GET /api/aliases
func (h *AliasHandler) List(c echo.Context) error {
	userIDStr := c.QueryParam("user_id")
	if userIDStr == "" {
		return api.BadRequest(c, "user_id is required")
	}

	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid user_id")
	}

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

	aliases, total, err := h.aliasRepo.ListByUser(c.Request().Context(), uint(userID), limit, offset)
	if err != nil {
		return api.InternalError(c, "failed to list aliases")
	}

	return api.Paginated(c, aliases, total, limit, offset)
}

// Get handles GET /api/aliases/:id
func (h *AliasHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid alias ID")
	}

	alias, err := h.aliasRepo.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "alias not found")
		}
		return api.InternalError(c, "failed to get alias")
	}

	return api.Success(c, alias)
}

// Update handles PUT /api/aliases/:id. Retargeting re-runs the write-time
// guard against the new target; toggling Enabled alone never needs it,
// because a disabled alias delivers to its owner's mailbox.
func (h *AliasHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid alias ID")
	}

	var req UpdateAliasRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	alias, err := h.aliasRepo.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "alias not found")
		}
		return api.InternalError(c, "failed to get alias")
	}

	if req.TargetEmail != nil {
		if err := h.guard.ValidateAliasTarget(c.Request().Context(), alias.AliasEmail, *req.TargetEmail); err != nil {
			return api.Error(c, err)
		}
		if *req.TargetEmail == "" {
			alias.TargetEmail = nil
		} else {
			alias.TargetEmail = req.TargetEmail
		}
	}
	if req.Enabled != nil {
		alias.Enabled = *req.Enabled
	}

	if err := h.aliasRepo.Update(c.Request().Context(), alias); err != nil {
		return api.InternalError(c, "failed to update alias")
	}

	return api.SuccessWithMessage(c, alias, "alias updated")
}

// Delete handles DELETE /api/aliases/:id. Messages that arrived through the
// alias keep their rows but lose the back-reference, so history stays
// readable without pointing at a dead alias.
func (h *AliasHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return api.BadRequest(c, "invalid alias ID")
	}

	alias, err := h.aliasRepo.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "alias not found")
		}
		return api.InternalError(c, "failed to get alias")
	}

	if err := h.aliasRepo.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "alias not found")
		}
		return api.InternalError(c, "failed to delete alias")
	}

	if err := h.messageRepo.ClearForwardedFrom(c.Request().Context(), alias.AliasEmail); err != nil {
		return api.InternalError(c, "failed to clear alias references")
	}

	return api.NoContent(c)
}
