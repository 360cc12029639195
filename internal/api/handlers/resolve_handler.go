package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/elektrine/mailroute/internal/api"
	"github.com/elektrine/mailroute/internal/routing"
)

// ResolveHandler exposes the resolution engine for inspection. Operators use
// it to answer "where would mail to this address go" without sending
// anything; the walk is read-only.
type ResolveHandler struct {
	engine *routing.Engine
}

// NewResolveHandler creates a new ResolveHandler
func NewResolveHandler(engine *routing.Engine) *ResolveHandler {
	return &ResolveHandler{engine: engine}
}

// ResolveResponse describes the terminal outcome of a resolution walk
type ResolveResponse struct {
	Address   string `json:"address"`
	Outcome   string `json:"outcome"`
	MailboxID uint   `json:"mailbox_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Target    string `json:"target,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Resolve handles GET /api/resolve?address=...
func (h *ResolveHandler) Resolve(c echo.Context) error {
	addr := c.QueryParam("address")
	if addr == "" {
		return api.BadRequest(c, "address is required")
	}

	decision := h.engine.Resolve(c.Request().Context(), addr)

	resp := ResolveResponse{Address: addr}
	switch decision.Kind {
	case routing.DecisionLocal:
		resp.Outcome = "local"
		resp.MailboxID = decision.Mailbox.ID
		resp.Username = decision.Mailbox.Username
	case routing.DecisionForward:
		resp.Outcome = "forward"
		resp.Target = decision.Target.String()
	case routing.DecisionRejected:
		resp.Outcome = "rejected"
		resp.Reason = string(decision.Reason)
	case routing.DecisionNotFound:
		resp.Outcome = "not_found"
	}

	return api.Success(c, resp)
}
