package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/elektrine/mailroute/internal/api"
	"github.com/elektrine/mailroute/internal/smtp"
)

// WebhookHandler accepts inbound messages over HTTP, for deployments where
// an upstream provider terminates SMTP and posts each message as JSON. It
// delivers through the same path as the SMTP front door.
type WebhookHandler struct {
	backend *smtp.Backend
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(backend *smtp.Backend) *WebhookHandler {
	return &WebhookHandler{backend: backend}
}

// InboundWebhookRequest is the provider payload. RcptTo is the envelope
// recipient; To optionally overrides the raw message's To header for
// routing. Raw is the full RFC 5322 message.
type InboundWebhookRequest struct {
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	RcptTo string `json:"rcpt_to"`
	Raw    string `json:"raw"`
}

// InboundWebhookResponse reports what happened to the message.
type InboundWebhookResponse struct {
	Outcome string `json:"outcome"`
}

// Inbound handles POST /api/inbound
func (h *WebhookHandler) Inbound(c echo.Context) error {
	var req InboundWebhookRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	if strings.TrimSpace(req.RcptTo) == "" {
		return api.BadRequest(c, "rcpt_to is required")
	}
	if req.Raw == "" {
		return api.BadRequest(c, "raw message is required")
	}

	parsed, err := smtp.ParseEmail(strings.NewReader(req.Raw))
	if err != nil {
		return api.BadRequest(c, "failed to parse raw message")
	}
	if req.To != "" {
		parsed.To = req.To
	}
	if parsed.SenderEmail == "" {
		parsed.SenderEmail = req.From
	}

	outcome, err := h.backend.DeliverInbound(c.Request().Context(), req.From, req.RcptTo, parsed, []byte(req.Raw))
	if err != nil {
		if outcome == smtp.OutcomeRejected {
			return api.Error(c, err)
		}
		return api.InternalError(c, "delivery failed")
	}

	return api.Success(c, InboundWebhookResponse{Outcome: string(outcome)})
}
