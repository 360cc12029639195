package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/elektrine/mailroute/internal/api"
	apperrors "github.com/elektrine/mailroute/internal/errors"
	"github.com/elektrine/mailroute/internal/sender"
)

// SendHandler handles outbound message submission
type SendHandler struct {
	pipeline *sender.Pipeline
}

// NewSendHandler creates a new SendHandler
func NewSendHandler(pipeline *sender.Pipeline) *SendHandler {
	return &SendHandler{pipeline: pipeline}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	From     string   `json:"from" validate:"required"`
	To       []string `json:"to" validate:"required"`
	Cc       []string `json:"cc"`
	Bcc      []string `json:"bcc"`
	Subject  string   `json:"subject"`
	BodyText string   `json:"body_text"`
	BodyHTML string   `json:"body_html"`
}

// Send handles POST /api/messages/send
func (h *SendHandler) Send(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	if req.From == "" {
		return api.BadRequest(c, "from is required")
	}
	if len(req.To)+len(req.Cc)+len(req.Bcc) == 0 {
		return api.BadRequest(c, "at least one recipient is required")
	}

	result, err := h.pipeline.Send(c.Request().Context(), &sender.SendRequest{
		From:     req.From,
		To:       req.To,
		Cc:       req.Cc,
		Bcc:      req.Bcc,
		Subject:  req.Subject,
		BodyText: req.BodyText,
		BodyHTML: req.BodyHTML,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) || errors.Is(err, apperrors.ErrInvalidAddress) {
			return api.BadRequest(c, err.Error())
		}
		return api.Error(c, err)
	}

	return api.SuccessWithMessage(c, result, "message sent")
}
