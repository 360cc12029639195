package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/emersion/go-smtp"

	"github.com/elektrine/mailroute/internal/routing"
)

// Session implements the go-smtp Session interface
type Session struct {
	backend    *Backend
	from       string
	recipients []string
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{
		backend:    backend,
		recipients: make([]string, 0),
	}
}

// AuthPlain handles PLAIN authentication (not required for receiving)
func (s *Session) AuthPlain(username, password string) error {
	// No authentication required for receiving emails
	return nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	if s.backend.logger != nil {
		s.backend.logger.Debug("MAIL FROM", slog.String("from", from))
	}
	return nil
}

// Rcpt handles the RCPT TO command. The recipient is resolved through the
// routing engine so undeliverable addresses are refused before DATA.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	ctx := context.Background()

	decision := s.backend.engine.Resolve(ctx, to)
	switch decision.Kind {
	case routing.DecisionRejected:
		if smtpErr := rejectToSMTPError(decision.Reason); smtpErr != nil {
			return smtpErr
		}
	case routing.DecisionNotFound:
		if !s.backend.autoProvision {
			return &smtp.SMTPError{
				Code:         550,
				EnhancedCode: smtp.EnhancedCode{5, 1, 1},
				Message:      "Mailbox not found",
			}
		}
	}

	s.recipients = append(s.recipients, to)
	if s.backend.logger != nil {
		s.backend.logger.Debug("RCPT TO", slog.String("to", to))
	}
	return nil
}

// rejectToSMTPError maps a rejection reason to the SMTP reply sent to the
// peer. A nil return means the recipient is accepted anyway.
func rejectToSMTPError(reason routing.RejectReason) *smtp.SMTPError {
	switch reason {
	case routing.ReasonInvalidAddress:
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 3},
			Message:      "Invalid recipient address",
		}
	case routing.ReasonUnsupportedDomain:
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Domain not served here",
		}
	case routing.ReasonLoopDetected, routing.ReasonMaxDepthExceeded:
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 4, 6},
			Message:      "Routing loop detected",
		}
	case routing.ReasonAliasOwnerNoMailbox:
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Mailbox not found",
		}
	case routing.ReasonDirectoryUnavailable:
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary error",
		}
	default:
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Delivery refused",
		}
	}
}

// Data handles the DATA command - receives the email content
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	// Buffer the raw message; forwarded copies relay it unmodified.
	raw, err := io.ReadAll(r)
	if err != nil {
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Failed to read message",
		}
	}

	parsedEmail, err := ParseEmail(bytes.NewReader(raw))
	if err != nil {
		if s.backend.logger != nil {
			s.backend.logger.Error("failed to parse email", slog.Any("error", err))
		}
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Failed to parse email",
		}
	}

	// Override sender from envelope if not in headers
	if parsedEmail.SenderEmail == "" {
		parsedEmail.SenderEmail = s.from
	}

	ctx := context.Background()

	for _, recipient := range s.recipients {
		outcome, err := s.backend.DeliverInbound(ctx, s.from, recipient, parsedEmail, raw)
		if err == nil {
			continue
		}
		// A bounce for a loop or depth rejection would itself circulate
		// through the loop, so those are dropped without error. Everything
		// else is logged and the remaining recipients still get their copy.
		if outcome == OutcomeRejected &&
			(errors.Is(err, routing.ErrLoopDetected) || errors.Is(err, routing.ErrMaxDepthExceeded)) {
			continue
		}
		if s.backend.logger != nil {
			s.backend.logger.Error("failed to process email",
				slog.String("recipient", recipient),
				slog.Any("error", err))
		}
	}

	if s.backend.logger != nil {
		s.backend.logger.Info("email received",
			slog.String("from", s.from),
			slog.Int("recipients", len(s.recipients)),
			slog.String("subject", parsedEmail.Subject))
	}

	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = make([]string, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}
