// Package sender implements the outbound send pipeline: classify the
// recipient set, apply the per-sender rate gate, store copies for local
// recipients, and relay the rest through the external transport.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elektrine/mailroute/internal/address"
	apperrors "github.com/elektrine/mailroute/internal/errors"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/repository"
	"github.com/elektrine/mailroute/internal/routing"
	"github.com/elektrine/mailroute/internal/websocket"
)

// SendRequest is one outbound message submitted by an authenticated user.
type SendRequest struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	BodyText string
	BodyHTML string
}

// SendResult summarizes what the pipeline did with a request.
type SendResult struct {
	Classification routing.Classification
	Self           bool
	StoredLocal    int
	RelayedTo      []string
	Skipped        []string
}

// Pipeline is the outbound send path.
type Pipeline struct {
	classifier *routing.OutboundRoutingClassifier
	domains    address.DomainSet
	mailboxes  repository.MailboxRepository
	messages   repository.MessageRepository
	transport  TransportClient
	gate       RateGate
	hub        websocket.Notifier
	logger     *slog.Logger
}

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Classifier *routing.OutboundRoutingClassifier
	Domains    address.DomainSet
	Mailboxes  repository.MailboxRepository
	Messages   repository.MessageRepository
	Transport  TransportClient
	Gate       RateGate
	Hub        websocket.Notifier
	Logger     *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg *PipelineConfig) *Pipeline {
	gate := cfg.Gate
	if gate == nil {
		gate = UnlimitedGate{}
	}
	return &Pipeline{
		classifier: cfg.Classifier,
		domains:    cfg.Domains,
		mailboxes:  cfg.Mailboxes,
		messages:   cfg.Messages,
		transport:  cfg.Transport,
		gate:       gate,
		hub:        cfg.Hub,
		logger:     cfg.Logger,
	}
}

// Send runs one message through the pipeline. The sender must resolve to a
// local mailbox. Bcc recipients receive their copies but are stripped from
// anything that leaves the system.
func (p *Pipeline) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	recipients := allRecipients(req)
	if len(recipients) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no recipients")
	}

	fromAddr, err := address.Canonicalize(req.From)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAddress, "sender")
	}

	senderDecision := p.classifier.ResolvePerRecipient(ctx, req.From)
	if senderDecision.Kind != routing.DecisionLocal {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAddress, "sender is not a local mailbox")
	}
	senderMailbox := senderDecision.Mailbox

	if !p.gate.Allow(fromAddr.Base().String()) {
		return nil, apperrors.ErrRateLimited
	}

	// A message addressed entirely to the sender's own identity is stored
	// once as a combined record instead of a sent copy plus received copies.
	if p.classifier.SelfEmailCheck(ctx, req.From, recipients) {
		if err := p.storeCopy(ctx, senderMailbox, req, fromAddr.String(), models.StatusSelf, nil); err != nil {
			return nil, err
		}
		return &SendResult{
			Classification: routing.ClassificationInternal,
			Self:           true,
			StoredLocal:    1,
		}, nil
	}

	result := &SendResult{
		Classification: p.classifier.Classify(ctx, recipients),
	}

	// Sent copy for the sender.
	if err := p.storeCopy(ctx, senderMailbox, req, strings.Join(req.To, ", "), models.StatusSent, nil); err != nil {
		return nil, err
	}
	result.StoredLocal++

	var external []string
	for _, recipient := range recipients {
		decision := p.classifier.ResolvePerRecipient(ctx, recipient)
		switch decision.Kind {
		case routing.DecisionLocal:
			if decision.Mailbox.ID == senderMailbox.ID {
				// The sender already has the sent copy.
				continue
			}
			if err := p.deliverLocal(ctx, decision.Mailbox, recipient, req); err != nil {
				return nil, err
			}
			result.StoredLocal++

		case routing.DecisionForward:
			external = append(external, decision.Target.String())

		case routing.DecisionRejected:
			if decision.Reason == routing.ReasonUnsupportedDomain {
				// Plain external recipient; the engine rejects top-level
				// unsupported domains, the transport is where they go.
				external = append(external, recipient)
				continue
			}
			p.logSkip(recipient, string(decision.Reason))
			result.Skipped = append(result.Skipped, recipient)

		case routing.DecisionNotFound:
			p.logSkip(recipient, "no such mailbox")
			result.Skipped = append(result.Skipped, recipient)
		}
	}

	if len(external) > 0 {
		raw := composeMIME(req)
		if err := p.transport.Send(ctx, fromAddr.String(), external, raw); err != nil {
			return nil, apperrors.Wrap(err, "external relay failed")
		}
		result.RelayedTo = external
	}

	return result, nil
}

// ForwardExternal relays an inbound message whose route terminated outside
// the system. The raw message is relayed unmodified; the envelope recipient
// becomes the resolved target.
func (p *Pipeline) ForwardExternal(ctx context.Context, from string, target, original address.Address, raw []byte) error {
	if err := p.transport.Send(ctx, from, []string{target.String()}, raw); err != nil {
		return fmt.Errorf("forward to %s (for %s) failed: %w", target, original, err)
	}
	if p.logger != nil {
		p.logger.Info("forwarded externally",
			slog.String("target", target.String()),
			slog.String("original_recipient", original.String()))
	}
	return nil
}

// deliverLocal stores a received copy in another local mailbox.
func (p *Pipeline) deliverLocal(ctx context.Context, mailbox *models.Mailbox, recipient string, req *SendRequest) error {
	recipientEmail := recipient
	var forwardedFrom *string
	if addr, err := address.Canonicalize(recipient); err == nil {
		recipientEmail = addr.String()
		if via := p.aliasBackReference(addr, mailbox); via != "" {
			forwardedFrom = &via
		}
	}
	return p.storeCopy(ctx, mailbox, req, recipientEmail, models.StatusReceived, forwardedFrom)
}

func (p *Pipeline) storeCopy(ctx context.Context, mailbox *models.Mailbox, req *SendRequest, recipientEmail, status string, forwardedFrom *string) error {
	message := &models.Message{
		MailboxID:      mailbox.ID,
		SenderEmail:    req.From,
		RecipientEmail: recipientEmail,
		Subject:        req.Subject,
		Snippet:        snippet(req.BodyText),
		BodyText:       req.BodyText,
		BodyHTML:       req.BodyHTML,
		Status:         status,
		IsRead:         status != models.StatusReceived,
		ForwardedFrom:  forwardedFrom,
	}
	if err := p.messages.Create(ctx, message); err != nil {
		return apperrors.Wrap(err, "failed to store message")
	}

	if p.hub != nil && status != models.StatusSent {
		p.hub.BroadcastNewMessage(mailbox.ID, &websocket.NewMessagePayload{
			ID:             message.ID,
			SenderEmail:    message.SenderEmail,
			RecipientEmail: message.RecipientEmail,
			Subject:        message.Subject,
			Status:         message.Status,
			ReceivedAt:     message.ReceivedAt.Format(time.RFC3339),
		})
	}
	return nil
}

func (p *Pipeline) aliasBackReference(addr address.Address, mailbox *models.Mailbox) string {
	for _, own := range p.domains.Variants(mailbox.Username) {
		if p.domains.Equivalent(addr, own) {
			return ""
		}
	}
	return addr.Base().String()
}

func (p *Pipeline) logSkip(recipient, reason string) {
	if p.logger != nil {
		p.logger.Warn("skipping undeliverable recipient",
			slog.String("recipient", recipient),
			slog.String("reason", reason))
	}
}

func allRecipients(req *SendRequest) []string {
	out := make([]string, 0, len(req.To)+len(req.Cc)+len(req.Bcc))
	out = append(out, req.To...)
	out = append(out, req.Cc...)
	out = append(out, req.Bcc...)
	return out
}

// composeMIME renders the outgoing wire message. Bcc recipients are never
// written into headers.
func composeMIME(req *SendRequest) []byte {
	var b strings.Builder

	b.WriteString("From: " + req.From + "\r\n")
	if len(req.To) > 0 {
		b.WriteString("To: " + strings.Join(req.To, ", ") + "\r\n")
	}
	if len(req.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(req.Cc, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + req.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case req.BodyHTML != "" && req.BodyText != "":
		boundary := "b-" + uuid.New().String()
		b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(req.BodyText + "\r\n")
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(req.BodyHTML + "\r\n")
		b.WriteString("--" + boundary + "--\r\n")
	case req.BodyHTML != "":
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(req.BodyHTML + "\r\n")
	default:
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(req.BodyText + "\r\n")
	}

	return []byte(b.String())
}

// snippet truncates body text for list views.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 255 {
		text = text[:252] + "..."
	}
	return text
}
