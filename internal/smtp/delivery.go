package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elektrine/mailroute/internal/address"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/routing"
	"github.com/elektrine/mailroute/internal/websocket"
)

// DeliveryOutcome reports what DeliverInbound did with one recipient.
type DeliveryOutcome string

const (
	// OutcomeStored means the message was persisted into a local mailbox.
	OutcomeStored DeliveryOutcome = "stored"
	// OutcomeForwarded means the raw message was handed to the forwarder.
	OutcomeForwarded DeliveryOutcome = "forwarded"
	// OutcomeDropped means no route matched and auto-provisioning is off.
	OutcomeDropped DeliveryOutcome = "dropped"
	// OutcomeRejected means the routing engine refused the recipient. The
	// returned error carries the rejection reason.
	OutcomeRejected DeliveryOutcome = "rejected"
)

// DeliverInbound routes one envelope recipient and carries out the decision:
// store locally, hand off to the forwarder, auto-provision, or reject. Both
// the SMTP session and the inbound webhook deliver through here so the two
// front doors cannot diverge.
func (b *Backend) DeliverInbound(ctx context.Context, from, recipient string, email *ParsedEmail, raw []byte) (DeliveryOutcome, error) {
	decision := b.inbound.Resolve(ctx, email.To, recipient)

	switch decision.Kind {
	case routing.DecisionLocal:
		if err := b.deliverLocal(ctx, decision.Mailbox, recipient, email); err != nil {
			return OutcomeRejected, err
		}
		return OutcomeStored, nil

	case routing.DecisionForward:
		if b.forwarder == nil {
			return OutcomeRejected, fmt.Errorf("no forward handler configured for %s", decision.Target)
		}
		if err := b.forwarder.ForwardExternal(ctx, from, decision.Target, decision.Original, raw); err != nil {
			return OutcomeRejected, err
		}
		return OutcomeForwarded, nil

	case routing.DecisionNotFound:
		if !b.autoProvision {
			if b.logger != nil {
				b.logger.Info("dropping mail for unknown recipient", slog.String("recipient", recipient))
			}
			return OutcomeDropped, nil
		}
		if err := b.deliverAutoProvisioned(ctx, recipient, email); err != nil {
			return OutcomeRejected, err
		}
		return OutcomeStored, nil

	default:
		b.recordRejection(from, recipient, decision.Reason)
		return OutcomeRejected, decision.Err()
	}
}

// recordRejection emits security events for rejections worth flagging.
func (b *Backend) recordRejection(from, recipient string, reason routing.RejectReason) {
	if b.events == nil {
		return
	}
	switch reason {
	case routing.ReasonLoopDetected:
		b.events.LoopDetected(recipient, from)
	case routing.ReasonMaxDepthExceeded:
		b.events.MaxDepthExceeded(recipient, from)
	}
}

// deliverLocal persists the message into the resolved mailbox after the
// route check passes.
func (b *Backend) deliverLocal(ctx context.Context, mailbox *models.Mailbox, recipient string, email *ParsedEmail) error {
	if err := b.inbound.ValidateRoute(ctx, email.To, recipient, mailbox); err != nil {
		if b.events != nil {
			b.events.RouteMismatch(email.To, recipient, mailbox.Username)
		}
		return fmt.Errorf("route validation failed for %s: %w", recipient, err)
	}
	return b.storeMessage(ctx, mailbox, recipient, email)
}

// deliverAutoProvisioned creates the mailbox on first delivery and stores
// the message. Plus tags never create distinct mailboxes.
func (b *Backend) deliverAutoProvisioned(ctx context.Context, recipient string, email *ParsedEmail) error {
	addr, err := address.Canonicalize(recipient)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}

	mailbox, created, err := b.mailboxRepo.GetOrCreate(ctx, addr.Base().Local)
	if err != nil {
		return fmt.Errorf("failed to get/create mailbox: %w", err)
	}
	if created && b.logger != nil {
		b.logger.Info("auto-provisioned mailbox", slog.String("username", mailbox.Username))
	}

	return b.storeMessage(ctx, mailbox, recipient, email)
}

// storeMessage writes the message and its attachments, then notifies
// subscribers.
func (b *Backend) storeMessage(ctx context.Context, mailbox *models.Mailbox, recipient string, email *ParsedEmail) error {
	recipientEmail := recipient
	var forwardedFrom *string
	if addr, err := address.Canonicalize(recipient); err == nil {
		recipientEmail = addr.String()
		// A recipient that is not one of the mailbox's own addresses reached
		// it through an alias; keep the back-reference.
		if via := b.aliasBackReference(addr, mailbox); via != "" {
			forwardedFrom = &via
		}
	}

	message := &models.Message{
		MailboxID:      mailbox.ID,
		SenderEmail:    email.SenderEmail,
		SenderName:     email.SenderName,
		RecipientEmail: recipientEmail,
		Subject:        email.Subject,
		Snippet:        email.Snippet,
		BodyText:       email.BodyText,
		BodyHTML:       email.BodyHTML,
		Status:         models.StatusReceived,
		IsRead:         false,
		ForwardedFrom:  forwardedFrom,
	}

	var attachments []models.Attachment
	for _, att := range email.Attachments {
		filePath, size, err := b.fileStorage.Save(att.Filename, att.Content)
		if err != nil {
			if b.logger != nil {
				b.logger.Error("failed to save attachment",
					slog.String("filename", att.Filename),
					slog.Any("error", err))
			}
			continue
		}

		attachments = append(attachments, models.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			FilePath:    filePath,
			SizeBytes:   size,
		})
	}

	if err := b.messageRepo.CreateWithAttachments(ctx, message, attachments); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	if b.wsHub != nil {
		payload := &websocket.NewMessagePayload{
			ID:             message.ID,
			SenderEmail:    message.SenderEmail,
			SenderName:     message.SenderName,
			RecipientEmail: message.RecipientEmail,
			Subject:        message.Subject,
			Status:         message.Status,
			ReceivedAt:     message.ReceivedAt.Format(time.RFC3339),
		}
		if forwardedFrom != nil {
			payload.ForwardedFrom = *forwardedFrom
		}
		b.wsHub.BroadcastNewMessage(mailbox.ID, payload)
	}

	return nil
}

// aliasBackReference returns the base address the delivery came through when
// it is not one of the mailbox's own domain variants, or "" otherwise.
func (b *Backend) aliasBackReference(addr address.Address, mailbox *models.Mailbox) string {
	domains := b.engine.Domains()
	for _, own := range domains.Variants(mailbox.Username) {
		if domains.Equivalent(addr, own) {
			return ""
		}
	}
	return addr.Base().String()
}
