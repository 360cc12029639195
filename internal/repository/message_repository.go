package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/elektrine/mailroute/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListByMailbox(ctx context.Context, mailboxID uint, limit, offset int) ([]models.MessageListItem, int64, error)
	MarkAsRead(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	CountUnread(ctx context.Context, mailboxID uint) (int64, error)
	ClearForwardedFrom(ctx context.Context, aliasEmail string) error
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// CreateWithAttachments stores a message and its attachment rows in one
// transaction so a failed attachment insert never leaves a partial message.
func (r *messageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		for i := range attachments {
			attachments[i].MessageID = message.ID
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return fmt.Errorf("failed to create attachment: %w", err)
			}
		}

		return nil
	})
}

// GetByID loads a message with its attachments preloaded.
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Preload("Attachments").First(&message, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}
	return &message, nil
}

// ListByMailbox pages through a mailbox newest-first. Each item carries its
// attachment count so list views never load attachment rows.
func (r *messageRepository) ListByMailbox(ctx context.Context, mailboxID uint, limit, offset int) ([]models.MessageListItem, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("mailbox_id = ?", mailboxID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `
		SELECT
			m.id,
			m.mailbox_id,
			m.sender_email,
			m.sender_name,
			m.recipient_email,
			m.subject,
			m.snippet,
			m.status,
			m.is_read,
			m.received_at,
			COALESCE((SELECT COUNT(*) FROM attachments a WHERE a.message_id = m.id), 0) as attachment_count
		FROM messages m
		WHERE m.mailbox_id = ?
		ORDER BY m.received_at DESC
		LIMIT ? OFFSET ?
	`

	var results []models.MessageListItem
	if err := r.db.WithContext(ctx).Raw(query, mailboxID, limit, offset).Scan(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return results, total, nil
}

func (r *messageRepository) MarkAsRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark message as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a message; attachment rows go with it via the FK cascade.
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *messageRepository) CountUnread(ctx context.Context, mailboxID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("mailbox_id = ? AND is_read = ?", mailboxID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// ClearForwardedFrom nulls the forwarded-from back-reference on messages
// that came through the given alias. Called when the alias is deleted so
// message history never holds an ownership edge to a dead alias.
func (r *messageRepository) ClearForwardedFrom(ctx context.Context, aliasEmail string) error {
	aliasEmail = strings.ToLower(strings.TrimSpace(aliasEmail))
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("forwarded_from = ?", aliasEmail).
		Update("forwarded_from", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to clear forwarded-from references: %w", result.Error)
	}
	return nil
}
