package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elektrine/mailroute/internal/models"
	"gorm.io/gorm"
)

// MailboxRepository defines the interface for mailbox data access. A mailbox
// is keyed by username; LookupByAddress matches the local part of the given
// address against usernames, so the same mailbox is found under any domain.
type MailboxRepository interface {
	Create(ctx context.Context, mailbox *models.Mailbox) error
	GetByID(ctx context.Context, id uint) (*models.Mailbox, error)
	LookupByAddress(ctx context.Context, addr string) (*models.Mailbox, error)
	LookupByUsername(ctx context.Context, username string) (*models.Mailbox, error)
	LookupByUserID(ctx context.Context, userID uint) (*models.Mailbox, error)
	GetOrCreate(ctx context.Context, username string) (*models.Mailbox, bool, error)
	List(ctx context.Context, limit, offset int) ([]models.MailboxWithUnreadCount, int64, error)
	UpdateForwarding(ctx context.Context, id uint, enabled bool, forwardTo *string) error
	UpdateLastAccessed(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// mailboxRepository implements MailboxRepository using GORM
type mailboxRepository struct {
	db *gorm.DB
}

// NewMailboxRepository creates a new MailboxRepository instance
func NewMailboxRepository(db *gorm.DB) MailboxRepository {
	return &mailboxRepository{db: db}
}

// Create creates a new mailbox. The username is stored lowercase.
func (r *mailboxRepository) Create(ctx context.Context, mailbox *models.Mailbox) error {
	mailbox.Username = strings.ToLower(strings.TrimSpace(mailbox.Username))
	result := r.db.WithContext(ctx).Create(mailbox)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("mailbox '%s' already exists: %w", mailbox.Username, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create mailbox: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a mailbox by its ID
func (r *mailboxRepository) GetByID(ctx context.Context, id uint) (*models.Mailbox, error) {
	var mailbox models.Mailbox
	result := r.db.WithContext(ctx).First(&mailbox, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mailbox by ID: %w", result.Error)
	}
	return &mailbox, nil
}

// LookupByAddress retrieves a mailbox by an address in "local@domain" form.
// The domain is ignored for matching: the local part is the username under
// whichever supported domain the caller saw. Domain membership is the
// caller's concern.
func (r *mailboxRepository) LookupByAddress(ctx context.Context, addr string) (*models.Mailbox, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	local := addr
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		local = addr[:i]
	}
	return r.LookupByUsername(ctx, local)
}

// LookupByUsername retrieves a mailbox by its username, case-insensitively
func (r *mailboxRepository) LookupByUsername(ctx context.Context, username string) (*models.Mailbox, error) {
	var mailbox models.Mailbox
	username = strings.ToLower(strings.TrimSpace(username))
	result := r.db.WithContext(ctx).Where("username = ?", username).First(&mailbox)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up mailbox by username: %w", result.Error)
	}
	return &mailbox, nil
}

// LookupByUserID retrieves the mailbox owned by the given user
func (r *mailboxRepository) LookupByUserID(ctx context.Context, userID uint) (*models.Mailbox, error) {
	var mailbox models.Mailbox
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&mailbox)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up mailbox by user ID: %w", result.Error)
	}
	return &mailbox, nil
}

// GetOrCreate retrieves a mailbox by username or creates an orphaned one if
// it doesn't exist. Returns the mailbox, a boolean indicating if it was
// created, and any error.
func (r *mailboxRepository) GetOrCreate(ctx context.Context, username string) (*models.Mailbox, bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	// Try to find existing mailbox
	mailbox, err := r.LookupByUsername(ctx, username)
	if err == nil {
		return mailbox, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// Create new mailbox
	mailbox = &models.Mailbox{Username: username}

	if err := r.Create(ctx, mailbox); err != nil {
		// Handle race condition - another request might have created it
		if errors.Is(err, ErrDuplicateEntry) {
			mailbox, err = r.LookupByUsername(ctx, username)
			if err != nil {
				return nil, false, err
			}
			return mailbox, false, nil
		}
		return nil, false, err
	}

	return mailbox, true, nil
}

// List retrieves all mailboxes with pagination and unread count
func (r *mailboxRepository) List(ctx context.Context, limit, offset int) ([]models.MailboxWithUnreadCount, int64, error) {
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Mailbox{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count mailboxes: %w", err)
	}

	var results []models.MailboxWithUnreadCount

	query := `
		SELECT
			m.*,
			COALESCE((SELECT COUNT(*) FROM messages msg WHERE msg.mailbox_id = m.id AND msg.is_read = false), 0) as unread_count
		FROM mailboxes m
		ORDER BY m.created_at DESC
		LIMIT ? OFFSET ?
	`

	if err := r.db.WithContext(ctx).Raw(query, limit, offset).Scan(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	return results, total, nil
}

// UpdateForwarding updates a mailbox's forwarding configuration. Callers
// must run write-time validation first; this method only persists.
func (r *mailboxRepository) UpdateForwarding(ctx context.Context, id uint, enabled bool, forwardTo *string) error {
	updates := map[string]interface{}{
		"forward_enabled": enabled,
		"forward_to":      forwardTo,
	}
	result := r.db.WithContext(ctx).Model(&models.Mailbox{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update forwarding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastAccessed updates the last_accessed_at timestamp for a mailbox
func (r *mailboxRepository) UpdateLastAccessed(ctx context.Context, id uint) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Mailbox{}).Where("id = ?", id).Update("last_accessed_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to update last accessed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a mailbox by its ID (cascade deletes messages and attachments)
func (r *mailboxRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Mailbox{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete mailbox: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
