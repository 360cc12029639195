package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/elektrine/mailroute/internal/models"
)

// MockAliasRepository implements repository.AliasRepository
type MockAliasRepository struct {
	mock.Mock
}

// Create creates a new alias
func (m *MockAliasRepository) Create(ctx context.Context, alias *models.Alias) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

// GetByID retrieves an alias by its ID
func (m *MockAliasRepository) GetByID(ctx context.Context, id uint) (*models.Alias, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alias), args.Error(1)
}

// LookupByAddress retrieves an alias by its address
func (m *MockAliasRepository) LookupByAddress(ctx context.Context, addr string) (*models.Alias, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alias), args.Error(1)
}

// ListByUser retrieves aliases owned by a user with pagination
func (m *MockAliasRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Alias, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Alias), args.Get(1).(int64), args.Error(2)
}

// Update updates an existing alias
func (m *MockAliasRepository) Update(ctx context.Context, alias *models.Alias) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

// Delete deletes an alias by its ID
func (m *MockAliasRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMailboxRepository implements repository.MailboxRepository
type MockMailboxRepository struct {
	mock.Mock
}

// Create creates a new mailbox
func (m *MockMailboxRepository) Create(ctx context.Context, mailbox *models.Mailbox) error {
	args := m.Called(ctx, mailbox)
	return args.Error(0)
}

// GetByID retrieves a mailbox by its ID
func (m *MockMailboxRepository) GetByID(ctx context.Context, id uint) (*models.Mailbox, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// LookupByAddress retrieves a mailbox by an address
func (m *MockMailboxRepository) LookupByAddress(ctx context.Context, addr string) (*models.Mailbox, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// LookupByUsername retrieves a mailbox by its username
func (m *MockMailboxRepository) LookupByUsername(ctx context.Context, username string) (*models.Mailbox, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// LookupByUserID retrieves the mailbox owned by a user
func (m *MockMailboxRepository) LookupByUserID(ctx context.Context, userID uint) (*models.Mailbox, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// GetOrCreate retrieves or creates a mailbox by username
func (m *MockMailboxRepository) GetOrCreate(ctx context.Context, username string) (*models.Mailbox, bool, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Mailbox), args.Bool(1), args.Error(2)
}

// List retrieves all mailboxes with pagination
func (m *MockMailboxRepository) List(ctx context.Context, limit, offset int) ([]models.MailboxWithUnreadCount, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MailboxWithUnreadCount), args.Get(1).(int64), args.Error(2)
}

// UpdateForwarding updates a mailbox's forwarding configuration
func (m *MockMailboxRepository) UpdateForwarding(ctx context.Context, id uint, enabled bool, forwardTo *string) error {
	args := m.Called(ctx, id, enabled, forwardTo)
	return args.Error(0)
}

// UpdateLastAccessed updates the last_accessed_at timestamp
func (m *MockMailboxRepository) UpdateLastAccessed(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Delete deletes a mailbox by its ID
func (m *MockMailboxRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// CreateWithAttachments creates a message and its attachments atomically
func (m *MockMessageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	args := m.Called(ctx, message, attachments)
	return args.Error(0)
}

// GetByID retrieves a message by its ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListByMailbox retrieves messages for a mailbox with pagination
func (m *MockMessageRepository) ListByMailbox(ctx context.Context, mailboxID uint, limit, offset int) ([]models.MessageListItem, int64, error) {
	args := m.Called(ctx, mailboxID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MessageListItem), args.Get(1).(int64), args.Error(2)
}

// MarkAsRead marks a message as read
func (m *MockMessageRepository) MarkAsRead(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Delete deletes a message by its ID
func (m *MockMessageRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CountUnread counts unread messages in a mailbox
func (m *MockMessageRepository) CountUnread(ctx context.Context, mailboxID uint) (int64, error) {
	args := m.Called(ctx, mailboxID)
	return args.Get(0).(int64), args.Error(1)
}

// ClearForwardedFrom clears the alias back-reference on message history
func (m *MockMessageRepository) ClearForwardedFrom(ctx context.Context, aliasEmail string) error {
	args := m.Called(ctx, aliasEmail)
	return args.Error(0)
}

// MockAttachmentRepository implements repository.AttachmentRepository
type MockAttachmentRepository struct {
	mock.Mock
}

// Create creates a new attachment
func (m *MockAttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

// GetByID retrieves an attachment by its ID
func (m *MockAttachmentRepository) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

// ListByMessage retrieves attachments for a message
func (m *MockAttachmentRepository) ListByMessage(ctx context.Context, messageID uint) ([]models.Attachment, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attachment), args.Error(1)
}

// Delete deletes an attachment by its ID
func (m *MockAttachmentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
