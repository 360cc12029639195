package models

import (
	"time"
)

// Mailbox represents a user's message store. A mailbox is addressable under
// every supported domain via the same username: alice@elektrine.com and
// alice@z.org denote the same mailbox. Username is unique and stored
// lowercase.
type Mailbox struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	UserID         *uint      `gorm:"index" json:"user_id,omitempty"`
	ForwardEnabled bool       `gorm:"default:false" json:"forward_enabled"`
	ForwardTo      *string    `gorm:"size:255" json:"forward_to,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	// Relationships
	Messages []Message `gorm:"foreignKey:MailboxID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Mailbox
func (Mailbox) TableName() string {
	return "mailboxes"
}

// ForwardingActive reports whether the mailbox has an enabled, non-empty
// forwarding target.
func (m *Mailbox) ForwardingActive() bool {
	return m.ForwardEnabled && m.ForwardTo != nil && *m.ForwardTo != ""
}

// OwnedBy reports whether the mailbox belongs to the given user. Orphaned
// mailboxes (nil UserID) belong to nobody.
func (m *Mailbox) OwnedBy(userID uint) bool {
	return m.UserID != nil && *m.UserID == userID
}

// MailboxWithUnreadCount is used for API responses that include unread count
type MailboxWithUnreadCount struct {
	Mailbox
	UnreadCount int64 `json:"unread_count"`
}
