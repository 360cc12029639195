package models

import (
	"time"
)

// Message status values
const (
	StatusReceived = "received"
	StatusSent     = "sent"
	// StatusSelf marks a self-addressed message stored once as a combined
	// sent+received record instead of two separate rows.
	StatusSelf = "self"
)

// Message represents an email message stored in a mailbox. RecipientEmail
// preserves the address the message was originally addressed to, before any
// alias or forwarding resolution, for display and bookkeeping.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MailboxID      uint      `gorm:"not null;index" json:"mailbox_id"`
	SenderEmail    string    `gorm:"not null;size:255" json:"sender_email"`
	SenderName     string    `gorm:"size:255" json:"sender_name,omitempty"`
	RecipientEmail string    `gorm:"size:255" json:"recipient_email,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	Snippet        string    `gorm:"size:255" json:"snippet,omitempty"`
	BodyText       string    `json:"body_text,omitempty"`
	BodyHTML       string    `json:"body_html,omitempty"`
	Status         string    `gorm:"size:16;default:received" json:"status"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	ReceivedAt     time.Time `gorm:"autoCreateTime" json:"received_at"`

	// ForwardedFrom is a back-reference to the alias a forwarded copy came
	// through. It is informational only: deleting the alias leaves the
	// message intact with a dangling reference set to null.
	ForwardedFrom *string `gorm:"size:255" json:"forwarded_from,omitempty"`

	// Relationships
	Mailbox     Mailbox      `gorm:"foreignKey:MailboxID;constraint:OnDelete:CASCADE" json:"-"`
	Attachments []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageListItem is a lightweight version for list views
type MessageListItem struct {
	ID              uint      `json:"id"`
	MailboxID       uint      `json:"mailbox_id"`
	SenderEmail     string    `json:"sender_email"`
	SenderName      string    `json:"sender_name,omitempty"`
	RecipientEmail  string    `json:"recipient_email,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	Snippet         string    `json:"snippet,omitempty"`
	Status          string    `json:"status"`
	IsRead          bool      `json:"is_read"`
	ReceivedAt      time.Time `json:"received_at"`
	AttachmentCount int       `json:"attachment_count"`
}
