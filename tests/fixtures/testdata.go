package fixtures

import (
	"time"

	"github.com/elektrine/mailroute/internal/models"
)

// MailboxBuilder creates test Mailbox instances with fluent API
type MailboxBuilder struct {
	mailbox models.Mailbox
}

// NewMailboxBuilder creates a new MailboxBuilder with sensible defaults
func NewMailboxBuilder() *MailboxBuilder {
	now := time.Now()
	return &MailboxBuilder{
		mailbox: models.Mailbox{
			ID:        1,
			Username:  "user",
			CreatedAt: now,
		},
	}
}

// WithID sets the mailbox ID
func (b *MailboxBuilder) WithID(id uint) *MailboxBuilder {
	b.mailbox.ID = id
	return b
}

// WithUsername sets the mailbox username
func (b *MailboxBuilder) WithUsername(username string) *MailboxBuilder {
	b.mailbox.Username = username
	return b
}

// WithUserID sets the owning user
func (b *MailboxBuilder) WithUserID(userID uint) *MailboxBuilder {
	b.mailbox.UserID = &userID
	return b
}

// WithForwarding sets the forwarding configuration
func (b *MailboxBuilder) WithForwarding(enabled bool, target string) *MailboxBuilder {
	b.mailbox.ForwardEnabled = enabled
	if target == "" {
		b.mailbox.ForwardTo = nil
	} else {
		b.mailbox.ForwardTo = &target
	}
	return b
}

// WithCreatedAt sets the created timestamp
func (b *MailboxBuilder) WithCreatedAt(t time.Time) *MailboxBuilder {
	b.mailbox.CreatedAt = t
	return b
}

// WithLastAccessedAt sets the last accessed timestamp
func (b *MailboxBuilder) WithLastAccessedAt(t *time.Time) *MailboxBuilder {
	b.mailbox.LastAccessedAt = t
	return b
}

// Build returns the constructed Mailbox
func (b *MailboxBuilder) Build() *models.Mailbox {
	return &b.mailbox
}

// BuildValue returns the constructed Mailbox as a value (not pointer)
func (b *MailboxBuilder) BuildValue() models.Mailbox {
	return b.mailbox
}

// AliasBuilder creates test Alias instances with fluent API
type AliasBuilder struct {
	alias models.Alias
}

// NewAliasBuilder creates a new AliasBuilder with sensible defaults
func NewAliasBuilder() *AliasBuilder {
	now := time.Now()
	return &AliasBuilder{
		alias: models.Alias{
			ID:         1,
			AliasEmail: "tips@z.org",
			Enabled:    true,
			UserID:     1,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// WithID sets the alias ID
func (b *AliasBuilder) WithID(id uint) *AliasBuilder {
	b.alias.ID = id
	return b
}

// WithAliasEmail sets the alias address
func (b *AliasBuilder) WithAliasEmail(email string) *AliasBuilder {
	b.alias.AliasEmail = email
	return b
}

// WithTarget sets the forwarding target
func (b *AliasBuilder) WithTarget(target string) *AliasBuilder {
	if target == "" {
		b.alias.TargetEmail = nil
	} else {
		b.alias.TargetEmail = &target
	}
	return b
}

// WithEnabled sets the enabled flag
func (b *AliasBuilder) WithEnabled(enabled bool) *AliasBuilder {
	b.alias.Enabled = enabled
	return b
}

// WithUserID sets the owning user
func (b *AliasBuilder) WithUserID(userID uint) *AliasBuilder {
	b.alias.UserID = userID
	return b
}

// Build returns the constructed Alias
func (b *AliasBuilder) Build() *models.Alias {
	return &b.alias
}

// BuildValue returns the constructed Alias as a value (not pointer)
func (b *AliasBuilder) BuildValue() models.Alias {
	return b.alias
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	now := time.Now()
	return &MessageBuilder{
		message: models.Message{
			ID:             1,
			MailboxID:      1,
			SenderEmail:    "sender@external.com",
			SenderName:     "Test Sender",
			RecipientEmail: "user@elektrine.com",
			Subject:        "Test Subject",
			Snippet:        "This is a test email...",
			BodyText:       "This is a test email body.",
			BodyHTML:       "<p>This is a test email body.</p>",
			Status:         models.StatusReceived,
			IsRead:         false,
			ReceivedAt:     now,
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithMailboxID sets the mailbox ID
func (b *MessageBuilder) WithMailboxID(mailboxID uint) *MessageBuilder {
	b.message.MailboxID = mailboxID
	return b
}

// WithSender sets the sender email and name
func (b *MessageBuilder) WithSender(email, name string) *MessageBuilder {
	b.message.SenderEmail = email
	b.message.SenderName = name
	return b
}

// WithRecipientEmail sets the delivery address the message arrived at
func (b *MessageBuilder) WithRecipientEmail(email string) *MessageBuilder {
	b.message.RecipientEmail = email
	return b
}

// WithForwardedFrom sets the alias back-reference
func (b *MessageBuilder) WithForwardedFrom(aliasEmail string) *MessageBuilder {
	if aliasEmail == "" {
		b.message.ForwardedFrom = nil
	} else {
		b.message.ForwardedFrom = &aliasEmail
	}
	return b
}

// WithSubject sets the message subject
func (b *MessageBuilder) WithSubject(subject string) *MessageBuilder {
	b.message.Subject = subject
	return b
}

// WithSnippet sets the message snippet
func (b *MessageBuilder) WithSnippet(snippet string) *MessageBuilder {
	b.message.Snippet = snippet
	return b
}

// WithBody sets both text and HTML body
func (b *MessageBuilder) WithBody(text, html string) *MessageBuilder {
	b.message.BodyText = text
	b.message.BodyHTML = html
	return b
}

// WithStatus sets the message status
func (b *MessageBuilder) WithStatus(status string) *MessageBuilder {
	b.message.Status = status
	return b
}

// WithRead sets the read status
func (b *MessageBuilder) WithRead(isRead bool) *MessageBuilder {
	b.message.IsRead = isRead
	return b
}

// WithReceivedAt sets the received timestamp
func (b *MessageBuilder) WithReceivedAt(t time.Time) *MessageBuilder {
	b.message.ReceivedAt = t
	return b
}

// WithAttachments sets the message attachments
func (b *MessageBuilder) WithAttachments(attachments []models.Attachment) *MessageBuilder {
	b.message.Attachments = attachments
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	return &b.message
}

// BuildValue returns the constructed Message as a value (not pointer)
func (b *MessageBuilder) BuildValue() models.Message {
	return b.message
}

// AttachmentBuilder creates test Attachment instances with fluent API
type AttachmentBuilder struct {
	attachment models.Attachment
}

// NewAttachmentBuilder creates a new AttachmentBuilder with sensible defaults
func NewAttachmentBuilder() *AttachmentBuilder {
	return &AttachmentBuilder{
		attachment: models.Attachment{
			ID:          1,
			MessageID:   1,
			Filename:    "document.pdf",
			ContentType: "application/pdf",
			FilePath:    "/attachments/abc123.pdf",
			SizeBytes:   1024,
		},
	}
}

// WithID sets the attachment ID
func (b *AttachmentBuilder) WithID(id uint) *AttachmentBuilder {
	b.attachment.ID = id
	return b
}

// WithMessageID sets the message ID
func (b *AttachmentBuilder) WithMessageID(messageID uint) *AttachmentBuilder {
	b.attachment.MessageID = messageID
	return b
}

// WithFilename sets the attachment filename
func (b *AttachmentBuilder) WithFilename(filename string) *AttachmentBuilder {
	b.attachment.Filename = filename
	return b
}

// WithContentType sets the content type
func (b *AttachmentBuilder) WithContentType(contentType string) *AttachmentBuilder {
	b.attachment.ContentType = contentType
	return b
}

// WithFilePath sets the file path
func (b *AttachmentBuilder) WithFilePath(filePath string) *AttachmentBuilder {
	b.attachment.FilePath = filePath
	return b
}

// WithSize sets the file size in bytes
func (b *AttachmentBuilder) WithSize(size int64) *AttachmentBuilder {
	b.attachment.SizeBytes = size
	return b
}

// Build returns the constructed Attachment
func (b *AttachmentBuilder) Build() *models.Attachment {
	return &b.attachment
}

// BuildValue returns the constructed Attachment as a value (not pointer)
func (b *AttachmentBuilder) BuildValue() models.Attachment {
	return b.attachment
}

// Helper functions for creating multiple test entities

// CreateMailboxes creates a slice of mailboxes with sequential IDs
func CreateMailboxes(count int) []models.Mailbox {
	mailboxes := make([]models.Mailbox, count)
	for i := 0; i < count; i++ {
		mailboxes[i] = NewMailboxBuilder().
			WithID(uint(i + 1)).
			WithUsername(generateUsername(i)).
			BuildValue()
	}
	return mailboxes
}

// CreateAliases creates a slice of aliases owned by a user
func CreateAliases(userID uint, count int) []models.Alias {
	aliases := make([]models.Alias, count)
	for i := 0; i < count; i++ {
		aliases[i] = NewAliasBuilder().
			WithID(uint(i + 1)).
			WithAliasEmail(generateUsername(i) + "@z.org").
			WithUserID(userID).
			BuildValue()
	}
	return aliases
}

// CreateMessages creates a slice of messages for a given mailbox
func CreateMessages(mailboxID uint, count int) []models.Message {
	messages := make([]models.Message, count)
	for i := 0; i < count; i++ {
		messages[i] = NewMessageBuilder().
			WithID(uint(i + 1)).
			WithMailboxID(mailboxID).
			WithSubject(generateSubject(i)).
			WithReceivedAt(time.Now().Add(-time.Duration(i) * time.Hour)).
			BuildValue()
	}
	return messages
}

// Helper functions for generating test data
func generateUsername(index int) string {
	names := []string{"user", "admin", "info", "support", "contact"}
	if index < len(names) {
		return names[index]
	}
	return names[index%len(names)] + string(rune('0'+index/len(names)))
}

func generateSubject(index int) string {
	subjects := []string{
		"Welcome to our service",
		"Your order confirmation",
		"Important update",
		"Newsletter",
		"Account notification",
	}
	return subjects[index%len(subjects)]
}
