package models

import (
	"time"
)

// Alias represents an alternate receiving address owned by a user. An alias
// either forwards to TargetEmail or, when disabled or without a target,
// delivers to the owner's mailbox. AliasEmail is unique case-insensitively
// and stored lowercase.
type Alias struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AliasEmail  string    `gorm:"uniqueIndex;not null;size:255" json:"alias_email"`
	TargetEmail *string   `gorm:"size:255" json:"target_email,omitempty"`
	Enabled     bool      `gorm:"default:true" json:"enabled"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Alias
func (Alias) TableName() string {
	return "aliases"
}

// HasTarget reports whether the alias has a non-empty forwarding target.
func (a *Alias) HasTarget() bool {
	return a.TargetEmail != nil && *a.TargetEmail != ""
}
