package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/elektrine/mailroute/internal/models"
	"gorm.io/gorm"
)

// AliasRepository defines the interface for alias data access
type AliasRepository interface {
	Create(ctx context.Context, alias *models.Alias) error
	GetByID(ctx context.Context, id uint) (*models.Alias, error)
	LookupByAddress(ctx context.Context, addr string) (*models.Alias, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Alias, int64, error)
	Update(ctx context.Context, alias *models.Alias) error
	Delete(ctx context.Context, id uint) error
}

// aliasRepository implements AliasRepository using GORM
type aliasRepository struct {
	db *gorm.DB
}

// NewAliasRepository creates a new AliasRepository instance
func NewAliasRepository(db *gorm.DB) AliasRepository {
	return &aliasRepository{db: db}
}

// Create creates a new alias. The alias email is stored lowercase so that
// the unique index enforces case-insensitive uniqueness.
func (r *aliasRepository) Create(ctx context.Context, alias *models.Alias) error {
	alias.AliasEmail = strings.ToLower(strings.TrimSpace(alias.AliasEmail))
	result := r.db.WithContext(ctx).Create(alias)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("alias '%s' already exists: %w", alias.AliasEmail, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create alias: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an alias by its ID
func (r *aliasRepository) GetByID(ctx context.Context, id uint) (*models.Alias, error) {
	var alias models.Alias
	result := r.db.WithContext(ctx).First(&alias, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alias by ID: %w", result.Error)
	}
	return &alias, nil
}

// LookupByAddress retrieves an alias by its address, case-insensitively
func (r *aliasRepository) LookupByAddress(ctx context.Context, addr string) (*models.Alias, error) {
	var alias models.Alias
	addr = strings.ToLower(strings.TrimSpace(addr))
	result := r.db.WithContext(ctx).Where("alias_email = ?", addr).First(&alias)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up alias by address: %w", result.Error)
	}
	return &alias, nil
}

// ListByUser retrieves all aliases owned by a user with pagination
func (r *aliasRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Alias, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Alias{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count aliases: %w", err)
	}

	var aliases []models.Alias
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&aliases)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list aliases: %w", result.Error)
	}

	return aliases, total, nil
}

// Update updates an existing alias
func (r *aliasRepository) Update(ctx context.Context, alias *models.Alias) error {
	alias.AliasEmail = strings.ToLower(strings.TrimSpace(alias.AliasEmail))
	result := r.db.WithContext(ctx).Save(alias)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("alias '%s' already exists: %w", alias.AliasEmail, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update alias: %w", result.Error)
	}
	return nil
}

// Delete deletes an alias by its ID. Forwarded-message history keeps its
// nullable back-reference, so no message rows are touched.
func (r *aliasRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Alias{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete alias: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
