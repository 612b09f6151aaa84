package repositories

import (
	"context"
	"errors"
	"time"

	"donorhub/internal/adapters/persistence/models"
	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements services.UserStore over GORM
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) services.UserStore {
	return &userRepository{db: db}
}

// withRoles preloads memberships and their roles
func (r *userRepository) withRoles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Memberships.Role")
}

// FindByEmail gets a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var user models.User
	err := r.withRoles(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return user.ToDomain(), nil
}

// FindByID gets a user by ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var user models.User
	err := r.withRoles(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return user.ToDomain(), nil
}

// CreateIdentity inserts the user row. Role memberships are added separately.
func (r *userRepository) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	user := models.UserFromDomain(identity)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return translate(err)
	}
	identity.CreatedAt = user.CreatedAt
	identity.UpdatedAt = user.UpdatedAt
	return nil
}

// UpdateCredential replaces the stored password hash
func (r *userRepository) UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateColumn(ctx, id, "password_hash", passwordHash)
}

// UpdateVerified sets the email verification flag
func (r *userRepository) UpdateVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.updateColumn(ctx, id, "email_verified", verified)
}

func (r *userRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListIdentities lists users with pagination
func (r *userRepository) ListIdentities(ctx context.Context, offset, limit int) ([]*domain.Identity, int64, error) {
	var users []*models.User
	var total int64

	// Count total
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get users with pagination
	if err := r.withRoles(ctx).Order("created_at").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return toDomainList(users), total, nil
}

// ListUnverified pages active, unverified users created inside the window
func (r *userRepository) ListUnverified(ctx context.Context, createdAfter, createdBefore time.Time, offset, limit int) ([]*domain.Identity, error) {
	var users []*models.User
	err := r.withRoles(ctx).
		Where("email_verified = ?", false).
		Where("is_active = ?", true).
		Where("created_at >= ? AND created_at < ?", createdAfter, createdBefore).
		Order("created_at, id").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(users), nil
}

// Transaction runs fn with a repository bound to one database transaction
func (r *userRepository) Transaction(ctx context.Context, fn func(tx services.UserStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&userRepository{db: tx})
	})
}

func toDomainList(users []*models.User) []*domain.Identity {
	out := make([]*domain.Identity, len(users))
	for i, u := range users {
		out[i] = u.ToDomain()
	}
	return out
}

// translate maps GORM errors onto domain kinds
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrEmailInUse
	default:
		return err
	}
}
