package repositories

import (
	"context"

	"donorhub/internal/adapters/persistence/models"
	"donorhub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// FindRoleByName gets a catalog role by its name
func (r *userRepository) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", string(name)).First(&role).Error
	if err != nil {
		return nil, translate(err)
	}
	return role.ToDomain(), nil
}

// ListRoleCatalog lists all stored roles
func (r *userRepository) ListRoleCatalog(ctx context.Context) ([]*domain.Role, error) {
	var roles []*models.Role
	if err := r.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Role, len(roles))
	for i, role := range roles {
		out[i] = role.ToDomain()
	}
	return out, nil
}

// ListRoles returns the names of every role the user holds
func (r *userRepository) ListRoles(ctx context.Context, id uuid.UUID) (domain.RoleSet, error) {
	identity, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return identity.Roles, nil
}

// AddRoleMembership grants a role. Granting a held role is a no-op.
func (r *userRepository) AddRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	membership := &models.UserRole{UserID: id, RoleID: roleID}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(membership).Error
}

// RemoveRoleMembership revokes a role
func (r *userRepository) RemoveRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", id, roleID).
		Delete(&models.UserRole{}).Error
}
