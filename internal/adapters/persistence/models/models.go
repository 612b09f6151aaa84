package models

import (
	"time"

	"donorhub/internal/core/domain"

	"github.com/google/uuid"
)

// ============================================================
// Auth & RBAC Tables
// ============================================================

// User represents users table
type User struct {
	ID             uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	EmailVerified  bool       `gorm:"default:false;index" json:"email_verified"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	OrganizationID *uuid.UUID `gorm:"type:char(36);index" json:"organization_id"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Memberships []UserRole `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Role represents roles table
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Role) TableName() string {
	return "roles"
}

// UserRole represents the user_roles membership table
type UserRole struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey" json:"user_id"`
	RoleID    uint      `gorm:"primaryKey" json:"role_id"`
	GrantedAt time.Time `gorm:"autoCreateTime" json:"granted_at"`

	Role Role `gorm:"foreignKey:RoleID" json:"-"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// ToDomain converts a loaded user and its preloaded memberships
func (u *User) ToDomain() *domain.Identity {
	roles := domain.NewRoleSet()
	for _, m := range u.Memberships {
		if m.Role.Name != "" {
			roles[domain.RoleName(m.Role.Name)] = struct{}{}
		}
	}
	return &domain.Identity{
		ID:             u.ID,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		EmailVerified:  u.EmailVerified,
		IsActive:       u.IsActive,
		OrganizationID: u.OrganizationID,
		Roles:          roles,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserFromDomain builds a row from an identity. Memberships are written separately.
func UserFromDomain(i *domain.Identity) *User {
	return &User{
		ID:             i.ID,
		Email:          i.Email,
		PasswordHash:   i.PasswordHash,
		EmailVerified:  i.EmailVerified,
		IsActive:       i.IsActive,
		OrganizationID: i.OrganizationID,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// ToDomain converts a role row
func (r *Role) ToDomain() *domain.Role {
	return &domain.Role{
		ID:          r.ID,
		Name:        domain.RoleName(r.Name),
		Description: r.Description,
	}
}

// AllModels lists every table for AutoMigrate, parents first
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&UserRole{},
	}
}
