package services

import (
	"context"
	"time"

	"donorhub/internal/core/domain"

	"github.com/google/uuid"
)

// UserStore is the persistence collaborator. Lookups of missing rows return an
// error matching domain.ErrNotFound.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	CreateIdentity(ctx context.Context, identity *domain.Identity) error
	UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateVerified(ctx context.Context, id uuid.UUID, verified bool) error
	ListRoles(ctx context.Context, id uuid.UUID) (domain.RoleSet, error)
	AddRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error
	RemoveRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error
	FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)

	ListIdentities(ctx context.Context, offset, limit int) ([]*domain.Identity, int64, error)
	ListRoleCatalog(ctx context.Context) ([]*domain.Role, error)
	// ListUnverified pages active, unverified identities created in
	// [createdAfter, createdBefore), oldest first.
	ListUnverified(ctx context.Context, createdAfter, createdBefore time.Time, offset, limit int) ([]*domain.Identity, error)

	// Transaction runs fn against a store bound to a single transaction.
	// Any error returned by fn rolls back every write made through it.
	Transaction(ctx context.Context, fn func(tx UserStore) error) error
}

// EmailSender is the outbound email collaborator. Every call is best-effort
// and reports success as a bool.
type EmailSender interface {
	SendVerification(ctx context.Context, email, token string) bool
	SendPasswordReset(ctx context.Context, email, token string) bool
	SendWelcome(ctx context.Context, email string) bool
}

// PasswordHasher hashes and verifies credentials
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}
