package services

import (
	"context"
	"errors"
	"strings"

	"donorhub/internal/core/domain"
	"donorhub/internal/pkg/jwt"
	"donorhub/internal/pkg/metrics"

	"github.com/google/uuid"
)

// Check authorizes a bearer token and returns the authenticated identity
type Check func(ctx context.Context, token string) (*domain.Identity, error)

// Guard resolves access tokens to identities and applies role predicates.
// Roles are always read from the store, never trusted from the token.
type Guard struct {
	codec *jwt.Codec
	users UserStore
}

// NewGuard creates a guard set
func NewGuard(codec *jwt.Codec, users UserStore) *Guard {
	return &Guard{codec: codec, users: users}
}

// CurrentIdentity decodes an access token and loads its active identity
func (g *Guard) CurrentIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	claims, ok := g.codec.Decode(strings.TrimSpace(token), jwt.KindAccess)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	identity, err := g.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, domain.Internal(err)
	}
	if !identity.IsActive {
		return nil, domain.ErrInactiveAccount
	}
	return identity, nil
}

// OptionalIdentity is CurrentIdentity for endpoints that also serve anonymous
// callers: any failure yields nil instead of an error.
func (g *Guard) OptionalIdentity(ctx context.Context, token string) *domain.Identity {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	identity, err := g.CurrentIdentity(ctx, token)
	if err != nil {
		return nil
	}
	return identity
}

// Authenticated requires a valid access token and nothing else
func (g *Guard) Authenticated() Check {
	return g.CurrentIdentity
}

// RequireRole requires the caller to hold role
func (g *Guard) RequireRole(role domain.RoleName) Check {
	return g.RequireAnyOf(role)
}

// RequireAnyOf requires the caller to hold at least one of roles
func (g *Guard) RequireAnyOf(roles ...domain.RoleName) Check {
	return func(ctx context.Context, token string) (*domain.Identity, error) {
		identity, err := g.CurrentIdentity(ctx, token)
		if err != nil {
			metrics.RecordAuthEvent(metrics.EventGuard, string(domain.KindOf(err)))
			return nil, err
		}
		if err := Authorize(identity, roles...); err != nil {
			metrics.RecordAuthEvent(metrics.EventGuard, string(domain.KindForbidden))
			return nil, err
		}
		return identity, nil
	}
}

// RequireAdmin allows ADMIN only
func (g *Guard) RequireAdmin() Check {
	return g.RequireAnyOf(domain.RoleAdmin)
}

// RequireOrganizationTier allows ADMIN or ORGANIZATION
func (g *Guard) RequireOrganizationTier() Check {
	return g.RequireAnyOf(domain.RoleAdmin, domain.RoleOrganization)
}

// RequireAuditTier allows ADMIN, ORGANIZATION or AUDITOR
func (g *Guard) RequireAuditTier() Check {
	return g.RequireAnyOf(domain.RoleAdmin, domain.RoleOrganization, domain.RoleAuditor)
}

// Authorize checks an already-authenticated identity against a role list
func Authorize(identity *domain.Identity, roles ...domain.RoleName) error {
	if identity == nil {
		return domain.ErrUnauthenticated
	}
	if !identity.Roles.HasAny(roles...) {
		return domain.ErrForbidden
	}
	return nil
}
