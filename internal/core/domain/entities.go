package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleName is a name drawn from the closed role catalog
type RoleName string

const (
	RoleAdmin        RoleName = "ADMIN"
	RoleOrganization RoleName = "ORGANIZATION"
	RoleAuditor      RoleName = "AUDITOR"
	RoleDonor        RoleName = "DONOR"
	RoleUser         RoleName = "USER"
)

// RoleCatalog lists every known role with its description, in seeding order
var RoleCatalog = []RoleDefinition{
	{Name: RoleAdmin, Description: "System administrator with full access to all organizations and data"},
	{Name: RoleOrganization, Description: "Organization administrator with access to their own organization data"},
	{Name: RoleAuditor, Description: "Read-only access for compliance and auditing purposes"},
	{Name: RoleDonor, Description: "Registered donor with access to their own donations and profile"},
	{Name: RoleUser, Description: "Regular user with basic access"},
}

// RoleDefinition describes a catalog entry
type RoleDefinition struct {
	Name        RoleName
	Description string
}

// Role is a stored catalog role
type Role struct {
	ID          uint
	Name        RoleName
	Description string
}

// ParseRoleName upper-cases the input and reports whether it names a catalog role
func ParseRoleName(s string) (RoleName, bool) {
	name := RoleName(strings.ToUpper(strings.TrimSpace(s)))
	for _, def := range RoleCatalog {
		if def.Name == name {
			return name, true
		}
	}
	return name, false
}

// RoleSet is an unordered set of role names. Membership is exact and case-sensitive.
type RoleSet map[RoleName]struct{}

// NewRoleSet builds a set from names, ignoring duplicates
func NewRoleSet(names ...RoleName) RoleSet {
	set := make(RoleSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// RoleSetFromStrings builds a set from raw strings without normalisation
func RoleSetFromStrings(names []string) RoleSet {
	set := make(RoleSet, len(names))
	for _, n := range names {
		set[RoleName(n)] = struct{}{}
	}
	return set
}

// Has reports whether the set contains name
func (s RoleSet) Has(name RoleName) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether the set contains at least one of names
func (s RoleSet) HasAny(names ...RoleName) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// Strings returns the role names sorted, for claims and responses
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, string(n))
	}
	sort.Strings(out)
	return out
}

// Identity represents a user account in the domain layer
type Identity struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	EmailVerified  bool
	IsActive       bool
	OrganizationID *uuid.UUID
	Roles          RoleSet
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IdentityInfo is the public view of an identity
type IdentityInfo struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Info returns the public view of the identity. The credential is never included.
func (i *Identity) Info() *IdentityInfo {
	return &IdentityInfo{
		ID:            i.ID,
		Email:         i.Email,
		EmailVerified: i.EmailVerified,
		IsActive:      i.IsActive,
		Roles:         i.Roles.Strings(),
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// TokenPair represents access and refresh tokens issued together
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
