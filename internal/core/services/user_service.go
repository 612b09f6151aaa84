package services

import (
	"context"
	"errors"

	"donorhub/internal/core/domain"

	"github.com/google/uuid"
)

// UserService handles read-side user management
type UserService struct {
	users UserStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*domain.IdentityInfo `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	// Set defaults
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	identities, total, err := s.users.ListIdentities(ctx, offset, input.Limit)
	if err != nil {
		return nil, domain.Internal(err)
	}

	infos := make([]*domain.IdentityInfo, len(identities))
	for i, identity := range identities {
		infos[i] = identity.Info()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      infos,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetUser returns the public view of one identity
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.IdentityInfo, error) {
	identity, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Internal(err)
	}
	return identity.Info(), nil
}

// RoleInfo is the public view of a catalog role
type RoleInfo struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListRoles returns the stored role catalog
func (s *UserService) ListRoles(ctx context.Context) ([]*RoleInfo, error) {
	roles, err := s.users.ListRoleCatalog(ctx)
	if err != nil {
		return nil, domain.Internal(err)
	}
	out := make([]*RoleInfo, len(roles))
	for i, r := range roles {
		out[i] = &RoleInfo{ID: r.ID, Name: string(r.Name), Description: r.Description}
	}
	return out, nil
}
