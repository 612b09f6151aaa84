package config

import (
	"context"
	"errors"
	"fmt"

	"donorhub/internal/adapters/persistence/models"
	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db     *gorm.DB
	users  services.UserStore
	hasher services.PasswordHasher
	admin  AdminConfig
	log    zerolog.Logger
}

// NewSeeder creates a new seeder instance. db may be nil for the memory store.
func NewSeeder(db *gorm.DB, users services.UserStore, hasher services.PasswordHasher, admin AdminConfig, log zerolog.Logger) *Seeder {
	return &Seeder{
		db:     db,
		users:  users,
		hasher: hasher,
		admin:  admin,
		log:    log.With().Str("component", "seeder").Logger(),
	}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	s.log.Info().Msg("running database seeders")

	if err := s.seedRoles(ctx); err != nil {
		return err
	}

	if err := s.seedAdminUser(ctx); err != nil {
		s.log.Warn().Err(err).Msg("admin seeder skipped")
	}

	s.log.Info().Msg("database seeding completed")
	return nil
}

// seedRoles creates every catalog role that is missing. Without a database
// the store is expected to carry the catalog itself.
func (s *Seeder) seedRoles(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	for _, def := range domain.RoleCatalog {
		role := models.Role{Name: string(def.Name), Description: def.Description}
		err := s.db.WithContext(ctx).
			Where(models.Role{Name: role.Name}).
			Attrs(models.Role{Description: role.Description}).
			FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", def.Name, err)
		}
	}
	s.log.Info().Int("roles", len(domain.RoleCatalog)).Msg("role catalog ready")
	return nil
}

// seedAdminUser creates the bootstrap admin when ADMIN_EMAIL and ADMIN_PASSWORD are set
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if s.admin.Email == "" || s.admin.Password == "" {
		return nil
	}

	// Check if admin already exists
	if _, err := s.users.FindByEmail(ctx, s.admin.Email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	role, err := s.users.FindRoleByName(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(s.admin.Password)
	if err != nil {
		return err
	}

	admin := &domain.Identity{
		ID:            uuid.New(),
		Email:         s.admin.Email,
		PasswordHash:  hash,
		EmailVerified: true,
		IsActive:      true,
	}

	err = s.users.Transaction(ctx, func(tx services.UserStore) error {
		if err := tx.CreateIdentity(ctx, admin); err != nil {
			return err
		}
		return tx.AddRoleMembership(ctx, admin.ID, role.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("email", admin.Email).Msg("admin user created")
	return nil
}
