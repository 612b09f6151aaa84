package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"

	"github.com/google/uuid"
)

type record struct {
	identity domain.Identity
	roles    map[uint]time.Time // role id -> granted at
}

type state struct {
	identities map[uuid.UUID]*record
	byEmail    map[string]uuid.UUID
}

// Store is an in-memory UserStore for single-instance development and tests.
// Data is lost on restart.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	roles []*domain.Role
	data  state
}

// NewStore returns a store seeded with the role catalog
func NewStore() *Store {
	s := &Store{
		now: time.Now,
		data: state{
			identities: make(map[uuid.UUID]*record),
			byEmail:    make(map[string]uuid.UUID),
		},
	}
	for i, def := range domain.RoleCatalog {
		s.roles = append(s.roles, &domain.Role{ID: uint(i + 1), Name: def.Name, Description: def.Description})
	}
	return s
}

// locked is the store seen from inside the lock. Store methods acquire s.mu
// and delegate here; Transaction hands it to fn while holding the write lock.
type locked struct {
	s *Store
}

func (s *Store) read() (locked, func()) {
	s.mu.RLock()
	return locked{s}, s.mu.RUnlock
}

func (s *Store) write() (locked, func()) {
	s.mu.Lock()
	return locked{s}, s.mu.Unlock
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	l, unlock := s.read()
	defer unlock()
	return l.FindByEmail(ctx, email)
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	l, unlock := s.read()
	defer unlock()
	return l.FindByID(ctx, id)
}

func (s *Store) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	l, unlock := s.write()
	defer unlock()
	return l.CreateIdentity(ctx, identity)
}

func (s *Store) UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error {
	l, unlock := s.write()
	defer unlock()
	return l.UpdateCredential(ctx, id, passwordHash)
}

func (s *Store) UpdateVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	l, unlock := s.write()
	defer unlock()
	return l.UpdateVerified(ctx, id, verified)
}

// SetActive toggles the active flag. No use case changes it; operators do.
func (s *Store) SetActive(id uuid.UUID, active bool) error {
	l, unlock := s.write()
	defer unlock()
	return l.update(id, func(i *domain.Identity) { i.IsActive = active })
}

func (s *Store) ListRoles(ctx context.Context, id uuid.UUID) (domain.RoleSet, error) {
	l, unlock := s.read()
	defer unlock()
	return l.ListRoles(ctx, id)
}

func (s *Store) AddRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	l, unlock := s.write()
	defer unlock()
	return l.AddRoleMembership(ctx, id, roleID)
}

func (s *Store) RemoveRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	l, unlock := s.write()
	defer unlock()
	return l.RemoveRoleMembership(ctx, id, roleID)
}

// The catalog is fixed at construction and needs no lock
func (s *Store) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	return locked{s}.FindRoleByName(ctx, name)
}

func (s *Store) ListRoleCatalog(ctx context.Context) ([]*domain.Role, error) {
	return locked{s}.ListRoleCatalog(ctx)
}

func (s *Store) ListIdentities(ctx context.Context, offset, limit int) ([]*domain.Identity, int64, error) {
	l, unlock := s.read()
	defer unlock()
	return l.ListIdentities(ctx, offset, limit)
}

func (s *Store) ListUnverified(ctx context.Context, createdAfter, createdBefore time.Time, offset, limit int) ([]*domain.Identity, error) {
	l, unlock := s.read()
	defer unlock()
	return l.ListUnverified(ctx, createdAfter, createdBefore, offset, limit)
}

// Transaction runs fn under the write lock and restores the pre-transaction
// state if it fails. fn must go through tx: calling the Store itself from
// fn deadlocks. Other callers wait until fn returns.
func (s *Store) Transaction(ctx context.Context, fn func(tx services.UserStore) error) error {
	l, unlock := s.write()
	defer unlock()
	before := l.snapshot()
	if err := fn(l); err != nil {
		s.data = before
		return err
	}
	return nil
}

func (l locked) roleName(id uint) (domain.RoleName, bool) {
	for _, r := range l.s.roles {
		if r.ID == id {
			return r.Name, true
		}
	}
	return "", false
}

func (l locked) view(rec *record) *domain.Identity {
	out := rec.identity
	out.Roles = domain.NewRoleSet()
	for id := range rec.roles {
		if name, ok := l.roleName(id); ok {
			out.Roles[name] = struct{}{}
		}
	}
	return &out
}

func (l locked) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	id, ok := l.s.data.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.view(l.s.data.identities[id]), nil
}

func (l locked) FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	rec, ok := l.s.data.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.view(rec), nil
}

func (l locked) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	if _, taken := l.s.data.byEmail[identity.Email]; taken {
		return domain.ErrEmailInUse
	}
	now := l.s.now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now

	stored := *identity
	stored.Roles = nil
	l.s.data.identities[identity.ID] = &record{identity: stored, roles: make(map[uint]time.Time)}
	l.s.data.byEmail[identity.Email] = identity.ID
	return nil
}

func (l locked) update(id uuid.UUID, fn func(*domain.Identity)) error {
	rec, ok := l.s.data.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&rec.identity)
	rec.identity.UpdatedAt = l.s.now()
	return nil
}

func (l locked) UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return l.update(id, func(i *domain.Identity) { i.PasswordHash = passwordHash })
}

func (l locked) UpdateVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return l.update(id, func(i *domain.Identity) { i.EmailVerified = verified })
}

func (l locked) ListRoles(ctx context.Context, id uuid.UUID) (domain.RoleSet, error) {
	identity, err := l.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return identity.Roles, nil
}

func (l locked) AddRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	rec, ok := l.s.data.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	if _, known := l.roleName(roleID); !known {
		return domain.ErrInvalidRole
	}
	if _, held := rec.roles[roleID]; !held {
		rec.roles[roleID] = l.s.now()
	}
	return nil
}

func (l locked) RemoveRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	rec, ok := l.s.data.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(rec.roles, roleID)
	return nil
}

func (l locked) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	for _, r := range l.s.roles {
		if r.Name == name {
			out := *r
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (l locked) ListRoleCatalog(ctx context.Context) ([]*domain.Role, error) {
	out := make([]*domain.Role, len(l.s.roles))
	for i, r := range l.s.roles {
		c := *r
		out[i] = &c
	}
	return out, nil
}

func (l locked) ListIdentities(ctx context.Context, offset, limit int) ([]*domain.Identity, int64, error) {
	all := l.sorted(func(*record) bool { return true })
	total := int64(len(all))
	return page(all, offset, limit), total, nil
}

func (l locked) ListUnverified(ctx context.Context, createdAfter, createdBefore time.Time, offset, limit int) ([]*domain.Identity, error) {
	out := l.sorted(func(r *record) bool {
		i := r.identity
		return !i.EmailVerified && i.IsActive &&
			!i.CreatedAt.Before(createdAfter) && i.CreatedAt.Before(createdBefore)
	})
	return page(out, offset, limit), nil
}

// Nested transactions join the outer one
func (l locked) Transaction(ctx context.Context, fn func(tx services.UserStore) error) error {
	return fn(l)
}

// sorted returns matching identities ordered by creation time
func (l locked) sorted(match func(*record) bool) []*domain.Identity {
	out := make([]*domain.Identity, 0, len(l.s.data.identities))
	for _, rec := range l.s.data.identities {
		if match(rec) {
			out = append(out, l.view(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (l locked) snapshot() state {
	out := state{
		identities: make(map[uuid.UUID]*record, len(l.s.data.identities)),
		byEmail:    make(map[string]uuid.UUID, len(l.s.data.byEmail)),
	}
	for id, rec := range l.s.data.identities {
		roles := make(map[uint]time.Time, len(rec.roles))
		for r, at := range rec.roles {
			roles[r] = at
		}
		out.identities[id] = &record{identity: rec.identity, roles: roles}
	}
	for email, id := range l.s.data.byEmail {
		out.byEmail[email] = id
	}
	return out
}

func page(all []*domain.Identity, offset, limit int) []*domain.Identity {
	if offset >= len(all) {
		return []*domain.Identity{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

var (
	_ services.UserStore = (*Store)(nil)
	_ services.UserStore = locked{}
)
