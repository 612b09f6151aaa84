package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"donorhub/internal/core/domain"
	"donorhub/internal/pkg/jwt"
	"donorhub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var errStoreDown = errors.New("store down")

type storedIdentity struct {
	identity domain.Identity
	roles    map[uint]struct{}
}

// memoryStore is an in-memory UserStore. Transaction snapshots all state and
// restores it when fn fails.
type memoryStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*storedIdentity
	roles      map[domain.RoleName]*domain.Role

	failAddRole bool
	failLookups bool
	failCreate  error

	unverifiedCalls int
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{
		identities: make(map[uuid.UUID]*storedIdentity),
		roles:      make(map[domain.RoleName]*domain.Role),
	}
	for i, def := range domain.RoleCatalog {
		s.roles[def.Name] = &domain.Role{ID: uint(i + 1), Name: def.Name, Description: def.Description}
	}
	return s
}

func (s *memoryStore) view(rec *storedIdentity) *domain.Identity {
	out := rec.identity
	out.Roles = domain.NewRoleSet()
	for roleID := range rec.roles {
		for _, r := range s.roles {
			if r.ID == roleID {
				out.Roles[r.Name] = struct{}{}
			}
		}
	}
	return &out
}

func (s *memoryStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookups {
		return nil, errStoreDown
	}
	for _, rec := range s.identities {
		if rec.identity.Email == email {
			return s.view(rec), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookups {
		return nil, errStoreDown
	}
	rec, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.view(rec), nil
}

func (s *memoryStore) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	for _, rec := range s.identities {
		if rec.identity.Email == identity.Email {
			return domain.ErrEmailInUse
		}
	}
	now := time.Now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now
	stored := *identity
	stored.Roles = nil
	s.identities[identity.ID] = &storedIdentity{identity: stored, roles: make(map[uint]struct{})}
	return nil
}

func (s *memoryStore) UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.identity.PasswordHash = passwordHash
	return nil
}

func (s *memoryStore) UpdateVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.identity.EmailVerified = verified
	return nil
}

func (s *memoryStore) ListRoles(ctx context.Context, id uuid.UUID) (domain.RoleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.view(rec).Roles, nil
}

func (s *memoryStore) AddRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAddRole {
		return errStoreDown
	}
	rec, ok := s.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.roles[roleID] = struct{}{}
	return nil
}

func (s *memoryStore) RemoveRoleMembership(ctx context.Context, id uuid.UUID, roleID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(rec.roles, roleID)
	return nil
}

func (s *memoryStore) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (s *memoryStore) ListIdentities(ctx context.Context, offset, limit int) ([]*domain.Identity, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*domain.Identity, 0, len(s.identities))
	for _, rec := range s.identities {
		all = append(all, s.view(rec))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	total := int64(len(all))
	if offset >= len(all) {
		return []*domain.Identity{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memoryStore) ListRoleCatalog(ctx context.Context) ([]*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Role, 0, len(s.roles))
	for _, r := range s.roles {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) ListUnverified(ctx context.Context, createdAfter, createdBefore time.Time, offset, limit int) ([]*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unverifiedCalls++
	if s.failLookups {
		return nil, errStoreDown
	}
	var out []*domain.Identity
	for _, rec := range s.identities {
		id := rec.identity
		if id.EmailVerified || !id.IsActive || id.CreatedAt.Before(createdAfter) || !id.CreatedAt.Before(createdBefore) {
			continue
		}
		out = append(out, s.view(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	if end := offset + limit; end < len(out) {
		out = out[:end]
	}
	return out[offset:], nil
}

func (s *memoryStore) Transaction(ctx context.Context, fn func(tx UserStore) error) error {
	snapshot := s.snapshot()
	if err := fn(s); err != nil {
		s.mu.Lock()
		s.identities = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memoryStore) snapshot() map[uuid.UUID]*storedIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*storedIdentity, len(s.identities))
	for id, rec := range s.identities {
		roles := make(map[uint]struct{}, len(rec.roles))
		for r := range rec.roles {
			roles[r] = struct{}{}
		}
		out[id] = &storedIdentity{identity: rec.identity, roles: roles}
	}
	return out
}

// setActive and setCreatedAt poke state the use cases never change
func (s *memoryStore) setActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id].identity.IsActive = active
}

func (s *memoryStore) setCreatedAt(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id].identity.CreatedAt = at
}

type sentEmail struct {
	to    string
	token string
}

type recordingMailer struct {
	mu           sync.Mutex
	fail         bool
	verification []sentEmail
	reset        []sentEmail
	welcome      []string
}

func (m *recordingMailer) SendVerification(ctx context.Context, email, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.verification = append(m.verification, sentEmail{to: email, token: token})
	return true
}

func (m *recordingMailer) SendPasswordReset(ctx context.Context, email, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.reset = append(m.reset, sentEmail{to: email, token: token})
	return true
}

func (m *recordingMailer) SendWelcome(ctx context.Context, email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.welcome = append(m.welcome, email)
	return true
}

type testEnv struct {
	store  *memoryStore
	mailer *recordingMailer
	codec  *jwt.Codec
	issuer *TokenIssuer
	auth   *AuthService
	guard  *Guard
	users  *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := jwt.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	store := newMemoryStore()
	mailer := &recordingMailer{}
	issuer := NewTokenIssuer(codec, 0, 0)

	return &testEnv{
		store:  store,
		mailer: mailer,
		codec:  codec,
		issuer: issuer,
		auth:   NewAuthService(store, password.NewHasher(bcrypt.MinCost), issuer, codec, mailer, zerolog.Nop()),
		guard:  NewGuard(codec, store),
		users:  NewUserService(store),
	}
}

// register creates an account and fails the test on error
func (e *testEnv) register(t *testing.T, email, pw, role string, actor *domain.Identity) *domain.IdentityInfo {
	t.Helper()
	res, err := e.auth.Register(context.Background(), &RegisterInput{Email: email, Password: pw, Role: role}, actor)
	if err != nil {
		t.Fatalf("Register(%s, %q) error = %v", email, role, err)
	}
	return res.Identity
}

// seedAdmin stores an ADMIN identity directly, bypassing registration policy
func (e *testEnv) seedAdmin(t *testing.T, email, pw string) *domain.Identity {
	t.Helper()
	ctx := context.Background()
	hash, err := password.NewHasher(bcrypt.MinCost).Hash(pw)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	admin := &domain.Identity{ID: uuid.New(), Email: email, PasswordHash: hash, EmailVerified: true, IsActive: true}
	if err := e.store.CreateIdentity(ctx, admin); err != nil {
		t.Fatalf("CreateIdentity() error = %v", err)
	}
	role, _ := e.store.FindRoleByName(ctx, domain.RoleAdmin)
	if err := e.store.AddRoleMembership(ctx, admin.ID, role.ID); err != nil {
		t.Fatalf("AddRoleMembership() error = %v", err)
	}
	stored, _ := e.store.FindByID(ctx, admin.ID)
	return stored
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want kind %s", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("error kind = %s (%v), want %s", got, err, kind)
	}
}
