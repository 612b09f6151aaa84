package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (services.UserStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	return NewUserRepository(db), mock
}

func TestFindByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindByIDLoadsRoles(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "email_verified", "is_active", "organization_id", "created_at", "updated_at",
		}).AddRow(id.String(), "a@x.com", "$2a$hash", true, true, nil, now, now))
	mock.ExpectQuery("SELECT \\* FROM `user_roles`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role_id", "granted_at"}).
			AddRow(id.String(), 4, now))
	mock.ExpectQuery("SELECT \\* FROM `roles`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(4, "DONOR", "donor", now))

	identity, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if identity.ID != id || identity.Email != "a@x.com" || !identity.EmailVerified {
		t.Errorf("identity = %+v", identity)
	}
	if !identity.Roles.Has(domain.RoleDonor) || len(identity.Roles) != 1 {
		t.Errorf("roles = %v, want [DONOR]", identity.Roles.Strings())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListUnverifiedWindow(t *testing.T) {
	repo, mock := newMockRepo(t)
	before := time.Now().Add(-24 * time.Hour)
	after := before.Add(-24 * time.Hour)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE .*created_at >= \\? AND created_at < \\?.*ORDER BY created_at, id LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	got, err := repo.ListUnverified(context.Background(), after, before, 0, 100)
	if err != nil {
		t.Fatalf("ListUnverified() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListUnverified() = %+v, want none", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateCredentialMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE `users` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCredential(context.Background(), uuid.New(), "$2a$new")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindRoleByName(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `roles` WHERE name = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow(5, "USER", "Regular user with basic access"))

	role, err := repo.FindRoleByName(context.Background(), domain.RoleUser)
	if err != nil {
		t.Fatalf("FindRoleByName() error = %v", err)
	}
	if role.ID != 5 || role.Name != domain.RoleUser {
		t.Errorf("role = %+v", role)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `user_roles`").
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	identity := &domain.Identity{ID: uuid.New(), Email: "tx@x.com", PasswordHash: "$2a$hash", IsActive: true}
	err := repo.Transaction(context.Background(), func(tx services.UserStore) error {
		if err := tx.CreateIdentity(context.Background(), identity); err != nil {
			return err
		}
		return tx.AddRoleMembership(context.Background(), identity.ID, 5)
	})
	if err == nil {
		t.Fatal("Transaction() error = nil, want membership failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTransactionCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `user_roles`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `user_roles`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transaction(context.Background(), func(tx services.UserStore) error {
		if err := tx.RemoveRoleMembership(context.Background(), id, 5); err != nil {
			return err
		}
		return tx.AddRoleMembership(context.Background(), id, 4)
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
