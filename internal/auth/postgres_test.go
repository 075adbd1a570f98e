package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGUserCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "alice@example.com", sqlmock.AnyArg(), "Alice", "", UserStatusActive).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	store := NewPGStore(db)
	err = store.Users(context.Background()).Create(context.Background(), &User{
		Email:  "alice@example.com",
		Name:   "Alice",
		Status: UserStatusActive,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGUserFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, email, password_hash, name, organization, status, created_at, updated_at").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "organization", "status", "created_at", "updated_at"}).
			AddRow("u-1", "alice@example.com", "$2a$12$hash", "Alice", "", UserStatusActive, now, now))

	store := NewPGStore(db)
	user, err := store.Users(context.Background()).FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user.ID != "u-1" || user.PasswordHash != "$2a$12$hash" {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("select id, email, password_hash, name, organization, status, created_at, updated_at").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := store.Users(context.Background()).FindByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRolesForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select r.id, r.name, r.description, r.created_at from roles r").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow("r-1", RoleReviewer, "", now).
			AddRow("r-2", RoleUser, "", now))

	store := NewPGStore(db)
	roles, err := store.Roles(context.Background()).RolesForUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("RolesForUser: %v", err)
	}
	if len(roles) != 2 || roles[0].Name != RoleReviewer || roles[1].Name != RoleUser {
		t.Fatalf("unexpected roles: %+v", roles)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGSetForRoleReplacesGrants(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("delete from role_permissions").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("insert into role_permissions").
		WithArgs("r-1", PermQuestionsRead).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into role_permissions").
		WithArgs("r-1", PermQuestionsReview).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	err = store.Permissions(context.Background()).SetForRole(context.Background(), "r-1",
		[]string{PermQuestionsRead, PermQuestionsReview})
	if err != nil {
		t.Fatalf("SetForRole: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
