package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/jinjin-academy/schedule-api/internal/models"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "display_name", "role", "password_hash", "is_active", "created_at", "updated_at"})
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	rows := userRows().
		AddRow("user-1", "kim", "김선생", "teacher", "hash", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("kim").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "kim")
	require.NoError(t, err)
	require.Equal(t, models.RoleTeacher, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "kim", Role: models.RoleTeacher, PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $1")).
		WithArgs("newhash", now, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), "user-1", "newhash", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.UpdatePassword(context.Background(), "ghost", "newhash", now), sql.ErrNoRows)
}

func TestUserRepositoryUpdateStatusBuildsDynamicSet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	active := false
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), UpdateStatusParams{ID: "user-1", IsActive: &active}))

	role := models.RoleManager
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = $1, role = $2, updated_at = $3 WHERE id = $4")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), UpdateStatusParams{ID: "user-1", IsActive: &active, Role: &role}))

	// Nothing to change is a no-op without touching the database.
	require.NoError(t, repo.UpdateStatus(context.Background(), UpdateStatusParams{ID: "user-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}
