package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
)

type authUserStoreStub struct {
	users map[string]*models.User
}

func (s *authUserStoreStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := s.users[username]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1234"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &authUserStoreStub{users: map[string]*models.User{
		"kim": {ID: "user-1", Username: "kim", DisplayName: "김선생", Role: models.RoleTeacher, PasswordHash: string(hash), IsActive: true},
		"off": {ID: "user-2", Username: "off", Role: models.RoleTeacher, PasswordHash: string(hash), IsActive: false},
	}}
	return NewAuthService(store, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "schedule-api-test",
	})
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "secret1234"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "user-1", res.User.ID)
	require.Equal(t, models.RoleTeacher, res.User.Role)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "김선생", claims.DisplayName)
	require.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "nope"})
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthLoginUnknownUser(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "secret1234"})
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "off", Password: "secret1234"})
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newAuthFixture(t)
	other := newAuthFixture(t)
	other.config.TokenSecret = "different"

	res, err := other.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "secret1234"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token)
	require.Error(t, err)
}
