package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jinjin-academy/schedule-api/internal/models"
	"github.com/jinjin-academy/schedule-api/internal/service"
)

type singleUserStore struct {
	user *models.User
}

func (s singleUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.user != nil && s.user.Username == username {
		copied := *s.user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newTestAuthService(t *testing.T) (*service.AuthService, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1234"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := service.NewAuthService(singleUserStore{user: &models.User{
		ID: "user-1", Username: "kim", DisplayName: "김선생", Role: models.RoleTeacher,
		PasswordHash: string(hash), IsActive: true,
	}}, nil, nil, service.AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour, Issuer: "test"})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "secret1234"})
	require.NoError(t, err)
	return svc, res.Token
}

func newProtectedRouter(authSvc *service.AuthService, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", JWT(authSvc))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	authSvc, _ := newTestAuthService(t)
	r := newProtectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	authSvc, token := newTestAuthService(t)
	r := newProtectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAcceptsBearerToken(t *testing.T) {
	authSvc, token := newTestAuthService(t)
	r := newProtectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesBlocksTeacher(t *testing.T) {
	authSvc, token := newTestAuthService(t)
	r := newProtectedRouter(authSvc, models.RoleManager, models.RoleSuperAdmin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	authSvc, token := newTestAuthService(t)
	r := newProtectedRouter(authSvc, models.RoleTeacher)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
