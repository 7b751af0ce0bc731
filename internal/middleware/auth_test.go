package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/pkg/apperror"
	"github.com/adsdental/clinic-api/pkg/auth"
)

type fakeResolver struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeResolver) ResolveAccount(_ context.Context, userID uuid.UUID) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, apperror.Unauthenticated("account no longer exists")
	}
	return u, nil
}

type authFixture struct {
	jwtSvc   auth.JWTService
	resolver *fakeResolver
	mw       *AuthMiddleware
}

func newAuthFixture() *authFixture {
	gin.SetMode(gin.TestMode)
	jwtSvc := auth.NewJWTService("test-secret", time.Minute)
	resolver := &fakeResolver{users: make(map[uuid.UUID]*model.User)}
	return &authFixture{
		jwtSvc:   jwtSvc,
		resolver: resolver,
		mw:       NewAuthMiddleware(jwtSvc, resolver),
	}
}

func (fx *authFixture) addUser(roles ...string) *model.User {
	u := &model.User{Enabled: true}
	u.ID = uuid.New()
	for _, r := range roles {
		u.Roles = append(u.Roles, model.Role{Name: r})
	}
	fx.resolver.users[u.ID] = u
	return u
}

func (fx *authFixture) token(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := fx.jwtSvc.Issue(u.ID, u.PrimaryRole())
	require.NoError(t, err)
	return token
}

func perform(engine *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func protectedRoute(fx *authFixture, guards ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	handlers := append([]gin.HandlerFunc{fx.mw.Authenticate()}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	engine.GET("/protected", handlers...)
	return engine
}

func TestAuthenticateMissingHeader(t *testing.T) {
	fx := newAuthFixture()
	engine := protectedRoute(fx)

	w := perform(engine, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization header")
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	fx := newAuthFixture()
	engine := protectedRoute(fx)

	w := perform(engine, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid authorization format")
}

func TestAuthenticateGarbageToken(t *testing.T) {
	fx := newAuthFixture()
	engine := protectedRoute(fx)

	w := perform(engine, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestAuthenticateExpiredToken(t *testing.T) {
	fx := newAuthFixture()
	user := fx.addUser(model.RolePatient)
	engine := protectedRoute(fx)

	token, err := fx.jwtSvc.IssueWithTTL(user.ID, model.RolePatient, -time.Minute)
	require.NoError(t, err)

	w := perform(engine, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestAuthenticateUnknownAccount(t *testing.T) {
	fx := newAuthFixture()
	engine := protectedRoute(fx)

	token, err := fx.jwtSvc.Issue(uuid.New(), model.RolePatient)
	require.NoError(t, err)

	w := perform(engine, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesGranted(t *testing.T) {
	fx := newAuthFixture()
	user := fx.addUser(model.RoleAdmin)
	engine := protectedRoute(fx, fx.mw.RequireRoles(model.RoleAdmin, model.RoleDentist))

	w := perform(engine, "Bearer "+fx.token(t, user))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesCaseInsensitive(t *testing.T) {
	fx := newAuthFixture()
	user := fx.addUser("admin")
	engine := protectedRoute(fx, fx.mw.RequireRoles(model.RoleAdmin))

	w := perform(engine, "Bearer "+fx.token(t, user))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesDenied(t *testing.T) {
	fx := newAuthFixture()
	user := fx.addUser(model.RolePatient)
	engine := protectedRoute(fx, fx.mw.RequireRoles(model.RoleAdmin))

	w := perform(engine, "Bearer "+fx.token(t, user))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesSecondaryRoleCounts(t *testing.T) {
	fx := newAuthFixture()
	user := fx.addUser(model.RolePatient, model.RoleAdmin)
	engine := protectedRoute(fx, fx.mw.RequireRoles(model.RoleAdmin))

	// The token carries only the primary role; the resolved account's
	// full role set is what the guard checks.
	w := perform(engine, "Bearer "+fx.token(t, user))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePatient(t *testing.T) {
	fx := newAuthFixture()
	patient := fx.addUser(model.RolePatient)
	dentist := fx.addUser(model.RoleDentist)
	roleless := fx.addUser()

	engine := protectedRoute(fx, fx.mw.RequirePatient())

	w := perform(engine, "Bearer "+fx.token(t, patient))
	assert.Equal(t, http.StatusOK, w.Code)

	denied := perform(engine, "Bearer "+fx.token(t, dentist))
	assert.Equal(t, http.StatusForbidden, denied.Code)

	noRole := perform(engine, "Bearer "+fx.token(t, roleless))
	assert.Equal(t, http.StatusForbidden, noRole.Code)

	// Wrong role and no role read identically.
	assert.Equal(t, denied.Body.String(), noRole.Body.String())
}
