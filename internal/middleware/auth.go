package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/adsdental/clinic-api/internal/handler"
	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/pkg/auth"
)

const (
	ContextClaims = "claims"
	ContextUser   = "current_user"

	accountCacheTTL     = 30 * time.Second
	accountCacheCleanup = 5 * time.Minute
)

// AccountResolver maps a token subject to a live, enabled account.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type AuthMiddleware struct {
	jwtSvc   auth.JWTService
	resolver AccountResolver
	accounts *gocache.Cache
}

func NewAuthMiddleware(jwtSvc auth.JWTService, resolver AccountResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSvc:   jwtSvc,
		resolver: resolver,
		accounts: gocache.New(accountCacheTTL, accountCacheCleanup),
	}
}

// Authenticate verifies the bearer token and loads the calling account
// into the request context. Resolved accounts are cached briefly so a
// burst of requests from one caller costs a single account lookup.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.Verify(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token expired"
			}
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse(msg))
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		user, err := m.lookupAccount(c.Request.Context(), userID)
		if err != nil {
			handler.RespondError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRoles admits callers holding at least one of the named roles.
// The check runs against whichever identity shape is in context: the
// resolved account's role set when present, else the token's scalar
// role claim.
func (m *AuthMiddleware) RequireRoles(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		holder := roleHolder(c)
		if holder == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}

		for _, name := range names {
			if holder.HasRole(name) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient permissions"))
		c.Abort()
	}
}

// RequirePatient admits only patient accounts. Wrong-role and roleless
// callers get the same message so the response does not reveal which
// roles an account holds.
func (m *AuthMiddleware) RequirePatient() gin.HandlerFunc {
	return func(c *gin.Context) {
		holder := roleHolder(c)
		if holder == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}

		if !holder.HasRole(model.RolePatient) {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("only patients can access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) lookupAccount(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	key := userID.String()
	if cached, ok := m.accounts.Get(key); ok {
		return cached.(*model.User), nil
	}

	user, err := m.resolver.ResolveAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.accounts.Set(key, user, gocache.DefaultExpiration)
	return user, nil
}

func roleHolder(c *gin.Context) model.RoleHolder {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// CurrentUser returns the authenticated account previously stored by
// Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}
