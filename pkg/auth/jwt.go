package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = 60 * time.Minute

// Claims is the payload of an access token: subject identity plus the
// role granted at login. Validity is signature plus expiry only; there is
// no revocation list, so callers must still resolve the subject to a live
// account.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the token subject as an account ID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// HasRole reports whether the scalar role claim matches name,
// case-insensitively.
func (c *Claims) HasRole(name string) bool {
	return c.Role != "" && strings.EqualFold(c.Role, name)
}

type JWTService interface {
	Issue(subject uuid.UUID, role string) (string, error)
	IssueWithTTL(subject uuid.UUID, role string, ttl time.Duration) (string, error)
	Verify(token string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService creates a token service signing with the given symmetric
// secret. The secret is injected, never read from ambient state, so the
// service stays independently testable.
func NewJWTService(secret string, ttl time.Duration) JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &jwtService{secret: []byte(secret), ttl: ttl}
}

func (s *jwtService) Issue(subject uuid.UUID, role string) (string, error) {
	return s.IssueWithTTL(subject, role, s.ttl)
}

func (s *jwtService) IssueWithTTL(subject uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the decoded claims.
// ErrExpiredToken is reported for expiry, ErrInvalidToken for everything
// else, including a missing subject.
func (s *jwtService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
