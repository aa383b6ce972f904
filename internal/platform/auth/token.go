package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role of a dashboard account. The set is closed: superadmins manage
// accounts and impersonate admins, admins carry their own target
// database credentials.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSuperadmin || r == RoleAdmin
}

// Claims embedded in a dashboard bearer token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
}

// Principal is the session identity recovered from a validated token.
type Principal struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
}

// TokenSigner issues and validates HS256 bearer tokens with a shared secret.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret []byte, ttl time.Duration) *TokenSigner {
	return &TokenSigner{secret: secret, ttl: ttl}
}

// Issue signs a token carrying the principal's identity and role.
func (s *TokenSigner) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", p.AccountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		AccountID: p.AccountID,
		Username:  p.Username,
		Role:      p.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning the embedded
// principal. Signature, expiry, and signing method are all checked.
func (s *TokenSigner) Verify(tokenStr string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}

	return &Principal{
		AccountID: claims.AccountID,
		Username:  claims.Username,
		Role:      claims.Role,
	}, nil
}

type contextKey string

const (
	principalKey    contextKey = "principal"
	impersonatedKey contextKey = "impersonated"
)

// WithPrincipal returns a context carrying the session principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the session principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// WithImpersonated returns a context carrying the impersonated admin
// identity, set only when a superadmin acts on behalf of an admin.
func WithImpersonated(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, impersonatedKey, p)
}

// ImpersonatedFromContext retrieves the impersonated admin identity,
// or nil when the request is not impersonated.
func ImpersonatedFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(impersonatedKey).(*Principal)
	return p
}
