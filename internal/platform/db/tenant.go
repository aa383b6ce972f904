package db

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinidash/clinidash/internal/platform/auth"
)

type contextKey string

const tenantPoolKey contextKey = "tenant_pool"

// ImpersonateHeader selects the admin whose tenant credentials a
// superadmin request should use.
const ImpersonateHeader = "X-Impersonate-User-Id"

// TenantBinding is the outcome of resolving a request's identity down
// to an effective tenant. A nil Target marks the account-management
// bypass: the request needs no tenant database at all.
type TenantBinding struct {
	Principal    *auth.Principal
	Impersonated *auth.Principal
	Target       *TargetCredentials
}

// TenantResolver determines the effective tenant for a request. The
// account package provides the production implementation backed by the
// credential store.
type TenantResolver interface {
	Resolve(ctx context.Context, token, impersonateID string, managementRoute bool) (*TenantBinding, error)
}

// BindingMiddleware authenticates the request, resolves its effective
// tenant, and attaches the tenant's connection pool to the request
// context. Account-management routes (under managementPrefix) are
// resolved with the bypass flag and proceed without a pool.
//
// The middleware itself is stateless; all state lives in the credential
// store and the pool cache.
func BindingMiddleware(resolver TenantResolver, cache *PoolCache, managementPrefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			token, err := bearerToken(req.Header.Get("Authorization"))
			if err != nil {
				return httpError(err)
			}

			managementRoute := strings.HasPrefix(req.URL.Path, managementPrefix)
			impersonateID := req.Header.Get(ImpersonateHeader)

			binding, err := resolver.Resolve(req.Context(), token, impersonateID, managementRoute)
			if err != nil {
				return httpError(err)
			}

			ctx := auth.WithPrincipal(req.Context(), binding.Principal)
			if binding.Impersonated != nil {
				ctx = auth.WithImpersonated(ctx, binding.Impersonated)
			}

			if binding.Target != nil {
				pool, err := cache.Get(ctx, *binding.Target)
				if err != nil {
					return echo.NewHTTPError(http.StatusBadGateway,
						"could not reach target database")
				}
				ctx = WithTenantPool(ctx, pool)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// bearerToken extracts the raw token from an Authorization header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.NewError(auth.KindAuthentication, "no token provided")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", auth.NewError(auth.KindAuthentication, "invalid authorization format")
	}
	return parts[1], nil
}

// httpError converts a tagged resolution error into the echo error the
// client sees. Anything untagged is a server fault.
func httpError(err error) error {
	var resolveErr *auth.Error
	if errors.As(err, &resolveErr) {
		return echo.NewHTTPError(resolveErr.HTTPStatus(), resolveErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// WithTenantPool returns a context carrying the request's tenant pool.
func WithTenantPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, tenantPoolKey, pool)
}

// TenantPoolFromContext retrieves the tenant pool bound to the request,
// or nil on account-management bypass routes.
func TenantPoolFromContext(ctx context.Context) *pgxpool.Pool {
	pool, _ := ctx.Value(tenantPoolKey).(*pgxpool.Pool)
	return pool
}
