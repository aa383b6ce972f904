package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinidash/clinidash/internal/platform/auth"
	"github.com/clinidash/clinidash/internal/platform/db"
)

// Resolver implements db.TenantResolver against the credential store.
// Given a bearer token and an optional impersonation target it decides
// which tenant database — if any — the request is allowed to query.
type Resolver struct {
	repo   Repository
	signer *auth.TokenSigner
}

// NewResolver creates a tenant resolver backed by the account repository.
func NewResolver(repo Repository, signer *auth.TokenSigner) *Resolver {
	return &Resolver{repo: repo, signer: signer}
}

// Resolve validates the token, loads the account, and branches on role:
//
//   - superadmin on an account-management route: bypass, no tenant
//     database is bound at all;
//   - superadmin elsewhere: the impersonation header is mandatory and
//     must name an admin with configured credentials;
//   - admin: its own credentials are used; an unprovisioned admin is
//     rejected.
//
// The role and username are always taken from the store, not from the
// token, so a role change takes effect on the next request.
func (r *Resolver) Resolve(ctx context.Context, token, impersonateID string, managementRoute bool) (*db.TenantBinding, error) {
	claims, err := r.signer.Verify(token)
	if err != nil {
		return nil, auth.NewError(auth.KindAuthentication, "invalid or expired token")
	}

	acct, err := r.repo.FindByID(ctx, claims.AccountID)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.NewError(auth.KindAuthorization, "account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", claims.AccountID, err)
	}

	principal := acct.Principal()

	if acct.Role == auth.RoleSuperadmin {
		if managementRoute {
			return &db.TenantBinding{Principal: principal}, nil
		}
		return r.resolveImpersonation(ctx, principal, impersonateID)
	}

	// Admin: own credentials, no impersonation.
	if acct.Target == nil || !acct.Target.Complete() {
		return nil, auth.NewError(auth.KindValidation,
			"admin lacks SQL credentials; contact a superadmin to provision this account")
	}
	return &db.TenantBinding{Principal: principal, Target: acct.Target}, nil
}

func (r *Resolver) resolveImpersonation(ctx context.Context, principal *auth.Principal, impersonateID string) (*db.TenantBinding, error) {
	if impersonateID == "" {
		return nil, auth.NewError(auth.KindValidation,
			fmt.Sprintf("superadmin must select an admin to view data (header: %s)", db.ImpersonateHeader))
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(impersonateID), 10, 64)
	if err != nil {
		return nil, auth.NewError(auth.KindValidation, "impersonation target id must be numeric")
	}

	target, err := r.repo.FindByID(ctx, targetID)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.NewError(auth.KindValidation, "impersonation target not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load impersonation target %d: %w", targetID, err)
	}

	if target.Role == auth.RoleSuperadmin {
		return nil, auth.NewError(auth.KindValidation, "cannot impersonate a superadmin")
	}
	if target.Target == nil || !target.Target.Complete() {
		return nil, auth.NewError(auth.KindValidation,
			"impersonation target has no SQL credentials configured")
	}

	return &db.TenantBinding{
		Principal:    principal,
		Impersonated: target.Principal(),
		Target:       target.Target,
	}, nil
}
