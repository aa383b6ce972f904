package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinidash/clinidash/internal/platform/auth"
	"github.com/clinidash/clinidash/internal/platform/db"
)

// Account is a dashboard login stored in the control database. Admin
// accounts carry the connection credentials of exactly one tenant
// database; superadmin accounts carry none and reach tenant data only
// by impersonating an admin.
type Account struct {
	ID           int64                 `json:"id"`
	Username     string                `json:"username"`
	PasswordHash string                `json:"-"`
	Role         auth.Role             `json:"role"`
	Target       *db.TargetCredentials `json:"target,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Validate enforces the role/credentials invariant: a superadmin never
// carries target credentials, an admin always carries a complete set.
func (a *Account) Validate() error {
	if !a.Role.Valid() {
		return fmt.Errorf("unknown role %q", a.Role)
	}
	switch a.Role {
	case auth.RoleSuperadmin:
		if a.Target != nil {
			return fmt.Errorf("a superadmin account must not carry target database credentials")
		}
	case auth.RoleAdmin:
		if a.Target == nil {
			return fmt.Errorf("an admin account requires target database credentials")
		}
		if !a.Target.Complete() {
			return fmt.Errorf("admin target credentials incomplete (missing: %s)",
				strings.Join(a.Target.MissingFields(), ", "))
		}
	}
	return nil
}

// Principal returns the session identity for this account.
func (a *Account) Principal() *auth.Principal {
	return &auth.Principal{
		AccountID: a.ID,
		Username:  a.Username,
		Role:      a.Role,
	}
}

// View is the JSON shape returned by the account-management endpoints.
// Target passwords never leave the server.
type View struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      auth.Role `json:"role"`
	Host      string    `json:"sql_host,omitempty"`
	Database  string    `json:"sql_database,omitempty"`
	User      string    `json:"sql_user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AsView converts the account to its API representation.
func (a *Account) AsView() View {
	v := View{
		ID:        a.ID,
		Username:  a.Username,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Target != nil {
		v.Host = a.Target.Host
		v.Database = a.Target.Database
		v.User = a.Target.User
	}
	return v
}
