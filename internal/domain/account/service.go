package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinidash/clinidash/internal/platform/auth"
	"github.com/clinidash/clinidash/internal/platform/db"
)

// ErrInvalidCredentials is returned by Authenticate on a bad username
// or password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Service owns account lifecycle rules: password hashing and the
// role/credentials invariant.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateParams carries the fields accepted when creating an account.
type CreateParams struct {
	Username string                `json:"username"`
	Password string                `json:"password"`
	Role     auth.Role             `json:"role"`
	Target   *db.TargetCredentials `json:"target"`
}

// UpdateParams carries the optional fields accepted when updating an
// account. Nil fields are left unchanged.
type UpdateParams struct {
	Password *string               `json:"password"`
	Role     *auth.Role            `json:"role"`
	Target   *db.TargetCredentials `json:"target"`
}

// Authenticate verifies a username/password pair against the stored
// bcrypt hash and returns the matching account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	acct, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account by username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// Create hashes the password, enforces the role invariant, and stores
// the account. A superadmin's target credentials are dropped rather
// than stored; an admin without complete credentials is rejected.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	if params.Username == "" || params.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	role := params.Role
	if role == "" {
		role = auth.RoleAdmin
	}

	acct := &Account{
		Username: params.Username,
		Role:     role,
		Target:   params.Target,
	}
	if role == auth.RoleSuperadmin {
		acct.Target = nil
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Update applies the given changes to an existing account, re-checking
// the role invariant against the resulting state.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Account, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Role != nil {
		acct.Role = *params.Role
	}
	if params.Target != nil {
		acct.Target = params.Target
	}
	if acct.Role == auth.RoleSuperadmin {
		acct.Target = nil
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}

	if params.Password != nil {
		if *params.Password == "" {
			return nil, fmt.Errorf("password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		acct.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Get loads a single account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all accounts, newest first.
func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return s.repo.List(ctx)
}

// Delete removes an account. Cached tenant pools are not touched: the
// pool cache keys on credentials, and another account may share them.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
