package account

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinidash/clinidash/internal/platform/auth"
	"github.com/clinidash/clinidash/internal/platform/db"
)

func TestService_CreateAdmin(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	acct, err := svc.Create(context.Background(), CreateParams{
		Username: "clinic-a",
		Password: "s3cret",
		Role:     auth.RoleAdmin,
		Target:   fullCreds(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if acct.ID == 0 {
		t.Error("expected assigned id")
	}
	if acct.PasswordHash == "s3cret" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("s3cret")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestService_CreateDefaultsToAdmin(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	acct, err := svc.Create(context.Background(), CreateParams{
		Username: "clinic-a",
		Password: "s3cret",
		Target:   fullCreds(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.Role != auth.RoleAdmin {
		t.Errorf("expected default role admin, got %q", acct.Role)
	}
}

func TestService_CreateAdminRequiresFullCredentials(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	tests := []*db.TargetCredentials{
		nil,
		{Database: "d", User: "u", Password: "p"},
		{Host: "h", User: "u", Password: "p"},
		{Host: "h", Database: "d", Password: "p"},
		{Host: "h", Database: "d", User: "u"},
	}
	for i, target := range tests {
		_, err := svc.Create(context.Background(), CreateParams{
			Username: "clinic-a",
			Password: "s3cret",
			Role:     auth.RoleAdmin,
			Target:   target,
		})
		if err == nil {
			t.Errorf("case %d: expected incomplete credentials to be rejected", i)
		}
	}
}

func TestService_CreateSuperadminDropsCredentials(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	acct, err := svc.Create(context.Background(), CreateParams{
		Username: "root",
		Password: "s3cret",
		Role:     auth.RoleSuperadmin,
		Target:   fullCreds(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.Target != nil {
		t.Error("superadmin must never store target credentials")
	}
}

func TestService_CreateRejectsMissingFields(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	if _, err := svc.Create(context.Background(), CreateParams{Password: "x"}); err == nil {
		t.Error("expected missing username to be rejected")
	}
	if _, err := svc.Create(context.Background(), CreateParams{Username: "x"}); err == nil {
		t.Error("expected missing password to be rejected")
	}
	if _, err := svc.Create(context.Background(), CreateParams{
		Username: "x", Password: "y", Role: "owner",
	}); err == nil {
		t.Error("expected unknown role to be rejected")
	}
}

func TestService_CreateDuplicateUsername(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	params := CreateParams{Username: "clinic-a", Password: "x", Role: auth.RoleAdmin, Target: fullCreds()}
	if _, err := svc.Create(context.Background(), params); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), params)
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	if _, err := svc.Create(context.Background(), CreateParams{
		Username: "clinic-a", Password: "s3cret", Role: auth.RoleAdmin, Target: fullCreds(),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	acct, err := svc.Authenticate(context.Background(), "clinic-a", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if acct.Username != "clinic-a" {
		t.Errorf("unexpected account: %+v", acct)
	}

	if _, err := svc.Authenticate(context.Background(), "clinic-a", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestService_UpdateRoleToSuperadminClearsCredentials(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	acct, err := svc.Create(context.Background(), CreateParams{
		Username: "clinic-a", Password: "x", Role: auth.RoleAdmin, Target: fullCreds(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	role := auth.RoleSuperadmin
	updated, err := svc.Update(context.Background(), acct.ID, UpdateParams{Role: &role})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Target != nil {
		t.Error("promotion to superadmin must clear target credentials")
	}
}

func TestService_UpdateRoleToAdminRequiresCredentials(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	acct, err := svc.Create(context.Background(), CreateParams{
		Username: "root", Password: "x", Role: auth.RoleSuperadmin,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	role := auth.RoleAdmin
	if _, err := svc.Update(context.Background(), acct.ID, UpdateParams{Role: &role}); err == nil {
		t.Error("demotion to admin without credentials must be rejected")
	}

	updated, err := svc.Update(context.Background(), acct.ID, UpdateParams{Role: &role, Target: fullCreds()})
	if err != nil {
		t.Fatalf("update with credentials: %v", err)
	}
	if updated.Target == nil {
		t.Error("expected credentials on the demoted account")
	}
}

func TestService_UpdatePassword(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	acct, err := svc.Create(context.Background(), CreateParams{
		Username: "clinic-a", Password: "old", Role: auth.RoleAdmin, Target: fullCreds(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPass := "new"
	if _, err := svc.Update(context.Background(), acct.ID, UpdateParams{Password: &newPass}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "clinic-a", "new"); err != nil {
		t.Errorf("new password should authenticate: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "clinic-a", "old"); err == nil {
		t.Error("old password should no longer authenticate")
	}

	empty := ""
	if _, err := svc.Update(context.Background(), acct.ID, UpdateParams{Password: &empty}); err == nil {
		t.Error("empty password must be rejected")
	}
}

func TestService_UpdateMissingAccount(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	if _, err := svc.Update(context.Background(), 99, UpdateParams{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_DeleteAndList(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	a, err := svc.Create(context.Background(), CreateParams{
		Username: "clinic-a", Password: "x", Role: auth.RoleAdmin, Target: fullCreds(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	accounts, err := svc.List(context.Background())
	if err != nil || len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d (err %v)", len(accounts), err)
	}

	if err := svc.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
