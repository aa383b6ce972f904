package auth

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), time.Hour)

	p := Principal{AccountID: 42, Username: "clinic-a", Role: RoleAdmin}
	token, err := signer.Issue(p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.AccountID != 42 || got.Username != "clinic-a" || got.Role != RoleAdmin {
		t.Errorf("principal mismatch: %+v", got)
	}
}

func TestTokenSigner_RejectsExpired(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), -time.Minute)

	token, err := signer.Issue(Principal{AccountID: 1, Username: "root", Role: RoleSuperadmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := signer.Verify(token); err == nil {
		t.Error("expected expired token to fail verification")
	}
}

func TestTokenSigner_RejectsWrongSecret(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), time.Hour)
	other := NewTokenSigner([]byte("other-secret"), time.Hour)

	token, err := signer.Issue(Principal{AccountID: 1, Username: "root", Role: RoleSuperadmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("expected token signed with a different secret to fail")
	}
}

func TestTokenSigner_RejectsGarbage(t *testing.T) {
	signer := NewTokenSigner([]byte("test-secret"), time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := signer.Verify(token); err == nil {
			t.Errorf("expected %q to fail verification", token)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleSuperadmin.Valid() || !RoleAdmin.Valid() {
		t.Error("expected known roles to be valid")
	}
	for _, r := range []Role{"", "root", "Admin", "SUPERADMIN"} {
		if r.Valid() {
			t.Errorf("expected role %q to be invalid", r)
		}
	}
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind   ErrorKind
		status int
	}{
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
		{KindConnection, http.StatusBadGateway},
	}
	for _, tt := range tests {
		e := NewError(tt.kind, "boom")
		if e.HTTPStatus() != tt.status {
			t.Errorf("kind %d: expected %d, got %d", tt.kind, tt.status, e.HTTPStatus())
		}
		if e.Error() != "boom" {
			t.Errorf("kind %d: unexpected message %q", tt.kind, e.Error())
		}
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if PrincipalFromContext(ctx) != nil {
		t.Error("expected nil principal from empty context")
	}

	p := &Principal{AccountID: 7, Username: "root", Role: RoleSuperadmin}
	ctx = WithPrincipal(ctx, p)
	if got := PrincipalFromContext(ctx); got != p {
		t.Errorf("expected principal back, got %+v", got)
	}

	if ImpersonatedFromContext(ctx) != nil {
		t.Error("expected nil impersonated principal")
	}
	imp := &Principal{AccountID: 9, Username: "clinic-a", Role: RoleAdmin}
	ctx = WithImpersonated(ctx, imp)
	if got := ImpersonatedFromContext(ctx); got != imp {
		t.Errorf("expected impersonated principal back, got %+v", got)
	}
}
