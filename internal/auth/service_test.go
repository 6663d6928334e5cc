package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/orderdesk/pkg/auth"
	"github.com/angelmondragon/orderdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/security"
)

const staffPassword = "counter-secret"

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "orderdesk", ExpirationMinutes: 30}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildTestService(t *testing.T, now time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Staff:     config.StaffConfig{Email: "Desk@Example.com", PasswordHash: mustHashPassword(t, staffPassword)},
		JWTConfig: testJWT,
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestServiceLoginMintsToken(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := buildTestService(t, now)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " desk@example.com ", Password: staffPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected bearer token type, got %q", resp.TokenType)
	}
	if !resp.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Email != "desk@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := buildTestService(t, time.Now())

	cases := []LoginRequest{
		{Email: "desk@example.com", Password: "wrong-password"},
		{Email: "other@example.com", Password: staffPassword},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %s, got %v", req.Email, err)
		}
	}

	_, err := svc.Login(context.Background(), LoginRequest{Email: "", Password: staffPassword})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceLoginCorruptHashIsInternal(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Staff:     config.StaffConfig{Email: "desk@example.com", PasswordHash: "plain"},
		JWTConfig: testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	_, err = svc.Login(context.Background(), LoginRequest{Email: "desk@example.com", Password: staffPassword})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestNewServiceRequiresConfig(t *testing.T) {
	if _, err := NewService(ServiceParams{JWTConfig: testJWT}); err == nil {
		t.Fatalf("expected error without staff email")
	}
	if _, err := NewService(ServiceParams{Staff: config.StaffConfig{Email: "a@b.c", PasswordHash: "x"}}); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}
