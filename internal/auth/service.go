package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/orderdesk/pkg/auth"
	"github.com/angelmondragon/orderdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type service struct {
	staff  config.StaffConfig
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Staff     config.StaffConfig
	JWTConfig config.JWTConfig
	Now       func() time.Time
}

// NewService constructs the staff login service.
func NewService(params ServiceParams) (Service, error) {
	if strings.TrimSpace(params.Staff.Email) == "" {
		return nil, fmt.Errorf("staff email is required")
	}
	if params.Staff.PasswordHash == "" {
		return nil, fmt.Errorf("staff password hash is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{staff: params.Staff, jwtCfg: params.JWTConfig, now: now}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	// Verify even on an email mismatch so both paths cost the same.
	ok, err := security.VerifyPassword(req.Password, s.staff.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !strings.EqualFold(email, strings.TrimSpace(s.staff.Email)) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, expiresAt, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Email:       email,
	}, nil
}
