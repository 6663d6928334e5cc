package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed JWT for the staff email using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, email string) (string, time.Time, error) {
	if cfg.Secret == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", time.Time{}, fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt expiration minutes must be positive")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", time.Time{}, fmt.Errorf("email is required")
	}

	expiresAt := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	claims := AccessTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("token missing email claim")
	}
	return claims, nil
}
