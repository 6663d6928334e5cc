package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the JWT body issued to desk staff. The subject carries
// the staff email.
type AccessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
