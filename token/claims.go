package token

import "github.com/golang-jwt/jwt/v5"

// Purpose names a single-use token kind. The purpose doubles as the typ
// claim, so a verification token can never be replayed as a reset token.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

const refreshTokenType = "refresh"

// AccessClaims is the access token payload. The jti (RegisteredClaims.ID)
// keys the grant entry in Redis.
type AccessClaims struct {
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh token payload. The jti matches the durable
// RefreshRecord row.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// SingleUseClaims is the payload of verification and reset tokens.
type SingleUseClaims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}
