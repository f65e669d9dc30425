package verification

import "github.com/golang-jwt/jwt/v4"

// TokenTypeEmailVerification marks tokens that may only be used to verify an email
const TokenTypeEmailVerification = "email_verification"

// Claims carried by a verification token
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// Causes a token is refused. They are logged, never returned to callers.
const (
	causeMalformed = "malformed"
	causeSignature = "signature"
	causeExpired   = "expired"
	causeWrongType = "wrong_type"
	causeInvalid   = "invalid"
)
