package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uint64
	Identifier string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. Identifier is
// the principal's email, or a synthetic handle for accounts without one.
type AccessTokenClaims struct {
	UserID     uint64 `json:"user_id"`
	Identifier string `json:"identifier"`
	jwt.RegisteredClaims
}
