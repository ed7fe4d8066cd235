package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeAccess TokenType = "access"

const RoleAdmin = "admin"

// Claims are the only supported JWT claims shape for this service.
// The console is single-tenant: identity is a subject plus a role, nothing
// more. Survey results carry personal voice data, so every read endpoint
// sits behind these tokens.
type Claims struct {
	jwt.RegisteredClaims

	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
