package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie names carrying the two tokens.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Claims JWT payload shared by access and refresh tokens.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a token asserts about its holder.
type Identity struct {
	Username string
	Email    string
	Role     string
}

// Identity returns the identity part of the claims.
func (c *Claims) Identity() Identity {
	return Identity{Username: c.Username, Email: c.Email, Role: c.Role}
}

func (c *Claims) complete() bool {
	return c.Username != "" && c.Email != "" && c.Role != ""
}

// GenerateToken signs a token for id that expires after ttl.
func (v *Verifier) GenerateToken(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Username: id.Username,
		Email:    id.Email,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ParseToken verifies the signature and expiry of tokenString.
func (v *Verifier) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenSignatureInvalid
}

// tokenErrorCause names the category of a token verification failure.
func tokenErrorCause(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "TokenMalformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "TokenSignatureInvalid"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "TokenUnverifiable"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "TokenNotValidYet"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "TokenExpired"
	default:
		return "TokenInvalid"
	}
}
