package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	v := NewVerifier(testSecret)

	token, err := v.GenerateToken(tester, 24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, len(token), 20)

	claims, err := v.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tester", claims.Username)
	assert.Equal(t, "tester@test.com", claims.Email)
	assert.Equal(t, "Regular", claims.Role)
}

func TestParseToken(t *testing.T) {
	v := NewVerifier(testSecret)

	token, _ := v.GenerateToken(admin, time.Hour)
	claims, err := v.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	// empty string
	_, err = v.ParseToken("")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)

	// bad format
	_, err = v.ParseToken("not.a.valid.jwt")
	assert.Error(t, err)
	_, err = v.ParseToken("eyJhbGciOiJmb29iIn0.xxxx.yyyy")
	assert.Error(t, err)

	// expired
	expired, _ := v.GenerateToken(admin, -time.Second)
	_, err = v.ParseToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	// other algorithm
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "x"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.ParseToken(unsigned)
	assert.Error(t, err)
}

func TestTokenErrorCause(t *testing.T) {
	assert.Equal(t, "TokenMalformed", tokenErrorCause(jwt.ErrTokenMalformed))
	assert.Equal(t, "TokenSignatureInvalid", tokenErrorCause(jwt.ErrTokenSignatureInvalid))
	assert.Equal(t, "TokenExpired", tokenErrorCause(jwt.ErrTokenExpired))
	assert.Equal(t, "TokenInvalid", tokenErrorCause(jwt.ErrTokenRequiredClaimMissing))
}
