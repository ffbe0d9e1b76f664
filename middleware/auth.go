package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RefreshedTokenMessageKey context key of the renewal notice surfaced in responses.
const RefreshedTokenMessageKey = "refreshedTokenMessage"

const claimsKey = "claims"

// Authorize verifies the request cookies against capability. When the access token
// was renewed it sets the new cookie and the renewal notice; nothing else is written.
func Authorize(c *gin.Context, v *Verifier, capability Capability) Result {
	accessToken, _ := c.Cookie(AccessTokenCookie)
	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	res := v.Verify(accessToken, refreshToken, capability)
	if res.Renewal != nil {
		http.SetCookie(c.Writer, res.Renewal.Cookie)
		c.Set(RefreshedTokenMessageKey, res.Renewal.Message)
	}
	if res.Authorized && res.Claims != nil {
		c.Set(claimsKey, res.Claims)
	}
	return res
}

// AuthorizeAny tries each capability in order and returns the first success,
// or the last denial.
func AuthorizeAny(c *gin.Context, v *Verifier, capabilities ...Capability) Result {
	res := denied(CauseUnauthorized)
	for _, capability := range capabilities {
		res = Authorize(c, v, capability)
		if res.Authorized {
			return res
		}
	}
	return res
}

// GetCurrentClaims returns the claims stored by a successful Authorize.
func GetCurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
