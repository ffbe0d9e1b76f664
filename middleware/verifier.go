package middleware

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"ledger/models"

	"github.com/golang-jwt/jwt/v5"
)

// RenewedAccessTTL lifetime of an access token minted from a refresh token.
const RenewedAccessTTL = time.Hour

// RefreshedTokenMessage tells the client to pick up the renewed access token.
const RefreshedTokenMessage = "Access token has been refreshed. Remember to copy the new one in the headers of subsequent calls"

// Causes reported by Verify.
const (
	CauseAuthorized        = "Authorized"
	CauseUnauthorized      = "Unauthorized"
	CauseMissingInfo       = "Token is missing information"
	CauseMismatchedUsers   = "Mismatched users"
	CausePerformLoginAgain = "Perform login again"
)

type capabilityKind int

const (
	capSimple capabilityKind = iota
	capAuthenticated
	capUser
	capAdmin
	capGroup
)

// Capability is the authorization check a route requires.
type Capability struct {
	kind     capabilityKind
	username string
	emails   []string
}

// Simple always passes.
func Simple() Capability { return Capability{kind: capSimple} }

// Authenticated requires a valid, consistent token pair and nothing else.
func Authenticated() Capability { return Capability{kind: capAuthenticated} }

// User requires the token holder to be username.
func User(username string) Capability { return Capability{kind: capUser, username: username} }

// Admin requires the Admin role.
func Admin() Capability { return Capability{kind: capAdmin} }

// Group requires the holder's email to be one of emails.
func Group(emails []string) Capability { return Capability{kind: capGroup, emails: emails} }

// check returns the denial cause, or "" when c accepts claims.
// expired selects the wording used when the decision rests on the refresh token.
func (c Capability) check(claims *Claims, expired bool) string {
	switch c.kind {
	case capUser:
		if claims.Username != c.username {
			if expired {
				return "Token Expired: Mismatched users"
			}
			return "User: Mismatched users"
		}
	case capAdmin:
		if claims.Role != models.RoleAdmin {
			if expired {
				return "Admin: Access Token Expired and Mismatched role"
			}
			return "Admin: Mismatched role"
		}
	case capGroup:
		if !slices.Contains(c.emails, claims.Email) {
			if expired {
				return "Group: Access Token Expired and user not in group"
			}
			return "Group: user not in group"
		}
	}
	return ""
}

// Renewal is the only side effect Verify can ask for: hand the client a new access token.
type Renewal struct {
	Token   string
	Cookie  *http.Cookie
	Message string
}

// Result of a verification.
type Result struct {
	Authorized bool
	Cause      string
	// Claims the decision was made on; nil when no token pair was accepted.
	Claims *Claims
	// SessionExpired is set when both tokens have expired.
	SessionExpired bool
	Renewal        *Renewal
}

func denied(cause string) Result {
	return Result{Cause: cause}
}

// Verifier checks access/refresh token pairs against capabilities.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier signing and checking with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify decides whether the token pair satisfies capability. It performs no I/O;
// a renewed access token is returned in Result.Renewal for the caller to deliver.
func (v *Verifier) Verify(accessToken, refreshToken string, capability Capability) Result {
	if capability.kind == capSimple {
		return Result{Authorized: true, Cause: CauseAuthorized}
	}
	if accessToken == "" || refreshToken == "" {
		return denied(CauseUnauthorized)
	}

	access, err := v.ParseToken(accessToken)
	if err == nil {
		var refresh *Claims
		refresh, err = v.ParseToken(refreshToken)
		if err == nil {
			return v.checkPair(access, refresh, capability)
		}
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return denied(tokenErrorCause(err))
	}
	return v.renew(refreshToken, capability)
}

func (v *Verifier) checkPair(access, refresh *Claims, capability Capability) Result {
	if !access.complete() || !refresh.complete() {
		return denied(CauseMissingInfo)
	}
	if access.Identity() != refresh.Identity() {
		return denied(CauseMismatchedUsers)
	}
	if cause := capability.check(access, false); cause != "" {
		return denied(cause)
	}
	return Result{Authorized: true, Cause: CauseAuthorized, Claims: access}
}

// renew handles an expired token pair: the refresh token alone decides.
func (v *Verifier) renew(refreshToken string, capability Capability) Result {
	refresh, err := v.ParseToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{Cause: CausePerformLoginAgain, SessionExpired: true}
		}
		return denied(tokenErrorCause(err))
	}
	if !refresh.complete() {
		return denied(CauseMissingInfo)
	}
	if cause := capability.check(refresh, true); cause != "" {
		return denied(cause)
	}

	token, err := v.GenerateToken(refresh.Identity(), RenewedAccessTTL)
	if err != nil {
		return denied(tokenErrorCause(err))
	}
	return Result{
		Authorized: true,
		Cause:      CauseAuthorized,
		Claims:     refresh,
		Renewal: &Renewal{
			Token:   token,
			Cookie:  renewedAccessCookie(token),
			Message: RefreshedTokenMessage,
		},
	}
}

func renewedAccessCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/api",
		MaxAge:   int(RenewedAccessTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
	}
}
