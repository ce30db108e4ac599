package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextUserID is the echo context key Identify stores the caller under.
const ContextUserID = "user_id"

// Authenticator validates an access token and returns its user id.
type Authenticator interface {
	Authenticate(access string) (uint64, error)
}

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when there is none.
func BearerToken(c echo.Context) string {
	h := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// Identify records the token subject for rate-limit keys, cache keys and
// request logs. It never rejects a request and grants nothing: handlers
// resolve and authorize the actor themselves.
func Identify(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tok := BearerToken(c); tok != "" {
				if uid, err := auth.Authenticate(tok); err == nil {
					c.Set(ContextUserID, strconv.FormatUint(uid, 10))
				}
			}
			return next(c)
		}
	}
}

// userID returns the identified caller or "guest".
func userID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok && s != "" {
		return s
	}
	return "guest"
}
