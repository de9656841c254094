package middleware // contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marlenbek/login-service/internal/model"
)

// SessionChecker resolves a bearer token to its current user, or fails.
// *auth.Service satisfies it.
type SessionChecker interface {
	CheckLogin(ctx context.Context, token string) (model.User, error)
}

// RequireSession returns an Echo middleware that authenticates the request
// through CheckLogin: the session record must exist, the token must decode
// as validly signed and unexpired, and the user must still be present in the
// credential store. The resolved user and the raw token are injected into
// the context under "user" and "token". Every failure is the same 401;
// the middleware never reveals which gate rejected the request.
func RequireSession(sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractToken(c)
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := sessions.CheckLogin(ctx, token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set("user", u)
			c.Set("token", token)
			return next(c)
		}
	}
}

// ExtractToken reads the bearer token from the Authorization header,
// falling back to the ?token= query parameter for clients that cannot set
// headers. An empty string means no token was supplied.
func ExtractToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.QueryParam("token")
}
