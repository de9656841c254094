package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/marlenbek/login-service/internal/handler"
	"github.com/marlenbek/login-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. The login, verify and
// reset operations are unauthenticated by nature; logout runs behind the
// session middleware because it needs the presented token resolved first.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessions middleware.SessionChecker) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.LoginViaEmail)
	g.POST("/login-via-phone", a.LoginViaPhone)
	g.POST("/verify", a.Verify)
	g.POST("/reset-password-request", a.ResetPasswordRequest)
	g.POST("/verify-token", a.VerifyResetToken)
	g.POST("/reset-password", a.ResetPassword)
	g.DELETE("/logout", a.Logout, middleware.RequireSession(sessions))
}

// RegisterUsers registers the profile endpoints. Every route in the group
// requires a valid session.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, sessions middleware.SessionChecker) {
	g := e.Group("/v1/users", middleware.RequireSession(sessions))
	g.GET("", u.Get)
	g.PUT("/update-profile", u.UpdateProfile)
	g.PUT("/update-phone", u.UpdatePhone)
	g.POST("/change-password", u.ChangePassword)
}
