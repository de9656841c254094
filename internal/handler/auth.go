package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marlenbek/login-service/internal/auth"
	"github.com/marlenbek/login-service/internal/config"
	"github.com/marlenbek/login-service/internal/model"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *auth.Service
}

func NewAuthHandler(cfg config.Config, a *auth.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: a}
}

// ----- DTOs -----

type emailLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type phoneLoginReq struct {
	PhoneNumber string `json:"phoneNumber"`
}
type verifyReq struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}
type resetRequestReq struct {
	Email string `json:"email"`
}
type resetVerifyReq struct {
	Email      string `json:"email"`
	ResetToken string `json:"resetToken"`
}
type resetPasswordReq struct {
	Email       string `json:"email"`
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
	Phone    string `json:"phoneNumber,omitempty"`
	Verified bool   `json:"status"`
	Role     string `json:"role,omitempty"`
}
type sessionPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	User    userPart  `json:"user"`
}
type otpPart struct {
	OTP     string    `json:"otp,omitempty"`
	Expires time.Time `json:"expires"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:       u.ID,
		Email:    u.Email.String,
		Username: u.Username,
		Phone:    u.Phone.String,
		Verified: u.Verified,
		Role:     u.Role,
	}
}

func toSessionPart(s auth.Session) sessionPart {
	return sessionPart{Token: s.Token, Expires: s.Expires, User: toUserPart(s.User)}
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// LoginViaEmail: authenticate by email/password, provisioning the account on
// first use, and return a fresh session.
func (h *AuthHandler) LoginViaEmail(c echo.Context) error {
	var req emailLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.LoginViaEmail(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toSessionPart(sess)})
}

// LoginViaPhone: attach a login code to the phone record. The code itself
// travels over the delivery side-channel; it appears in the response only
// when sandbox mode is on.
func (h *AuthHandler) LoginViaPhone(c echo.Context) error {
	var req phoneLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ch, err := h.Auth.LoginViaPhone(ctx, req.PhoneNumber)
	if err != nil {
		return writeError(c, err)
	}
	data := otpPart{Expires: ch.Expires}
	if h.Cfg.OTPInResponse {
		data.OTP = ch.OTP
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data, "message": "OTP generated successfully"})
}

// Verify: consume the login code, mark the account verified and return a
// session exactly as a login would.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.VerifyPhone(ctx, req.PhoneNumber, req.OTP)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toSessionPart(sess)})
}

// Logout: revoke the session record of the presented token. Runs behind
// RequireSession, so the raw token is already in the context.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := c.Get("token").(string)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, token); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": nil, "deleted": true})
}

// ResetPasswordRequest: attach a reset code to the account and send it over
// the email channel.
func (h *AuthHandler) ResetPasswordRequest(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": "Password reset token sent successfully"})
}

// VerifyResetToken: check the email + code pair without consuming it.
func (h *AuthHandler) VerifyResetToken(c echo.Context) error {
	var req resetVerifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.VerifyResetCode(ctx, req.Email, req.ResetToken); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": "Reset token verified successfully"})
}

// ResetPassword: re-validate the triple and store the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Email, req.ResetToken, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": "Password reset successfully"})
}
