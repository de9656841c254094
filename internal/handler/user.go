package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marlenbek/login-service/internal/config"
	"github.com/marlenbek/login-service/internal/model"
	"github.com/marlenbek/login-service/internal/user"
)

// UserHandler exposes the profile endpoints behind RequireSession.
type UserHandler struct {
	Cfg   config.Config
	Users *user.Service
}

func NewUserHandler(cfg config.Config, u *user.Service) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type updateProfileReq struct {
	Username string `json:"username"`
}
type updatePhoneReq struct {
	PhoneNumber string `json:"phoneNumber"`
}
type changePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// currentUser returns the user injected by RequireSession.
func currentUser(c echo.Context) model.User {
	u, _ := c.Get("user").(model.User)
	return u
}

// Get returns the current profile.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Get(ctx, currentUser(c).ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toUserPart(u)})
}

// UpdateProfile updates the display name.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, currentUser(c).ID, req.Username)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toUserPart(u), "message": "User-profile updated successfully."})
}

// UpdatePhone attaches a new phone number and starts verification over SMS.
func (h *UserHandler) UpdatePhone(c echo.Context) error {
	var req updatePhoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ch, err := h.Users.UpdatePhone(ctx, currentUser(c).ID, req.PhoneNumber)
	if err != nil {
		return writeError(c, err)
	}
	data := otpPart{Expires: ch.Expires}
	if h.Cfg.OTPInResponse {
		data.OTP = ch.OTP
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data, "message": "OTP generated successfully"})
}

// ChangePassword verifies the old password before storing the new one.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.ChangePassword(ctx, currentUser(c).ID, req.OldPassword, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": nil, "message": "Password changed successfully"})
}
