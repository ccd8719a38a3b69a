package httpserver

import (
	"errors"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	account, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"email":    account.Email,
		"redirect": "/accounts/login?command=verification&email=" + account.Email,
	})
}

func (h *AuthHTTP) Activate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.activate")

	if err := h.Svc.Activate(ctx, c.Param("uid"), c.Param("token")); err != nil {
		if errors.Is(err, service.ErrInvalidLink) {
			l.Warn("activate_failed", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid activation link")
		}
		return fail(l, "activate_failed", err)
	}

	l.Info("account_activated")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Congratulations! Your account is activated"})
}

// Login merges the visitor's anonymous cart into the account before the
// session cookies are issued.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req, cartToken(c))
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(jwthelp.CreateCookie(authmw.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(authmw.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
	if res.Merge.CartFound {
		c.SetCookie(jwthelp.DeleteCookie(CartCookie, "/"))
	}
	l.Info("login_successful", "merged", res.Merge.Merged, "transferred", res.Merge.Transferred)

	return c.JSON(http.StatusOK, transport.LoginResponse{
		Redirect:    safeRedirect(c.QueryParam("next")),
		IsAdmin:     res.IsAdmin,
		Merged:      res.Merge.Merged,
		Transferred: res.Merge.Transferred,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	c.SetCookie(jwthelp.DeleteCookie(authmw.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(authmw.AccessCookie, "/"))

	if ck, err := c.Cookie(authmw.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "You are logged out"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ck, err := c.Cookie(authmw.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		c.SetCookie(jwthelp.DeleteCookie(authmw.RefreshCookie, "/"))
		c.SetCookie(jwthelp.DeleteCookie(authmw.AccessCookie, "/"))
		return fail(l, "refresh_failed", err)
	}

	c.SetCookie(jwthelp.CreateCookie(authmw.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(authmw.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "tokens refreshed"})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("forgot_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Svc.ForgotPassword(ctx, req); err != nil {
		return fail(l, "forgot_password_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password reset email has been sent to your email address"})
}

func (h *AuthHTTP) ValidateResetLink(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_validate")

	session, exp, err := h.Svc.ValidateResetLink(ctx, c.Param("uid"), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidLink) {
			l.Warn("reset_link_rejected", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "This link has been expired")
		}
		return fail(l, "reset_link_error", err)
	}

	c.SetCookie(jwthelp.CreateCookie(ResetSessionCookie, session, resetSessionPath, exp))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Please reset your password"})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_password")

	ck, err := c.Cookie(ResetSessionCookie)
	if err != nil || ck.Value == "" {
		l.Warn("reset_password_error", "status", 400, "reason", "reset session missing")
		return echo.NewHTTPError(http.StatusBadRequest, "reset session missing")
	}

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Svc.ResetPassword(ctx, ck.Value, req); err != nil {
		return fail(l, "reset_password_error", err)
	}

	c.SetCookie(jwthelp.DeleteCookie(ResetSessionCookie, resetSessionPath))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password reset successful"})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("change_password_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Svc.ChangePassword(ctx, userID, req); err != nil {
		return fail(l, "change_password_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password updated successfully"})
}
