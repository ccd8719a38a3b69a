package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/service"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CartCookie         = "cart_token"
	ResetSessionCookie = "resetSession"

	cartCookieTTL    = 365 * 24 * time.Hour
	resetSessionPath = "/accounts/reset-password"
	defaultRedirect  = "/accounts/dashboard"
)

var errUnauthorized = errors.New("unauthorized")

func GetID(c echo.Context) (uint, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return 0, errUnauthorized
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errUnauthorized
	}
	return uint(id), nil
}

// optionalID is 0 for anonymous requests.
func optionalID(c echo.Context) uint {
	id, _ := GetID(c)
	return id
}

func cartToken(c echo.Context) string {
	ck, err := c.Cookie(CartCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

// ensureCartToken returns the visitor's cart token, issuing one on first use.
func ensureCartToken(c echo.Context) string {
	if tok := cartToken(c); tok != "" {
		return tok
	}
	tok := uuid.NewString()
	c.SetCookie(jwthelp.CreateCookie(CartCookie, tok, "/", time.Now().Add(cartCookieTTL)))
	return tok
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " is not a positive integer")
	}
	return uint(v), nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidLink):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInactive):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under event and turns it into an HTTP error. Internal errors
// are not echoed to the client.
func fail(l *slog.Logger, event string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal server error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error())
}

// safeRedirect accepts only local absolute paths.
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultRedirect
	}
	return next
}
