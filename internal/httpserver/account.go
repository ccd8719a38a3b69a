package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AccountHTTP struct {
	Profiles *service.ProfileService
	Orders   *service.OrderService
}

func (h *AccountHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.dashboard")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	d, err := h.Profiles.Dashboard(ctx, userID)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AccountHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.my_orders")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orders, err := h.Orders.MyOrders(ctx, userID)
	if err != nil {
		return fail(l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *AccountHTTP) OrderDetail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.order_detail")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	d, err := h.Orders.OrderDetail(ctx, userID, c.Param("number"))
	if err != nil {
		return fail(l, "order_detail_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AccountHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.get_profile")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	a, p, err := h.Profiles.Profile(ctx, userID)
	if err != nil {
		return fail(l, "get_profile_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"account": a, "profile": p})
}

func (h *AccountHTTP) EditProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.edit_profile")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.EditProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("edit_profile_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	a, p, err := h.Profiles.EditProfile(ctx, userID, req)
	if err != nil {
		return fail(l, "edit_profile_error", err)
	}

	l.Info("profile_updated")
	return c.JSON(http.StatusOK, echo.Map{"account": a, "profile": p, "message": "Your profile has been updated."})
}
