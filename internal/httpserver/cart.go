package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	view, err := h.Svc.Items(ctx, optionalID(c), cartToken(c))
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	userID := optionalID(c)
	token := ""
	if userID == 0 {
		token = ensureCartToken(c)
	}

	item, err := h.Svc.Add(ctx, userID, token, req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("item_added_to_cart", "item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) RemoveOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_one")

	itemID, err := parseUintParam(c, "id")
	if err != nil {
		l.Warn("remove_one_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	deleted, item, err := h.Svc.RemoveOne(ctx, optionalID(c), cartToken(c), itemID)
	if err != nil {
		return fail(l, "remove_one_error", err)
	}

	res := transport.RemoveOneFromCartResponse{ItemID: itemID, Deleted: deleted}
	if !deleted {
		res.Quantity = item.Quantity
	}
	return c.JSON(http.StatusOK, res)
}
