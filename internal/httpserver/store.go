package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type StoreHTTP struct {
	Svc *service.CatalogService
}

func (h *StoreHTTP) Store(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	res, err := h.Svc.Store(ctx, c.Param("category"), page)
	if err != nil {
		return fail(l, "store_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StoreHTTP) ProductDetail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.product_detail")

	viewer := service.Viewer{UserID: optionalID(c), CartToken: cartToken(c)}
	res, err := h.Svc.ProductDetail(ctx, c.Param("category"), c.Param("product"), viewer)
	if err != nil {
		return fail(l, "product_detail_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StoreHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	res, err := h.Svc.Search(ctx, c.QueryParam("keyword"), page)
	if err != nil {
		return fail(l, "search_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StoreHTTP) ApplySort(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.apply_sort")

	var req transport.SortRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("apply_sort_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "min_price and max_price must be numbers")
	}
	res, err := h.Svc.ApplySort(ctx, req)
	if err != nil {
		return fail(l, "apply_sort_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StoreHTTP) SubmitReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.submit_review")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID, err := parseUintParam(c, "id")
	if err != nil {
		l.Warn("submit_review_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("submit_review_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	rv, created, err := h.Svc.SubmitReview(ctx, userID, productID, c.RealIP(), req)
	if err != nil {
		return fail(l, "submit_review_error", err)
	}

	if created {
		return c.JSON(http.StatusCreated, transport.ReviewResponse{Review: rv, Created: true, Message: "Thank you! Your review has been submitted."})
	}
	return c.JSON(http.StatusOK, transport.ReviewResponse{Review: rv, Message: "Thank you! Your review has been updated."})
}
