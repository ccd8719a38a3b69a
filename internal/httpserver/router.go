package httpserver

import (
	"context"
	"net/http"

	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	AccountHandler *AccountHTTP
	StoreHandler   *StoreHTTP
	CartHandler    *CartHTTP
	Auth           *authmw.AutoRefreshMiddleware

	// LoginRate caps login attempts per client IP per second. Zero disables it.
	LoginRate float64
	Ready     func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	accounts := e.Group("/accounts")
	accounts.POST("/register", d.AuthHandler.Register)
	accounts.GET("/activate/:uid/:token", d.AuthHandler.Activate)
	if d.LoginRate > 0 {
		limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(d.LoginRate)))
		accounts.POST("/login", d.AuthHandler.Login, limiter)
	} else {
		accounts.POST("/login", d.AuthHandler.Login)
	}
	accounts.POST("/refresh", d.AuthHandler.Refresh)
	accounts.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	accounts.GET("/reset-password/:uid/:token", d.AuthHandler.ValidateResetLink)
	accounts.POST("/reset-password", d.AuthHandler.ResetPassword)

	private := accounts.Group("")
	private.Use(d.Auth.RequireAuth)
	private.POST("/logout", d.AuthHandler.Logout)
	private.GET("/dashboard", d.AccountHandler.Dashboard)
	private.GET("/orders", d.AccountHandler.MyOrders)
	private.GET("/orders/:number", d.AccountHandler.OrderDetail)
	private.GET("/profile", d.AccountHandler.GetProfile)
	private.POST("/profile", d.AccountHandler.EditProfile)
	private.POST("/change-password", d.AuthHandler.ChangePassword)

	store := e.Group("/store", d.Auth.OptionalAuth)
	store.GET("", d.StoreHandler.Store)
	store.GET("/category/:category", d.StoreHandler.Store)
	store.GET("/category/:category/:product", d.StoreHandler.ProductDetail)
	store.GET("/search", d.StoreHandler.Search)
	store.GET("/sort", d.StoreHandler.ApplySort)
	store.POST("/products/:id/reviews", d.StoreHandler.SubmitReview, d.Auth.RequireAuth)

	cart := e.Group("/cart", d.Auth.OptionalAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/items", d.CartHandler.AddToCart)
	cart.DELETE("/items/:id", d.CartHandler.RemoveOne)
}
