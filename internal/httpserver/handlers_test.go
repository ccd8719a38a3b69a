package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/db"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []mykafka.EmailRequest
}

func (m *recordingMailer) Send(ctx context.Context, req mykafka.EmailRequest) error {
	m.sent = append(m.sent, req)
	return nil
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Repo   *repo.GormRepo
	Mailer *recordingMailer
	shirt  models.Product
	red    models.Variation
	blue   models.Variation
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	r := repo.New(gdb)
	mailer := &recordingMailer{}

	authSvc := &service.AuthService{
		Repo:          r,
		Merger:        cartmerge.New(r),
		Publisher:     mykafka.LogPublisher{},
		Mailer:        mailer,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		ActionSecret:  []byte("test-action-secret"),
		SiteURL:       "http://shop.test",
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		AccountHandler: &AccountHTTP{Profiles: &service.ProfileService{Repo: r}, Orders: &service.OrderService{Repo: r}},
		StoreHandler:   &StoreHTTP{Svc: &service.CatalogService{Repo: r}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		Auth:           authmw.NewAutoRefreshMiddleware(authSvc.JWTSecret, authSvc),
	})

	env := &testEnv{T: t, E: e, Repo: r, Mailer: mailer}

	category := models.Category{Name: "Shirts", Slug: "shirts"}
	require.NoError(t, gdb.Create(&category).Error)
	env.shirt = models.Product{Name: "Oxford shirt", Slug: "oxford-shirt", Price: 40, IsAvailable: true, CategoryID: category.ID}
	require.NoError(t, gdb.Create(&env.shirt).Error)
	env.red = models.Variation{ProductID: env.shirt.ID, Category: models.VariationColor, Value: "red", IsActive: true}
	env.blue = models.Variation{ProductID: env.shirt.ID, Category: models.VariationColor, Value: "blue", IsActive: true}
	require.NoError(t, gdb.Create(&env.red).Error)
	require.NoError(t, gdb.Create(&env.blue).Error)

	h, err := pkg_hash.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.Account{
		FirstName: "Ann", LastName: "Lee", Username: "ann", Email: "ann@example.com",
		PasswordHash: h, Role: models.RoleUser, IsActive: true,
	}).Error)

	return env
}

func (env *testEnv) do(method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func (env *testEnv) login(cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Cookie) {
	env.T.Helper()
	rec := env.do(http.MethodPost, "/accounts/login", transport.LoginRequest{Email: "ann@example.com", Password: "secret1"}, cookies...)
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())
	access := cookie(rec, authmw.AccessCookie)
	require.NotNil(env.T, access)
	return rec, &http.Cookie{Name: access.Name, Value: access.Value}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", nil).Code)
}

func TestLogin_MergesAnonymousCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/cart/items", transport.AddToCartRequest{ProductID: env.shirt.ID, VariationIDs: []uint{env.red.ID}, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cartCk := cookie(rec, CartCookie)
	require.NotNil(t, cartCk)
	cartCk = &http.Cookie{Name: CartCookie, Value: cartCk.Value}

	rec = env.do(http.MethodPost, "/cart/items", transport.AddToCartRequest{ProductID: env.shirt.ID, VariationIDs: []uint{env.blue.ID}}, cartCk)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, cookie(rec, CartCookie), "existing token is reused")

	rec, access := env.login(cartCk)
	var resp transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/accounts/dashboard", resp.Redirect)
	assert.Equal(t, 2, resp.Transferred)
	assert.NotNil(t, cookie(rec, authmw.RefreshCookie))
	cleared := cookie(rec, CartCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = env.do(http.MethodGet, "/cart", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	var view transport.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Items, 2)
	assert.EqualValues(t, 3, view.Quantity)

	rec = env.do(http.MethodGet, "/cart", nil, cartCk)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Items, "anonymous cart is left empty")
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/accounts/login", transport.LoginRequest{Email: "bob@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no such user")

	rec = env.do(http.MethodPost, "/accounts/login", transport.LoginRequest{Email: "ann@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "password incorrect")

	rec = env.do(http.MethodPost, "/accounts/login", transport.LoginRequest{Email: "", Password: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_NextRedirect(t *testing.T) {
	env := newTestEnv(t)

	for next, want := range map[string]string{
		"/cart":          "/cart",
		"//evil.example": "/accounts/dashboard",
		"https://evil":   "/accounts/dashboard",
	} {
		rec := env.do(http.MethodPost, "/accounts/login?next="+next, transport.LoginRequest{Email: "ann@example.com", Password: "secret1"})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp transport.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, want, resp.Redirect, next)
	}
}

func TestAccountRoutes_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/accounts/dashboard", nil).Code)

	_, access := env.login()
	rec := env.do(http.MethodGet, "/accounts/dashboard", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders_count":0`)

	rec = env.do(http.MethodGet, "/accounts/orders/404", nil, access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/accounts/profile", transport.EditProfileRequest{FirstName: "Anna", LastName: "Lee", City: "Oslo"}, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oslo")

	rec = env.do(http.MethodPost, "/accounts/change-password", transport.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "abcdef1", ConfirmPassword: "zzzzzz1"}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordReset_OverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/accounts/forgot-password", transport.ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/accounts/forgot-password", transport.ForgotPasswordRequest{Email: "ann@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.Mailer.sent, 1)
	link := env.Mailer.sent[0].Data["link"]
	path := strings.TrimPrefix(link, "http://shop.test")

	rec = env.do(http.MethodPost, "/accounts/reset-password", transport.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no reset session yet")

	rec = env.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := cookie(rec, ResetSessionCookie)
	require.NotNil(t, session)
	sessionCk := &http.Cookie{Name: ResetSessionCookie, Value: session.Value}

	rec = env.do(http.MethodPost, "/accounts/reset-password", transport.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"}, sessionCk)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "link is single use")

	rec = env.do(http.MethodPost, "/accounts/login", transport.LoginRequest{Email: "ann@example.com", Password: "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStoreRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/store", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page transport.ProductPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Count)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/store/category/shoes", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/store/category/shirts/oxford-shirt", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/store/sort?min_price=50&max_price=10", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/store/sort?min_price=10&max_price=50", nil).Code)

	rec = env.do(http.MethodGet, "/store/search?keyword=OXFORD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Products, 1)

	review := transport.ReviewRequest{Subject: "nice", Review: "good fit", Rating: 4.5}
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/store/products/1/reviews", review).Code)

	_, access := env.login()
	assert.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/store/products/1/reviews", review, access).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/store/products/1/reviews", review, access).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/store/products/99/reviews", review, access).Code)
}

func TestCartRoutes_RemoveOne(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/cart/items", transport.AddToCartRequest{ProductID: env.shirt.ID, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	cartCk := &http.Cookie{Name: CartCookie, Value: cookie(rec, CartCookie).Value}
	var item models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))

	target := "/cart/items/" + strconv.FormatUint(uint64(item.ID), 10)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, target, nil).Code)

	rec = env.do(http.MethodDelete, target, nil, cartCk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":1`)

	rec = env.do(http.MethodDelete, target, nil, cartCk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodDelete, "/cart/items/abc", nil, cartCk).Code)
}

func TestRegisterAndActivate(t *testing.T) {
	env := newTestEnv(t)
	req := transport.RegisterRequest{
		FirstName: "Bob", LastName: "Ray", PhoneNumber: "555", Email: "bob@example.com",
		Password: "secret1", ConfirmPassword: "secret1",
	}

	rec := env.do(http.MethodPost, "/accounts/register", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/accounts/register", req).Code)

	login := transport.LoginRequest{Email: "bob@example.com", Password: "secret1"}
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/accounts/login", login).Code)

	require.Len(t, env.Mailer.sent, 1)
	path := strings.TrimPrefix(env.Mailer.sent[0].Data["link"], "http://shop.test")
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, path+"x", nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, path, nil).Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/accounts/login", login).Code)
}
