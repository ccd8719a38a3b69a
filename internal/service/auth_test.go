package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authEnv struct {
	svc    *AuthService
	repo   *repo.GormRepo
	pub    *recordingPublisher
	mailer *recordingMailer
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	r := newTestRepo(t)
	pub := &recordingPublisher{}
	mailer := &recordingMailer{}
	return &authEnv{
		repo:   r,
		pub:    pub,
		mailer: mailer,
		svc: &AuthService{
			Repo:          r,
			Merger:        cartmerge.New(r),
			Publisher:     pub,
			Mailer:        mailer,
			JWTSecret:     []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			ActionSecret:  []byte("test-action-secret"),
			SiteURL:       "http://shop.test/",
		},
	}
}

func validRegister() transport.RegisterRequest {
	return transport.RegisterRequest{
		FirstName:       "Ann",
		LastName:        "Lee",
		PhoneNumber:     "555-0100",
		Email:           "ann@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*transport.RegisterRequest)
	}{
		{name: "empty first name", mutate: func(r *transport.RegisterRequest) { r.FirstName = "" }},
		{name: "bad email", mutate: func(r *transport.RegisterRequest) { r.Email = "not-an-email" }},
		{name: "short password", mutate: func(r *transport.RegisterRequest) { r.Password, r.ConfirmPassword = "x", "x" }},
		{name: "passwords differ", mutate: func(r *transport.RegisterRequest) { r.ConfirmPassword = "other12" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(&req)
			_, err := env.svc.Register(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestAuthService_Register_CreatesInactiveAccount(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	a, err := env.svc.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.Equal(t, "ann", a.Username)
	assert.False(t, a.IsActive)
	assert.NotEqual(t, "secret1", a.PasswordHash)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, mykafka.TemplateAccountVerification, env.mailer.sent[0].Template)
	assert.Contains(t, env.mailer.sent[0].Data["link"], "http://shop.test/accounts/activate/")
	assert.Equal(t, []string{"user_registered"}, env.pub.types(mykafka.TopicUserEvents))

	_, err = env.svc.Register(ctx, validRegister())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Register_LongLocalPart(t *testing.T) {
	env := newAuthEnv(t)

	req := validRegister()
	local := strings.Repeat("a", 60)
	req.Email = local + "@example.com"

	a, err := env.svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, local[:models.UsernameMaxLen], a.Username)
	assert.Equal(t, req.Email, a.Email)
}

func TestAuthService_Activate(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	a, err := env.svc.Register(ctx, validRegister())
	require.NoError(t, err)
	uid, token := env.mailer.lastLink(t)
	assert.Equal(t, EncodeUID(a.ID), uid)

	_, err = env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "secret1"}, "")
	assert.ErrorIs(t, err, ErrInactive)

	require.NoError(t, env.svc.Activate(ctx, uid, token))
	assert.ErrorIs(t, env.svc.Activate(ctx, uid, token), ErrInvalidLink, "activation links are single use")

	_, err = env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "secret1"}, "")
	assert.NoError(t, err)
}

func TestAuthService_Activate_BadLinks(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	a, err := env.svc.Register(ctx, validRegister())
	require.NoError(t, err)
	_, token := env.mailer.lastLink(t)

	assert.ErrorIs(t, env.svc.Activate(ctx, "!!", token), ErrInvalidLink)
	assert.ErrorIs(t, env.svc.Activate(ctx, EncodeUID(a.ID+1), token), ErrInvalidLink)
	assert.ErrorIs(t, env.svc.Activate(ctx, EncodeUID(a.ID), "garbage"), ErrInvalidLink)

	reset, err := tokens.NewActionToken(strconv.Itoa(int(a.ID)), tokens.PurposePasswordReset, fingerprint(a), time.Now().Add(time.Hour), env.svc.ActionSecret)
	require.NoError(t, err)
	assert.ErrorIs(t, env.svc.Activate(ctx, EncodeUID(a.ID), reset), ErrInvalidLink)
}

func TestAuthService_Login_Failures(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	_, err := env.svc.Login(ctx, transport.LoginRequest{Email: "bob@example.com", Password: "secret1"}, "")
	assert.ErrorIs(t, err, ErrNoSuchUser)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "wrong"}, "")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	_, err = env.svc.Login(ctx, transport.LoginRequest{Email: "", Password: ""}, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login_MergesAnonymousCart(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	f := seedCatalog(t, env.repo)
	acc := seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	cart, err := env.repo.EnsureCart(ctx, "visitor-token")
	require.NoError(t, err)
	_, err = env.repo.AddToCart(ctx, repo.Owner{CartID: cart.ID}, f.shirt.ID, []models.Variation{f.red}, 2)
	require.NoError(t, err)
	_, err = env.repo.AddToCart(ctx, repo.Owner{CartID: cart.ID}, f.shirt.ID, []models.Variation{f.blue}, 1)
	require.NoError(t, err)
	_, err = env.repo.AddToCart(ctx, repo.Owner{UserID: acc.ID}, f.shirt.ID, []models.Variation{f.red}, 1)
	require.NoError(t, err)

	res, err := env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "secret1"}, "visitor-token")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Merge.Merged)
	assert.Equal(t, 1, res.Merge.Transferred)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	items, err := env.repo.ListCartItems(ctx, repo.Owner{UserID: acc.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	quantities := map[string]uint{}
	for _, it := range items {
		quantities[it.Variations[0].Value] = it.Quantity
	}
	assert.Equal(t, map[string]uint{"red": 3, "blue": 1}, quantities)
	assert.Equal(t, []string{"cart_merged"}, env.pub.types(mykafka.TopicCartEvents))

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, env.svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(int(acc.ID)), claims.Subject)
}

type failingMerger struct{ calls int }

func (m *failingMerger) Merge(ctx context.Context, userID uint, cartToken string) (cartmerge.Result, error) {
	m.calls++
	return cartmerge.Result{}, errors.New("database unavailable")
}

func TestAuthService_Login_MergeFailureDoesNotBlock(t *testing.T) {
	env := newAuthEnv(t)
	merger := &failingMerger{}
	env.svc.Merger = merger
	seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	res, err := env.svc.Login(context.Background(), transport.LoginRequest{Email: "ann@example.com", Password: "secret1"}, "tok")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, 1, merger.calls)
	assert.Empty(t, env.pub.types(mykafka.TopicCartEvents))
}

func TestAuthService_Refresh_Rotates(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	res, err := env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "secret1"}, "")
	require.NoError(t, err)

	pair, err := env.svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	_, err = env.svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "rotated token cannot be replayed")

	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	err := env.svc.ForgotPassword(ctx, transport.ForgotPasswordRequest{Email: "bob@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.svc.ForgotPassword(ctx, transport.ForgotPasswordRequest{Email: "ann@example.com"}))
	uid, token := env.mailer.lastLink(t)
	assert.Equal(t, mykafka.TemplatePasswordReset, env.mailer.sent[0].Template)

	session, exp, err := env.svc.ValidateResetLink(ctx, uid, token)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	err = env.svc.ResetPassword(ctx, session, transport.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "other11"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.svc.ResetPassword(ctx, session, transport.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"}))

	err = env.svc.ResetPassword(ctx, session, transport.ResetPasswordRequest{Password: "again11", ConfirmPassword: "again11"})
	assert.ErrorIs(t, err, ErrInvalidLink, "session is retired by the password change")
	_, _, err = env.svc.ValidateResetLink(ctx, uid, token)
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "newpass1"}, "")
	assert.NoError(t, err)
	assert.Contains(t, env.pub.types(mykafka.TopicUserEvents), "password_reset")
}

func TestAuthService_ResetPassword_RejectsLinkTokenAsSession(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	require.NoError(t, env.svc.ForgotPassword(ctx, transport.ForgotPasswordRequest{Email: "ann@example.com"}))
	_, token := env.mailer.lastLink(t)

	err := env.svc.ResetPassword(ctx, token, transport.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"})
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	acc := seedActiveAccount(t, env.repo, "ann@example.com", "secret1")

	err := env.svc.ChangePassword(ctx, acc.ID, transport.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass1", ConfirmPassword: "nope123"})
	assert.ErrorIs(t, err, ErrValidation)

	err = env.svc.ChangePassword(ctx, acc.ID, transport.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpass1", ConfirmPassword: "newpass1"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.svc.ChangePassword(ctx, acc.ID, transport.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass1", ConfirmPassword: "newpass1"}))
	_, err = env.svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "newpass1"}, "")
	assert.NoError(t, err)
	assert.Equal(t, []string{"password_changed"}, env.pub.types(mykafka.TopicUserEvents))
}

func TestUID_RoundTrip(t *testing.T) {
	id, err := DecodeUID(EncodeUID(42))
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = DecodeUID("bm90LWEtbnVtYmVy")
	assert.Error(t, err)
}
