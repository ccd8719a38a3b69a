package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	DefaultAccessTTL       = 15 * time.Minute
	DefaultRefreshTTL      = 7 * 24 * time.Hour
	DefaultActionTTL       = 72 * time.Hour
	DefaultResetSessionTTL = 15 * time.Minute
)

type CartMerger interface {
	Merge(ctx context.Context, userID uint, cartToken string) (cartmerge.Result, error)
}

type AuthService struct {
	Repo      *repo.GormRepo
	Merger    CartMerger
	Publisher Publisher
	Mailer    Mailer

	JWTSecret     []byte
	RefreshSecret []byte
	ActionSecret  []byte
	SiteURL       string

	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	ActionTTL       time.Duration
	ResetSessionTTL time.Duration
}

var _ authmw.Refresher = (*AuthService)(nil)

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
	Merge        cartmerge.Result
}

func ttl(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (h *AuthService) link(path, uid, token string) string {
	return strings.TrimRight(h.SiteURL, "/") + path + uid + "/" + token
}

func (h *AuthService) actionToken(a *models.Account, purpose string, exp time.Time) (string, error) {
	return tokens.NewActionToken(strconv.FormatUint(uint64(a.ID), 10), purpose, fingerprint(a), exp, h.ActionSecret)
}

// checkActionToken resolves uid to an account and verifies token was issued
// for it with purpose and that the account has not changed since.
func (h *AuthService) checkActionToken(ctx context.Context, uid uint, token, purpose string) (*models.Account, error) {
	claims, err := tokens.ActionClaimsFromToken(token, purpose, h.ActionSecret)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidLink)
	}
	if claims.Subject != strconv.FormatUint(uint64(uid), 10) {
		return nil, ErrInvalidLink
	}
	a, err := h.Repo.GetAccountByID(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidLink
	}
	if err != nil {
		return nil, err
	}
	if claims.Fingerprint != fingerprint(a) {
		return nil, ErrInvalidLink
	}
	return a, nil
}

func (h *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("passwords do not match: %w", ErrValidation)
	}

	email := strings.TrimSpace(req.Email)
	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	account := &models.Account{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     usernameFromEmail(email),
		Email:        email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := h.Repo.CreateAccountIfNotExists(ctx, account); err != nil {
		if errors.Is(err, repo.ErrAlreadyExist) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}

	token, err := h.actionToken(account, tokens.PurposeActivation, time.Now().Add(ttl(h.ActionTTL, DefaultActionTTL)))
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot sign activation token", "error", err)
		return nil, err
	}
	sendMail(ctx, h.Mailer, mykafka.EmailRequest{
		To:       account.Email,
		Subject:  "Please activate your account",
		Template: mykafka.TemplateAccountVerification,
		Data: map[string]string{
			"first_name": account.FirstName,
			"link":       h.link("/accounts/activate/", EncodeUID(account.ID), token),
		},
	})
	publish(ctx, h.Publisher, mykafka.TopicUserEvents, account.ID, map[string]any{
		"type":  "user_registered",
		"email": account.Email,
	})

	l.Info("user_registered", "user_id", account.ID)
	return account, nil
}

func (h *AuthService) Activate(ctx context.Context, uid, token string) error {
	id, err := DecodeUID(uid)
	if err != nil {
		return ErrInvalidLink
	}
	a, err := h.checkActionToken(ctx, id, token, tokens.PurposeActivation)
	if err != nil {
		return err
	}
	if err := h.Repo.ActivateAccount(ctx, a.ID); err != nil {
		return err
	}
	publish(ctx, h.Publisher, mykafka.TopicUserEvents, a.ID, map[string]any{"type": "user_activated"})
	return nil
}

// Login verifies the credentials, folds the visitor's anonymous cart into the
// account and issues a token pair. A failing cart merge is logged and does not
// prevent the login.
func (h *AuthService) Login(ctx context.Context, req transport.LoginRequest, cartToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	account, err := h.Repo.GetAccountByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if err != nil {
		return nil, err
	}
	if !pkg_hash.CheckPassword(account.PasswordHash, req.Password) {
		return nil, ErrPasswordIncorrect
	}
	if !account.IsActive {
		return nil, ErrInactive
	}

	var merged cartmerge.Result
	if h.Merger != nil {
		merged, err = h.Merger.Merge(ctx, account.ID, cartToken)
		switch {
		case err != nil:
			l.Error("cart_merge_failed", "user_id", account.ID, "error", err)
		case len(merged.Skipped) > 0:
			l.Warn("cart_merge_partial", "user_id", account.ID, "skipped", len(merged.Skipped), "error", merged.SkippedErr())
		}
		if merged.Merged+merged.Transferred > 0 {
			publish(ctx, h.Publisher, mykafka.TopicCartEvents, account.ID, map[string]any{
				"type":        "cart_merged",
				"cartID":      merged.CartID,
				"merged":      merged.Merged,
				"transferred": merged.Transferred,
				"skipped":     len(merged.Skipped),
			})
		}
	}

	if err := h.Repo.TouchLastLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		l.Warn("last_login_update_failed", "user_id", account.ID, "error", err)
	}

	pair, stored, err := h.newPair(account)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	if err := h.Repo.AddRefreshToken(ctx, stored); err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExp:    pair.AccessExp,
		RefreshExp:   pair.RefreshExp,
		IsAdmin:      account.Role == models.RoleAdmin,
		Merge:        merged,
	}, nil
}

func (h *AuthService) newPair(a *models.Account) (*authmw.RefreshResult, models.RefreshToken, error) {
	subject := strconv.FormatUint(uint64(a.ID), 10)
	now := time.Now()

	accessExp := now.Add(ttl(h.AccessTTL, DefaultAccessTTL))
	access, err := tokens.NewAccessToken(subject, a.Role, accessExp, h.JWTSecret)
	if err != nil {
		return nil, models.RefreshToken{}, err
	}

	jti := jwthelp.NewJTI()
	refreshExp := now.Add(ttl(h.RefreshTTL, DefaultRefreshTTL))
	refresh, err := tokens.NewRefreshToken(subject, jti, refreshExp, h.RefreshSecret)
	if err != nil {
		return nil, models.RefreshToken{}, err
	}

	stored := models.RefreshToken{
		Token:     jwthelp.Sha256Hex(refresh),
		UserID:    a.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return &authmw.RefreshResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, stored, nil
}

func (h *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return h.Repo.RevokeRefreshToken(ctx, refreshToken)
}

// Refresh rotates refreshToken: the presented token is revoked and a new pair
// is issued for the same account.
func (h *AuthService) Refresh(ctx context.Context, refreshToken string) (*authmw.RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, h.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidRefreshToken)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	account, err := h.Repo.GetAccountByID(ctx, uint(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	pair, stored, err := h.newPair(account)
	if err != nil {
		return nil, err
	}
	if err := h.Repo.RotateRefreshToken(ctx, claims.ID, stored); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_rejected", "user_id", account.ID, "reason", err.Error())
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return pair, nil
}

func (h *AuthService) ForgotPassword(ctx context.Context, req transport.ForgotPasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	account, err := h.Repo.GetAccountByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("account does not exist: %w", ErrNotFound)
	}
	if err != nil {
		return err
	}

	token, err := h.actionToken(account, tokens.PurposePasswordReset, time.Now().Add(ttl(h.ActionTTL, DefaultActionTTL)))
	if err != nil {
		return err
	}
	sendMail(ctx, h.Mailer, mykafka.EmailRequest{
		To:       account.Email,
		Subject:  "Reset your password",
		Template: mykafka.TemplatePasswordReset,
		Data: map[string]string{
			"first_name": account.FirstName,
			"link":       h.link("/accounts/reset-password/", EncodeUID(account.ID), token),
		},
	})
	return nil
}

// ValidateResetLink checks an emailed reset link and returns a short-lived
// session token that authorizes ResetPassword.
func (h *AuthService) ValidateResetLink(ctx context.Context, uid, token string) (string, time.Time, error) {
	id, err := DecodeUID(uid)
	if err != nil {
		return "", time.Time{}, ErrInvalidLink
	}
	a, err := h.checkActionToken(ctx, id, token, tokens.PurposePasswordReset)
	if err != nil {
		return "", time.Time{}, err
	}
	exp := time.Now().Add(ttl(h.ResetSessionTTL, DefaultResetSessionTTL))
	session, err := h.actionToken(a, tokens.PurposeResetSession, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return session, exp, nil
}

func (h *AuthService) ResetPassword(ctx context.Context, session string, req transport.ResetPasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Password != req.ConfirmPassword {
		return fmt.Errorf("passwords do not match: %w", ErrValidation)
	}

	claims, err := tokens.ActionClaimsFromToken(session, tokens.PurposeResetSession, h.ActionSecret)
	if err != nil {
		return ErrInvalidLink
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return ErrInvalidLink
	}
	a, err := h.checkActionToken(ctx, uint(id), session, tokens.PurposeResetSession)
	if err != nil {
		return err
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := h.Repo.SetPassword(ctx, a.ID, pwHash); err != nil {
		return err
	}
	publish(ctx, h.Publisher, mykafka.TopicUserEvents, a.ID, map[string]any{"type": "password_reset"})
	return nil
}

func (h *AuthService) ChangePassword(ctx context.Context, userID uint, req transport.ChangePasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("passwords do not match: %w", ErrValidation)
	}

	a, err := h.Repo.GetAccountByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("account: %w", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if !pkg_hash.CheckPassword(a.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("current password is not valid: %w", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.Repo.SetPassword(ctx, a.ID, pwHash); err != nil {
		return err
	}
	publish(ctx, h.Publisher, mykafka.TopicUserEvents, a.ID, map[string]any{"type": "password_changed"})
	return nil
}
