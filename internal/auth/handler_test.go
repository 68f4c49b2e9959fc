package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
	_ "github.com/meridian-mfb/meridian-mfb/testing"
)

type stubRepo struct {
	account *auth.Account
}

func (s *stubRepo) FindByLogin(ctx context.Context, login string) (*auth.Account, error) {
	if s.account == nil || (login != s.account.Username && login != s.account.Email) {
		return nil, shared.ErrNotFound
	}
	copied := *s.account
	return &copied, nil
}

func (s *stubRepo) RecordFailure(ctx context.Context, userID int64) (auth.FailureOutcome, error) {
	state := auth.SecurityState{
		FailedAttempts: s.account.FailedLoginAttempts,
		IsActive:       s.account.IsActive,
		LockReason:     s.account.LockReason,
		LockedUntil:    s.account.LockedUntil,
	}
	outcome := auth.ApplyFailure(state, time.Now())
	s.account.FailedLoginAttempts = outcome.State.FailedAttempts
	s.account.IsActive = outcome.State.IsActive
	s.account.LockReason = outcome.State.LockReason
	s.account.LockedUntil = outcome.State.LockedUntil
	return outcome, nil
}

func (s *stubRepo) RecordSuccess(ctx context.Context, userID int64) (bool, error) {
	if !s.account.IsActive {
		return false, nil
	}
	s.account.FailedLoginAttempts = 0
	return true, nil
}

func (s *stubRepo) Unlock(ctx context.Context, userID int64) error {
	s.account.IsActive = true
	s.account.FailedLoginAttempts = 0
	s.account.LockReason = ""
	s.account.LockedUntil = nil
	return nil
}

func (s *stubRepo) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type stubPrincipalStore struct {
	principal *authz.Principal
}

func (s *stubPrincipalStore) LoadPrincipal(ctx context.Context, userID int64) (*authz.Principal, error) {
	if s.principal == nil || s.principal.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return s.principal, nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, repo auth.Repository, store authz.PrincipalStore) http.Handler {
	t.Helper()
	gateway := authz.NewGateway(store, nil)
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	handler := auth.NewHandler(discardLogger(), auth.NewService(repo, nil), issuer, gateway)
	authenticator := auth.Authenticator{Issuer: issuer, Gateway: gateway, Logger: discardLogger()}

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	r.Group(func(r chi.Router) {
		r.Use(authenticator.Middleware)
		handler.MountSessionRoutes(r)
	})
	return r
}

func postLogin(t *testing.T, router http.Handler, login, password string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"login": login, "password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	return res, envelope
}

func activeAccount(t *testing.T) *auth.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.Account{
		ID:           1,
		Username:     "amina",
		Email:        "amina@meridian.test",
		FullName:     "Amina Bello",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func TestLoginLockoutSequence(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t)}
	router := newTestRouter(t, repo, &stubPrincipalStore{})

	res, envelope := postLogin(t, router, "amina", "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, float64(4010), envelope["statusCode"])
	assert.Equal(t, auth.MsgInvalidCredentials, envelope["message"])

	res, envelope = postLogin(t, router, "amina", "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, float64(4010), envelope["statusCode"])
	assert.Equal(t, auth.MsgOneAttemptLeft, envelope["message"])

	res, envelope = postLogin(t, router, "amina", "wrong")
	assert.Equal(t, http.StatusLocked, res.Code)
	assert.Equal(t, float64(4230), envelope["statusCode"])
	assert.Equal(t, auth.MsgAutoLocked, envelope["message"])
	assert.False(t, repo.account.IsActive)

	// Correct password after the lock is still refused with 4230.
	res, envelope = postLogin(t, router, "amina", "correct-horse")
	assert.Equal(t, http.StatusLocked, res.Code)
	assert.Equal(t, float64(4230), envelope["statusCode"])
}

func TestLoginUnknownUserIndistinguishable(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t)}
	router := newTestRouter(t, repo, &stubPrincipalStore{})

	res, envelope := postLogin(t, router, "nobody", "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, float64(4010), envelope["statusCode"])
	assert.Equal(t, auth.MsgInvalidCredentials, envelope["message"])
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t)}
	router := newTestRouter(t, repo, &stubPrincipalStore{})

	res, envelope := postLogin(t, router, "amina", "correct-horse")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(2000), envelope["statusCode"])

	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["access_token"])
	assert.Equal(t, "Bearer", data["token_type"])
}

func TestLoginValidation(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, &stubPrincipalStore{})

	res, envelope := postLogin(t, router, "", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, float64(4000), envelope["statusCode"])
}

func TestMeRequiresToken(t *testing.T) {
	router := newTestRouter(t, &stubRepo{}, &stubPrincipalStore{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeWithToken(t *testing.T) {
	account := activeAccount(t)
	repo := &stubRepo{account: account}
	store := &stubPrincipalStore{principal: &authz.Principal{
		UserID:   1,
		Username: "amina",
		Email:    "amina@meridian.test",
	}}
	router := newTestRouter(t, repo, store)

	_, envelope := postLogin(t, router, "amina", "correct-horse")
	data := envelope["data"].(map[string]any)
	token := data["access_token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &me))
	meData := me["data"].(map[string]any)
	assert.Equal(t, "amina", meData["username"])
}
