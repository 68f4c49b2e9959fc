package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// memRepo drives the real state machine against an in-memory account,
// standing in for the row-locked transaction of the real repository.
type memRepo struct {
	account      *Account
	raceLockOnce bool
}

func (m *memRepo) FindByLogin(ctx context.Context, login string) (*Account, error) {
	if m.account == nil || (login != m.account.Username && login != m.account.Email) {
		return nil, shared.ErrNotFound
	}
	copied := *m.account
	return &copied, nil
}

func (m *memRepo) RecordFailure(ctx context.Context, userID int64) (FailureOutcome, error) {
	outcome := ApplyFailure(securityState(m.account), time.Now())
	m.applyState(outcome.State)
	return outcome, nil
}

func (m *memRepo) RecordSuccess(ctx context.Context, userID int64) (bool, error) {
	if m.raceLockOnce {
		m.raceLockOnce = false
		m.account.IsActive = false
		m.account.LockReason = LockReasonAutoThreshold
	}
	state, ok := ApplySuccess(securityState(m.account))
	if ok {
		m.applyState(state)
	}
	return ok, nil
}

func (m *memRepo) Unlock(ctx context.Context, userID int64) error {
	m.applyState(Unlocked())
	return nil
}

func (m *memRepo) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *memRepo) applyState(s SecurityState) {
	m.account.FailedLoginAttempts = s.FailedAttempts
	m.account.IsActive = s.IsActive
	m.account.LockReason = s.LockReason
	m.account.LockedUntil = s.LockedUntil
}

type recordingNotifier struct {
	calls []int64
}

func (n *recordingNotifier) NotifyLockout(ctx context.Context, account *Account) {
	n.calls = append(n.calls, account.ID)
}

func newTestAccount(t *testing.T, password string) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &Account{
		ID:           1,
		Username:     "amina",
		Email:        "amina@meridian.test",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func TestAuthenticateUnknownUserGenericMessage(t *testing.T) {
	service := NewService(&memRepo{}, nil)

	_, err := service.Authenticate(context.Background(), "ghost", "whatever")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.False(t, loginErr.Locked)
	// Same text as a wrong password: existence must not leak.
	assert.Equal(t, MsgInvalidCredentials, loginErr.Message)
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))
}

func TestAuthenticateThreeFailuresLock(t *testing.T) {
	repo := &memRepo{account: newTestAccount(t, "correct-horse")}
	notifier := &recordingNotifier{}
	service := NewService(repo, notifier)

	_, err := service.Authenticate(context.Background(), "amina", "wrong")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, MsgInvalidCredentials, loginErr.Message)

	_, err = service.Authenticate(context.Background(), "amina", "wrong")
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, MsgOneAttemptLeft, loginErr.Message)

	_, err = service.Authenticate(context.Background(), "amina", "wrong")
	require.ErrorAs(t, err, &loginErr)
	assert.True(t, loginErr.Locked)
	assert.Equal(t, MsgAutoLocked, loginErr.Message)

	assert.False(t, repo.account.IsActive)
	assert.Equal(t, LockReasonAutoThreshold, repo.account.LockReason)
	assert.Equal(t, []int64{1}, notifier.calls)
}

func TestAuthenticateLockedBeforePasswordCheck(t *testing.T) {
	account := newTestAccount(t, "correct-horse")
	account.IsActive = false
	account.LockReason = LockReasonManualAdmin
	service := NewService(&memRepo{account: account}, nil)

	// Correct password, still refused: the gate runs before bcrypt.
	_, err := service.Authenticate(context.Background(), "amina", "correct-horse")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.True(t, loginErr.Locked)
	assert.Equal(t, MsgAdminBlocked, loginErr.Message)
	assert.True(t, errors.Is(err, shared.ErrAccountLocked))
}

func TestAuthenticateSuccessResetsCounter(t *testing.T) {
	account := newTestAccount(t, "correct-horse")
	account.FailedLoginAttempts = 2
	repo := &memRepo{account: account}
	service := NewService(repo, nil)

	got, err := service.Authenticate(context.Background(), "amina", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.Equal(t, 0, repo.account.FailedLoginAttempts)
}

func TestAuthenticateEmailLogin(t *testing.T) {
	repo := &memRepo{account: newTestAccount(t, "correct-horse")}
	service := NewService(repo, nil)

	got, err := service.Authenticate(context.Background(), "amina@meridian.test", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestAuthenticateRacedLockRefusesSuccess(t *testing.T) {
	repo := &memRepo{account: newTestAccount(t, "correct-horse"), raceLockOnce: true}
	service := NewService(repo, nil)

	_, err := service.Authenticate(context.Background(), "amina", "correct-horse")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.True(t, loginErr.Locked)
}

func TestUnlock(t *testing.T) {
	account := newTestAccount(t, "correct-horse")
	account.IsActive = false
	account.FailedLoginAttempts = 3
	account.LockReason = LockReasonAutoThreshold
	repo := &memRepo{account: account}
	service := NewService(repo, nil)

	require.NoError(t, service.Unlock(context.Background(), 1))
	assert.True(t, repo.account.IsActive)
	assert.Equal(t, 0, repo.account.FailedLoginAttempts)
}
