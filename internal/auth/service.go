package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// LoginError is a refused authentication attempt. Locked decides whether it
// surfaces as 4010 or 4230; Message is the contract text shown verbatim.
type LoginError struct {
	Message string
	Locked  bool
}

func (e *LoginError) Error() string {
	return e.Message
}

// Is makes LoginError match the shared sentinels in errors.Is chains.
func (e *LoginError) Is(target error) bool {
	if e.Locked {
		return target == shared.ErrAccountLocked
	}
	return target == shared.ErrInvalidCredentials
}

// LockoutNotifier receives accounts that just tripped the automatic lockout
// threshold. Implemented by the jobs queue client; notification failures do
// not affect the login response.
type LockoutNotifier interface {
	NotifyLockout(ctx context.Context, account *Account)
}

// Service wraps the login flow: pre-authentication gate, credential
// comparison, and the lockout state machine.
type Service struct {
	repo     Repository
	notifier LockoutNotifier
}

// NewService constructs a Service. notifier may be nil.
func NewService(repo Repository, notifier LockoutNotifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Authenticate validates login/password credentials. login may be a
// username or an email address. Failure messages never reveal whether the
// account exists.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*Account, error) {
	account, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &LoginError{Message: MsgInvalidCredentials}
		}
		return nil, err
	}

	// Inactive accounts are refused before the hash comparison so the
	// response timing cannot reveal whether the password would have matched.
	if !account.IsActive {
		return nil, &LoginError{Locked: true, Message: RefusalMessage(securityState(account))}
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		outcome, err := s.repo.RecordFailure(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if outcome.Locked && s.notifier != nil {
			// The account was active on entry, so Locked here means this
			// attempt crossed the threshold.
			s.notifier.NotifyLockout(ctx, account)
		}
		return nil, &LoginError{Locked: outcome.Locked, Message: outcome.Message}
	}

	accepted, err := s.repo.RecordSuccess(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		// The row was locked between the read and the counter reset.
		return nil, &LoginError{Locked: true, Message: MsgAutoLocked}
	}
	account.FailedLoginAttempts = 0
	return account, nil
}

// Unlock force-reactivates an account. Authorization is the caller's
// responsibility (users service, guarded by ValidateUserMutation).
func (s *Service) Unlock(ctx context.Context, userID int64) error {
	return s.repo.Unlock(ctx, userID)
}

func securityState(a *Account) SecurityState {
	return SecurityState{
		FailedAttempts: a.FailedLoginAttempts,
		IsActive:       a.IsActive,
		LockReason:     a.LockReason,
		LockedUntil:    a.LockedUntil,
	}
}
