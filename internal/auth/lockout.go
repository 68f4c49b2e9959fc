package auth

import "time"

// LockoutThreshold is the number of consecutive credential mismatches after
// which an account is automatically deactivated.
const LockoutThreshold = 3

// LockoutDuration is how long an automatic lock holds before the background
// sweep lifts it. Administrative blocks never expire on their own.
const LockoutDuration = 24 * time.Hour

// Messages surfaced on the login path. The exact text is part of the API
// contract consumed by the admin UI.
const (
	MsgInvalidCredentials = "Invalid username or password."
	MsgOneAttemptLeft     = "Invalid credentials. One attempt remaining before your account is locked."
	MsgAutoLocked         = "Your account has been locked due to multiple failed login attempts."
	MsgAdminBlocked       = "Your account has been blocked by an administrator."
)

// SecurityState is the slice of an Account the lockout machine operates on.
type SecurityState struct {
	FailedAttempts int
	IsActive       bool
	LockReason     string
	LockedUntil    *time.Time
}

// FailureOutcome is the result of recording one credential mismatch.
type FailureOutcome struct {
	State   SecurityState
	Locked  bool
	Message string
}

// ApplyFailure advances the state machine by one credential mismatch:
// 0 -> 1 -> 2 -> locked at 3. An already locked account stays as it is and
// re-emits the lock message. Pure function; the repository applies the
// returned state inside a row-locked transaction.
func ApplyFailure(s SecurityState, now time.Time) FailureOutcome {
	if !s.IsActive {
		return FailureOutcome{State: s, Locked: true, Message: RefusalMessage(s)}
	}
	s.FailedAttempts++
	switch {
	case s.FailedAttempts >= LockoutThreshold:
		until := now.Add(LockoutDuration)
		s.IsActive = false
		s.LockReason = LockReasonAutoThreshold
		s.LockedUntil = &until
		return FailureOutcome{State: s, Locked: true, Message: MsgAutoLocked}
	case s.FailedAttempts == LockoutThreshold-1:
		return FailureOutcome{State: s, Message: MsgOneAttemptLeft}
	default:
		return FailureOutcome{State: s, Message: MsgInvalidCredentials}
	}
}

// ApplySuccess resets the counter after a correct credential. A locked
// account cannot authenticate even with the right password: the caller must
// unlock explicitly first.
func ApplySuccess(s SecurityState) (SecurityState, bool) {
	if !s.IsActive {
		return s, false
	}
	s.FailedAttempts = 0
	return s, true
}

// Unlocked is the state after an explicit admin unlock, regardless of what
// came before.
func Unlocked() SecurityState {
	return SecurityState{FailedAttempts: 0, IsActive: true}
}

// RefusalMessage picks the refusal text for an inactive account from the
// recorded lock reason rather than guessing from the counter.
func RefusalMessage(s SecurityState) string {
	if s.LockReason == LockReasonManualAdmin {
		return MsgAdminBlocked
	}
	return MsgAutoLocked
}
