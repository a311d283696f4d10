// Package vault tracks the key manager session: whether the backend holds a
// master password, the unlock form, and lock/unlock requests.
//
// The backend is the source of truth. The session label is a projection of
// the latest keys.hasMasterPassword result plus the in-flight flag, and no
// credential outlives the submission that carried it.
package vault

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/logging"
	"github.com/justyntemme/orbit/internal/metrics"
)

// State is the session label shown by the key manager.
type State int

const (
	Locked State = iota
	Unlocking
	Unlocked
)

func (s State) String() string {
	switch s {
	case Unlocking:
		return "unlocking"
	case Unlocked:
		return "unlocked"
	default:
		return "locked"
	}
}

var (
	// ErrCredentialsRequired means one of the two fields is empty; nothing was sent.
	ErrCredentialsRequired = errors.New("vault: master password and secret key are both required")
	// ErrUnlockInFlight means a submission is already waiting for the backend.
	ErrUnlockInFlight = errors.New("vault: unlock already in progress")
	// ErrAlreadyUnlocked means the backend already reports a master password.
	ErrAlreadyUnlocked = errors.New("vault: already unlocked")
	// ErrNotUnlocked means LockAll was asked for outside the Unlocked state.
	ErrNotUnlocked = errors.New("vault: not unlocked")
)

// Keys is the backend's key store as seen through the RPC boundary.
// *rpc.Client implements it.
type Keys interface {
	HasMasterPassword(ctx context.Context) (bool, error)
	SetMasterPassword(ctx context.Context, password, secretKey string) error
	UnmountAll(ctx context.Context) error
	ClearMasterPassword(ctx context.Context) error
}

// Notice is a blocking message the user must acknowledge.
type Notice struct {
	Title string
	Text  string
}

// rejectedNotice is shown when the backend refuses the credentials.
var rejectedNotice = Notice{Title: "Unlock failed", Text: "Incorrect information provided."}

// Session is the key manager state machine.
type Session struct {
	mu   sync.Mutex
	keys Keys

	// Unlock form. Only editable while Locked; formGen counts the times the
	// session cleared it so views can drop what their inputs still show.
	password        string
	secretKey       string
	formGen         uint64
	revealPassword  bool
	revealSecretKey bool

	// Last keys.hasMasterPassword result, or the optimistic value set by LockAll.
	hasMasterPassword bool
	known             bool
	// gen invalidates query results that started before a local transition.
	gen uint64

	inFlight bool
	notice   *Notice

	invalidate func()
}

// NewSession creates a session that starts Locked until Refresh answers.
func NewSession(keys Keys, invalidate func()) *Session {
	return &Session{keys: keys, invalidate: invalidate}
}

// State projects the label from the last query result.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.inFlight:
		return Unlocking
	case s.hasMasterPassword:
		return Unlocked
	default:
		return Locked
	}
}

// Known reports whether hasMasterPassword has answered at least once.
func (s *Session) Known() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known
}

// Refresh re-runs keys.hasMasterPassword. The result replaces the local
// label unless a local transition happened while it was in flight. On error
// the last known value is kept.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	has, err := s.keys.HasMasterPassword(ctx)
	if err != nil {
		debug.Log(debug.VAULT, "hasMasterPassword failed: %v", err)
		return err
	}

	s.mu.Lock()
	applied := gen == s.gen
	if applied {
		s.hasMasterPassword = has
		s.known = true
		if has && (s.password != "" || s.secretKey != "") {
			// Unlocked elsewhere; the form must not outlive Locked
			s.clearFormLocked()
		}
	}
	s.mu.Unlock()

	debug.Log(debug.VAULT, "hasMasterPassword=%v applied=%v", has, applied)
	if applied {
		s.notify()
	}
	return nil
}

// SetMasterPassword updates the password field of the unlock form. Ignored
// unless Locked.
func (s *Session) SetMasterPassword(v string) {
	s.mu.Lock()
	if s.stateLocked() == Locked {
		s.password = v
	}
	s.mu.Unlock()
}

// SetSecretKey updates the secret key field of the unlock form. Ignored
// unless Locked.
func (s *Session) SetSecretKey(v string) {
	s.mu.Lock()
	if s.stateLocked() == Locked {
		s.secretKey = v
	}
	s.mu.Unlock()
}

// Fields returns the current form values.
func (s *Session) Fields() (password, secretKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password, s.secretKey
}

// FormGeneration changes every time the session clears the form.
func (s *Session) FormGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formGen
}

func (s *Session) clearFormLocked() {
	s.password, s.secretKey = "", ""
	s.formGen++
}

// refuseLocked returns why a submission cannot start, clearing the form
// when the session is not Locked. Caller holds mu.
func (s *Session) refuseLocked(password, secretKey string) error {
	var err error
	switch {
	case s.inFlight:
		err = ErrUnlockInFlight
	case s.hasMasterPassword:
		err = ErrAlreadyUnlocked
	case password == "" || secretKey == "":
		return ErrCredentialsRequired
	default:
		return nil
	}
	s.clearFormLocked()
	return err
}

// beginLocked moves to Unlocking with an empty form. Caller holds mu.
func (s *Session) beginLocked() {
	s.clearFormLocked()
	s.inFlight = true
	s.notice = nil
	s.gen++
}

// ToggleRevealPassword flips whether the password field is shown in clear.
func (s *Session) ToggleRevealPassword() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealPassword = !s.revealPassword
	return s.revealPassword
}

// ToggleRevealSecretKey flips whether the secret key field is shown in clear.
func (s *Session) ToggleRevealSecretKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealSecretKey = !s.revealSecretKey
	return s.revealSecretKey
}

// Reveal returns the reveal toggles.
func (s *Session) Reveal() (password, secretKey bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealPassword, s.revealSecretKey
}

// CanSubmit reports whether the unlock button should be enabled.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked() == Locked && s.password != "" && s.secretKey != ""
}

// Submit sends the form to keys.setMasterPassword. Both fields must be
// non-empty. The fields are cleared before the mutation is issued. The call
// is never retried and cannot be cancelled once issued; a rejection leaves
// the session Locked with a Notice to acknowledge.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	password, secretKey := s.password, s.secretKey
	if err := s.refuseLocked(password, secretKey); err != nil {
		s.mu.Unlock()
		return err
	}
	s.beginLocked()
	s.mu.Unlock()
	return s.send(ctx, password, secretKey)
}

// SubmitCredentials submits password and secretKey directly. The form is
// cleared as with Submit; the credentials are never stored in the session.
func (s *Session) SubmitCredentials(ctx context.Context, password, secretKey string) error {
	s.mu.Lock()
	if err := s.refuseLocked(password, secretKey); err != nil {
		s.mu.Unlock()
		return err
	}
	s.beginLocked()
	s.mu.Unlock()
	return s.send(ctx, password, secretKey)
}

func (s *Session) send(ctx context.Context, password, secretKey string) error {
	s.notify()

	debug.Log(debug.VAULT, "submitting credentials")
	err := s.keys.SetMasterPassword(context.WithoutCancel(ctx), password, secretKey)

	s.mu.Lock()
	s.inFlight = false
	s.gen++
	if err != nil {
		n := rejectedNotice
		s.notice = &n
	} else {
		s.hasMasterPassword = true
		s.known = true
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		metrics.RecordUnlockAttempt("rejected")
		logging.Named("vault").Warn("unlock rejected", zap.Error(err))
		return err
	}
	metrics.RecordUnlockAttempt("success")
	logging.Named("vault").Info("unlocked")

	if rerr := s.Refresh(ctx); rerr != nil {
		debug.Log(debug.VAULT, "refresh after unlock: %v", rerr)
	}
	return nil
}

// LockAll locks an Unlocked session immediately, then asks the backend to
// unmount every key and clear the stored master password, in that order, and
// refetches. The local label is Locked whatever the mutations return; a
// refetch that still finds a master password brings Unlocked back. From any
// other state it returns ErrNotUnlocked and sends nothing. Other returned
// errors are informational.
func (s *Session) LockAll(ctx context.Context) error {
	s.mu.Lock()
	if s.stateLocked() != Unlocked {
		s.mu.Unlock()
		return ErrNotUnlocked
	}
	s.hasMasterPassword = false
	s.known = true
	s.clearFormLocked()
	s.gen++
	s.mu.Unlock()
	s.notify()
	debug.Log(debug.VAULT, "lock requested")

	errUnmount := s.keys.UnmountAll(ctx)
	errClear := s.keys.ClearMasterPassword(ctx)
	err := errors.Join(errUnmount, errClear)

	if err != nil {
		metrics.RecordLockRequest("partial")
		logging.Named("vault").Warn("lock incomplete on backend", zap.Error(err))
	} else {
		metrics.RecordLockRequest("ok")
		logging.Named("vault").Info("locked")
	}

	if rerr := s.Refresh(ctx); rerr != nil {
		debug.Log(debug.VAULT, "refresh after lock: %v", rerr)
	}
	return err
}

// Notice returns the pending notice, if any.
func (s *Session) Notice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	return *s.notice, true
}

// AcknowledgeNotice dismisses the pending notice.
func (s *Session) AcknowledgeNotice() {
	s.mu.Lock()
	s.notice = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.invalidate != nil {
		s.invalidate()
	}
}
