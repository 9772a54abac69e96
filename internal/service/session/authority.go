package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/models"
)

const (
	DefaultWindow = 24 * time.Hour
	DefaultDigest = DigestMD5
)

// Outcome of a session validation
type Outcome int

const (
	Valid Outcome = iota + 1
	Expired
	StoreFailure

	// The stored token was cleared or replaced while the renewal was in flight
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case StoreFailure:
		return "store_failure"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

type Store interface {
	WriteTokenFields(ctx context.Context, session models.Session) error
	TouchToken(ctx context.Context, session models.Session) error
	ClearToken(ctx context.Context, userID int64) error
	ListTokens(ctx context.Context) ([]string, error)
}

// Recorder is notified about issued and renewed sessions
type Recorder interface {
	SessionIssued()
	SessionRenewed()
}

type Config struct {
	// Sliding validity window, DefaultWindow if zero
	Window time.Duration

	// Token digest algorithm, DefaultDigest if empty
	Digest string

	// Clock, time.Now if nil
	Now func() time.Time

	// Optional
	Recorder Recorder
}

// Authority issues, validates, renews and revokes session tokens
type Authority struct {
	hasher   Hasher
	store    Store
	window   time.Duration
	now      func() time.Time
	recorder Recorder
	locks    *userLocks
	logger   logger.Logger
}

func New(cfg Config, store Store, l logger.Logger) (*Authority, error) {
	if store == nil {
		return nil, errors.New("session store must not be nil")
	}

	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Window < 0 {
		return nil, fmt.Errorf("session window must be positive, got %s", cfg.Window)
	}

	if cfg.Digest == "" {
		cfg.Digest = DefaultDigest
	}
	if !KnownDigest(cfg.Digest) {
		return nil, fmt.Errorf("unknown token digest %q", cfg.Digest)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Authority{
		hasher:   NewHasher(cfg.Digest),
		store:    store,
		window:   cfg.Window,
		now:      cfg.Now,
		recorder: cfg.Recorder,
		locks:    newUserLocks(),
		logger:   l,
	}, nil
}

func (a *Authority) Window() time.Duration {
	return a.window
}

// IssueToken mints a new token for the user and stores it, replacing any previous one.
// On success user.Session holds the new token.
func (a *Authority) IssueToken(ctx context.Context, user *models.User, sourceAddress string) (models.Token, error) {
	if user == nil {
		return models.Token{}, fmt.Errorf("issue token for nil user: %w", apperrors.ErrInvalidInput)
	}

	unlock := a.locks.lock(user.ID)
	defer unlock()

	return a.issue(ctx, user, a.now(), sourceAddress)
}

// ValidateAndMaybeRenew checks the sliding window of the user's session.
//
// A live session is renewed: its expiration moves to now and the token value is kept.
// A session past its deadline is renewed only when renewOnExpiry is set, otherwise Expired is returned
// and the caller has to ask for credentials. A user without a token gets a fresh one on renewal.
func (a *Authority) ValidateAndMaybeRenew(ctx context.Context, user *models.User, renewOnExpiry bool, sourceAddress string) Outcome {
	unlock := a.locks.lock(user.ID)
	defer unlock()

	now := a.now()
	alive := !now.After(user.Session.Deadline(a.window))

	if !alive && !renewOnExpiry {
		return Expired
	}

	return a.renew(ctx, user, now, sourceAddress)
}

// RevokeToken clears the user's token; expiration is kept.
// Returns apperrors.ErrSessionNotFound if the user has no live token.
func (a *Authority) RevokeToken(ctx context.Context, user *models.User) error {
	unlock := a.locks.lock(user.ID)
	defer unlock()

	if err := a.store.ClearToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}

	user.Session.Token = ""

	return nil
}

func (a *Authority) ListTokens(ctx context.Context) ([]string, error) {
	return a.store.ListTokens(ctx)
}

// caller must hold the user lock
func (a *Authority) issue(ctx context.Context, user *models.User, now time.Time, sourceAddress string) (models.Token, error) {
	seed := user.Username + strconv.FormatInt(now.UnixNano(), 10) + uuid.NewString()

	value, err := a.hasher.Digest(seed)
	if err != nil {
		return models.Token{}, fmt.Errorf("token digest: %w", err)
	}

	token := models.Token{
		Value:         value,
		Username:      user.Username,
		Expiration:    now,
		SourceAddress: sourceAddress,
	}

	if err := a.store.WriteTokenFields(ctx, token.Session(user.ID)); err != nil {
		return models.Token{}, fmt.Errorf("save token: %w", err)
	}

	user.Session = token.Session(user.ID)
	a.recorder.SessionIssued()

	return token, nil
}

// caller must hold the user lock
func (a *Authority) renew(ctx context.Context, user *models.User, now time.Time, sourceAddress string) Outcome {
	if !user.Session.HasToken() {
		if _, err := a.issue(ctx, user, now, sourceAddress); err != nil {
			a.logger.Error("Failed to issue token on renewal", "user_id", user.ID, "error", err)
			return StoreFailure
		}
		return Valid
	}

	renewed := user.Session
	renewed.Expiration = now
	if sourceAddress != "" {
		renewed.SourceAddress = sourceAddress
	}

	err := a.store.TouchToken(ctx, renewed)

	switch {
	case err == nil:
		user.Session = renewed
		a.recorder.SessionRenewed()
		return Valid
	case errors.Is(err, apperrors.ErrSessionNotFound):
		a.logger.Debug("Session changed during renewal", "user_id", user.ID)
		return Stale
	default:
		a.logger.Error("Failed to renew session", "user_id", user.ID, "error", err)
		return StoreFailure
	}
}

type nopRecorder struct{}

func (nopRecorder) SessionIssued()  {}
func (nopRecorder) SessionRenewed() {}
