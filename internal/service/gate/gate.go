// Package gate decides whether a request may act on behalf of a user.
//
// Every gated endpoint goes through Gate.Authorize. The credential flows (login by password,
// login by token, logout) live here too because they share the session authority and the
// verdict codes.
package gate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/service/password"
	"github.com/nkiryanov/petalert/internal/service/session"
)

type Users interface {
	GetUserByToken(ctx context.Context, token string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type Authority interface {
	IssueToken(ctx context.Context, user *models.User, sourceAddress string) (models.Token, error)
	ValidateAndMaybeRenew(ctx context.Context, user *models.User, renewOnExpiry bool, sourceAddress string) session.Outcome
	RevokeToken(ctx context.Context, user *models.User) error
	ListTokens(ctx context.Context) ([]string, error)
}

// Recorder counts verdicts and login attempts
type Recorder interface {
	ObserveVerdict(verdict string)
	ObserveLogin(result string)
}

type Config struct {
	// Renew sessions past their deadline on gated requests.
	// When false an expired session is refused with Expired and the client has to log in again.
	GraceRenewal bool

	// Password comparison, plain equality if nil
	Passwords password.Hasher

	// Optional
	Recorder Recorder
}

type Gate struct {
	users        Users
	authority    Authority
	passwords    password.Hasher
	graceRenewal bool
	recorder     Recorder
	logger       logger.Logger
}

func New(cfg Config, users Users, authority Authority, l logger.Logger) (*Gate, error) {
	if users == nil || authority == nil {
		return nil, errors.New("users and authority must not be nil")
	}

	if cfg.Passwords == nil {
		cfg.Passwords = password.PlainHasher{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Gate{
		users:        users,
		authority:    authority,
		passwords:    cfg.Passwords,
		graceRenewal: cfg.GraceRenewal,
		recorder:     cfg.Recorder,
		logger:       l,
	}, nil
}

// Authorize resolves the presented token to its user.
// Granting renews the user's session exactly once. Any lookup problem denies access.
func (g *Gate) Authorize(ctx context.Context, token string, sourceAddress string) Verdict {
	v := g.authorize(ctx, token, sourceAddress)
	v.flow = flowAuthorize

	g.recorder.ObserveVerdict(v.Reason.String())
	if !v.Granted() {
		g.logger.Debug("Request denied", "reason", v.Reason.String(), "source_address", sourceAddress)
	}

	return v
}

func (g *Gate) authorize(ctx context.Context, token string, sourceAddress string) Verdict {
	if token == "" {
		return Verdict{Reason: InvalidInput}
	}

	user, reason := g.userByToken(ctx, token)
	if reason != OK {
		return Verdict{Reason: reason}
	}

	if !user.Active {
		return Verdict{Reason: Blocked}
	}

	switch g.authority.ValidateAndMaybeRenew(ctx, &user, g.graceRenewal, sourceAddress) {
	case session.Valid:
		return Verdict{Reason: OK, User: user, Token: user.Session.Token}
	case session.Expired:
		return Verdict{Reason: Expired}
	case session.Stale:
		return Verdict{Reason: NoMatch}
	default:
		return Verdict{Reason: RenewalFailed}
	}
}

// Login checks credentials and returns the user's live token, minting one when needed.
// An existing session is renewed even if it is past its deadline.
func (g *Gate) Login(ctx context.Context, username string, pwd string, sourceAddress string) Verdict {
	v := g.login(ctx, username, pwd, sourceAddress)
	v.flow = flowLogin

	g.recorder.ObserveLogin(v.Reason.String())
	g.logger.Debug("Login attempt", "username", username, "result", v.Reason.String())

	return v
}

func (g *Gate) login(ctx context.Context, username string, pwd string, sourceAddress string) Verdict {
	if username == "" || pwd == "" {
		return Verdict{Reason: InvalidInput}
	}

	user, err := g.users.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return Verdict{Reason: UnknownUser}
	case err != nil:
		g.logger.Error("Failed to find user", "username", username, "error", err)
		return Verdict{Reason: LookupFailed}
	}

	if err := g.passwords.Compare(user.Password, pwd); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			g.logger.Warn("Stored password can not be compared", "user_id", user.ID, "error", err)
		}
		return Verdict{Reason: BadPassword}
	}

	if !user.Active {
		return Verdict{Reason: Blocked}
	}

	// Only a live session is shared with the new device. An expired token stays dead:
	// credentials mint a new value for it.
	if user.Session.HasToken() {
		if g.authority.ValidateAndMaybeRenew(ctx, &user, false, sourceAddress) == session.Valid {
			return Verdict{Reason: OK, User: user, Token: user.Session.Token}
		}
	}

	token, err := g.authority.IssueToken(ctx, &user, sourceAddress)
	if err != nil {
		g.logger.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return Verdict{Reason: IssueFailed}
	}

	return Verdict{Reason: OK, User: user, Token: token.Value}
}

// LoginToken logs in with a previously issued token.
// Sessions past their deadline are never extended here: the client must log in with a password.
func (g *Gate) LoginToken(ctx context.Context, token string, sourceAddress string) Verdict {
	v := g.loginToken(ctx, token, sourceAddress)
	v.flow = flowLoginToken

	g.recorder.ObserveLogin(v.Reason.String())

	return v
}

func (g *Gate) loginToken(ctx context.Context, token string, sourceAddress string) Verdict {
	if token == "" {
		return Verdict{Reason: InvalidInput}
	}

	user, reason := g.userByToken(ctx, token)
	if reason != OK {
		return Verdict{Reason: reason}
	}

	if !user.Active {
		return Verdict{Reason: Blocked}
	}

	switch g.authority.ValidateAndMaybeRenew(ctx, &user, false, sourceAddress) {
	case session.Valid:
		return Verdict{Reason: OK, User: user, Token: user.Session.Token}
	case session.Expired:
		return Verdict{Reason: Expired}
	case session.Stale:
		return Verdict{Reason: NoToken}
	default:
		return Verdict{Reason: RenewalFailed}
	}
}

// Logout revokes the session the token belongs to
func (g *Gate) Logout(ctx context.Context, token string) Verdict {
	v := g.logout(ctx, token)
	v.flow = flowLogout

	return v
}

func (g *Gate) logout(ctx context.Context, token string) Verdict {
	if token == "" {
		return Verdict{Reason: NoMatch}
	}

	user, reason := g.userByToken(ctx, token)
	if reason != OK {
		return Verdict{Reason: reason}
	}

	err := g.authority.RevokeToken(ctx, &user)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return Verdict{Reason: NoMatch}
	case err != nil:
		g.logger.Error("Failed to revoke token", "user_id", user.ID, "error", err)
		return Verdict{Reason: RevokeFailed}
	}

	return Verdict{Reason: OK, User: user}
}

// Tokens lists every live token, admins only
func (g *Gate) Tokens(ctx context.Context, actor models.User) ([]string, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	tokens, err := g.authority.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	return tokens, nil
}

// userByToken returns the user whose stored token equals token.
// Reason is NoMatch when there is no such user and LookupFailed on store errors.
func (g *Gate) userByToken(ctx context.Context, token string) (models.User, Reason) {
	user, err := g.users.GetUserByToken(ctx, token)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, NoMatch
	case err != nil:
		g.logger.Error("Failed to find user by token", "error", err)
		return models.User{}, LookupFailed
	}

	if !user.Session.HasToken() || subtle.ConstantTimeCompare([]byte(user.Session.Token), []byte(token)) != 1 {
		return models.User{}, NoMatch
	}

	return user, OK
}

type nopRecorder struct{}

func (nopRecorder) ObserveVerdict(string) {}
func (nopRecorder) ObserveLogin(string)   {}
