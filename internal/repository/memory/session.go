package memory

import (
	"context"
	"errors"
	"slices"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type SessionRepo struct {
	state *state
}

var errTokenTaken = errors.New("token is used by another session")

func (r *SessionRepo) WriteTokenFields(ctx context.Context, s models.Session) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.users[s.UserID]; !ok {
		return apperrors.ErrUserNotFound
	}

	for userID, other := range r.state.sessions {
		if userID != s.UserID && s.Token != "" && other.Token == s.Token {
			return errTokenTaken
		}
	}

	r.state.sessions[s.UserID] = s

	return nil
}

func (r *SessionRepo) TouchToken(ctx context.Context, s models.Session) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored, ok := r.state.sessions[s.UserID]
	if !ok || stored.Token == "" || stored.Token != s.Token {
		return apperrors.ErrSessionNotFound
	}

	stored.Expiration = s.Expiration
	stored.SourceAddress = s.SourceAddress
	r.state.sessions[s.UserID] = stored

	return nil
}

func (r *SessionRepo) ClearToken(ctx context.Context, userID int64) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored, ok := r.state.sessions[userID]
	if !ok || stored.Token == "" {
		return apperrors.ErrSessionNotFound
	}

	stored.Token = ""
	r.state.sessions[userID] = stored

	return nil
}

func (r *SessionRepo) ListTokens(ctx context.Context) ([]string, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	ids := make([]int64, 0, len(r.state.sessions))
	for id, s := range r.state.sessions {
		if s.Token != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		tokens = append(tokens, r.state.sessions[id].Token)
	}

	return tokens, nil
}
