// Package memory keeps every repository in process memory.
// It backs unit tests and the '--storage memory' mode; data is lost on restart.
package memory

import (
	"context"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/repository"
)

type state struct {
	mu sync.RWMutex

	users    map[int64]models.User // session part is kept in sessions
	sessions map[int64]models.Session
	alerts   map[int64]models.Alert
	messages map[int64]models.Message

	// shared by a transaction copy and the state it was taken from
	ids *sequences
}

// Ids are never reused, even after a rollback, like database sequences
type sequences struct {
	user    atomic.Int64
	alert   atomic.Int64
	message atomic.Int64
}

func (s *state) clone() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &state{
		users:    maps.Clone(s.users),
		sessions: maps.Clone(s.sessions),
		alerts:   maps.Clone(s.alerts),
		messages: maps.Clone(s.messages),
		ids:      s.ids,
	}
}

// merge applies the records work changed relative to base.
// Records untouched by the transaction keep whatever concurrent writers stored.
func (s *state) merge(base, work *state) error {
	users := changed(base.users, work.users)
	sessions := changed(base.sessions, work.sessions)
	alerts := changed(base.alerts, work.alerts)
	messages := changed(base.messages, work.messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(users, sessions); err != nil {
		return err
	}

	maps.Copy(s.users, users)
	maps.Copy(s.sessions, sessions)
	maps.Copy(s.alerts, alerts)
	maps.Copy(s.messages, messages)

	return nil
}

// caller must hold the lock
func (s *state) checkUnique(users map[int64]models.User, sessions map[int64]models.Session) error {
	for _, u := range users {
		for _, other := range s.users {
			switch {
			case other.ID == u.ID:
				continue
			case other.Username == u.Username:
				return apperrors.ErrUserAlreadyExists
			case other.Mail == u.Mail:
				return apperrors.ErrMailAlreadyExists
			}
		}
	}

	for userID, sess := range sessions {
		if sess.Token == "" {
			continue
		}
		for otherID, other := range s.sessions {
			if otherID != userID && other.Token == sess.Token {
				return errTokenTaken
			}
		}
	}

	return nil
}

// Records are never deleted, so new and modified keys are the whole diff
func changed[V any](base, work map[int64]V) map[int64]V {
	diff := make(map[int64]V)
	for id, v := range work {
		if old, ok := base[id]; !ok || !reflect.DeepEqual(old, v) {
			diff[id] = v
		}
	}
	return diff
}

type Storage struct {
	state *state
}

func NewStorage() *Storage {
	return &Storage{
		state: &state{
			users:    make(map[int64]models.User),
			sessions: make(map[int64]models.Session),
			alerts:   make(map[int64]models.Alert),
			messages: make(map[int64]models.Message),
			ids:      &sequences{},
		},
	}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{state: s.state}
}

func (s *Storage) Session() repository.SessionRepo {
	return &SessionRepo{state: s.state}
}

func (s *Storage) Alert() repository.AlertRepo {
	return &AlertRepo{state: s.state}
}

func (s *Storage) Message() repository.MessageRepo {
	return &MessageRepo{state: s.state}
}

// InTx runs fn against a private copy of the state.
// On success the records fn changed are merged back, on error the copy is dropped.
// Writes made by other callers meanwhile are kept either way.
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	base := s.state.clone()
	work := base.clone()

	if err := fn(&Storage{state: work}); err != nil {
		return err
	}

	return s.state.merge(base, work)
}
