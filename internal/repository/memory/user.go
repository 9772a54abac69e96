package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type UserRepo struct {
	state *state
}

func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, u := range r.state.users {
		switch {
		case u.Username == user.Username:
			return models.User{}, apperrors.ErrUserAlreadyExists
		case u.Mail == user.Mail:
			return models.User{}, apperrors.ErrMailAlreadyExists
		}
	}

	user.ID = r.state.ids.user.Add(1)
	user.CreatedAt = time.Now()
	user.Session = models.Session{UserID: user.ID}
	r.state.users[user.ID] = user

	return user, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *UserRepo) GetUserByToken(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return r.find(func(u models.User) bool { return u.Session.Token == token })
}

func (r *UserRepo) GetUserByAlert(ctx context.Context, alertID int64) (models.User, error) {
	r.state.mu.RLock()
	alert, ok := r.state.alerts[alertID]
	r.state.mu.RUnlock()

	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return r.GetUserByID(ctx, alert.UserID)
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	users := make([]models.User, 0, len(r.state.users))
	for _, u := range r.state.users {
		users = append(users, r.withSession(u))
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })

	return users, nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored, ok := r.state.users[user.ID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	for _, u := range r.state.users {
		switch {
		case u.ID == user.ID:
			continue
		case u.Username == user.Username:
			return models.User{}, apperrors.ErrUserAlreadyExists
		case u.Mail == user.Mail:
			return models.User{}, apperrors.ErrMailAlreadyExists
		}
	}

	stored.Name = user.Name
	stored.Username = user.Username
	stored.Mail = user.Mail
	stored.Population = user.Population
	stored.Role = user.Role
	r.state.users[stored.ID] = stored

	return r.withSession(stored), nil
}

func (r *UserRepo) SetPassword(ctx context.Context, userID int64, password string) error {
	return r.update(userID, func(u *models.User) { u.Password = password })
}

func (r *UserRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.update(userID, func(u *models.User) { u.Active = active })
}

func (r *UserRepo) find(match func(models.User) bool) (models.User, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	for _, u := range r.state.users {
		u = r.withSession(u)
		if match(u) {
			return u, nil
		}
	}

	return models.User{}, apperrors.ErrUserNotFound
}

func (r *UserRepo) update(userID int64, fn func(*models.User)) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	u, ok := r.state.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	fn(&u)
	r.state.users[userID] = u

	return nil
}

// caller must hold the lock
func (r *UserRepo) withSession(u models.User) models.User {
	if s, ok := r.state.sessions[u.ID]; ok {
		u.Session = s
	} else {
		u.Session = models.Session{UserID: u.ID}
	}
	return u
}
