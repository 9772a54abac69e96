package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/repository"
	"github.com/nkiryanov/petalert/internal/service/password"
)

type UserService struct {
	hasher  password.Hasher
	storage repository.Storage
}

func NewService(hasher password.Hasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = password.PlainHasher{}
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// Register creates an active user with the regular role; user.Password holds the raw password
func (s *UserService) Register(ctx context.Context, user models.User) (models.User, error) {
	if user.Password == "" {
		return models.User{}, fmt.Errorf("empty password: %w", apperrors.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user.Password = hash
	user.Role = models.RoleUser
	user.Active = true

	created, err := s.storage.User().CreateUser(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.storage.User().GetUserByUsername(ctx, username)
}

func (s *UserService) GetByToken(ctx context.Context, token string) (models.User, error) {
	return s.storage.User().GetUserByToken(ctx, token)
}

// GetByAlert returns the owner of the alert
func (s *UserService) GetByAlert(ctx context.Context, alertID int64) (models.User, error) {
	return s.storage.User().GetUserByAlert(ctx, alertID)
}

// Modify updates profile fields of update.ID.
// Only admins may change roles; for everybody else the stored role is kept.
func (s *UserService) Modify(ctx context.Context, actor models.User, update models.User) (models.User, error) {
	if !actor.CanManage(update.ID) {
		return models.User{}, apperrors.ErrForbidden
	}

	stored, err := s.storage.User().GetUserByID(ctx, update.ID)
	if err != nil {
		return models.User{}, err
	}

	if !actor.IsAdmin() || update.Role == "" {
		update.Role = stored.Role
	}

	return s.storage.User().UpdateUser(ctx, update)
}

func (s *UserService) ModifyPassword(ctx context.Context, actor models.User, userID int64, pwd string) error {
	if pwd == "" {
		return fmt.Errorf("empty password: %w", apperrors.ErrInvalidInput)
	}
	if !actor.CanManage(userID) {
		return apperrors.ErrForbidden
	}

	hash, err := s.hasher.Hash(pwd)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	return s.storage.User().SetPassword(ctx, userID, hash)
}

// Block deactivates the user and drops its session in one transaction
func (s *UserService) Block(ctx context.Context, actor models.User, userID int64) error {
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}

	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		if err := tx.User().SetActive(ctx, userID, false); err != nil {
			return err
		}

		err := tx.Session().ClearToken(ctx, userID)
		if err != nil && !errors.Is(err, apperrors.ErrSessionNotFound) {
			return fmt.Errorf("clear token: %w", err)
		}

		return nil
	})
}
