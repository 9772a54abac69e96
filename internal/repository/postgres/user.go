package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type UserRepo struct {
	DB DBTX
}

// Columns every user query returns; the session part is NULL for users that never logged in
const userColumns = `
u.id, u.created_at, u.name, u.username, u.password, u.role, u.mail, u.population, u.active,
s.token, s.expiration, s.source_address`

const createUser = `-- name: CreateUser
WITH u AS (
	INSERT INTO users (name, username, password, role, mail, population, active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING *
)
SELECT` + userColumns + `
FROM u
LEFT JOIN sessions s ON s.user_id = u.id
`

func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		user.Name, user.Username, user.Password, user.Role, user.Mail, user.Population, user.Active,
	)
	created, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "users_mail_key" {
				return created, apperrors.ErrMailAlreadyExists
			}
			return created, apperrors.ErrUserAlreadyExists
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getUserByID = `-- name: GetUserByID
SELECT` + userColumns + `
FROM users u
LEFT JOIN sessions s ON s.user_id = u.id
WHERE u.id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return r.getOne(ctx, getUserByID, id)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT` + userColumns + `
FROM users u
LEFT JOIN sessions s ON s.user_id = u.id
WHERE u.username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getOne(ctx, getUserByUsername, username)
}

const getUserByToken = `-- name: GetUserByToken
SELECT` + userColumns + `
FROM users u
JOIN sessions s ON s.user_id = u.id
WHERE s.token = $1
`

func (r *UserRepo) GetUserByToken(ctx context.Context, token string) (models.User, error) {
	return r.getOne(ctx, getUserByToken, token)
}

const getUserByAlert = `-- name: GetUserByAlert
SELECT` + userColumns + `
FROM alerts a
JOIN users u ON u.id = a.user_id
LEFT JOIN sessions s ON s.user_id = u.id
WHERE a.id = $1
`

func (r *UserRepo) GetUserByAlert(ctx context.Context, alertID int64) (models.User, error) {
	return r.getOne(ctx, getUserByAlert, alertID)
}

const listUsers = `-- name: ListUsers
SELECT` + userColumns + `
FROM users u
LEFT JOIN sessions s ON s.user_id = u.id
ORDER BY u.id
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

const updateUser = `-- name: UpdateUser
WITH u AS (
	UPDATE users
	SET name = $2, username = $3, mail = $4, population = $5, role = $6
	WHERE id = $1
	RETURNING *
)
SELECT` + userColumns + `
FROM u
LEFT JOIN sessions s ON s.user_id = u.id
`

func (r *UserRepo) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser, user.ID, user.Name, user.Username, user.Mail, user.Population, user.Role)
	updated, err := pgx.CollectOneRow(rows, rowToUser)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, apperrors.ErrUserNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "users_mail_key":
		return updated, apperrors.ErrMailAlreadyExists
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return updated, apperrors.ErrUserAlreadyExists
	default:
		return updated, fmt.Errorf("db error: %w", err)
	}
}

const setPassword = `-- name: SetPassword
UPDATE users SET password = $2 WHERE id = $1
`

func (r *UserRepo) SetPassword(ctx context.Context, userID int64, password string) error {
	return r.execOne(ctx, setPassword, userID, password)
}

const setActive = `-- name: SetActive
UPDATE users SET active = $2 WHERE id = $1
`

func (r *UserRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.execOne(ctx, setActive, userID, active)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (models.User, error) {
	rows, _ := r.DB.Query(ctx, query, args...)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.DB.Exec(ctx, query, args...)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var (
		u          models.User
		token      *string
		expiration *time.Time
		source     *string
	)

	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.Name, &u.Username, &u.Password, &u.Role, &u.Mail, &u.Population, &u.Active,
		&token, &expiration, &source,
	)
	if err != nil {
		return u, err
	}

	u.Session.UserID = u.ID
	if token != nil {
		u.Session.Token = *token
	}
	if expiration != nil {
		u.Session.Expiration = *expiration
	}
	if source != nil {
		u.Session.SourceAddress = *source
	}

	return u, nil
}
