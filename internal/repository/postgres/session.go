package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type SessionRepo struct {
	DB DBTX
}

const writeTokenFields = `-- name: WriteTokenFields
INSERT INTO sessions (user_id, token, expiration, source_address)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET token = EXCLUDED.token, expiration = EXCLUDED.expiration, source_address = EXCLUDED.source_address
`

func (r *SessionRepo) WriteTokenFields(ctx context.Context, s models.Session) error {
	_, err := r.DB.Exec(ctx, writeTokenFields, s.UserID, s.Token, s.Expiration, s.SourceAddress)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const touchToken = `-- name: TouchToken
UPDATE sessions
SET expiration = $3, source_address = $4
WHERE user_id = $1 AND token = $2
`

func (r *SessionRepo) TouchToken(ctx context.Context, s models.Session) error {
	tag, err := r.DB.Exec(ctx, touchToken, s.UserID, s.Token, s.Expiration, s.SourceAddress)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrSessionNotFound
	default:
		return nil
	}
}

const clearToken = `-- name: ClearToken
UPDATE sessions
SET token = NULL
WHERE user_id = $1 AND token IS NOT NULL
`

func (r *SessionRepo) ClearToken(ctx context.Context, userID int64) error {
	tag, err := r.DB.Exec(ctx, clearToken, userID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrSessionNotFound
	default:
		return nil
	}
}

const listTokens = `-- name: ListTokens
SELECT token FROM sessions
WHERE token IS NOT NULL
ORDER BY user_id
`

func (r *SessionRepo) ListTokens(ctx context.Context) ([]string, error) {
	rows, _ := r.DB.Query(ctx, listTokens)
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}
