package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type MessageRepo struct {
	DB DBTX
}

const messageColumns = `
id, title, content, sender_id, receiver_id, sender_active, receiver_active, sent_at`

const createMessage = `-- name: CreateMessage
INSERT INTO messages (title, content, sender_id, receiver_id, sender_active, receiver_active, sent_at)
VALUES ($1, $2, $3, $4, TRUE, TRUE, COALESCE($5::timestamptz, now()))
RETURNING` + messageColumns

func (r *MessageRepo) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	rows, _ := r.DB.Query(ctx, createMessage, m.Title, m.Content, m.SenderID, m.ReceiverID, nullTime(m.SentAt))
	created, err := pgx.CollectOneRow(rows, rowToMessage)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

const getMessage = `-- name: GetMessage
SELECT` + messageColumns + `
FROM messages
WHERE id = $1
`

func (r *MessageRepo) GetMessage(ctx context.Context, id int64) (models.Message, error) {
	rows, _ := r.DB.Query(ctx, getMessage, id)
	message, err := pgx.CollectOneRow(rows, rowToMessage)

	switch {
	case err == nil:
		return message, nil
	case errors.Is(err, pgx.ErrNoRows):
		return message, apperrors.ErrMessageNotFound
	default:
		return message, fmt.Errorf("db error: %w", err)
	}
}

// Visible hides messages removed by the side the filter selects
const listMessages = `-- name: ListMessages
SELECT` + messageColumns + `
FROM messages
WHERE ($1::bigint = 0 OR sender_id = $1)
  AND ($2::bigint = 0 OR receiver_id = $2)
  AND (NOT $3::boolean OR (($1 = 0 OR sender_active) AND ($2 = 0 OR receiver_active)))
ORDER BY sent_at, id
`

func (r *MessageRepo) ListMessages(ctx context.Context, f models.MessageFilter) ([]models.Message, error) {
	rows, _ := r.DB.Query(ctx, listMessages, f.SenderID, f.ReceiverID, f.Visible)
	messages, err := pgx.CollectRows(rows, rowToMessage)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}

const hideSent = `-- name: HideSent
UPDATE messages SET sender_active = FALSE WHERE id = $1
`

const hideReceived = `-- name: HideReceived
UPDATE messages SET receiver_active = FALSE WHERE id = $1
`

func (r *MessageRepo) HideMessage(ctx context.Context, id int64, who string) error {
	var query string
	switch who {
	case models.HideSent:
		query = hideSent
	case models.HideReceived:
		query = hideReceived
	default:
		return fmt.Errorf("unknown side %q: %w", who, apperrors.ErrInvalidInput)
	}

	tag, err := r.DB.Exec(ctx, query, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrMessageNotFound
	default:
		return nil
	}
}

func rowToMessage(row pgx.CollectableRow) (models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.Title, &m.Content, &m.SenderID, &m.ReceiverID, &m.SenderActive, &m.ReceiverActive, &m.SentAt)
	return m, err
}
