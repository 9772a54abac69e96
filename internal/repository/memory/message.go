package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type MessageRepo struct {
	state *state
}

func (r *MessageRepo) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	m.ID = r.state.ids.message.Add(1)
	m.SenderActive = true
	m.ReceiverActive = true
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	r.state.messages[m.ID] = m

	return m, nil
}

func (r *MessageRepo) GetMessage(ctx context.Context, id int64) (models.Message, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	m, ok := r.state.messages[id]
	if !ok {
		return models.Message{}, apperrors.ErrMessageNotFound
	}
	return m, nil
}

func (r *MessageRepo) ListMessages(ctx context.Context, f models.MessageFilter) ([]models.Message, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	messages := make([]models.Message, 0)
	for _, m := range r.state.messages {
		switch {
		case f.SenderID != 0 && m.SenderID != f.SenderID:
		case f.ReceiverID != 0 && m.ReceiverID != f.ReceiverID:
		case f.Visible && f.SenderID != 0 && !m.SenderActive:
		case f.Visible && f.ReceiverID != 0 && !m.ReceiverActive:
		default:
			messages = append(messages, m)
		}
	}
	slices.SortFunc(messages, func(a, b models.Message) int {
		return cmp.Or(a.SentAt.Compare(b.SentAt), cmp.Compare(a.ID, b.ID))
	})

	return messages, nil
}

func (r *MessageRepo) HideMessage(ctx context.Context, id int64, who string) error {
	if who != models.HideSent && who != models.HideReceived {
		return fmt.Errorf("unknown side %q: %w", who, apperrors.ErrInvalidInput)
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	m, ok := r.state.messages[id]
	if !ok {
		return apperrors.ErrMessageNotFound
	}

	if who == models.HideSent {
		m.SenderActive = false
	} else {
		m.ReceiverActive = false
	}
	r.state.messages[id] = m

	return nil
}
