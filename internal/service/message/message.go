package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/repository"
)

type MessageService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *MessageService {
	return &MessageService{storage: storage}
}

// List returns every message, admins only
func (s *MessageService) List(ctx context.Context, actor models.User) ([]models.Message, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return s.storage.Message().ListMessages(ctx, models.MessageFilter{})
}

// Sent returns messages sent by userID that the sender did not hide
func (s *MessageService) Sent(ctx context.Context, actor models.User, userID int64) ([]models.Message, error) {
	if !actor.CanManage(userID) {
		return nil, apperrors.ErrForbidden
	}
	return s.storage.Message().ListMessages(ctx, models.MessageFilter{SenderID: userID, Visible: true})
}

// Received returns messages received by userID that the receiver did not hide
func (s *MessageService) Received(ctx context.Context, actor models.User, userID int64) ([]models.Message, error) {
	if !actor.CanManage(userID) {
		return nil, apperrors.ErrForbidden
	}
	return s.storage.Message().ListMessages(ctx, models.MessageFilter{ReceiverID: userID, Visible: true})
}

// Send stores a message from the actor to msg.ReceiverID
func (s *MessageService) Send(ctx context.Context, actor models.User, msg models.Message) (models.Message, error) {
	msg.SenderID = actor.ID

	var sent models.Message
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		if err := exists(ctx, tx, msg.SenderID, apperrors.ErrSenderNotFound); err != nil {
			return err
		}
		if err := exists(ctx, tx, msg.ReceiverID, apperrors.ErrReceiverNotFound); err != nil {
			return err
		}
		if msg.SenderID == msg.ReceiverID {
			return apperrors.ErrSameSenderReceiver
		}

		var err error
		sent, err = tx.Message().CreateMessage(ctx, msg)
		return err
	})

	return sent, err
}

// Hide removes the message from the sent or received list of the actor
func (s *MessageService) Hide(ctx context.Context, actor models.User, id int64, who string) error {
	if who != models.HideSent && who != models.HideReceived {
		return fmt.Errorf("unknown side %q: %w", who, apperrors.ErrInvalidInput)
	}

	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		msg, err := tx.Message().GetMessage(ctx, id)
		if err != nil {
			return err
		}

		side := msg.ReceiverID
		if who == models.HideSent {
			side = msg.SenderID
		}
		if !actor.CanManage(side) {
			return apperrors.ErrForbidden
		}

		return tx.Message().HideMessage(ctx, id, who)
	})
}

func exists(ctx context.Context, storage repository.Storage, userID int64, notFound error) error {
	_, err := storage.User().GetUserByID(ctx, userID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return notFound
	}
	return err
}
