package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrMailAlreadyExists = errors.New("mail already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrSessionNotFound   = errors.New("session not found")
	ErrDigestUnavailable = errors.New("digest algorithm unavailable")

	ErrAlertNotFound   = errors.New("alert not found")
	ErrMessageNotFound = errors.New("message not found")

	ErrSenderNotFound     = errors.New("sender not found")
	ErrReceiverNotFound   = errors.New("receiver not found")
	ErrSameSenderReceiver = errors.New("sender and receiver can not be the same user")

	ErrNoResults    = errors.New("no results")
	ErrForbidden    = errors.New("action is not allowed for this user")
	ErrInvalidInput = errors.New("invalid input")
)
