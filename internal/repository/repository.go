package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/petalert/internal/models"
)

// User repository interface
// Every read returns the user together with its session (zero session if the user never logged in)
type UserRepo interface {
	// Create user
	// If username or mail is taken must return apperrors.ErrUserAlreadyExists or apperrors.ErrMailAlreadyExists
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by id, username, live token or owned alert
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByToken(ctx context.Context, token string) (models.User, error)
	GetUserByAlert(ctx context.Context, alertID int64) (models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)

	// Update profile fields (name, username, mail, population, role)
	// Password, active flag and session are left untouched
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	SetPassword(ctx context.Context, userID int64, password string) error
	SetActive(ctx context.Context, userID int64, active bool) error
}

// Session repository interface
// Holds at most one session per user
type SessionRepo interface {
	// Insert or overwrite the session of session.UserID in a single statement
	WriteTokenFields(ctx context.Context, session models.Session) error

	// Move expiration and source address of the session only while its stored token equals session.Token
	// Must return apperrors.ErrSessionNotFound if the token was cleared or replaced meanwhile
	TouchToken(ctx context.Context, session models.Session) error

	// Drop the token value but keep expiration
	// Must return apperrors.ErrSessionNotFound if the user has no live token
	ClearToken(ctx context.Context, userID int64) error

	// All live token values
	ListTokens(ctx context.Context) ([]string, error)
}

// Alert repository interface
type AlertRepo interface {
	CreateAlert(ctx context.Context, alert models.Alert) (models.Alert, error)

	// If alert not found must return apperrors.ErrAlertNotFound
	GetAlert(ctx context.Context, id int64) (models.Alert, error)
	UpdateAlert(ctx context.Context, alert models.Alert) (models.Alert, error)
	FinishAlert(ctx context.Context, id int64) error
	ReportAlert(ctx context.Context, id int64) (models.Alert, error)

	// Alerts matching the filter ordered by id
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)

	// Active alerts ordered by distance to the point, nearest first
	ListAlertsByDistance(ctx context.Context, latitude, longitude decimal.Decimal) ([]models.RankedAlert, error)
}

// Message repository interface
type MessageRepo interface {
	CreateMessage(ctx context.Context, message models.Message) (models.Message, error)

	// If message not found must return apperrors.ErrMessageNotFound
	GetMessage(ctx context.Context, id int64) (models.Message, error)

	// Messages matching the filter ordered by send date
	ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, error)

	// Hide message from one side of the conversation, who is models.HideSent or models.HideReceived
	HideMessage(ctx context.Context, id int64, who string) error
}

// Storage gives access to every repository and runs them in a single transaction
type Storage interface {
	User() UserRepo
	Session() SessionRepo
	Alert() AlertRepo
	Message() MessageRepo

	// Run fn with repositories bound to one transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
