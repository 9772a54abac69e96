package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/petalert/internal/handlers/middleware"
	"github.com/nkiryanov/petalert/internal/handlers/render"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/service/gate"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Gate     gateService
	Users    userService
	Alerts   alertService
	Messages messageService
}

type Options struct {
	// Served on GET /metrics if set
	Metrics http.Handler

	// Reports request durations if set
	Observer interface {
		ObserveRequest(method string, status int, duration time.Duration)
	}

	// Max-Age of the token cookie set on login
	CookieTTL time.Duration
}

func NewRouter(s Services, opts Options, logger logger.Logger) http.Handler {
	gated := middleware.Gate(s.Gate)

	tokens := &TokenHandler{gate: s.Gate, cookieTTL: opts.CookieTTL, logger: logger}
	users := &UserHandler{users: s.Users, gated: gated, logger: logger}
	alerts := &AlertHandler{alerts: s.Alerts, gated: gated, logger: logger}
	messages := &MessageHandler{messages: s.Messages, gated: gated, logger: logger}

	root := http.NewServeMux()
	root.Handle("/token/", http.StripPrefix("/token", tokens.Handler(gated)))
	root.Handle("/users/", http.StripPrefix("/users", users.Handler()))
	root.Handle("/alerts/", http.StripPrefix("/alerts", alerts.Handler()))
	root.Handle("/messages/", http.StripPrefix("/messages", messages.Handler()))

	root.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		render.OK(w, "pong")
	})
	if opts.Metrics != nil {
		root.Handle("GET /metrics", opts.Metrics)
	}

	mds := []func(http.Handler) http.Handler{
		middleware.RequestIDMiddleware,
		middleware.LoggerMiddleware(logger),
	}
	if opts.Observer != nil {
		mds = append(mds, middleware.MetricsMiddleware(opts.Observer))
	}

	return chain(root, mds...)
}

type gateService interface {
	Authorize(ctx context.Context, token string, sourceAddress string) gate.Verdict
	Login(ctx context.Context, username string, password string, sourceAddress string) gate.Verdict
	LoginToken(ctx context.Context, token string, sourceAddress string) gate.Verdict
	Logout(ctx context.Context, token string) gate.Verdict
	Tokens(ctx context.Context, actor models.User) ([]string, error)
}

type userService interface {
	Register(ctx context.Context, user models.User) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByToken(ctx context.Context, token string) (models.User, error)
	GetByAlert(ctx context.Context, alertID int64) (models.User, error)
	Modify(ctx context.Context, actor models.User, update models.User) (models.User, error)
	ModifyPassword(ctx context.Context, actor models.User, userID int64, password string) error
	Block(ctx context.Context, actor models.User, userID int64) error
}

type alertService interface {
	List(ctx context.Context, filter models.AlertFilter, from int) ([]models.Alert, error)
	ListReported(ctx context.Context, from int) ([]models.Alert, error)
	ListByDistance(ctx context.Context, point models.Coordinate, from int) ([]models.RankedAlert, error)
	Get(ctx context.Context, id int64) (models.Alert, error)
	Create(ctx context.Context, actor models.User, alert models.Alert) (models.Alert, error)
	Modify(ctx context.Context, actor models.User, alert models.Alert) (models.Alert, error)
	Finish(ctx context.Context, actor models.User, id int64) error
	Report(ctx context.Context, id int64) (models.Alert, error)
}

type messageService interface {
	List(ctx context.Context, actor models.User) ([]models.Message, error)
	Sent(ctx context.Context, actor models.User, userID int64) ([]models.Message, error)
	Received(ctx context.Context, actor models.User, userID int64) ([]models.Message, error)
	Send(ctx context.Context, actor models.User, msg models.Message) (models.Message, error)
	Hide(ctx context.Context, actor models.User, id int64, who string) error
}

// pathID parses a numeric path value
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

// pathPosition parses the listing start position
func pathPosition(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	return n, err == nil && n >= 0
}
