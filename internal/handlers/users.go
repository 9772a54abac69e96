package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/handlers/render"
	"github.com/nkiryanov/petalert/internal/handlers/userctx"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/models"
)

type UserHandler struct {
	users  userService
	gated  func(http.Handler) http.Handler
	logger logger.Logger
}

func (h *UserHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.list)
	mux.HandleFunc("GET /{id}", h.get)
	mux.HandleFunc("GET /token/{token}", h.getByToken)
	mux.HandleFunc("GET /username/{username}", h.getByUsername)
	mux.HandleFunc("GET /alert/{id}", h.getByAlert)
	mux.HandleFunc("POST /add", h.add)
	mux.Handle("POST /modify", h.gated(http.HandlerFunc(h.modify)))
	mux.Handle("POST /modifyPassword", h.gated(http.HandlerFunc(h.modifyPassword)))
	mux.Handle("POST /blockUser", h.gated(http.HandlerFunc(h.block)))

	return mux
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	render.List(w, views, "No results")
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badParameters(w)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	h.writeUser(w, user, err, "User ID doesnt exist")
}

func (h *UserHandler) getByToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByToken(r.Context(), r.PathValue("token"))
	h.writeUser(w, user, err, "User not found")
}

func (h *UserHandler) getByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByUsername(r.Context(), r.PathValue("username"))
	h.writeUser(w, user, err, "Username doesnt exist")
}

func (h *UserHandler) getByAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badParameters(w)
		return
	}

	user, err := h.users.GetByAlert(r.Context(), id)
	h.writeUser(w, user, err, "User ID doesnt exist")
}

func (h *UserHandler) writeUser(w http.ResponseWriter, user models.User, err error, notFound string) {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.Result(w, notFound, render.CodeNotFound)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, newUserView(user))
	}
}

func (h *UserHandler) add(w http.ResponseWriter, r *http.Request) {
	type AddRequest struct {
		Name       string `json:"name" validate:"max=100"`
		Username   string `json:"username" validate:"required,min=2,max=50"`
		Password   string `json:"password" validate:"required"`
		Mail       string `json:"mail" validate:"required,email"`
		Population string `json:"population" validate:"max=100"`
	}

	data, err := render.BindAndValidate[AddRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.users.Register(r.Context(), models.User{
		Name:       data.Name,
		Username:   data.Username,
		Password:   data.Password,
		Mail:       data.Mail,
		Population: data.Population,
	})
	switch {
	case errors.Is(err, apperrors.ErrMailAlreadyExists):
		render.Result(w, "Mail already exists", codeAlreadyExists)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.Result(w, "Username already exists", codeAlreadyExists)
	case err != nil:
		h.logger.Error("Failed to add user", "error", err)
		render.Result(w, "Error adding user", render.CodeError)
	default:
		render.OK(w, "User added successfully")
	}
}

func (h *UserHandler) modify(w http.ResponseWriter, r *http.Request) {
	type ModifyRequest struct {
		ID         int64  `json:"id" validate:"required"`
		Name       string `json:"name" validate:"max=100"`
		Username   string `json:"username" validate:"required,min=2,max=50"`
		Mail       string `json:"mail" validate:"required,email"`
		Population string `json:"population" validate:"max=100"`
		Role       string `json:"rol" validate:"omitempty,oneof=user admin"`
	}

	data, err := render.BindAndValidate[ModifyRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.users.Modify(r.Context(), userctx.MustFromContext(r.Context()), models.User{
		ID:         data.ID,
		Name:       data.Name,
		Username:   data.Username,
		Mail:       data.Mail,
		Population: data.Population,
		Role:       data.Role,
	})
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.Result(w, "User doesnt exist", render.CodeNotFound)
	case errors.Is(err, apperrors.ErrMailAlreadyExists):
		render.Result(w, "Mail already exists", codeAlreadyExists)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.Result(w, "Username already exists", codeAlreadyExists)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "User modified successfully")
	}
}

func (h *UserHandler) modifyPassword(w http.ResponseWriter, r *http.Request) {
	type ModifyPasswordRequest struct {
		UserID   int64  `json:"userId" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[ModifyPasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.users.ModifyPassword(r.Context(), userctx.MustFromContext(r.Context()), data.UserID, data.Password)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.Result(w, "User ID doesnt exist", render.CodeNotFound)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "Password modified successfully")
	}
}

func (h *UserHandler) block(w http.ResponseWriter, r *http.Request) {
	type BlockRequest struct {
		UserID int64 `json:"userId" validate:"required"`
	}

	data, err := render.BindAndValidate[BlockRequest](w, r)
	if err != nil {
		return
	}

	err = h.users.Block(r.Context(), userctx.MustFromContext(r.Context()), data.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.Result(w, "User ID doesnt exist", render.CodeNotFound)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "User blocked successfully")
	}
}
