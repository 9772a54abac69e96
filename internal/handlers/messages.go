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

// MessageHandler serves messages; every route is gated
type MessageHandler struct {
	messages messageService
	gated    func(http.Handler) http.Handler
	logger   logger.Logger
}

func (h *MessageHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.list)
	mux.HandleFunc("GET /sent/{userID}", h.sent)
	mux.HandleFunc("GET /received/{userID}", h.received)
	mux.HandleFunc("POST /add", h.add)
	mux.HandleFunc("POST /hide", h.hide)

	return h.gated(mux)
}

func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.List(r.Context(), userctx.MustFromContext(r.Context()))
	h.writeList(w, messages, err)
}

func (h *MessageHandler) sent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		badParameters(w)
		return
	}

	messages, err := h.messages.Sent(r.Context(), userctx.MustFromContext(r.Context()), userID)
	h.writeList(w, messages, err)
}

func (h *MessageHandler) received(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		badParameters(w)
		return
	}

	messages, err := h.messages.Received(r.Context(), userctx.MustFromContext(r.Context()), userID)
	h.writeList(w, messages, err)
}

func (h *MessageHandler) writeList(w http.ResponseWriter, messages []models.Message, err error) {
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	render.List(w, messageViews(messages), "No results")
}

func (h *MessageHandler) add(w http.ResponseWriter, r *http.Request) {
	type AddRequest struct {
		Title      string `json:"title" validate:"required,max=200"`
		Content    string `json:"content" validate:"required"`
		ReceiverID int64  `json:"receiverId" validate:"required"`
	}

	data, err := render.BindAndValidate[AddRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.messages.Send(r.Context(), userctx.MustFromContext(r.Context()), models.Message{
		Title:      data.Title,
		Content:    data.Content,
		ReceiverID: data.ReceiverID,
	})
	switch {
	case errors.Is(err, apperrors.ErrSameSenderReceiver):
		render.Result(w, "Sender and receiver are the same user", render.CodeNotFound)
	case errors.Is(err, apperrors.ErrReceiverNotFound):
		render.Result(w, "Receiver doesnt exist", codeReceiverNotFound)
	case errors.Is(err, apperrors.ErrSenderNotFound):
		render.Result(w, "Sender doesnt exist", codeSenderNotFound)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "Message sent successfully")
	}
}

func (h *MessageHandler) hide(w http.ResponseWriter, r *http.Request) {
	type HideRequest struct {
		ID  int64  `json:"id" validate:"required"`
		Who string `json:"who" validate:"required,oneof=sent received"`
	}

	data, err := render.BindAndValidate[HideRequest](w, r)
	if err != nil {
		return
	}

	err = h.messages.Hide(r.Context(), userctx.MustFromContext(r.Context()), data.ID, data.Who)
	switch {
	case errors.Is(err, apperrors.ErrMessageNotFound):
		render.Result(w, "Message doesnt exist", render.CodeNotFound)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "Message hidden successfully")
	}
}
