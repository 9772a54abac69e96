package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/handlers/render"
	"github.com/nkiryanov/petalert/internal/handlers/userctx"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/models"
)

type AlertHandler struct {
	alerts alertService
	gated  func(http.Handler) http.Handler
	logger logger.Logger
}

func (h *AlertHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /all/{number}", h.listFiltered)
	mux.HandleFunc("GET /animal/{kind}/{number}", h.listFiltered)
	mux.HandleFunc("GET /animal/{kind}/race/{race}/{number}", h.listFiltered)
	mux.HandleFunc("GET /animal/{kind}/race/{race}/sex/{sex}/{number}", h.listFiltered)
	mux.HandleFunc("GET /reported/{number}", h.listReported)
	mux.HandleFunc("GET /distance/{latitude}/{longitude}/{number}", h.listByDistance)
	mux.HandleFunc("GET /{id}", h.get)

	mux.Handle("POST /add", h.gated(http.HandlerFunc(h.add)))
	mux.Handle("POST /modify", h.gated(http.HandlerFunc(h.modify)))
	mux.Handle("POST /finish", h.gated(http.HandlerFunc(h.finish)))
	mux.Handle("POST /report", h.gated(http.HandlerFunc(h.report)))

	return mux
}

// listFiltered serves every listing narrowed by path values; missing ones match anything
func (h *AlertHandler) listFiltered(w http.ResponseWriter, r *http.Request) {
	from, ok := pathPosition(r)
	if !ok {
		badParameters(w)
		return
	}

	filter := models.AlertFilter{
		Kind: r.PathValue("kind"),
		Race: r.PathValue("race"),
		Sex:  r.PathValue("sex"),
	}

	alerts, err := h.alerts.List(r.Context(), filter, from)
	h.writeList(w, alerts, err)
}

func (h *AlertHandler) listReported(w http.ResponseWriter, r *http.Request) {
	from, ok := pathPosition(r)
	if !ok {
		badParameters(w)
		return
	}

	alerts, err := h.alerts.ListReported(r.Context(), from)
	h.writeList(w, alerts, err)
}

func (h *AlertHandler) writeList(w http.ResponseWriter, alerts []models.Alert, err error) {
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	render.List(w, alertViews(alerts), "No results")
}

func (h *AlertHandler) listByDistance(w http.ResponseWriter, r *http.Request) {
	from, ok := pathPosition(r)
	if !ok {
		badParameters(w)
		return
	}

	lat, err := decimal.NewFromString(r.PathValue("latitude"))
	if err != nil {
		badParameters(w)
		return
	}
	lon, err := decimal.NewFromString(r.PathValue("longitude"))
	if err != nil {
		badParameters(w)
		return
	}

	ranked, err := h.alerts.ListByDistance(r.Context(), models.Coordinate{Latitude: lat, Longitude: lon}, from)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	views := make([]alertView, 0, len(ranked))
	for _, ra := range ranked {
		views = append(views, newRankedAlertView(ra))
	}
	render.List(w, views, "No results")
}

func (h *AlertHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badParameters(w)
		return
	}

	alert, err := h.alerts.Get(r.Context(), id)
	switch {
	case errors.Is(err, apperrors.ErrAlertNotFound):
		render.Result(w, "Alert doesnt exist", render.CodeNotFound)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, newAlertView(alert))
	}
}

func (h *AlertHandler) add(w http.ResponseWriter, r *http.Request) {
	data, err := render.BindAndValidate[alertInput](w, r)
	if err != nil {
		return
	}

	_, err = h.alerts.Create(r.Context(), userctx.MustFromContext(r.Context()), data.model())
	if err != nil {
		h.logger.Error("Failed to add alert", "error", err)
		render.Result(w, "Error adding alert", render.CodeError)
		return
	}

	render.OK(w, "Alert added successfully")
}

func (h *AlertHandler) modify(w http.ResponseWriter, r *http.Request) {
	data, err := render.BindAndValidate[alertInput](w, r)
	if err != nil {
		return
	}

	_, err = h.alerts.Modify(r.Context(), userctx.MustFromContext(r.Context()), data.model())
	switch {
	case errors.Is(err, apperrors.ErrAlertNotFound):
		render.Result(w, "Alert doesnt exist", render.CodeError)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "Alert modified successfully")
	}
}

type alertIDRequest struct {
	ID int64 `json:"id" validate:"required"`
}

func (h *AlertHandler) finish(w http.ResponseWriter, r *http.Request) {
	data, err := render.BindAndValidate[alertIDRequest](w, r)
	if err != nil {
		return
	}

	err = h.alerts.Finish(r.Context(), userctx.MustFromContext(r.Context()), data.ID)
	switch {
	case errors.Is(err, apperrors.ErrAlertNotFound):
		render.Result(w, "Alert doesnt exist", render.CodeError)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "Alert finished successfully")
	}
}

func (h *AlertHandler) report(w http.ResponseWriter, r *http.Request) {
	data, err := render.BindAndValidate[alertIDRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.alerts.Report(r.Context(), data.ID)
	switch {
	case errors.Is(err, apperrors.ErrAlertNotFound):
		render.Result(w, "Alert doesnt exist", render.CodeError)
	case err != nil:
		writeError(w, err, h.logger)
	default:
		render.OK(w, "Alert reported successfully")
	}
}
