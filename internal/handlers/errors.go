package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/handlers/render"
	"github.com/nkiryanov/petalert/internal/logger"
)

// Codes of the resource endpoints beside render.CodeOK, render.CodeNotFound and render.CodeError
const (
	codeAlreadyExists    = -2
	codeReceiverNotFound = -2
	codeSenderNotFound   = -3
	codeForbidden        = -10
)

// writeError renders errors every resource maps the same way; anything unknown is logged as -1
func writeError(w http.ResponseWriter, err error, l logger.Logger) {
	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		render.Result(w, "Not allowed", codeForbidden)
	case errors.Is(err, apperrors.ErrInvalidInput):
		render.Result(w, "Error in parameters", render.CodeError)
	case errors.Is(err, apperrors.ErrNoResults):
		render.Result(w, "No results", render.CodeNotFound)
	default:
		l.Error("Request failed", "error", err)
		render.Result(w, "Error", render.CodeError)
	}
}

func badParameters(w http.ResponseWriter) {
	render.Result(w, "Error in parameters", render.CodeError)
}
