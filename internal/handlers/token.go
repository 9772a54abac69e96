package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/petalert/internal/handlers/middleware"
	"github.com/nkiryanov/petalert/internal/handlers/render"
	"github.com/nkiryanov/petalert/internal/handlers/userctx"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/service/gate"
)

// TokenHandler serves credential login, token login and logout
type TokenHandler struct {
	gate      gateService
	cookieTTL time.Duration
	logger    logger.Logger
}

func (h *TokenHandler) Handler(gated func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", gated(http.HandlerFunc(h.list)))
	mux.HandleFunc("GET /login/{username}/{password}", h.loginPath)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /loginToken/{token}", h.loginToken)
	mux.HandleFunc("GET /logout/{token}", h.logoutPath)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

func (h *TokenHandler) list(w http.ResponseWriter, r *http.Request) {
	actor := userctx.MustFromContext(r.Context())

	tokens, err := h.gate.Tokens(r.Context(), actor)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	render.List(w, tokens, "No results")
}

func (h *TokenHandler) loginPath(w http.ResponseWriter, r *http.Request) {
	v := h.gate.Login(r.Context(), r.PathValue("username"), r.PathValue("password"), middleware.ClientAddress(r))
	h.writeSession(w, v)
}

func (h *TokenHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	v := h.gate.Login(r.Context(), data.Username, data.Password, middleware.ClientAddress(r))
	h.writeSession(w, v)
}

func (h *TokenHandler) loginToken(w http.ResponseWriter, r *http.Request) {
	v := h.gate.LoginToken(r.Context(), r.PathValue("token"), middleware.ClientAddress(r))
	h.writeSession(w, v)
}

func (h *TokenHandler) logoutPath(w http.ResponseWriter, r *http.Request) {
	h.writeLogout(w, h.gate.Logout(r.Context(), r.PathValue("token")))
}

// logout revokes the token the request is made with
func (h *TokenHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.writeLogout(w, h.gate.Logout(r.Context(), middleware.TokenFromRequest(r)))
}

// writeSession answers with the token and hands it over in the cookie and Authorization header too
func (h *TokenHandler) writeSession(w http.ResponseWriter, v gate.Verdict) {
	if !v.Granted() {
		render.Result(w, v.Message(), v.Code())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    v.Token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	w.Header().Set(middleware.AuthorizationHeader, middleware.AuthorizationScheme+" "+v.Token)

	render.OK(w, v.Token)
}

func (h *TokenHandler) writeLogout(w http.ResponseWriter, v gate.Verdict) {
	if v.Granted() {
		http.SetCookie(w, &http.Cookie{Name: middleware.TokenCookie, Value: "", Path: "/", MaxAge: -1})
	}
	render.Result(w, v.Message(), v.Code())
}
