package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/nkiryanov/petalert/internal/handlers/render"
	"github.com/nkiryanov/petalert/internal/handlers/userctx"
	"github.com/nkiryanov/petalert/internal/service/gate"
)

// Where clients may put their session token, checked in this order
const (
	AuthorizationHeader = "Authorization"
	AuthorizationScheme = "Bearer"
	TokenHeader         = "X-Auth-Token"
	TokenCookie         = "token"
)

type authorizer interface {
	Authorize(ctx context.Context, token string, sourceAddress string) gate.Verdict
}

// Gate lets the request through only if its token is granted; the user is put into the context.
// Denied requests get the verdict code and message.
func Gate(a authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verdict := a.Authorize(r.Context(), TokenFromRequest(r), ClientAddress(r))
			if !verdict.Granted() {
				render.Result(w, verdict.Message(), verdict.Code())
				return
			}

			ctx := userctx.New(r.Context(), verdict.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest returns the presented session token or empty string
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get(AuthorizationHeader); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, AuthorizationScheme) {
			return strings.TrimSpace(token)
		}
	}

	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}

// ClientAddress is the address recorded on issued sessions.
// X-Real-IP set by a reverse proxy wins over the connection address.
func ClientAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
