package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/jwtx"
)

type ctxKey string

const identityKey ctxKey = "identity"

// TokenVerifier returns nil for any token it does not accept.
type TokenVerifier interface {
	Verify(token string) *jwtx.Identity
}

// AuthMiddleware admits requests with a valid bearer access token and puts
// the decoded identity into the request context. It does not consult the
// token store, so a token stays usable after logout until it expires.
func AuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				code, msg := statusFor(common.ErrUnauthorized)
				respondError(w, code, msg)
				return
			}

			id := v.Verify(token)
			if id == nil {
				code, msg := statusFor(common.ErrTokenVerificationFailed)
				respondError(w, code, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

// IdentityFromContext returns the identity set by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (*jwtx.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*jwtx.Identity)
	return id, ok && id != nil
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get(common.AuthorizationHeader))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
