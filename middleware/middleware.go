package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/utils"
)

// AuthCookie is the cookie holding the session token.
const AuthCookie = "token"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by RequireAuth, or nil.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey{}).(*models.Principal)
	return p
}

// TokenFromRequest reads the auth cookie, falling back to a bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AuthCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				logging.Logger.Warnf("Event ID: AUTH_TOKEN_MISSING, Description: No token for request to %s %s", r.Method, r.URL.Path)
				utils.WriteError(w, r, models.AuthError("Not authorized. Try login again."))
				return
			}
			p, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				logging.Logger.Warnf("Event ID: AUTH_TOKEN_INVALID, Description: Rejected token for request to %s %s: %v", r.Method, r.URL.Path, err)
				utils.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p == nil || !p.IsAdmin {
			utils.WriteError(w, r, models.AuthorizationError("Not authorized as admin. Try login as admin."))
			return
		}
		next.ServeHTTP(w, r)
	})
}
