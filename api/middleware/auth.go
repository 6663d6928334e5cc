package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/orderdesk/api/responses"
	pkgAuth "github.com/angelmondragon/orderdesk/pkg/auth"
	"github.com/angelmondragon/orderdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the staff identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithStaff(r.Context(), claims.Email)
			if logg != nil {
				ctx = logg.WithStaff(ctx, claims.Email)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return "", false
	}
	if len(raw) >= 6 && strings.EqualFold(raw[:6], "bearer") && (len(raw) == 6 || raw[6] == ' ') {
		raw = strings.TrimSpace(raw[6:])
	}
	return raw, raw != ""
}
