package middleware

import (
	"net/http"
	"strings"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
)

const adminUsername = "admin"

// AdminMiddleware guards administrative endpoints with a bearer token checked
// against a bcrypt hash. An empty hash leaves the endpoints open. Either way
// the caller is attached to the request context for auditing.
func AdminMiddleware(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash != "" {
				token, ok := bearerToken(r)
				if !ok {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}

			ctx := domain.WithPrincipal(r.Context(), domain.Principal{
				ID:       adminUsername,
				Username: adminUsername,
				IP:       ClientIP(r),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}
