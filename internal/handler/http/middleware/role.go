package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/kestrelhq/leave-backend-go/internal/handler/http/response"
)

// RequireRole allows the request through only when the token's role claim is
// one of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, "Missing or invalid token")
				return
			}
			role, _ := claims["role"].(string)
			if _, ok := allowed[role]; !ok {
				response.Forbidden(w, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
