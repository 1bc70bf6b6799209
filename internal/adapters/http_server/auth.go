package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const roleAdmin = "admin"

type adminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func generateToken(email, role, secret string, ttl time.Duration) (string, error) {
	claims := adminClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(tokenString, secret string) (*adminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &adminClaims{},
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*adminClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid bearer token carrying the
// admin role. An empty secret disables the whole admin surface.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "admin access is not configured")
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "Authorization header is required")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid authorization format")
				return
			}
			claims, err := parseToken(tokenString, secret)
			if err != nil {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
			if claims.Role != roleAdmin {
				writeProblem(w, http.StatusForbidden, "Forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
