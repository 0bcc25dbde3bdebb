package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuthMiddleware проверяет статический токен в заголовке Authorization.
// Сравнение выполняется за постоянное время.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || presented == "" {
				http.Error(w, "требуется токен доступа", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
				http.Error(w, "токен недействителен", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
