// requestid.go — middleware идентификатора запроса.
// Берёт X-Request-Id от балансировщика или генерирует UUID,
// возвращает его в ответе и кладёт в контекст для логов.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader — заголовок идентификатора запроса.
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLen — входящие идентификаторы длиннее заменяются новым UUID.
const maxRequestIDLen = 128

type requestIDKey struct{}

// RequestID возвращает middleware идентификатора запроса.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса или пустую строку.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
