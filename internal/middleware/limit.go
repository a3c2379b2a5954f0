package middleware

import "net/http"

// LimitBytes caps request bodies; oversized uploads fail inside the
// handler's multipart parse with a clear error instead of exhausting
// memory.
func LimitBytes(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
