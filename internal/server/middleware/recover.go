package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// FallbackFunc answers a request whose handler panicked.
type FallbackFunc func(w http.ResponseWriter, r *http.Request, recovered any)

// Recover turns handler panics into a fallback response. The panic and its
// stack are logged. When the handler already started its response, nothing
// more can be sent and the connection is left to net/http.
func Recover(fallback FallbackFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := NewStatusRecorder(w)
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				log.Error().
					Str("request_id", GetRequestID(r)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", recovered).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				if rec.WroteHeader {
					return
				}
				fallback(rec, r, recovered)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
