// ABOUTME: Panic recovery middleware
// ABOUTME: Converts a handler panic into a logged JSON 500 instead of a dropped connection

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrCodeInternal marks unexpected server failures
const ErrCodeInternal = "INTERNAL"

func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("Handler panic",
					"request_id", RequestID(r.Context()),
					"path", sanitizePath(r.URL.Path),
					"panic", rec,
					"stack", string(debug.Stack()))

				rw := wrap(w)
				if rw.wroteHeader {
					return
				}
				writeJSONError(rw, "Internal server error", ErrCodeInternal, http.StatusInternalServerError)
			}
		}()

		next(w, r)
	}
}
