package httpmw

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/keithlinneman/yummigo-web/internal/log"
)

// Recover turns a handler panic into a 500 and an error log. onPanic, if
// set, runs once per recovered panic (the server uses it for a metric).
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recover(L log.Logger, onPanic func()) func(http.Handler) http.Handler {
	if L == nil {
		L = log.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if onPanic != nil {
					onPanic()
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				L.Error(r.Context(), err, "httpserver panic recovered",
					"url.path", r.URL.Path,
					"http.request.method", r.Method,
					"request_id", RequestIDFromContext(r.Context()),
					"panic_stack", string(debug.Stack()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
