package httpmw

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UnmatchedRoute labels requests no chi route matched, keeping raw paths
// out of metric labels and span names.
const UnmatchedRoute = "unmatched"

// RoutePattern returns the chi pattern that served r, or UnmatchedRoute.
// Only meaningful once the router has run.
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return UnmatchedRoute
}

// AnnotateRoute renames the request span "METHOD /pattern" and sets
// http.route after the router has matched.
func AnnotateRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		span := trace.SpanFromContext(r.Context())
		if !span.IsRecording() {
			return
		}
		route := RoutePattern(r)
		span.SetAttributes(attribute.String("http.route", route))
		span.SetName(r.Method + " " + route)
	})
}

// WithRouteContext installs an empty chi route context before the router
// runs. chi fills in a context it finds rather than creating its own, so
// middleware outside the router can read the matched pattern afterwards.
func WithRouteContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.RouteContext(r.Context()) == nil {
			ctx := context.WithValue(r.Context(), chi.RouteCtxKey, chi.NewRouteContext())
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
