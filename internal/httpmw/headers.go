package httpmw

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SecurityOptions struct {
	// ImageOrigins are extra origins allowed in img-src, such as the public
	// object store that serves uploaded images.
	ImageOrigins []string
}

// SecurityHeaders sets HSTS, CSP and the usual hardening headers. The
// admin API authenticates with a header key rather than cookies, so there
// is no CSRF surface to protect.
func SecurityHeaders(opts SecurityOptions) func(http.Handler) http.Handler {
	img := append([]string{"'self'", "data:", "blob:"}, opts.ImageOrigins...)
	csp := strings.Join([]string{
		"default-src 'self'",
		// the exported front-end inlines its bootstrap script and styles
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(img, " "),
		"font-src 'self' data:",
		"connect-src 'self'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
		"object-src 'none'",
	}, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// ContentInfo describes the content document currently being served.
type ContentInfo interface {
	ContentVersion() string
	ContentHash() string
}

// ContentHeaders adds X-Content-Version and a 12 character X-Content-Hash
// to every response and tags the request span with both.
func ContentHeaders(info ContentInfo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if info == nil {
				next.ServeHTTP(w, r)
				return
			}
			v, hash := info.ContentVersion(), info.ContentHash()
			span := trace.SpanFromContext(r.Context())
			if v != "" {
				w.Header().Set("X-Content-Version", v)
				span.SetAttributes(attribute.String("content.version", v))
			}
			if hash != "" {
				short := hash
				if len(short) > 12 {
					short = short[:12]
				}
				w.Header().Set("X-Content-Hash", short)
				span.SetAttributes(attribute.String("content.hash", hash))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TraceResponseHeaders echoes the active trace and span ids.
func TraceResponseHeaders(traceHeader, spanHeader string) func(http.Handler) http.Handler {
	if traceHeader == "" {
		traceHeader = "X-Trace-Id"
	}
	if spanHeader == "" {
		spanHeader = "X-Span-Id"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				w.Header().Set(traceHeader, sc.TraceID().String())
				w.Header().Set(spanHeader, sc.SpanID().String())
			}
			next.ServeHTTP(w, r)
		})
	}
}
