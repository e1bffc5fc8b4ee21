package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/yummigo-web/internal/health"
	"github.com/keithlinneman/yummigo-web/internal/httpmw"
	"github.com/keithlinneman/yummigo-web/internal/log"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	OnPanic      func()

	MetricsMW   func(http.Handler) http.Handler
	RateLimitMW func(http.Handler) http.Handler

	ClientIPOpts httpmw.ClientIPOptions
	Security     httpmw.SecurityOptions
	// MaxBodyBytes caps every request body; routes may tighten it.
	// Zero uses DefaultMaxBodyBytes.
	MaxBodyBytes int64

	Health    health.Probe
	Readiness health.Probe

	// APIRoutes registers /api/* and other dynamic routes.
	APIRoutes func(chi.Router)
	// SiteHandler serves everything no route matched.
	SiteHandler http.Handler
	// ContentInfo feeds X-Content-Version and X-Content-Hash.
	ContentInfo httpmw.ContentInfo
}
