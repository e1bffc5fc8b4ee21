package adminapi

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/yummigo-web/internal/auth"
	"github.com/keithlinneman/yummigo-web/internal/content"
	"github.com/keithlinneman/yummigo-web/internal/document"
	"github.com/keithlinneman/yummigo-web/internal/httpmw"
	"github.com/keithlinneman/yummigo-web/internal/images"
	"github.com/keithlinneman/yummigo-web/internal/log"
)

const (
	DefaultBucket = "Hero"
	heroBaseURL   = "/Hero/"
)

// fallbackSlides is served by /api/hero when the hero bucket is empty or
// unreachable. Deployments ship these files under /Hero/.
var fallbackSlides = []string{"1.jpeg", "2.jpeg", "3.avif", "4.webp", "5.jpeg"}

// ContentService is implemented by *content.Service.
type ContentService interface {
	Current() (document.Value, error)
	Save(ctx context.Context, sess auth.Session, doc document.Value) (content.Snapshot, error)
	Patch(ctx context.Context, sess auth.Session, edits []content.Edit) (content.Snapshot, error)
	Delete(ctx context.Context, sess auth.Session, path string) (content.Snapshot, error)
}

// ImageService is implemented by *images.Service.
type ImageService interface {
	Put(ctx context.Context, sess auth.Session, u images.Upload) (images.Object, error)
	List(ctx context.Context, bucket string) ([]images.Object, error)
	Slides(ctx context.Context, bucket string) ([]string, error)
	Delete(ctx context.Context, sess auth.Session, bucket, filename string) error
	URL(bucket, filename string) string
}

type Options struct {
	Logger  log.Logger
	Content ContentService
	Images  ImageService
	Gate    *auth.Gate

	// LoginLimiter wraps the login route, typically a ratelimit.IPLimiter
	// middleware. Nil disables it.
	LoginLimiter func(http.Handler) http.Handler

	// ImageBaseURL rewrites relative image paths in /content.json. Empty
	// leaves them relative.
	ImageBaseURL string
	// ImageSource names the image backend in /api/hero responses.
	ImageSource string
	// LocalHero holds the slides shipped with the site, served at /Hero/.
	// /api/hero lists it when the image store has none. Optional.
	LocalHero fs.FS
}

type API struct {
	content      ContentService
	images       ImageService
	gate         *auth.Gate
	logger       log.Logger
	loginLimiter func(http.Handler) http.Handler
	imageBaseURL string
	imageSource  string
	localHero    fs.FS
}

func New(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.ImageSource == "" {
		opts.ImageSource = "storage"
	}
	return &API{
		content:      opts.Content,
		images:       opts.Images,
		gate:         opts.Gate,
		logger:       opts.Logger,
		loginLimiter: opts.LoginLimiter,
		imageBaseURL: opts.ImageBaseURL,
		imageSource:  opts.ImageSource,
		localHero:    opts.LocalHero,
	}
}

// RegisterRoutes attaches the API to r.
func (api *API) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httpmw.Scope("content"))
		r.Get("/content.json", api.handlePublicContent)
		r.Get("/api/content", api.handleGetContent)
		r.Get("/api/content/fields", api.handleFields)
		r.Get("/api/content/images", api.handleImageFields)
		r.Get("/api/content/stats", api.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(api.gate))
			r.Post("/api/content", api.handleSaveContent)
			r.Patch("/api/content", api.handlePatchContent)
			r.Delete("/api/content/field", api.handleDeleteField)
			r.Get("/api/content/export", api.handleExport)
			r.Post("/api/content/import", api.handleImport)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(httpmw.Scope("images"))
		r.Get("/api/upload", api.handleListUploads)
		r.Get("/api/hero", api.handleHero)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(api.gate))
			r.Post("/api/upload", api.handleUpload)
			r.Delete("/api/upload", api.handleDeleteUpload)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(httpmw.Scope("auth"))
		if api.loginLimiter != nil {
			r.Use(api.loginLimiter)
		}
		r.Post("/api/admin/auth", api.handleLogin)
	})
}

// session returns the admin session stored by auth.Middleware.
func session(r *http.Request) auth.Session {
	s, _ := auth.SessionFromContext(r.Context())
	return s
}
