package sitehandler

import (
	"io/fs"
	"net/http"
)

type Handler struct {
	opts Options
}

func New(opts *Options) (*Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Handler{opts: *opts}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := h.opts.Content.ReadyErr(); err != nil {
		h.serveMaintenance(w, r)
		return
	}

	file, redirectTo, found := resolvePath(r.URL.Path, h.opts.SiteFS)
	if redirectTo != "" {
		http.Redirect(w, r, redirectTo, http.StatusPermanentRedirect)
		return
	}
	if found {
		if cc := cacheControlForFile(file, &h.opts); cc != "" {
			w.Header().Set("Cache-Control", cc)
		}
		http.ServeFileFS(w, r, h.opts.SiteFS, file)
		return
	}

	if h.opts.ImagesFS != nil {
		if name, ok := resolveImage(r.URL.Path, h.opts.ImagesFS); ok {
			w.Header().Set("Cache-Control", h.opts.ImageCacheControl)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			http.ServeFileFS(w, r, h.opts.ImagesFS, name)
			return
		}
	}

	h.serveNotFound(w, r)
}

func (h *Handler) serveMaintenance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", "60")
	serveFileWithStatus(w, r, http.StatusServiceUnavailable, h.opts.FallbackFS, h.opts.MaintenanceFile)
}

func (h *Handler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	if existsFile(h.opts.SiteFS, h.opts.Site404File) {
		serveFileWithStatus(w, r, http.StatusNotFound, h.opts.SiteFS, h.opts.Site404File)
		return
	}
	if existsFile(h.opts.FallbackFS, h.opts.Fallback404File) {
		serveFileWithStatus(w, r, http.StatusNotFound, h.opts.FallbackFS, h.opts.Fallback404File)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("404 page not found"))
}

// statusOverrideWriter forces the first WriteHeader to status, since
// http.ServeFileFS always writes its own.
type statusOverrideWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusOverrideWriter) WriteHeader(code int) {
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *statusOverrideWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(w.status)
	}
	return w.ResponseWriter.Write(p)
}

func serveFileWithStatus(w http.ResponseWriter, r *http.Request, status int, fsys fs.FS, name string) {
	// conditional requests would turn the forced status into a 304
	r.Header.Del("If-Modified-Since")
	r.Header.Del("If-None-Match")
	sw := &statusOverrideWriter{ResponseWriter: w, status: status}
	http.ServeFileFS(sw, r, fsys, name)
}
