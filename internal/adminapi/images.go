package adminapi

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/keithlinneman/yummigo-web/internal/images"
)

// multipartMemory is held in memory before parts spill to disk.
const multipartMemory = 1 << 20

type uploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

type listUploadsResponse struct {
	Files []images.Object `json:"files"`
}

type deleteUploadRequest struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

type heroResponse struct {
	Source  string   `json:"source"`
	Images  []string `json:"images"`
	BaseURL string   `json:"baseUrl"`
}

func (api *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeServiceError(ctx, w, images.ErrTooLarge)
			return
		}
		writeError(ctx, w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, images.MaxUploadBytes+1))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Could not read file")
		return
	}

	u := images.Upload{
		Bucket:      r.FormValue("bucket"),
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        body,
		Overwrite:   r.FormValue("overwrite") == "true",
	}
	if u.Bucket == "" {
		u.Bucket = DefaultBucket
	}
	if raw := r.FormValue("index"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 {
			writeError(ctx, w, http.StatusBadRequest, "Invalid slot index")
			return
		}
		u.Index = &idx
	}

	obj, err := api.images.Put(ctx, session(r), u)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, uploadResponse{
		Success:  true,
		URL:      obj.URL,
		Filename: obj.Filename,
		Size:     obj.Size,
		Type:     u.ContentType,
	})
}

func (api *API) handleListUploads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = DefaultBucket
	}
	objs, err := api.images.List(ctx, bucket)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if objs == nil {
		objs = []images.Object{}
	}
	writeJSON(ctx, w, http.StatusOK, listUploadsResponse{Files: objs})
}

func (api *API) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deleteUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Path == "" {
		writeError(ctx, w, http.StatusBadRequest, "No path provided")
		return
	}
	if req.Bucket == "" {
		req.Bucket = DefaultBucket
	}
	if err := api.images.Delete(ctx, session(r), req.Bucket, req.Path); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

// handleHero lists hero slides in numeric order. An empty or unreachable
// bucket falls back to the slides bundled with the site.
func (api *API) handleHero(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Cache-Control", "public, max-age=60")

	slides, err := api.images.Slides(ctx, DefaultBucket)
	if err == nil && len(slides) > 0 {
		writeJSON(ctx, w, http.StatusOK, heroResponse{
			Source:  api.imageSource,
			Images:  slides,
			BaseURL: api.images.URL(DefaultBucket, ""),
		})
		return
	}
	if err != nil {
		api.logger.Warn(ctx, "hero slide listing failed", "error", err)
	}
	if local := api.localSlides(); len(local) > 0 {
		writeJSON(ctx, w, http.StatusOK, heroResponse{
			Source:  "local",
			Images:  local,
			BaseURL: heroBaseURL,
		})
		return
	}
	writeJSON(ctx, w, http.StatusOK, heroResponse{
		Source:  "fallback",
		Images:  fallbackSlides,
		BaseURL: heroBaseURL,
	})
}

// localSlides lists the slides shipped with the site, nil when there are
// none or the directory is missing.
func (api *API) localSlides() []string {
	if api.localHero == nil {
		return nil
	}
	entries, err := fs.ReadDir(api.localHero, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && images.IsSlideName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	images.SortSlides(names)
	return names
}
