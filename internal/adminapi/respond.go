package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/keithlinneman/yummigo-web/internal/auth"
	"github.com/keithlinneman/yummigo-web/internal/content"
	"github.com/keithlinneman/yummigo-web/internal/document"
	"github.com/keithlinneman/yummigo-web/internal/images"
	"github.com/keithlinneman/yummigo-web/internal/log"
)

// maxJSONBody bounds JSON request bodies other than uploads.
const maxJSONBody = 4 << 20

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if w.Header().Get("Cache-Control") == "" {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.FromContext(ctx).Warn(ctx, "failed to encode JSON response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}

// writeServiceError maps content, document, image and auth errors to a
// status and a client-safe message. Storage failures are logged with the
// cause and reported generically.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var pathErr *document.InvalidPathError
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrNotConfigured):
		auth.WriteError(w, err)
		return
	case errors.As(err, &pathErr):
		writeError(ctx, w, http.StatusBadRequest, pathErr.Error())
	case errors.Is(err, document.ErrPathNotFound):
		writeError(ctx, w, http.StatusNotFound, "Path not found")
	case errors.Is(err, content.ErrInvalidDocument):
		writeError(ctx, w, http.StatusBadRequest, "Invalid JSON structure")
	case errors.Is(err, content.ErrNoDocument):
		writeError(ctx, w, http.StatusServiceUnavailable, "No content loaded")
	case errors.Is(err, images.ErrUnsupportedType):
		writeError(ctx, w, http.StatusBadRequest, "Invalid file type. Only images are allowed.")
	case errors.Is(err, images.ErrTooLarge):
		writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %dMB.", images.MaxUploadBytes>>20))
	case errors.Is(err, images.ErrInvalidName):
		writeError(ctx, w, http.StatusBadRequest, "Invalid bucket or file name")
	case errors.Is(err, images.ErrExists):
		writeError(ctx, w, http.StatusConflict, "File already exists")
	case errors.Is(err, images.ErrNotFound), errors.Is(err, content.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, "Not found")
	case errors.Is(err, content.ErrStorageUnavailable), errors.Is(err, images.ErrStorageUnavailable):
		log.FromContext(ctx).Error(ctx, err, "storage request failed")
		writeError(ctx, w, http.StatusBadGateway, "Storage unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(ctx, w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		log.FromContext(ctx).Error(ctx, err, "request failed")
		writeError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads one JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
}
