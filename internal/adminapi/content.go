package adminapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/keithlinneman/yummigo-web/internal/content"
	"github.com/keithlinneman/yummigo-web/internal/document"
	"github.com/keithlinneman/yummigo-web/internal/log"
)

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Version string `json:"version"`
	Hash    string `json:"sha256"`
}

func savedResponse(snap content.Snapshot, msg string) saveResponse {
	return saveResponse{Success: true, Message: msg, Version: snap.Meta.Version, Hash: snap.Meta.Hash}
}

type patchRequest struct {
	Edits []content.Edit `json:"edits"`
}

type deleteFieldRequest struct {
	Path string `json:"path"`
}

type fieldsResponse struct {
	Path   string           `json:"path"`
	Fields []document.Field `json:"fields"`
}

type imageFieldsResponse struct {
	Images []document.ImageField `json:"images"`
}

type statsResponse struct {
	document.Preview
	Problems []string `json:"problems"`
}

// handlePublicContent serves the document the site renders, with image
// paths pointing at the public image origin.
func (api *API) handlePublicContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.content.Current()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(ctx, w, http.StatusOK, document.RewriteImageURLs(doc, api.imageBaseURL))
}

func (api *API) handleGetContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.content.Current()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

func (api *API) handleFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.content.Current()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	var p document.Path
	if raw != "" {
		if p, err = document.ParsePath(raw); err != nil {
			writeServiceError(ctx, w, err)
			return
		}
	}
	fields, ok := document.Fields(doc, p)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "Path not found or not a container")
		return
	}
	if fields == nil {
		fields = []document.Field{}
	}
	writeJSON(ctx, w, http.StatusOK, fieldsResponse{Path: p.String(), Fields: fields})
}

func (api *API) handleImageFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.content.Current()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	out := document.ImageFields(doc)
	if out == nil {
		out = []document.ImageField{}
	}
	writeJSON(ctx, w, http.StatusOK, imageFieldsResponse{Images: out})
}

func (api *API) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.content.Current()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	problems := document.Validate(doc)
	if problems == nil {
		problems = []string{}
	}
	writeJSON(ctx, w, http.StatusOK, statsResponse{Preview: document.Stats(doc), Problems: problems})
}

func (api *API) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := readBody(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	doc, err := content.Decode(b)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	snap, err := api.content.Save(ctx, session(r), doc)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, savedResponse(snap, "Content updated successfully"))
}

func (api *API) handlePatchContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req patchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Edits) == 0 {
		writeError(ctx, w, http.StatusBadRequest, "No edits provided")
		return
	}
	snap, err := api.content.Patch(ctx, session(r), req.Edits)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, savedResponse(snap, fmt.Sprintf("%d field(s) updated", len(req.Edits))))
}

func (api *API) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deleteFieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Path == "" {
		writeError(ctx, w, http.StatusBadRequest, "No path provided")
		return
	}
	snap, err := api.content.Delete(ctx, session(r), req.Path)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, savedResponse(snap, "Field removed"))
}

// handleExport downloads the document in its stored encoding.
func (api *API) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := api.content.Current()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	b, err := content.Encode(doc)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="content.json"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.FromContext(ctx).Warn(ctx, "export write failed", "error", err)
	}
}

// handleImport accepts a hand-edited backup (comments and trailing commas
// allowed) and saves it only when it passes validation.
func (api *API) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := readBody(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	doc, err := content.DecodeLenient(b)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if problems := document.Validate(doc); len(problems) > 0 {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Error:    "Validation failed: " + strings.Join(problems, ", "),
			Problems: problems,
		})
		return
	}
	snap, err := api.content.Save(ctx, session(r), doc)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, savedResponse(snap, "Content imported"))
}
