package adminapi

import (
	"errors"
	"net/http"

	"github.com/keithlinneman/yummigo-web/internal/auth"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	APIKey  string `json:"apiKey"`
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request")
		return
	}

	sess, err := api.gate.Login(ctx, req.Password)
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		api.logger.Error(ctx, err, "admin login attempted without configured credentials")
		writeError(ctx, w, http.StatusInternalServerError, "Server configuration error")
		return
	case err != nil:
		api.logger.Warn(ctx, "admin login failed")
		writeError(ctx, w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	api.logger.Info(ctx, "admin login", "session", sess.ID)
	writeJSON(ctx, w, http.StatusOK, loginResponse{Success: true, APIKey: sess.APIKey})
}
