package opshttp

import (
	"encoding/json"
	"net/http"

	"github.com/keithlinneman/yummigo-web/internal/version"
)

func versionHandler(vi version.Info) http.HandlerFunc {
	body, _ := json.Marshal(vi)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}
