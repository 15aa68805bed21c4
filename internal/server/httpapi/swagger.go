package httpapi

import (
	_ "embed"
	"net/http"
)

//go:embed swagger/openapi.yaml
var openapiSpec []byte

func (r *Router) handleSwagger(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}
