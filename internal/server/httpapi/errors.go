package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"healthvault/internal/server/repository"
	"healthvault/internal/shared/share"
	"healthvault/internal/shared/validate"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors onto HTTP statuses in one place so handlers
// stay thin. Share denials surface as 404 to avoid confirming that a record
// exists at all.
func (r *Router) writeError(w http.ResponseWriter, err error) {
	var verr *validate.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Reason, Field: verr.Field})
	case errors.Is(err, share.ErrAccessDenied):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "record unavailable"})
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, repository.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "email already registered"})
	case errors.Is(err, repository.ErrVersionConflict):
		writeJSON(w, http.StatusPreconditionFailed, errorResponse{Error: "version conflict"})
	default:
		var serr *repository.StorageError
		if errors.As(err, &serr) {
			r.logger.Error("storage failure", zap.String("op", serr.Op), zap.Error(serr.Err))
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "storage unavailable"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}
