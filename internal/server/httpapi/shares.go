package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type grantShareRequest struct {
	ProviderID string    `json:"provider_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type appendNoteRequest struct {
	Text string `json:"text"`
}

func (r *Router) handleGrantShare(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	recordID := chi.URLParam(req, "id")
	var body grantShareRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if body.ProviderID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "provider_id required"})
		return
	}
	if !body.ExpiresAt.After(time.Now()) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expires_at must be in the future"})
		return
	}
	sh, err := r.services.Shares.Grant(req.Context(), sess, recordID, body.ProviderID, body.ExpiresAt, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

func (r *Router) handleRevokeShare(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	shareID := chi.URLParam(req, "shareID")
	if err := r.services.Shares.Revoke(req.Context(), sess, shareID, deviceInfo(req)); err != nil {
		r.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleListShared(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	shared, err := r.services.Shares.ListForProvider(req.Context(), sess, time.Now())
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shared)
}

func (r *Router) handleViewShared(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	shareID := chi.URLParam(req, "shareID")
	view, err := r.services.Shares.ViewShared(req.Context(), sess, shareID, time.Now(), deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleAppendNote(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	shareID := chi.URLParam(req, "shareID")
	var body appendNoteRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if body.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text required"})
		return
	}
	sh, err := r.services.Shares.AppendNote(req.Context(), sess, shareID, body.Text, time.Now(), deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}
