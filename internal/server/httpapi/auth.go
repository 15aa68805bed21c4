package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"healthvault/internal/shared/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

const refreshTokenTTL = 30 * 24 * time.Hour

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if body.Email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password required"})
		return
	}
	role := models.Role(body.Role)
	if body.Role == "" {
		role = models.RolePatient
	}
	user, err := r.services.Auth.Register(req.Context(), body.Email, body.Password, role)
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	token, err := r.services.Auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	sess, _ := r.services.Auth.ParseToken(req.Context(), token)
	refresh, _ := r.services.Auth.IssueRefreshToken(req.Context(), sess.UserID, refreshTokenTTL)
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, RefreshToken: refresh})
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	var body refreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	access, refresh, err := r.services.Auth.Refresh(req.Context(), body.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: access, RefreshToken: refresh})
}
