package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"healthvault/internal/shared/models"
	"healthvault/internal/shared/projection"
	"healthvault/internal/shared/validate"
)

func (r *Router) handleListRecords(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	records, err := r.services.Records.List(req.Context(), sess)
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (r *Router) handleGetRecord(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	mode := projection.ParseMode(req.URL.Query().Get("mode"))
	view, err := r.services.Records.Get(req.Context(), sess, id, mode, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleCreateRecord(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	cand, ok := r.decodeCandidate(w, req)
	if !ok {
		return
	}
	rec, err := r.services.Records.Create(req.Context(), sess, cand, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	w.Header().Set("ETag", fmt.Sprintf("%d", rec.Version))
	writeJSON(w, http.StatusCreated, rec)
}

func (r *Router) handleUpdateRecord(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	ifMatch := req.Header.Get("If-Match")
	if ifMatch == "" {
		writeJSON(w, http.StatusPreconditionRequired, errorResponse{Error: "If-Match header required"})
		return
	}
	var expected int64
	if _, err := fmt.Sscanf(ifMatch, "%d", &expected); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed If-Match header"})
		return
	}
	cand, ok := r.decodeCandidate(w, req)
	if !ok {
		return
	}
	rec, err := r.services.Records.Update(req.Context(), sess, id, cand, expected, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	w.Header().Set("ETag", fmt.Sprintf("%d", rec.Version))
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleDeleteRecord(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	if err := r.services.Records.Delete(req.Context(), sess, id, deviceInfo(req)); err != nil {
		r.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	limit := 5
	if q := req.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	sum, err := r.services.Records.Summarize(req.Context(), sess, validate.Now(), limit)
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (r *Router) handleAccessLog(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	entries, err := r.services.Records.AccessLog(req.Context(), sess, id)
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type insightRequest struct {
	Perspective     string   `json:"perspective"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Sources         []string `json:"sources"`
}

func (r *Router) handleAttachInsight(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	var body insightRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if body.Perspective == "" || body.Summary == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "perspective and summary required"})
		return
	}
	ins := models.Insight{
		Summary:         body.Summary,
		Recommendations: body.Recommendations,
		Sources:         body.Sources,
	}
	rec, err := r.services.Records.AttachInsight(req.Context(), sess, id, body.Perspective, ins, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleAddAttachment(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	name := req.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name query parameter required"})
		return
	}
	mimeType := req.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if r.maxRequestBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxRequestBytes)
	}
	rec, err := r.services.Records.AddAttachment(req.Context(), sess, id, name, mimeType, req.Body, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleGetAttachment(w http.ResponseWriter, req *http.Request) {
	sess := getSession(req.Context())
	id := chi.URLParam(req, "id")
	ref := chi.URLParam(req, "ref")
	rc, mimeType, err := r.services.Records.OpenAttachment(req.Context(), sess, id, ref, deviceInfo(req))
	if err != nil {
		r.writeError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// decodeCandidate reads a record submission, enforcing the request size cap.
func (r *Router) decodeCandidate(w http.ResponseWriter, req *http.Request) (validate.Candidate, bool) {
	if r.maxRequestBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxRequestBytes)
	}
	var cand validate.Candidate
	if err := json.NewDecoder(req.Body).Decode(&cand); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty body"})
			return cand, false
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request entity too large"})
			return cand, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return cand, false
	}
	return cand, true
}
