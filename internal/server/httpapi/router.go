package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"healthvault/internal/server/service"
)

type Router struct {
	services        *service.Services
	logger          *zap.Logger
	maxRequestBytes int64
}

func NewRouter(services *service.Services, logger *zap.Logger, maxRequestBytes int64) http.Handler {
	r := &Router{services: services, logger: logger, maxRequestBytes: maxRequestBytes}
	mux := chi.NewRouter()

	mux.Get("/health", r.handleHealth)
	mux.Get("/swagger.yaml", r.handleSwagger)
	mux.Post("/api/v1/auth/register", r.handleRegister)
	mux.Post("/api/v1/auth/login", r.handleLogin)
	mux.Post("/api/v1/auth/refresh", r.handleRefresh)

	mux.Group(func(pr chi.Router) {
		pr.Use(r.authMiddleware)

		pr.Get("/api/v1/records", r.handleListRecords)
		pr.Post("/api/v1/records", r.handleCreateRecord)
		pr.Get("/api/v1/records/summary", r.handleSummary)
		pr.Get("/api/v1/records/{id}", r.handleGetRecord)
		pr.Put("/api/v1/records/{id}", r.handleUpdateRecord)
		pr.Delete("/api/v1/records/{id}", r.handleDeleteRecord)
		pr.Get("/api/v1/records/{id}/access-log", r.handleAccessLog)
		pr.Post("/api/v1/records/{id}/insights", r.handleAttachInsight)
		pr.Post("/api/v1/records/{id}/attachments", r.handleAddAttachment)
		pr.Get("/api/v1/records/{id}/attachments/{ref}", r.handleGetAttachment)
		pr.Post("/api/v1/records/{id}/shares", r.handleGrantShare)
		pr.Delete("/api/v1/shares/{shareID}", r.handleRevokeShare)

		pr.Get("/api/v1/shared", r.handleListShared)
		pr.Get("/api/v1/shared/{shareID}", r.handleViewShared)
		pr.Post("/api/v1/shared/{shareID}/notes", r.handleAppendNote)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
