package http

import (
	"net/http"

	"github.com/desantiago/gallery-shop/internal/storage/db"
)

type healthResponse struct {
	Status string `json:"status"`
}

type healthHandler struct {
	checker db.HealthChecker
}

func newHealthHandler(checker db.HealthChecker) *healthHandler {
	return &healthHandler{checker: checker}
}

func (h *healthHandler) Healthz(w http.ResponseWriter, r *http.Request) error {
	if ok, err := h.checker.IsHealthy(r.Context()); err != nil || !ok {
		return writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
	}
	return writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
