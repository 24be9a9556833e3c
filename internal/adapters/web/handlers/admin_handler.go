package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

const defaultAuditLimit = 100

// AdminHandler serves the demo controls and the audit trail.
type AdminHandler struct {
	Service ports.GuardianService
}

func NewAdminHandler(service ports.GuardianService) *AdminHandler {
	return &AdminHandler{Service: service}
}

func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	snap := h.Service.Reset(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "pet_state": snap})
}

// HandleSetHealth clamps the requested health into [0, 100].
func (h *AdminHandler) HandleSetHealth(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Health *float64 `json:"health"`
	}{}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	health := 100.0
	if req.Health != nil {
		health = *req.Health
	}
	snap := h.Service.SetHealth(r.Context(), health)
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "pet_state": snap})
}

func (h *AdminHandler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultAuditLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	logs, err := h.Service.AuditLogs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
