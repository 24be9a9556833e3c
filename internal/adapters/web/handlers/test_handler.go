package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

const defaultTestSeverity = 75

// TestHandler exposes the classifiers and synthetic threats for manual
// testing.
type TestHandler struct {
	Service ports.GuardianService
}

func NewTestHandler(service ports.GuardianService) *TestHandler {
	return &TestHandler{Service: service}
}

func (h *TestHandler) HandleURL(w http.ResponseWriter, r *http.Request) {
	req := struct {
		URL string `json:"url"`
	}{}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.TestURL(req.URL))
}

func (h *TestHandler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	var meta domain.PasswordMetadata
	if err := decodeJSON(w, r, &meta); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.TestPassword(meta))
}

// HandleScreenshot runs one capture and classification without touching the
// pet.
func (h *TestHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.TestScreenshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *TestHandler) HandleTriggerThreat(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Severity   *int   `json:"severity"`
		ThreatType string `json:"threat_type"`
	}{}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	severity := defaultTestSeverity
	if req.Severity != nil {
		severity = *req.Severity
	}

	v, snap, err := h.Service.TriggerTestThreat(r.Context(), severity, req.ThreatType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"threat":    v,
		"pet_state": snap,
	})
}
