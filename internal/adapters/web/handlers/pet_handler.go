package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

const (
	defaultTimeSafe     = 60.0
	defaultArchiveLimit = 100
)

// PetHandler serves pet state, event ingestion and event history.
type PetHandler struct {
	Service ports.GuardianService
}

func NewPetHandler(service ports.GuardianService) *PetHandler {
	return &PetHandler{Service: service}
}

// HandleRoot reports that the service is up.
func (h *PetHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	status := h.Service.MonitoringStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "running",
		"message":             "CyberPet Guardian",
		"pet_state":           h.Service.Snapshot(),
		"monitoring_active":   status.Active,
		"screenshot_interval": status.IntervalSeconds,
	})
}

func (h *PetHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Snapshot())
}

// HandleSecurityEvent ingests an event reported by an external detector.
func (h *PetHandler) HandleSecurityEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.SecurityEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Service.IngestEvent(r.Context(), ev)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PetHandler) HandleGoodBehavior(w http.ResponseWriter, r *http.Request) {
	req := struct {
		TimeSafe *float64 `json:"time_safe"`
	}{}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	seconds := defaultTimeSafe
	if req.TimeSafe != nil {
		seconds = *req.TimeSafe
	}
	writeJSON(w, http.StatusOK, h.Service.RecordGoodBehavior(r.Context(), seconds))
}

func (h *PetHandler) HandleRecentEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"events": h.Service.RecentEvents(domain.RecentEventCap),
	})
}

func (h *PetHandler) HandleArchivedEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultArchiveLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := h.Service.ArchivedEvents(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
