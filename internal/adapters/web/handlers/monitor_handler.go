package handlers

import (
	"fmt"
	"net/http"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

// MonitorHandler controls the monitoring scheduler.
type MonitorHandler struct {
	Service ports.GuardianService
}

func NewMonitorHandler(service ports.GuardianService) *MonitorHandler {
	return &MonitorHandler{Service: service}
}

func (h *MonitorHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	result, status := h.Service.StartMonitoring(r.Context())

	message := fmt.Sprintf("Monitoring started - checking every %.0f seconds", status.IntervalSeconds)
	if result == domain.StatusAlreadyRunning {
		message = "Monitoring is already active"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   result,
		"message":  message,
		"interval": status.IntervalSeconds,
	})
}

// HandleStop blocks until the in-flight cycle, if any, has finished.
func (h *MonitorHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	result, _ := h.Service.StopMonitoring(r.Context())

	var message string
	switch result {
	case domain.StatusNotRunning:
		message = "Monitoring is not active"
	case domain.StatusStopped:
		message = "Monitoring stopped"
	default:
		message = "Monitoring is stopping"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  result,
		"message": message,
	})
}

func (h *MonitorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.Service.MonitoringStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"monitoring_active":   status.Active,
		"screenshot_interval": status.IntervalSeconds,
		"pet_state":           h.Service.Snapshot(),
		"monitor":             status,
	})
}
