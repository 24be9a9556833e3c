package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

// ReportRenderer turns a report into a downloadable document.
type ReportRenderer interface {
	ExportPetReport(report domain.PetReport) ([]byte, error)
}

type ReportHandler struct {
	Service  ports.GuardianService
	Renderer ReportRenderer
}

func NewReportHandler(service ports.GuardianService, renderer ReportRenderer) *ReportHandler {
	return &ReportHandler{Service: service, Renderer: renderer}
}

// HandleReport streams the pet report as a PDF attachment.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report := h.Service.Report()

	data, err := h.Renderer.ExportPetReport(report)
	if err != nil {
		writeError(w, fmt.Errorf("render report: %w", err))
		return
	}

	filename := fmt.Sprintf("cyberpet-report-%s.pdf", report.GeneratedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		slog.Warn("Failed to write report", "error", err)
	}
}
