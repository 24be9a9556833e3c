package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

const maxReportEvents = 25

// PDFExporter renders pet reports as PDF documents.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportPetReport renders report to PDF bytes.
func (e *PDFExporter) ExportPetReport(report domain.PetReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addHealth(pdf, report.Pet)
	e.addStats(pdf, report)
	e.addEvents(pdf, report.Events)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report domain.PetReport) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, "CyberPet Guardian Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated: "+report.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

// addHealth draws the health banner, colored by mood.
func (e *PDFExporter) addHealth(pdf *gofpdf.Fpdf, pet domain.PetSnapshot) {
	r, g, b := e.getMoodColor(pet.Mood)
	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")

	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f HP", pet.Health), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, fmt.Sprintf("Mood: %s", pet.Mood), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

func (e *PDFExporter) getMoodColor(mood domain.Mood) (r, g, b int) {
	switch mood {
	case domain.MoodHappy:
		return 52, 199, 89
	case domain.MoodConcerned:
		return 255, 204, 0
	case domain.MoodSick:
		return 255, 149, 0
	default:
		return 220, 53, 69
	}
}

func (e *PDFExporter) addStats(pdf *gofpdf.Fpdf, report domain.PetReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	monitoring := "inactive"
	if report.Monitor.Active {
		monitoring = "active"
	}

	stats := []struct {
		label string
		value string
	}{
		{"Evolution Stage", fmt.Sprintf("%d", report.Pet.EvolutionStage)},
		{"Points", fmt.Sprintf("%d", report.Pet.Points)},
		{"Safe Streak", fmt.Sprintf("%d", report.Pet.Streak)},
		{"Monitoring", monitoring},
		{"Cycles Run", fmt.Sprintf("%d", report.Monitor.CycleCount)},
		{"Interval", fmt.Sprintf("%.0fs", report.Monitor.IntervalSeconds)},
	}

	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 102, 204)
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
}

func (e *PDFExporter) addEvents(pdf *gofpdf.Fpdf, events []domain.Event) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Recent Events", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(events) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No threats recorded", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	if len(events) > maxReportEvents {
		events = events[len(events)-maxReportEvents:]
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(40, 8, "Time", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Kind", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Effect", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, ev := range events {
		if pdf.GetY() > 260 {
			pdf.AddPage()
		}
		r, g, b := e.getSeverityColor(ev.Severity)

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, ev.Timestamp.Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, string(ev.Kind), "1", 0, "C", false, 0, "")

		category := ev.Category
		if len(category) > 32 {
			category = category[:29] + "..."
		}
		pdf.CellFormat(60, 7, category, "1", 0, "L", false, 0, "")

		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", ev.Severity), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f", ev.Effect), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
}

func (e *PDFExporter) getSeverityColor(severity int) (r, g, b int) {
	switch {
	case severity >= 90:
		return 220, 53, 69
	case severity >= 70:
		return 255, 149, 0
	case severity >= 40:
		return 255, 204, 0
	default:
		return 52, 199, 89
	}
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report domain.PetReport) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, "Generated by CyberPet Guardian | Report ID: "+id, "", 1, "C", false, 0, "")
}
