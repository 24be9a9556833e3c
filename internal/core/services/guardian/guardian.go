// Package guardian is the request-facing orchestration over the pet, the
// broadcast hub, the classifiers and the monitoring scheduler.
package guardian

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultTestSeverity   = 75
	DefaultTestThreatType = "test_threat"
	popupSeverity         = 50
	unknownEventType      = "unknown"
)

var _ ports.GuardianService = (*Service)(nil)

// Deps groups the collaborators of a Service.
type Deps struct {
	Pet        ports.PetService
	Hub        ports.Publisher
	Classifier ports.Classifier
	Sampler    ports.SampleClassifier
	Monitor    ports.Monitor
	Alerts     ports.AlertSink
	Audit      ports.AuditService
	Archive    ports.EventHistory
}

// Service exposes the engine's operations to transports. Every pet
// mutation is followed by a broadcast.
type Service struct {
	Deps
}

func NewService(deps Deps) *Service {
	return &Service{Deps: deps}
}

// Snapshot returns the current pet view.
func (s *Service) Snapshot() domain.PetSnapshot {
	return s.Pet.Snapshot()
}

// IngestEvent applies an externally reported threat.
func (s *Service) IngestEvent(ctx context.Context, ev domain.SecurityEvent) (domain.IngestResult, error) {
	if err := ev.Validate(); err != nil {
		return domain.IngestResult{}, err
	}
	if strings.TrimSpace(ev.Type) == "" {
		ev.Type = unknownEventType
	}

	rationale := "Threat detected"
	if reason, ok := ev.Metadata["reason"].(string); ok && reason != "" {
		rationale = reason
	}

	v := domain.Verdict{
		ThreatDetected: true,
		Category:       domain.ParseCategory(ev.Type),
		ThreatType:     ev.Type,
		Severity:       ev.Severity,
		Rationale:      rationale,
		UserMessage:    userMessage(ev.Type),
	}.Normalize()

	snap := s.Pet.ApplyThreat(v.Severity, ev.Type)
	s.Hub.Publish(ctx, domain.ThreatMessage(v, snap))

	slog.Info("Security event ingested", "type", ev.Type, "severity", ev.Severity, "url", ev.URL)
	return domain.IngestResult{PetState: snap, ShouldPopup: ev.Severity > popupSeverity}, nil
}

// RecordGoodBehavior rewards a reported safe period.
func (s *Service) RecordGoodBehavior(ctx context.Context, seconds float64) domain.PetSnapshot {
	snap := s.Pet.ApplyGoodTick(seconds)
	s.Hub.Publish(ctx, domain.HealthMessage(snap))
	return snap
}

// RecentEvents returns the newest in-memory events, oldest first.
func (s *Service) RecentEvents(limit int) []domain.Event {
	return s.Pet.History(limit)
}

// ArchivedEvents reads the long-term archive.
func (s *Service) ArchivedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if s.Archive == nil {
		return []domain.Event{}, nil
	}
	return s.Archive.Recent(ctx, limit)
}

// TestURL runs the URL heuristics without touching the pet.
func (s *Service) TestURL(url string) domain.Verdict {
	return s.Classifier.ClassifyURL(url)
}

// TestPassword scores password metadata.
func (s *Service) TestPassword(meta domain.PasswordMetadata) domain.PasswordReport {
	return s.Classifier.ScorePassword(meta)
}

// TestScreenshot classifies the screen once. Alerts are raised as in a
// monitoring cycle, but the pet is left unchanged.
func (s *Service) TestScreenshot(ctx context.Context) (domain.Verdict, error) {
	v, err := s.Sampler.Classify(ctx)
	if err != nil {
		return domain.Verdict{}, err
	}
	if v.ActionTaken != nil && s.Alerts != nil {
		alert := domain.Alert{ThreatType: v.ThreatType, Severity: v.Severity, Timestamp: time.Now().UTC()}
		if err := s.Alerts.Raise(ctx, alert); err != nil {
			slog.Warn("Failed to raise alert", "sink", s.Alerts.Name(), "error", err)
		}
	}
	return v, nil
}

// TriggerTestThreat applies a synthetic threat.
func (s *Service) TriggerTestThreat(ctx context.Context, severity int, threatType string) (domain.Verdict, domain.PetSnapshot, error) {
	if severity < 0 || severity > 100 {
		return domain.Verdict{}, domain.PetSnapshot{}, domain.ErrInvalidSeverity
	}
	if threatType == "" {
		threatType = DefaultTestThreatType
	}

	v := domain.Verdict{
		ThreatDetected: true,
		Category:       domain.CategoryOther,
		ThreatType:     threatType,
		Severity:       severity,
		Rationale:      "Test threat",
		UserMessage:    "Test!",
	}.Normalize()

	snap := s.Pet.ApplyTestThreat(severity, threatType)
	s.Hub.Publish(ctx, domain.ThreatMessage(v, snap))
	s.audit(ctx, domain.ActionTestThreat, threatType, fmt.Sprintf("severity=%d", severity))
	return v, snap, nil
}

// Reset restores the default pet.
func (s *Service) Reset(ctx context.Context) domain.PetSnapshot {
	snap := s.Pet.Reset()
	s.Hub.Publish(ctx, domain.HealthMessage(snap))
	s.audit(ctx, domain.ActionPetReset, "pet", "")
	slog.Info("Pet reset to default state")
	return snap
}

// SetHealth overrides the pet's health.
func (s *Service) SetHealth(ctx context.Context, health float64) domain.PetSnapshot {
	snap := s.Pet.SetHealth(health)
	s.Hub.Publish(ctx, domain.HealthMessage(snap))
	s.audit(ctx, domain.ActionPetSetHealth, "pet", fmt.Sprintf("health=%.1f", snap.Health))
	slog.Info("Pet health set manually", "health", snap.Health)
	return snap
}

// StartMonitoring launches the scheduler.
func (s *Service) StartMonitoring(ctx context.Context) (string, domain.MonitorStatus) {
	result := s.Monitor.Start()
	if result == domain.StatusStarted {
		s.audit(ctx, domain.ActionMonitorStart, "monitor", "")
	}
	return result, s.Monitor.Status()
}

// StopMonitoring stops the scheduler, waiting for the current cycle.
func (s *Service) StopMonitoring(ctx context.Context) (string, domain.MonitorStatus) {
	result := s.Monitor.Stop(ctx)
	if result != domain.StatusNotRunning {
		s.audit(ctx, domain.ActionMonitorStop, "monitor", result)
	}
	return result, s.Monitor.Status()
}

// MonitoringStatus reports the scheduler state.
func (s *Service) MonitoringStatus() domain.MonitorStatus {
	return s.Monitor.Status()
}

// AuditLogs returns the newest audit entries.
func (s *Service) AuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if s.Audit == nil {
		return []domain.AuditLog{}, nil
	}
	return s.Audit.GetLogs(ctx, limit)
}

// Report gathers the pet, the scheduler and the in-memory history.
func (s *Service) Report() domain.PetReport {
	return domain.PetReport{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Pet:         s.Pet.Snapshot(),
		Monitor:     s.Monitor.Status(),
		Events:      s.Pet.History(domain.MaxHistory),
	}
}

func (s *Service) audit(ctx context.Context, action domain.AuditAction, target, details string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Log(ctx, action, target, details); err != nil {
		slog.Warn("Failed to write audit log", "action", action, "error", err)
	}
}

// userMessage turns "phishing_email" into "Phishing Email detected!".
func userMessage(eventType string) string {
	words := strings.ReplaceAll(eventType, "_", " ")
	return cases.Title(language.English).String(words) + " detected!"
}
