package ports

import (
	"context"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

// GuardianService is the operation surface exposed to transports.
type GuardianService interface {
	Snapshot() domain.PetSnapshot
	IngestEvent(ctx context.Context, ev domain.SecurityEvent) (domain.IngestResult, error)
	RecordGoodBehavior(ctx context.Context, seconds float64) domain.PetSnapshot
	RecentEvents(limit int) []domain.Event
	ArchivedEvents(ctx context.Context, limit int) ([]domain.Event, error)

	TestURL(url string) domain.Verdict
	TestPassword(meta domain.PasswordMetadata) domain.PasswordReport
	TestScreenshot(ctx context.Context) (domain.Verdict, error)
	TriggerTestThreat(ctx context.Context, severity int, threatType string) (domain.Verdict, domain.PetSnapshot, error)

	Reset(ctx context.Context) domain.PetSnapshot
	SetHealth(ctx context.Context, health float64) domain.PetSnapshot

	StartMonitoring(ctx context.Context) (string, domain.MonitorStatus)
	StopMonitoring(ctx context.Context) (string, domain.MonitorStatus)
	MonitoringStatus() domain.MonitorStatus

	AuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
	Report() domain.PetReport
}
