package ports

import (
	"context"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

// AuditService records who changed the pet or the monitor, and when.
// The acting principal is read from ctx.
type AuditService interface {
	// Log records a pet reset, health override, monitor toggle or test threat.
	Log(ctx context.Context, action domain.AuditAction, target, details string) error

	// GetLogs returns the newest entries first.
	GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// AuditRepository stores audit entries.
type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
