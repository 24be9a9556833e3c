package audit

import (
	"context"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

const systemUser = "system"

type AuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records action on behalf of the principal in ctx, or "system".
func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, target, details string) error {
	userID, username, ip := systemUser, systemUser, ""
	if p, ok := domain.PrincipalFrom(ctx); ok {
		userID, username, ip = p.ID, p.Username, p.IP
	}

	entry, err := domain.NewAuditLog(userID, username, action, target, details, ip)
	if err != nil {
		return err
	}

	return s.repo.SaveAuditLog(ctx, *entry)
}

func (s *AuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}
