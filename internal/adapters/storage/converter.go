package storage

import (
	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

// toStateModel splits a pet state into its row and its history rows.
func toStateModel(s domain.PetState) (PetStateModel, []SnapshotEventModel) {
	model := PetStateModel{
		ID:             snapshotRowID,
		Health:         s.Health,
		EvolutionStage: s.EvolutionStage,
		Points:         s.Points,
		Streak:         s.Streak,
		UpdatedAt:      s.LastUpdated,
	}

	events := make([]SnapshotEventModel, len(s.EventHistory))
	for i, e := range s.EventHistory {
		events[i] = SnapshotEventModel{
			Seq:       i + 1,
			EventID:   e.ID,
			Kind:      string(e.Kind),
			Category:  e.Category,
			Severity:  e.Severity,
			Effect:    e.Effect,
			Timestamp: e.Timestamp,
		}
	}
	return model, events
}

// toStateDomain reassembles a pet state from its rows.
func toStateDomain(m PetStateModel, events []SnapshotEventModel) domain.PetState {
	history := make([]domain.Event, len(events))
	for i, e := range events {
		history[i] = domain.Event{
			ID:        e.EventID,
			Kind:      domain.EventKind(e.Kind),
			Category:  e.Category,
			Severity:  e.Severity,
			Effect:    e.Effect,
			Timestamp: e.Timestamp,
		}
	}

	return domain.PetState{
		Health:         m.Health,
		EvolutionStage: m.EvolutionStage,
		Points:         m.Points,
		Streak:         m.Streak,
		EventHistory:   history,
		LastUpdated:    m.UpdatedAt,
	}
}

func toArchivedModel(e domain.Event) ArchivedEventModel {
	return ArchivedEventModel{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Category:  e.Category,
		Severity:  e.Severity,
		Effect:    e.Effect,
		Timestamp: e.Timestamp,
	}
}

func toEventDomain(m ArchivedEventModel) domain.Event {
	return domain.Event{
		ID:        m.ID,
		Kind:      domain.EventKind(m.Kind),
		Category:  m.Category,
		Severity:  m.Severity,
		Effect:    m.Effect,
		Timestamp: m.Timestamp,
	}
}

func toAuditModel(l domain.AuditLog) AuditLogModel {
	return AuditLogModel{
		ID:        l.ID,
		UserID:    l.UserID,
		Username:  l.Username,
		Action:    string(l.Action),
		Target:    l.Target,
		Details:   l.Details,
		IPAddress: l.IPAddress,
		Timestamp: l.Timestamp,
	}
}

func toAuditDomain(m AuditLogModel) domain.AuditLog {
	return domain.AuditLog{
		ID:        m.ID,
		UserID:    m.UserID,
		Username:  m.Username,
		Action:    domain.AuditAction(m.Action),
		Target:    m.Target,
		Details:   m.Details,
		IPAddress: m.IPAddress,
		Timestamp: m.Timestamp,
	}
}
