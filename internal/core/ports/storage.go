package ports

import (
	"context"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

// SnapshotStore persists the pet state.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, state domain.PetState) error
	// Load returns the stored snapshot, or nil when none exists yet.
	Load(ctx context.Context) (*domain.PetState, error)
}

// EventArchive accepts events for long-term storage without blocking.
type EventArchive interface {
	Archive(event domain.Event)
}

// EventRepository is the long-term event store behind an EventArchive.
type EventRepository interface {
	SaveEventsBatch(ctx context.Context, events []domain.Event) error
	ListEvents(ctx context.Context, limit int) ([]domain.Event, error)
}
