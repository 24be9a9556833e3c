package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"github.com/lcalzada-xor/cyberpet/internal/telemetry"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 5 * time.Second
	flushTimeout     = 10 * time.Second
)

var _ ports.EventArchive = (*EventArchiver)(nil)

// EventArchiver handles background batch writing of pet events to the
// event repository. Archive never blocks; events are dropped when the
// queue is full.
type EventArchiver struct {
	repo      ports.EventRepository
	queue     chan domain.Event
	batchSize int
	interval  time.Duration
	enabled   bool
	mu        sync.RWMutex
	done      chan struct{}
}

// NewEventArchiver creates an archiver with a queue of bufferSize events.
func NewEventArchiver(repo ports.EventRepository, bufferSize int) *EventArchiver {
	return &EventArchiver{
		repo:      repo,
		queue:     make(chan domain.Event, bufferSize),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
		enabled:   true,
		done:      make(chan struct{}),
	}
}

// Archive queues an event if archiving is enabled.
func (a *EventArchiver) Archive(e domain.Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.enabled {
		return
	}
	select {
	case a.queue <- e:
	default:
		telemetry.ArchivedEvents.WithLabelValues("dropped").Inc()
		slog.Warn("Event archive queue full, dropping event", "event", e.ID)
	}
}

// IsEnabled returns the current archiving status.
func (a *EventArchiver) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled toggles archiving.
func (a *EventArchiver) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Recent reads the newest archived events from the repository.
func (a *EventArchiver) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	return a.repo.ListEvents(ctx, limit)
}

// Start begins the flush loop. Pending events are flushed when ctx is done;
// Done is closed afterwards.
func (a *EventArchiver) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	buffer := make([]domain.Event, 0, a.batchSize)

	go func() {
		defer close(a.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				buffer = a.drain(buffer)
				a.flush(buffer)
				return
			case e := <-a.queue:
				buffer = append(buffer, e)
				if len(buffer) >= a.batchSize {
					a.flush(buffer)
					buffer = buffer[:0]
				}
			case <-ticker.C:
				if len(buffer) > 0 {
					a.flush(buffer)
					buffer = buffer[:0]
				}
			}
		}
	}()
}

// Done is closed once the flush loop has exited.
func (a *EventArchiver) Done() <-chan struct{} {
	return a.done
}

func (a *EventArchiver) drain(buffer []domain.Event) []domain.Event {
	for {
		select {
		case e := <-a.queue:
			buffer = append(buffer, e)
		default:
			return buffer
		}
	}
}

func (a *EventArchiver) flush(buffer []domain.Event) {
	if len(buffer) == 0 || a.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := a.repo.SaveEventsBatch(ctx, buffer); err != nil {
		telemetry.ArchivedEvents.WithLabelValues("error").Add(float64(len(buffer)))
		slog.Error("Failed to archive events", "count", len(buffer), "error", err)
		return
	}
	telemetry.ArchivedEvents.WithLabelValues("ok").Add(float64(len(buffer)))
}
