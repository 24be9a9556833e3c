// Package pet implements the pet health state machine.
package pet

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"github.com/lcalzada-xor/cyberpet/internal/telemetry"
)

const (
	// persistEvery controls how often good ticks are written through.
	persistEvery = 5
	saveTimeout  = 5 * time.Second
)

// Machine owns the pet state. All mutations, and the snapshot writes they
// trigger, happen under a single mutex.
type Machine struct {
	mu      sync.Mutex
	state   domain.PetState
	ticks   int
	store   ports.SnapshotStore
	archive ports.EventArchive
}

// NewMachine restores the last snapshot from store. Any load failure falls
// back to the default state; it is logged and never returned.
func NewMachine(ctx context.Context, store ports.SnapshotStore) *Machine {
	m := &Machine{
		state: domain.DefaultPetState(),
		store: store,
	}

	if store != nil {
		loaded, err := store.Load(ctx)
		switch {
		case err != nil:
			slog.Warn("Failed to load pet state, starting fresh", "error", err)
		case loaded != nil:
			m.state = loaded.Sanitize()
			slog.Info("Pet state restored",
				"health", m.state.Health,
				"stage", m.state.EvolutionStage,
				"events", len(m.state.EventHistory))
		}
	}

	m.observe()
	return m
}

// SetArchive registers a long-term sink for every recorded event.
func (m *Machine) SetArchive(a ports.EventArchive) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = a
}

// ApplyThreat damages the pet by severity/5, resets the streak, may devolve
// one stage and always persists.
func (m *Machine) ApplyThreat(severity int, category string) domain.PetSnapshot {
	return m.applyThreat(domain.EventThreat, severity, category)
}

// ApplyTestThreat is ApplyThreat for synthetic threats; the event is
// recorded with kind "test".
func (m *Machine) ApplyTestThreat(severity int, category string) domain.PetSnapshot {
	return m.applyThreat(domain.EventTest, severity, category)
}

func (m *Machine) applyThreat(kind domain.EventKind, severity int, category string) domain.PetSnapshot {
	severity = domain.ClampSeverity(severity)
	damage := float64(severity) / domain.DamageDivisor

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Health = math.Max(0, m.state.Health-damage)
	m.state.Streak = 0

	if m.state.Health < domain.DevolveHealth && m.state.EvolutionStage > domain.MinStage {
		m.state.EvolutionStage--
		slog.Info("Pet devolved", "stage", m.state.EvolutionStage, "health", m.state.Health)
	}

	m.recordLocked(domain.NewEvent(kind, category, severity, -damage))
	m.persistLocked()

	telemetry.ThreatsTotal.WithLabelValues(string(kind), string(domain.ParseCategory(category))).Inc()
	m.observeLocked()
	return m.state.Snapshot()
}

// ApplyGoodTick rewards a safe interval. Only every fifth call persists.
func (m *Machine) ApplyGoodTick(seconds float64) domain.PetSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Streak++
	m.state.Points += domain.PointsPerTick
	m.state.Health = math.Min(domain.MaxHealth, m.state.Health+domain.HealthPerTick)

	if threshold, ok := domain.EvolutionThresholds[m.state.EvolutionStage]; ok &&
		m.state.EvolutionStage < domain.MaxStage && m.state.Points >= threshold {
		m.state.EvolutionStage++
		slog.Info("Pet evolved", "stage", m.state.EvolutionStage, "points", m.state.Points)
	}

	m.ticks++
	if m.ticks%persistEvery == 0 {
		m.persistLocked()
	}

	slog.Debug("Good tick applied", "seconds", seconds, "streak", m.state.Streak)
	m.observeLocked()
	return m.state.Snapshot()
}

// Snapshot returns the public view of the pet.
func (m *Machine) Snapshot() domain.PetSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Snapshot()
}

// State returns a copy of the full state including history.
func (m *Machine) State() domain.PetState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.EventHistory = append([]domain.Event(nil), m.state.EventHistory...)
	return s
}

// History returns up to limit of the most recent events, oldest first.
// A non-positive limit returns the whole retained history.
func (m *Machine) History(limit int) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.state.EventHistory
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]domain.Event{}, h...)
}

// Reset restores the default state and persists it.
func (m *Machine) Reset() domain.PetSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = domain.DefaultPetState()
	m.ticks = 0
	m.persistLocked()
	m.observeLocked()
	return m.state.Snapshot()
}

// SetHealth overrides health, clamped to [0, 100], and persists.
func (m *Machine) SetHealth(health float64) domain.PetSnapshot {
	if math.IsNaN(health) {
		health = domain.MaxHealth
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Health = math.Max(0, math.Min(domain.MaxHealth, health))
	m.persistLocked()
	m.observeLocked()
	return m.state.Snapshot()
}

func (m *Machine) recordLocked(e domain.Event) {
	m.state.EventHistory = append(m.state.EventHistory, e)
	if n := len(m.state.EventHistory); n > domain.MaxHistory {
		m.state.EventHistory = append([]domain.Event(nil), m.state.EventHistory[n-domain.MaxHistory:]...)
	}
	if m.archive != nil {
		m.archive.Archive(e)
	}
}

// persistLocked writes the current state. Failures are logged; the
// in-memory state stays authoritative.
func (m *Machine) persistLocked() {
	if m.store == nil {
		return
	}
	m.state.LastUpdated = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := m.store.Save(ctx, m.state); err != nil {
		telemetry.SnapshotWrites.WithLabelValues("error").Inc()
		slog.Warn("Failed to persist pet state", "error", err)
		return
	}
	telemetry.SnapshotWrites.WithLabelValues("ok").Inc()
}

func (m *Machine) observe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observeLocked()
}

func (m *Machine) observeLocked() {
	telemetry.PetHealth.Set(m.state.Health)
	telemetry.PetStage.Set(float64(m.state.EvolutionStage))
}
