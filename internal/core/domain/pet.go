package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MaxHealth      = 100.0
	MinStage       = 1
	MaxStage       = 4
	MaxHistory     = 50
	PointsPerTick  = 10
	HealthPerTick  = 1.0
	DevolveHealth  = 70.0
	DamageDivisor  = 5.0
	RecentEventCap = 10
)

// EvolutionThresholds maps a stage to the points needed to leave it.
var EvolutionThresholds = map[int]int{
	1: 500,
	2: 1500,
	3: 3000,
}

// Mood is the coarse wellbeing label derived from health.
type Mood string

const (
	MoodHappy     Mood = "happy"
	MoodConcerned Mood = "concerned"
	MoodSick      Mood = "sick"
	MoodCritical  Mood = "critical"
)

// MoodFor derives the mood for a health value.
func MoodFor(health float64) Mood {
	switch {
	case health > 80:
		return MoodHappy
	case health > 50:
		return MoodConcerned
	case health > 20:
		return MoodSick
	default:
		return MoodCritical
	}
}

// EventKind distinguishes real threats from synthetic test threats.
type EventKind string

const (
	EventThreat EventKind = "threat"
	EventTest   EventKind = "test"
)

// Event records one health-affecting occurrence.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Category  string    `json:"category"`
	Severity  int       `json:"severity"`
	Effect    float64   `json:"effect"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps a new event with an ID and the current time.
func NewEvent(kind EventKind, category string, severity int, effect float64) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Category:  category,
		Severity:  severity,
		Effect:    effect,
		Timestamp: time.Now().UTC(),
	}
}

// PetState is the persisted form of the pet.
type PetState struct {
	Health         float64   `json:"health"`
	EvolutionStage int       `json:"evolution_stage"`
	Points         int       `json:"points"`
	Streak         int       `json:"streak"`
	EventHistory   []Event   `json:"event_history"`
	LastUpdated    time.Time `json:"last_updated"`
}

// DefaultPetState is the cold-start state.
func DefaultPetState() PetState {
	return PetState{
		Health:         MaxHealth,
		EvolutionStage: MinStage,
		EventHistory:   []Event{},
	}
}

// Sanitize clamps every field into its valid range and trims history.
func (s PetState) Sanitize() PetState {
	s.Health = math.Max(0, math.Min(MaxHealth, s.Health))
	if math.IsNaN(s.Health) {
		s.Health = MaxHealth
	}
	if s.EvolutionStage < MinStage {
		s.EvolutionStage = MinStage
	}
	if s.EvolutionStage > MaxStage {
		s.EvolutionStage = MaxStage
	}
	if s.Points < 0 {
		s.Points = 0
	}
	if s.Streak < 0 {
		s.Streak = 0
	}
	if s.EventHistory == nil {
		s.EventHistory = []Event{}
	}
	if n := len(s.EventHistory); n > MaxHistory {
		s.EventHistory = append([]Event(nil), s.EventHistory[n-MaxHistory:]...)
	}
	return s
}

// PetSnapshot is the public projection of the pet sent to clients.
type PetSnapshot struct {
	Health         float64 `json:"health"`
	EvolutionStage int     `json:"evolution_stage"`
	Points         int     `json:"points"`
	Streak         int     `json:"streak"`
	Mood           Mood    `json:"mood"`
}

// Snapshot projects the state for clients.
func (s PetState) Snapshot() PetSnapshot {
	return PetSnapshot{
		Health:         math.Round(s.Health*10) / 10,
		EvolutionStage: s.EvolutionStage,
		Points:         s.Points,
		Streak:         s.Streak,
		Mood:           MoodFor(s.Health),
	}
}
