package domain

import "time"

// Broadcast message types.
const (
	MessageThreatDetected = "threat_detected"
	MessageHealthUpdate   = "health_update"
)

// BroadcastMessage is the payload fanned out to every subscriber.
type BroadcastMessage struct {
	Type     string      `json:"type"`
	Threat   *Verdict    `json:"threat,omitempty"`
	PetState PetSnapshot `json:"pet_state"`
}

// ThreatMessage builds a threat_detected notification.
func ThreatMessage(v Verdict, pet PetSnapshot) BroadcastMessage {
	return BroadcastMessage{Type: MessageThreatDetected, Threat: &v, PetState: pet}
}

// HealthMessage builds a health_update notification.
func HealthMessage(pet PetSnapshot) BroadcastMessage {
	return BroadcastMessage{Type: MessageHealthUpdate, PetState: pet}
}

// SecurityEvent is an externally reported security occurrence.
type SecurityEvent struct {
	Type     string         `json:"type"`
	Severity int            `json:"severity"`
	URL      string         `json:"url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks the event before it reaches the pet.
func (e SecurityEvent) Validate() error {
	if e.Severity < 0 || e.Severity > 100 {
		return ErrInvalidSeverity
	}
	return nil
}

// IngestResult is returned to the reporter of a SecurityEvent.
type IngestResult struct {
	PetState    PetSnapshot `json:"pet_state"`
	ShouldPopup bool        `json:"should_popup"`
}

// MonitorState is the lifecycle state of the monitoring scheduler.
type MonitorState string

const (
	MonitorIdle     MonitorState = "idle"
	MonitorRunning  MonitorState = "running"
	MonitorStopping MonitorState = "stopping"
)

// Results of lifecycle requests.
const (
	StatusStarted        = "started"
	StatusAlreadyRunning = "already_running"
	StatusStopped        = "stopped"
	StatusNotRunning     = "not_running"
)

// MonitorStatus reports the scheduler's state.
type MonitorStatus struct {
	Active          bool         `json:"active"`
	State           MonitorState `json:"state"`
	CycleCount      int64        `json:"cycle_count"`
	IntervalSeconds float64      `json:"interval_seconds"`
	LastCycleAt     *time.Time   `json:"last_cycle_at,omitempty"`
	LastError       string       `json:"last_error,omitempty"`
}
