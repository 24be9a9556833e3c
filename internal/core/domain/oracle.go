package domain

import "time"

// Names of the side-effecting actions the oracle may invoke.
const (
	ActionOpenPopup  = "open_cyberpet_popup"
	ActionRaiseAlert = "raise_alert"
)

// InvokedAction is a function call emitted by the oracle.
type InvokedAction struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// IsAlert reports whether the action asks for the user to be alerted.
func (a InvokedAction) IsAlert() bool {
	return a.Name == ActionOpenPopup || a.Name == ActionRaiseAlert
}

// OracleResponse is the raw, unnormalized classifier output. A response may
// carry invoked actions, free text, both, or neither.
type OracleResponse struct {
	Actions []InvokedAction `json:"actions,omitempty"`
	Text    []string        `json:"text,omitempty"`
}

// Empty reports whether the response carries nothing to interpret.
func (r OracleResponse) Empty() bool {
	return len(r.Actions) == 0 && len(r.Text) == 0
}

// Alert is what an AlertSink receives when the oracle invoked an alert action.
type Alert struct {
	ThreatType string    `json:"threat_type"`
	Severity   int       `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
}
