package ports

import (
	"context"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

// ThreatOracle classifies a screenshot. Implementations talk to a remote model.
type ThreatOracle interface {
	Analyze(ctx context.Context, screenshot []byte) (domain.OracleResponse, error)
}

// ScreenshotSource captures the current screen as PNG bytes.
type ScreenshotSource interface {
	Capture(ctx context.Context) ([]byte, error)
}

// AlertSink performs the side effect behind an invoked alert action.
type AlertSink interface {
	Name() string
	Raise(ctx context.Context, alert domain.Alert) error
}

// Subscriber receives broadcast messages.
type Subscriber interface {
	// ID identifies the connection for logging.
	ID() string
	// Send delivers msg, honouring the deadline carried by ctx.
	Send(ctx context.Context, msg domain.BroadcastMessage) error
	// Close releases the underlying connection.
	Close() error
}

// Publisher fans a message out to every live subscriber.
type Publisher interface {
	Publish(ctx context.Context, msg domain.BroadcastMessage)
}

// PetService is the state machine surface used by the scheduler and transport.
type PetService interface {
	ApplyThreat(severity int, category string) domain.PetSnapshot
	ApplyTestThreat(severity int, category string) domain.PetSnapshot
	ApplyGoodTick(seconds float64) domain.PetSnapshot
	Snapshot() domain.PetSnapshot
	History(limit int) []domain.Event
	Reset() domain.PetSnapshot
	SetHealth(health float64) domain.PetSnapshot
}

// Monitor controls the background monitoring loop.
type Monitor interface {
	Start() string
	Stop(ctx context.Context) string
	Status() domain.MonitorStatus
}

// Classifier is the heuristic scorer for URLs and passwords.
type Classifier interface {
	ClassifyURL(url string) domain.Verdict
	ScorePassword(meta domain.PasswordMetadata) domain.PasswordReport
}

// SampleClassifier produces a verdict for the current screen without
// touching the pet.
type SampleClassifier interface {
	Classify(ctx context.Context) (domain.Verdict, error)
}

// EventHistory reads archived events, newest first.
type EventHistory interface {
	Recent(ctx context.Context, limit int) ([]domain.Event, error)
}
