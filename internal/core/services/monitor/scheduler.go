// Package monitor runs the periodic capture, classify and react loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/verdict"
	"github.com/lcalzada-xor/cyberpet/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultErrorBackoff  = 5 * time.Second
	DefaultOracleTimeout = 60 * time.Second
)

// Config tunes the loop timing.
type Config struct {
	Interval      time.Duration
	ErrorBackoff  time.Duration
	OracleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	if c.ErrorBackoff >= c.Interval {
		c.ErrorBackoff = c.Interval / 2
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = DefaultOracleTimeout
	}
	return c
}

// Scheduler owns at most one monitoring loop. Start and Stop are serialized
// by a lifecycle mutex; Status never blocks on it.
type Scheduler struct {
	cfg    Config
	screen ports.ScreenshotSource
	oracle ports.ThreatOracle
	pet    ports.PetService
	hub    ports.Publisher
	alerts ports.AlertSink

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	cycles atomic.Int64

	statusMu  sync.RWMutex
	state     domain.MonitorState
	lastCycle time.Time
	lastErr   string
	observer  func(domain.MonitorState)
}

// NewScheduler wires the loop's collaborators. alerts may be nil.
func NewScheduler(cfg Config, screen ports.ScreenshotSource, oracle ports.ThreatOracle,
	pet ports.PetService, hub ports.Publisher, alerts ports.AlertSink) *Scheduler {
	return &Scheduler{
		cfg:    cfg.withDefaults(),
		screen: screen,
		oracle: oracle,
		pet:    pet,
		hub:    hub,
		alerts: alerts,
		state:  domain.MonitorIdle,
	}
}

// SetStateObserver registers fn to be called on every lifecycle transition.
func (s *Scheduler) SetStateObserver(fn func(domain.MonitorState)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.observer = fn
}

// Start launches the loop unless one is already active.
func (s *Scheduler) Start() string {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.currentState() != domain.MonitorIdle {
		return domain.StatusAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.setState(domain.MonitorRunning)

	go s.run(ctx, s.done)

	slog.Info("Monitoring started", "interval", s.cfg.Interval.String())
	return domain.StatusStarted
}

// Stop cancels the loop and waits for it to exit. An in-flight cycle is
// allowed to finish. If ctx expires first, Stop returns "stopping" and the
// loop finishes on its own.
func (s *Scheduler) Stop(ctx context.Context) string {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.currentState() == domain.MonitorIdle {
		return domain.StatusNotRunning
	}

	s.setState(domain.MonitorStopping)
	s.cancel()

	select {
	case <-s.done:
		slog.Info("Monitoring stopped", "cycles", s.cycles.Load())
		return domain.StatusStopped
	case <-ctx.Done():
		slog.Warn("Monitoring stop timed out waiting for the current cycle")
		return string(domain.MonitorStopping)
	}
}

// Status reports the current lifecycle state and counters.
func (s *Scheduler) Status() domain.MonitorStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	st := domain.MonitorStatus{
		Active:          s.state == domain.MonitorRunning,
		State:           s.state,
		CycleCount:      s.cycles.Load(),
		IntervalSeconds: s.cfg.Interval.Seconds(),
		LastError:       s.lastErr,
	}
	if !s.lastCycle.IsZero() {
		t := s.lastCycle
		st.LastCycleAt = &t
	}
	return st
}

// Classify captures the screen and asks the oracle for a verdict. It does
// not touch the pet.
func (s *Scheduler) Classify(ctx context.Context) (domain.Verdict, error) {
	shot, err := s.screen.Capture(ctx)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("capture screenshot: %w", err)
	}

	oracleCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.oracle.Analyze(oracleCtx, shot)
	telemetry.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("analyze screenshot: %w", err)
	}

	v, err := verdict.Normalize(resp)
	if errors.Is(err, domain.ErrEmptyResponse) || errors.Is(err, domain.ErrUnparseable) {
		slog.Warn("Oracle response had no usable verdict, treating as safe", "reason", err)
		return v, nil
	}
	return v, err
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.setState(domain.MonitorIdle)

	for {
		wait := s.cfg.Interval
		if err := s.runCycle(ctx); err != nil {
			telemetry.MonitorCycles.WithLabelValues("error").Inc()
			s.recordCycle(err)
			slog.Error("Monitoring cycle failed", "error", err, "retry_in", s.cfg.ErrorBackoff.String())
			wait = s.cfg.ErrorBackoff
		}

		if !sleep(ctx, wait) {
			return
		}
	}
}

// runCycle performs one sample. The work runs on a context detached from
// the stop signal so that Stop never interrupts classification or delivery.
func (s *Scheduler) runCycle(ctx context.Context) (err error) {
	n := s.cycles.Add(1)

	ctx, span := otel.Tracer("monitor").Start(ctx, "MonitorCycle")
	defer span.End()
	span.SetAttributes(attribute.Int64("cycle", n))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle %d panicked: %v", n, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	work := context.WithoutCancel(ctx)

	v, err := s.Classify(work)
	if err != nil {
		return err
	}

	if v.ThreatDetected {
		snap := s.pet.ApplyThreat(v.Severity, v.ThreatType)
		s.raiseAlert(work, v)
		s.hub.Publish(work, domain.ThreatMessage(v, snap))
		telemetry.MonitorCycles.WithLabelValues("threat").Inc()
		span.SetAttributes(attribute.Bool("threat", true), attribute.Int("severity", v.Severity))
		slog.Warn("Threat detected",
			"cycle", n,
			"type", v.ThreatType,
			"severity", v.Severity,
			"health", snap.Health)
	} else {
		snap := s.pet.ApplyGoodTick(s.cfg.Interval.Seconds())
		s.hub.Publish(work, domain.HealthMessage(snap))
		telemetry.MonitorCycles.WithLabelValues("safe").Inc()
		slog.Debug("Cycle safe", "cycle", n, "health", snap.Health, "streak", snap.Streak)
	}

	s.recordCycle(nil)
	return nil
}

func (s *Scheduler) raiseAlert(ctx context.Context, v domain.Verdict) {
	if s.alerts == nil || v.ActionTaken == nil {
		return
	}
	alert := domain.Alert{
		ThreatType: v.ThreatType,
		Severity:   v.Severity,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.alerts.Raise(ctx, alert); err != nil {
		slog.Warn("Failed to raise alert", "sink", s.alerts.Name(), "error", err)
	}
}

func (s *Scheduler) recordCycle(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastCycle = time.Now().UTC()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
}

func (s *Scheduler) currentState() domain.MonitorState {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.state
}

func (s *Scheduler) setState(state domain.MonitorState) {
	s.statusMu.Lock()
	s.state = state
	observer := s.observer
	s.statusMu.Unlock()

	if observer != nil {
		observer(state)
	}
}

// sleep waits for d or until ctx is cancelled; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
