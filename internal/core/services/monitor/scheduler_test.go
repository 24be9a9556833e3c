package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/pet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOracle
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Analyze(ctx context.Context, screenshot []byte) (domain.OracleResponse, error) {
	args := m.Called(ctx, screenshot)
	return args.Get(0).(domain.OracleResponse), args.Error(1)
}

// MockAlertSink
type MockAlertSink struct {
	mock.Mock
}

func (m *MockAlertSink) Name() string { return "mock" }

func (m *MockAlertSink) Raise(ctx context.Context, alert domain.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type staticScreen struct {
	err error
}

func (s staticScreen) Capture(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png"), nil
}

// funcOracle delegates to fn so tests can block or sequence responses.
type funcOracle func(ctx context.Context) (domain.OracleResponse, error)

func (f funcOracle) Analyze(ctx context.Context, _ []byte) (domain.OracleResponse, error) {
	return f(ctx)
}

type recordingHub struct {
	mu   sync.Mutex
	msgs []domain.BroadcastMessage
}

func (h *recordingHub) Publish(ctx context.Context, msg domain.BroadcastMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *recordingHub) messages() []domain.BroadcastMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.BroadcastMessage(nil), h.msgs...)
}

var fastConfig = Config{Interval: 10 * time.Millisecond, ErrorBackoff: 5 * time.Millisecond, OracleTimeout: time.Second}

func safeResponse() domain.OracleResponse {
	return domain.OracleResponse{Text: []string{`{"threat_detected": false}`}}
}

func threatResponse() domain.OracleResponse {
	return domain.OracleResponse{Actions: []domain.InvokedAction{{
		Name: domain.ActionOpenPopup,
		Args: map[string]any{"threat_type": "phishing", "severity": float64(50)},
	}}}
}

func TestScheduler_StartStopLifecycle(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, mock.Anything).Return(safeResponse(), nil)
	hub := &recordingHub{}
	s := NewScheduler(fastConfig, staticScreen{}, oracle, pet.NewMachine(context.Background(), nil), hub, nil)

	assert.Equal(t, domain.StatusNotRunning, s.Stop(context.Background()))
	assert.Equal(t, domain.MonitorIdle, s.Status().State)

	assert.Equal(t, domain.StatusStarted, s.Start())
	assert.Equal(t, domain.StatusAlreadyRunning, s.Start())
	assert.True(t, s.Status().Active)

	assert.Eventually(t, func() bool { return s.Status().CycleCount >= 3 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.StatusStopped, s.Stop(context.Background()))
	assert.Equal(t, domain.StatusNotRunning, s.Stop(context.Background()))

	st := s.Status()
	assert.False(t, st.Active)
	assert.Equal(t, domain.MonitorIdle, st.State)
	assert.NotNil(t, st.LastCycleAt)

	for _, msg := range hub.messages() {
		assert.Equal(t, domain.MessageHealthUpdate, msg.Type)
	}
	assert.Equal(t, domain.StatusStarted, s.Start())
	s.Stop(context.Background())
}

func TestScheduler_ThreatCycle(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, []byte("png")).Return(threatResponse(), nil)
	alerts := new(MockAlertSink)
	alerts.On("Raise", mock.Anything, mock.MatchedBy(func(a domain.Alert) bool {
		return a.ThreatType == "phishing" && a.Severity == 50
	})).Return(nil)

	machine := pet.NewMachine(context.Background(), nil)
	hub := &recordingHub{}
	s := NewScheduler(Config{Interval: time.Hour}, staticScreen{}, oracle, machine, hub, alerts)

	require.NoError(t, s.runCycle(context.Background()))

	msgs := hub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MessageThreatDetected, msgs[0].Type)
	require.NotNil(t, msgs[0].Threat)
	assert.Equal(t, 50, msgs[0].Threat.Severity)
	assert.Equal(t, 90.0, msgs[0].PetState.Health)
	assert.Equal(t, 90.0, machine.Snapshot().Health)
	alerts.AssertExpectations(t)
}

func TestScheduler_SafeCycle(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, mock.Anything).Return(safeResponse(), nil)
	machine := pet.NewMachine(context.Background(), nil)
	hub := &recordingHub{}
	s := NewScheduler(Config{Interval: time.Hour}, staticScreen{}, oracle, machine, hub, nil)

	require.NoError(t, s.runCycle(context.Background()))

	msgs := hub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MessageHealthUpdate, msgs[0].Type)
	assert.Nil(t, msgs[0].Threat)
	assert.Equal(t, 10, msgs[0].PetState.Points)
	assert.Equal(t, 1, msgs[0].PetState.Streak)
}

func TestScheduler_EmptyResponseIsSafe(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, mock.Anything).Return(domain.OracleResponse{}, nil)
	hub := &recordingHub{}
	s := NewScheduler(Config{Interval: time.Hour}, staticScreen{}, oracle, pet.NewMachine(context.Background(), nil), hub, nil)

	require.NoError(t, s.runCycle(context.Background()))
	require.Len(t, hub.messages(), 1)
	assert.Equal(t, domain.MessageHealthUpdate, hub.messages()[0].Type)
}

func TestScheduler_UnparseableTextIsSafe(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, mock.Anything).
		Return(domain.OracleResponse{Text: []string{"Nothing to report here."}}, nil)
	s := NewScheduler(Config{Interval: time.Hour}, staticScreen{}, oracle, pet.NewMachine(context.Background(), nil), &recordingHub{}, nil)

	v, err := s.Classify(context.Background())
	require.NoError(t, err)
	assert.False(t, v.ThreatDetected)
	assert.Equal(t, domain.CategoryNone, v.Category)
}

func TestScheduler_OracleErrorBacksOffAndContinues(t *testing.T) {
	var calls atomic.Int32
	oracle := funcOracle(func(ctx context.Context) (domain.OracleResponse, error) {
		if calls.Add(1) <= 2 {
			return domain.OracleResponse{}, errors.New("quota exceeded")
		}
		return safeResponse(), nil
	})
	hub := &recordingHub{}
	s := NewScheduler(fastConfig, staticScreen{}, oracle, pet.NewMachine(context.Background(), nil), hub, nil)

	s.Start()
	assert.Eventually(t, func() bool { return len(hub.messages()) >= 1 }, time.Second, 5*time.Millisecond)
	s.Stop(context.Background())

	assert.GreaterOrEqual(t, calls.Load(), int32(3))
	assert.Equal(t, domain.MessageHealthUpdate, hub.messages()[0].Type)
}

func TestScheduler_CaptureErrorRecorded(t *testing.T) {
	oracle := new(MockOracle)
	s := NewScheduler(Config{Interval: time.Hour}, staticScreen{err: errors.New("no display")}, oracle,
		pet.NewMachine(context.Background(), nil), &recordingHub{}, nil)

	err := s.runCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
	oracle.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestScheduler_PanicBecomesError(t *testing.T) {
	oracle := funcOracle(func(ctx context.Context) (domain.OracleResponse, error) {
		panic("boom")
	})
	s := NewScheduler(Config{Interval: time.Hour}, staticScreen{}, oracle,
		pet.NewMachine(context.Background(), nil), &recordingHub{}, nil)

	err := s.runCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestScheduler_StopWaitsForInFlightCycle(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	oracle := funcOracle(func(ctx context.Context) (domain.OracleResponse, error) {
		once.Do(func() { close(entered) })
		select {
		case <-release:
		case <-ctx.Done():
			return domain.OracleResponse{}, ctx.Err()
		}
		return threatResponse(), nil
	})
	machine := pet.NewMachine(context.Background(), nil)
	hub := &recordingHub{}
	s := NewScheduler(fastConfig, staticScreen{}, oracle, machine, hub, nil)

	s.Start()
	<-entered

	stopped := make(chan string)
	go func() { stopped <- s.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was in flight")
	case <-time.After(30 * time.Millisecond):
	}
	assert.Equal(t, domain.MonitorStopping, s.Status().State)

	close(release)
	assert.Equal(t, domain.StatusStopped, <-stopped)

	// The in-flight classification completed and was applied.
	require.Len(t, hub.messages(), 1)
	assert.Equal(t, domain.MessageThreatDetected, hub.messages()[0].Type)
	assert.Equal(t, 90.0, machine.Snapshot().Health)
}

func TestScheduler_ConcurrentStartLaunchesOneLoop(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, mock.Anything).Return(safeResponse(), nil)
	s := NewScheduler(fastConfig, staticScreen{}, oracle, pet.NewMachine(context.Background(), nil), &recordingHub{}, nil)

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Start() == domain.StatusStarted {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, domain.StatusStopped, s.Stop(context.Background()))
}

func TestScheduler_StateObserver(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Analyze", mock.Anything, mock.Anything).Return(safeResponse(), nil)
	s := NewScheduler(fastConfig, staticScreen{}, oracle, pet.NewMachine(context.Background(), nil), &recordingHub{}, nil)

	var mu sync.Mutex
	var seen []domain.MonitorState
	s.SetStateObserver(func(st domain.MonitorState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
	})

	s.Start()
	s.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.MonitorState{domain.MonitorRunning, domain.MonitorStopping, domain.MonitorIdle}, seen)
}

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, DefaultInterval, c.Interval)
	assert.Equal(t, DefaultErrorBackoff, c.ErrorBackoff)

	c = Config{Interval: 4 * time.Second, ErrorBackoff: 10 * time.Second}.withDefaults()
	assert.Equal(t, 2*time.Second, c.ErrorBackoff)
}
