package pet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, state domain.PetState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*domain.PetState, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*domain.PetState), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingArchive collects archived events.
type recordingArchive struct {
	mu     sync.Mutex
	events []domain.Event
}

func (a *recordingArchive) Archive(e domain.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func newMachineFrom(t *testing.T, state *domain.PetState) (*Machine, *MockSnapshotStore) {
	t.Helper()
	store := new(MockSnapshotStore)
	store.On("Load", mock.Anything).Return(state, nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	return NewMachine(context.Background(), store), store
}

func TestMachine_ColdStart(t *testing.T) {
	m, _ := newMachineFrom(t, nil)

	s := m.Snapshot()
	assert.Equal(t, 100.0, s.Health)
	assert.Equal(t, 1, s.EvolutionStage)
	assert.Equal(t, 0, s.Points)
	assert.Equal(t, 0, s.Streak)
	assert.Equal(t, domain.MoodHappy, s.Mood)
	assert.Empty(t, m.History(0))
}

func TestMachine_LoadFailureFallsBackToDefaults(t *testing.T) {
	store := new(MockSnapshotStore)
	store.On("Load", mock.Anything).Return(nil, errors.New("corrupt snapshot"))

	m := NewMachine(context.Background(), store)
	assert.Equal(t, 100.0, m.Snapshot().Health)
	assert.Equal(t, 1, m.Snapshot().EvolutionStage)
}

func TestMachine_LoadSanitizes(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 140, EvolutionStage: 9, Points: -3})

	s := m.Snapshot()
	assert.Equal(t, 100.0, s.Health)
	assert.Equal(t, 4, s.EvolutionStage)
	assert.Equal(t, 0, s.Points)
}

func TestMachine_ApplyThreat(t *testing.T) {
	m, store := newMachineFrom(t, &domain.PetState{Health: 100, EvolutionStage: 1, Streak: 7})

	s := m.ApplyThreat(50, "phishing")
	assert.Equal(t, 90.0, s.Health)
	assert.Equal(t, 0, s.Streak)
	assert.Equal(t, 1, s.EvolutionStage)

	h := m.History(0)
	require.Len(t, h, 1)
	assert.Equal(t, domain.EventThreat, h[0].Kind)
	assert.Equal(t, "phishing", h[0].Category)
	assert.Equal(t, 50, h[0].Severity)
	assert.Equal(t, -10.0, h[0].Effect)
	assert.NotEmpty(t, h[0].ID)

	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestMachine_ApplyThreat_Devolves(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 72, EvolutionStage: 3})

	s := m.ApplyThreat(25, "malware")
	assert.Equal(t, 67.0, s.Health)
	assert.Equal(t, 2, s.EvolutionStage)
}

func TestMachine_ApplyThreat_StageOneNeverDevolves(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 30, EvolutionStage: 1})

	s := m.ApplyThreat(100, "malware")
	assert.Equal(t, 10.0, s.Health)
	assert.Equal(t, 1, s.EvolutionStage)
}

func TestMachine_ApplyThreat_ClampsAtZero(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 3, EvolutionStage: 1})

	s := m.ApplyThreat(100, "malware")
	assert.Equal(t, 0.0, s.Health)
	assert.Equal(t, domain.MoodCritical, s.Mood)
}

func TestMachine_ApplyTestThreat(t *testing.T) {
	m, _ := newMachineFrom(t, nil)

	s := m.ApplyTestThreat(75, "test_threat")
	assert.Equal(t, 85.0, s.Health)

	h := m.History(1)
	require.Len(t, h, 1)
	assert.Equal(t, domain.EventTest, h[0].Kind)
}

func TestMachine_GoodTick(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 99.5, EvolutionStage: 1, Points: 490, Streak: 2})

	s := m.ApplyGoodTick(30)
	assert.Equal(t, 100.0, s.Health)
	assert.Equal(t, 500, s.Points)
	assert.Equal(t, 3, s.Streak)
	assert.Equal(t, 2, s.EvolutionStage)
}

func TestMachine_GoodTick_HealthCap(t *testing.T) {
	m, _ := newMachineFrom(t, nil)

	s := m.ApplyGoodTick(30)
	assert.Equal(t, 100.0, s.Health)
	assert.Equal(t, 10, s.Points)
}

func TestMachine_GoodTick_EvolvesOneStagePerTick(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 100, EvolutionStage: 1, Points: 3000})

	assert.Equal(t, 2, m.ApplyGoodTick(30).EvolutionStage)
	assert.Equal(t, 3, m.ApplyGoodTick(30).EvolutionStage)
	assert.Equal(t, 4, m.ApplyGoodTick(30).EvolutionStage)
	assert.Equal(t, 4, m.ApplyGoodTick(30).EvolutionStage)
}

func TestMachine_GoodTick_EvolutionTimeline(t *testing.T) {
	m, _ := newMachineFrom(t, nil)

	reached := map[int]int{}
	for tick := 1; tick <= 500; tick++ {
		s := m.ApplyGoodTick(30)
		if _, seen := reached[s.EvolutionStage]; !seen {
			reached[s.EvolutionStage] = tick
		}
	}

	assert.Equal(t, 50, reached[2])
	assert.Equal(t, 150, reached[3])
	assert.Equal(t, 300, reached[4])

	s := m.Snapshot()
	assert.Equal(t, 4, s.EvolutionStage)
	assert.Equal(t, 5000, s.Points)
	assert.Equal(t, 500, s.Streak)
}

func TestMachine_GoodTick_PersistsEveryFifthCall(t *testing.T) {
	m, store := newMachineFrom(t, nil)

	for i := 0; i < 4; i++ {
		m.ApplyGoodTick(30)
	}
	store.AssertNumberOfCalls(t, "Save", 0)

	m.ApplyGoodTick(30)
	store.AssertNumberOfCalls(t, "Save", 1)

	for i := 0; i < 5; i++ {
		m.ApplyGoodTick(30)
	}
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestMachine_HistoryBounded(t *testing.T) {
	m, _ := newMachineFrom(t, nil)
	archive := &recordingArchive{}
	m.SetArchive(archive)

	for i := 0; i < 60; i++ {
		m.ApplyThreat(i%100, "flood")
		m.SetHealth(100)
	}

	h := m.History(0)
	require.Len(t, h, domain.MaxHistory)
	assert.Equal(t, 10, h[0].Severity)
	assert.Equal(t, 59, h[len(h)-1].Severity)
	assert.Len(t, archive.events, 60)

	assert.Len(t, m.History(10), 10)
	assert.Equal(t, 50, m.History(10)[0].Severity)
}

func TestMachine_SaveFailureKeepsMemoryState(t *testing.T) {
	store := new(MockSnapshotStore)
	store.On("Load", mock.Anything).Return(nil, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	m := NewMachine(context.Background(), store)
	s := m.ApplyThreat(50, "phishing")

	assert.Equal(t, 90.0, s.Health)
	assert.Equal(t, 90.0, m.Snapshot().Health)
}

func TestMachine_ResetAndSetHealth(t *testing.T) {
	m, store := newMachineFrom(t, &domain.PetState{Health: 40, EvolutionStage: 3, Points: 2000, Streak: 4})

	s := m.SetHealth(150)
	assert.Equal(t, 100.0, s.Health)
	s = m.SetHealth(-5)
	assert.Equal(t, 0.0, s.Health)

	s = m.Reset()
	assert.Equal(t, 100.0, s.Health)
	assert.Equal(t, 1, s.EvolutionStage)
	assert.Equal(t, 0, s.Points)
	assert.Empty(t, m.History(0))

	store.AssertNumberOfCalls(t, "Save", 3)
}

func TestMachine_SnapshotRoundsHealth(t *testing.T) {
	m, _ := newMachineFrom(t, &domain.PetState{Health: 66.66666, EvolutionStage: 1})
	assert.Equal(t, 66.7, m.Snapshot().Health)
}

func TestMachine_ConcurrentMutations(t *testing.T) {
	m, _ := newMachineFrom(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ApplyGoodTick(1)
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, 1000, s.Points)
	assert.Equal(t, 100, s.Streak)
	assert.Equal(t, 2, s.EvolutionStage)
}

func TestMachine_ThreatMetricUsesBoundedCategories(t *testing.T) {
	m, _ := newMachineFrom(t, nil)

	other := telemetry.ThreatsTotal.WithLabelValues(string(domain.EventThreat), string(domain.CategoryOther))
	before := testutil.ToFloat64(other)
	series := testutil.CollectAndCount(telemetry.ThreatsTotal)

	m.ApplyThreat(10, "caller-chosen-label-1")
	m.ApplyThreat(10, "caller-chosen-label-2")

	assert.Equal(t, before+2, testutil.ToFloat64(other))
	assert.Equal(t, series, testutil.CollectAndCount(telemetry.ThreatsTotal))

	h := m.History(2)
	require.Len(t, h, 2)
	assert.Equal(t, "caller-chosen-label-1", h[0].Category)
}
