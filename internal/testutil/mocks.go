package testutil

import (
	"maps"
	"streakd/internal/models"
	"streakd/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

func (m *MockCache) GetOrSet(key string, value []byte, _ time.Duration) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.Data[key]; ok {
		return prev, true
	}
	m.Data[key] = value
	return nil, false
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closes       int
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closes++
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu             sync.Mutex
	Requests       int
	CacheHits      int
	CacheMisses    int
	Persists       int
	Events         map[string]int
	Qualifications map[string]int
	StreakResets   int
	Milestones     map[string]int
	ProfilesLoaded int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}

func (m *MockMetrics) IncEventsTotal(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Events == nil {
		m.Events = make(map[string]int)
	}
	m.Events[eventType]++
}

func (m *MockMetrics) IncQualifications(criterion string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Qualifications == nil {
		m.Qualifications = make(map[string]int)
	}
	m.Qualifications[criterion]++
}

func (m *MockMetrics) IncStreakResets() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreakResets++
}

func (m *MockMetrics) IncMilestones(milestone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Milestones == nil {
		m.Milestones = make(map[string]int)
	}
	m.Milestones[milestone]++
}

func (m *MockMetrics) SetProfilesLoaded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProfilesLoaded = n
}

// MetricsCounts is a point-in-time copy of MockMetrics.
type MetricsCounts struct {
	Requests       int
	Persists       int
	Events         map[string]int
	Qualifications map[string]int
	StreakResets   int
	Milestones     map[string]int
	ProfilesLoaded int
}

func (m *MockMetrics) Counts() MetricsCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsCounts{
		Requests:       m.Requests,
		Persists:       m.Persists,
		Events:         maps.Clone(m.Events),
		Qualifications: maps.Clone(m.Qualifications),
		StreakResets:   m.StreakResets,
		Milestones:     maps.Clone(m.Milestones),
		ProfilesLoaded: m.ProfilesLoaded,
	}
}

// MemoryStore keeps one profile's state in memory. It satisfies the
// engine's store contract and hands out deep copies.
type MemoryStore struct {
	mu      sync.Mutex
	state   *models.State
	Saves   int
	Deletes int
}

func NewMemoryStore(initial *models.State) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		s.state = initial.Clone()
	}
	return s
}

func (s *MemoryStore) Load() (*models.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, false
	}
	return s.state.Clone(), true
}

func (s *MemoryStore) Save(state *models.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.Saves++
}

func (s *MemoryStore) Delete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	s.Deletes++
}

// Stored returns the last saved state, or nil.
func (s *MemoryStore) Stored() *models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Clone()
}

func (s *MemoryStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Saves
}
