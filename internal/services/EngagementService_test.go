package services

import (
	"errors"
	"fmt"
	"slices"
	"streakd/internal/engagement"
	"streakd/internal/models"
	"streakd/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memRepo struct {
	mu     sync.Mutex
	stores map[string]*testutil.MemoryStore
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{stores: make(map[string]*testutil.MemoryStore)}
}

func (r *memRepo) ForProfile(profile string) engagement.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[profile]
	if !ok {
		s = testutil.NewMemoryStore(nil)
		r.stores[profile] = s
	}
	return s
}

func (r *memRepo) Profiles() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var profiles []string
	for p, s := range r.stores {
		if s.Stored() != nil {
			profiles = append(profiles, p)
		}
	}
	slices.Sort(profiles)
	return profiles, nil
}

func (r *memRepo) seed(profile string, st *models.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[profile] = testutil.NewMemoryStore(st)
}

var serviceNow = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

type serviceFixture struct {
	service *EngagementService
	repo    *memRepo
	clock   *testutil.FakeClock
	metrics *testutil.MockMetrics
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:    newMemRepo(),
		clock:   testutil.NewFakeClock(serviceNow),
		metrics: &testutil.MockMetrics{},
	}
	f.service = NewEngagementService(f.repo, f.clock, engagement.NewDayResolver(time.UTC),
		engagement.DefaultThresholds(), &testutil.MockLogger{}, f.metrics).(*EngagementService)
	t.Cleanup(f.service.Close)
	return f
}

func TestEngagementService_EngineIsSharedPerProfile(t *testing.T) {
	f := newServiceFixture(t)

	a1, err := f.service.Engine("alice")
	require.NoError(t, err)
	a2, err := f.service.Engine("alice")
	require.NoError(t, err)
	b, err := f.service.Engine("bob")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, "alice", a1.Profile())
	assert.Equal(t, []string{"alice", "bob"}, f.service.Profiles())
	assert.Equal(t, 2, f.metrics.Counts().ProfilesLoaded)
}

func TestEngagementService_ConcurrentEngineLoads(t *testing.T) {
	f := newServiceFixture(t)

	var wg sync.WaitGroup
	engines := make([]*engagement.Engine, 32)
	for i := range engines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := f.service.Engine(fmt.Sprintf("p%d", i%4))
			if err == nil {
				engines[i] = e
			}
		}(i)
	}
	wg.Wait()

	for i := range engines {
		require.NotNil(t, engines[i])
		assert.Same(t, engines[i%4], engines[i])
	}
	assert.Len(t, f.service.Profiles(), 4)
}

func TestEngagementService_FirstLoadResyncsDay(t *testing.T) {
	f := newServiceFixture(t)
	old := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	st := models.NewState(old)
	st.Ledger.CurrentStreak = 5
	st.Ledger.LongestStreak = 5
	st.Ledger.TotalEngagedDays = 5
	st.Ledger.LastQualifiedDate = &old
	f.repo.seed("alice", st)

	e, err := f.service.Engine("alice")
	require.NoError(t, err)
	assert.Equal(t, uint(0), e.CurrentStreak())
	assert.Equal(t, uint(5), e.LongestStreak())

	assert.Eventually(t, func() bool {
		return f.metrics.Counts().StreakResets == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEngagementService_ListenersAndMetrics(t *testing.T) {
	f := newServiceFixture(t)

	var mu sync.Mutex
	var seen []engagement.ChangeKind
	f.service.OnChange(func(profile string, change engagement.Change) {
		mu.Lock()
		defer mu.Unlock()
		if profile == "alice" {
			seen = append(seen, change.Kind)
		}
	})

	e, err := f.service.Engine("alice")
	require.NoError(t, err)
	e.RecordNoteCreated(time.Time{})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.True(t, seen[0].Has(engagement.ChangeQualified))
	mu.Unlock()
	assert.Equal(t, 1, f.metrics.Counts().Qualifications["reflection"])
}

func TestEngagementService_MilestoneMetric(t *testing.T) {
	f := newServiceFixture(t)
	yesterday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	st := models.NewState(yesterday)
	st.Ledger.CurrentStreak = 6
	st.Ledger.LongestStreak = 6
	st.Ledger.TotalEngagedDays = 6
	st.Ledger.LastQualifiedDate = &yesterday
	f.repo.seed("alice", st)

	e, err := f.service.Engine("alice")
	require.NoError(t, err)
	e.DebugQualify(time.Time{})
	require.Equal(t, uint(7), e.CurrentStreak())

	assert.Eventually(t, func() bool {
		return f.metrics.Counts().Milestones["week"] == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.metrics.Counts().Qualifications["debug"])
}

func TestEngagementService_ResyncAll(t *testing.T) {
	f := newServiceFixture(t)
	e, err := f.service.Engine("alice")
	require.NoError(t, err)
	e.RecordNoteCreated(time.Time{})
	require.Equal(t, uint(1), e.CurrentStreak())

	f.service.ResyncAll(serviceNow.Add(72 * time.Hour))
	assert.Equal(t, uint(0), e.CurrentStreak())
}

func TestEngagementService_Reset(t *testing.T) {
	f := newServiceFixture(t)
	e, err := f.service.Engine("alice")
	require.NoError(t, err)
	e.RecordNoteCreated(time.Time{})

	require.NoError(t, f.service.Reset("alice"))
	assert.Equal(t, uint(0), e.TotalQualifiedDays())

	profiles, err := f.repo.Profiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestEngagementService_Restore(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.seed("alice", models.NewState(serviceNow))
	f.repo.seed("bob", models.NewState(serviceNow))

	require.NoError(t, f.service.Restore())
	assert.Equal(t, []string{"alice", "bob"}, f.service.Profiles())
}

func TestEngagementService_RestoreError(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.err = errors.New("unreadable dir")
	assert.Error(t, f.service.Restore())
}

func TestEngagementService_Close(t *testing.T) {
	f := newServiceFixture(t)
	e, err := f.service.Engine("alice")
	require.NoError(t, err)
	e.ReaderDidAppear(time.Time{})
	e.SetReaderContentVisible(true, time.Time{})
	f.clock.Advance(4 * time.Second)

	f.service.Close()
	f.service.Close()

	_, err = f.service.Engine("alice")
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.ErrorIs(t, f.service.Reset("alice"), ErrServiceClosed)

	stored := f.repo.stores["alice"].Stored()
	require.NotNil(t, stored)
	assert.Equal(t, 4*time.Second, stored.Counters.ActiveReadingToday)
	assert.Equal(t, 0, f.clock.Pending())
}
