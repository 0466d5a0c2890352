package services

import (
	"errors"
	"slices"
	"streakd/internal/engagement"
	"streakd/internal/providers"
	"sync"
	"time"

	"go.uber.org/atomic"
)

var ErrServiceClosed = errors.New("engagement service is closed")

// StateRepository hands out per-profile stores and lists persisted profiles.
type StateRepository interface {
	ForProfile(profile string) engagement.Store
	Profiles() ([]string, error)
}

type ChangeListener func(profile string, change engagement.Change)

type EngagementServiceInterface interface {
	Engine(profile string) (*engagement.Engine, error)
	Profiles() []string
	OnChange(listener ChangeListener)
	ResyncAll(now time.Time)
	Reset(profile string) error
	Restore() error
	Close()
}

// EngagementService keeps one engine per profile, loaded on first use.
type EngagementService struct {
	mu        sync.RWMutex
	engines   map[string]*engagement.Engine
	listeners []ChangeListener

	repo    StateRepository
	clock   engagement.Clock
	days    engagement.DayResolver
	rules   engagement.Thresholds
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	watchers sync.WaitGroup
	closed   atomic.Bool
}

func NewEngagementService(repo StateRepository, clock engagement.Clock, days engagement.DayResolver, rules engagement.Thresholds, logger providers.Logger, metrics providers.MetricsProviderInterface) EngagementServiceInterface {
	return &EngagementService{
		engines: make(map[string]*engagement.Engine),
		repo:    repo,
		clock:   clock,
		days:    days,
		rules:   rules,
		logger:  logger,
		metrics: metrics,
	}
}

// Engine returns the profile's engine, loading it and resyncing its day on
// first access the way an app launch would.
func (s *EngagementService) Engine(profile string) (*engagement.Engine, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	s.mu.RLock()
	e, ok := s.engines[profile]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	s.mu.Lock()
	if e, ok = s.engines[profile]; ok {
		s.mu.Unlock()
		return e, nil
	}
	if s.closed.Load() {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	e = engagement.NewEngine(s.repo.ForProfile(profile), engagement.Options{
		Profile:    profile,
		Clock:      s.clock,
		Days:       s.days,
		Thresholds: s.rules,
		Logger:     s.logger,
	})
	sub := e.Subscribe()
	s.engines[profile] = e
	s.metrics.SetProfilesLoaded(len(s.engines))
	s.watchers.Add(1)
	go s.watch(profile, sub)
	s.mu.Unlock()

	s.logger.Debugf(providers.TypeEngine, "Loaded engine for profile %s", profile)
	e.ResyncDay(time.Time{})
	return e, nil
}

func (s *EngagementService) watch(profile string, sub *engagement.Subscription) {
	defer s.watchers.Done()
	for change := range sub.C {
		if change.Kind.Has(engagement.ChangeQualified) {
			s.metrics.IncQualifications(change.Criterion.String())
		}
		if change.Kind.Has(engagement.ChangeStreakReset) {
			s.metrics.IncStreakResets()
		}
		if change.Kind.Has(engagement.ChangeMilestone) {
			s.metrics.IncMilestones(change.Milestone)
		}

		s.mu.RLock()
		listeners := slices.Clone(s.listeners)
		s.mu.RUnlock()
		for _, listener := range listeners {
			listener(profile, change)
		}
	}
}

func (s *EngagementService) OnChange(listener ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *EngagementService) Profiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := make([]string, 0, len(s.engines))
	for profile := range s.engines {
		profiles = append(profiles, profile)
	}
	slices.Sort(profiles)
	return profiles
}

func (s *EngagementService) loaded() []*engagement.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engines := make([]*engagement.Engine, 0, len(s.engines))
	for _, e := range s.engines {
		engines = append(engines, e)
	}
	return engines
}

// ResyncAll runs the day boundary path on every loaded engine.
func (s *EngagementService) ResyncAll(now time.Time) {
	for _, e := range s.loaded() {
		e.ResyncDay(now)
	}
}

func (s *EngagementService) Reset(profile string) error {
	e, err := s.Engine(profile)
	if err != nil {
		return err
	}
	e.Reset(time.Time{})
	return nil
}

// Restore loads every persisted profile, which migrates old blobs forward.
func (s *EngagementService) Restore() error {
	profiles, err := s.repo.Profiles()
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		if _, err = s.Engine(profile); err != nil {
			return err
		}
	}
	s.logger.Infof(providers.TypeApp, "Restored %d profiles", len(profiles))
	return nil
}

// Close flushes and persists every engine, then waits for the change
// watchers to drain.
func (s *EngagementService) Close() {
	if s.closed.Swap(true) {
		return
	}
	for _, e := range s.loaded() {
		e.Close()
	}
	s.watchers.Wait()
}
