package persistence

import (
	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
	"streakd/internal/engagement"
	"streakd/internal/persistence/interfaces"
	"streakd/internal/providers"
	"streakd/internal/services"
	"streakd/internal/structures"
	"sync"
	"time"
)

// Scheduler resyncs loaded engines on a fixed interval so open sessions roll
// over at midnight, and brackets the process with restore and final flush.
type Scheduler struct {
	config    *structures.Config
	logger    providers.Logger
	service   services.EngagementServiceInterface
	blobs     interfaces.BlobStoreInterface
	clock     engagement.Clock
	cron      *gron.Cron
	opsMu     sync.Mutex
	lastSweep atomic.Time
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	interval := s.config.Persistence.SweepInterval

	s.cron.AddFunc(gron.Every(interval), s.Sweep)
	s.cron.Start()
}

func (s *Scheduler) Sweep() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	now := s.clock.Now()
	profiles := s.service.Profiles()
	s.service.ResyncAll(now)
	s.lastSweep.Store(now)
	s.logger.Debugf(providers.TypeApp, "Day resync swept %d profiles", len(profiles))
}

// LastSweep is the zero time until the first sweep ran.
func (s *Scheduler) LastSweep() time.Time {
	return s.lastSweep.Load()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	return s.service.Restore()
}

// Persist flushes every engine, then releases the blob store.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Flushing engines before shutdown...")
	s.service.Close()
	s.blobs.Close()
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.EngagementServiceInterface, blobs interfaces.BlobStoreInterface, clock engagement.Clock) interfaces.SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		service: service,
		blobs:   blobs,
		clock:   clock,
	}
}
