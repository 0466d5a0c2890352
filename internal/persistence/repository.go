package persistence

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"streakd/internal/engagement"
	"streakd/internal/models"
	"streakd/internal/persistence/interfaces"
	"streakd/internal/providers"
)

// Repository is the persistence adapter between engines and the blob store.
// It never reports failures to callers: unreadable state loads as absent and
// failed writes are logged and dropped.
type Repository struct {
	blobs   interfaces.BlobStoreInterface
	days    engagement.DayResolver
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewRepository(blobs interfaces.BlobStoreInterface, days engagement.DayResolver, logger providers.Logger, metrics providers.MetricsProviderInterface) *Repository {
	return &Repository{
		blobs:   blobs,
		days:    days,
		logger:  logger,
		metrics: metrics,
	}
}

func (r *Repository) Load(profile string) (*models.State, bool) {
	data, err := r.blobs.Load(profile)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			r.logger.Warnf(providers.TypeStorage, "Unable to read state of %s, starting fresh: %s", profile, err)
		}
		return nil, false
	}

	state, from, err := loadAndUpgrade(data, r.days)
	if err != nil {
		r.logger.Warnf(providers.TypeStorage, "Inconsistent state found for %s, starting fresh: %s", profile, err)
		var newer *VersionError
		if errors.As(err, &newer) {
			r.setAside(profile, newer.Version)
		}
		return nil, false
	}

	if from < models.CurrentSchemaVersion {
		r.logger.Warnf(providers.TypeStorage, "Migrated state of %s from v%d to v%d", profile, from, models.CurrentSchemaVersion)
		r.Save(profile, state)
	}
	return state, true
}

// setAside keeps a blob from a newer schema so this build never downgrades it.
func (r *Repository) setAside(profile string, version int) {
	path, err := r.blobs.SetAside(profile, fmt.Sprintf("v%d", version))
	if err != nil {
		r.logger.Errorf(providers.TypeStorage, "Unable to set aside v%d state of %s: %s", version, profile, err)
		return
	}
	r.logger.Warnf(providers.TypeStorage, "Kept v%d state of %s as %s", version, profile, path)
}

func (r *Repository) Save(profile string, state *models.State) {
	start := time.Now()
	defer func() {
		r.metrics.ObservePersistenceDuration(time.Since(start))
	}()

	data, err := json.Marshal(state.ToV3())
	if err != nil {
		r.logger.Errorf(providers.TypeStorage, "Unable to encode state of %s: %s", profile, err)
		return
	}
	if err = r.blobs.Save(profile, data); err != nil {
		r.logger.Errorf(providers.TypeStorage, "Error while persisting state of %s: %s", profile, err)
	}
}

func (r *Repository) Delete(profile string) {
	if err := r.blobs.Delete(profile); err != nil {
		r.logger.Errorf(providers.TypeStorage, "Error while deleting state of %s: %s", profile, err)
	}
}

func (r *Repository) Profiles() ([]string, error) {
	return r.blobs.List()
}

func (r *Repository) ForProfile(profile string) engagement.Store {
	return &profileStore{repo: r, profile: profile}
}

type profileStore struct {
	repo    *Repository
	profile string
}

func (p *profileStore) Load() (*models.State, bool) {
	return p.repo.Load(p.profile)
}

func (p *profileStore) Save(state *models.State) {
	p.repo.Save(p.profile, state)
}

func (p *profileStore) Delete() {
	p.repo.Delete(p.profile)
}
