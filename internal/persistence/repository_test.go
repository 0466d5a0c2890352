package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"streakd/internal/engagement"
	"streakd/internal/models"
	"streakd/internal/testutil"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoFixture struct {
	repo    *Repository
	blobs   *FileBlobStore
	dir     string
	logger  *testutil.MockLogger
	metrics *testutil.MockMetrics
}

func newRepoFixture(t *testing.T) *repoFixture {
	t.Helper()
	blobs, dir := newZstdBlobStore(t)
	f := &repoFixture{
		blobs:   blobs,
		dir:     dir,
		logger:  &testutil.MockLogger{},
		metrics: &testutil.MockMetrics{},
	}
	f.repo = NewRepository(blobs, utcDays, f.logger, f.metrics)
	return f
}

func (f *repoFixture) readV3(t *testing.T, profile string) models.StateV3 {
	t.Helper()
	data, err := f.blobs.Load(profile)
	require.NoError(t, err)
	var v3 models.StateV3
	require.NoError(t, json.Unmarshal(data, &v3))
	return v3
}

func TestRepository_LoadMissing(t *testing.T) {
	f := newRepoFixture(t)
	st, ok := f.repo.Load("nobody")
	assert.False(t, ok)
	assert.Nil(t, st)
	assert.Equal(t, 0, f.logger.Count("warn"))
}

func TestRepository_LoadGarbageStartsFresh(t *testing.T) {
	f := newRepoFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "alice.blob"), []byte("{{{"), 0644))

	st, ok := f.repo.Load("alice")
	assert.False(t, ok)
	assert.Nil(t, st)
	assert.Equal(t, 1, f.logger.Count("warn"))
}

func TestRepository_LoadNewerSchemaIsKeptAside(t *testing.T) {
	f := newRepoFixture(t)
	newer := []byte(`{"version":9,"currentStreak":100}`)
	require.NoError(t, f.blobs.Save("alice", newer))

	_, ok := f.repo.Load("alice")
	assert.False(t, ok)
	assert.Equal(t, 2, f.logger.Count("warn"))

	f.repo.Save("alice", models.NewState(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))

	assert.FileExists(t, filepath.Join(f.dir, "alice.blob.v9"))
	raw, err := os.ReadFile(filepath.Join(f.dir, "alice.blob.v9"))
	require.NoError(t, err)
	kept, err := f.blobs.compressor.Decompress(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(newer), string(kept))

	profiles, err := f.repo.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, profiles)
	assert.Equal(t, models.CurrentSchemaVersion, f.readV3(t, "alice").Version)
}

func TestRepository_LoadReadError(t *testing.T) {
	dir := t.TempDir()
	comp := &testutil.MockCompressor{
		DecompressFn: func([]byte) ([]byte, error) { return nil, errors.New("boom") },
	}
	blobs, err := NewFileBlobStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)
	require.NoError(t, blobs.Save("alice", []byte(`{"version":3}`)))

	logger := &testutil.MockLogger{}
	repo := NewRepository(blobs, utcDays, logger, &testutil.MockMetrics{})
	_, ok := repo.Load("alice")
	assert.False(t, ok)
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestRepository_SaveAndLoad(t *testing.T) {
	f := newRepoFixture(t)
	anchor := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	st := models.NewState(anchor)
	st.Ledger.CurrentStreak = 2
	st.Ledger.LongestStreak = 2
	st.Ledger.TotalEngagedDays = 2
	st.Counters.ReflectionsToday = 1

	f.repo.Save("alice", st)
	assert.Equal(t, 1, f.metrics.Counts().Persists)

	got, ok := f.repo.Load("alice")
	require.True(t, ok)
	assert.Equal(t, uint(2), got.Ledger.CurrentStreak)
	assert.Equal(t, uint(1), got.Counters.ReflectionsToday)
	assert.Equal(t, 1, f.metrics.Counts().Persists)

	v3 := f.readV3(t, "alice")
	assert.Equal(t, models.CurrentSchemaVersion, v3.Version)
	assert.NotNil(t, v3.QualifiedDateHistory)
}

func TestRepository_SaveErrorIsLogged(t *testing.T) {
	dir := t.TempDir()
	comp := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("disk on fire") },
	}
	blobs, err := NewFileBlobStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)
	logger := &testutil.MockLogger{}
	repo := NewRepository(blobs, utcDays, logger, &testutil.MockMetrics{})

	repo.Save("alice", models.NewState(time.Now()))
	assert.Equal(t, 1, logger.Count("error"))
}

func TestRepository_MigratesLegacyBlobAndRewritesIt(t *testing.T) {
	f := newRepoFixture(t)
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	legacy := fmt.Sprintf(`{"currentStreak":4,"lastEngagedAt":%q}`, now.Add(-72*time.Hour).Format(time.RFC3339))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "legacy.blob"), []byte(legacy), 0644))

	clock := testutil.NewFakeClock(now)
	e := engagement.NewEngine(f.repo.ForProfile("legacy"), engagement.Options{
		Profile: "legacy",
		Clock:   clock,
		Days:    utcDays,
	})
	defer e.Close()

	assert.Equal(t, uint(4), e.CurrentStreak())
	v3 := f.readV3(t, "legacy")
	assert.Equal(t, models.CurrentSchemaVersion, v3.Version)
	assert.Equal(t, uint(4), v3.CurrentStreak)

	e.ResyncDay(time.Time{})
	assert.Equal(t, uint(0), e.CurrentStreak())
	assert.Equal(t, uint(4), e.LongestStreak())

	v3 = f.readV3(t, "legacy")
	assert.Equal(t, models.CurrentSchemaVersion, v3.Version)
	assert.Equal(t, uint(0), v3.CurrentStreak)
	assert.Equal(t, uint(4), v3.LongestStreak)
}

func TestRepository_DeleteAndProfiles(t *testing.T) {
	f := newRepoFixture(t)
	store := f.repo.ForProfile("alice")
	store.Save(models.NewState(time.Now()))
	f.repo.Save("bob", models.NewState(time.Now()))

	profiles, err := f.repo.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, profiles)

	store.Delete()
	_, ok := store.Load()
	assert.False(t, ok)

	profiles, err = f.repo.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, profiles)
}

func TestRepository_InvalidProfileIsLogged(t *testing.T) {
	f := newRepoFixture(t)
	f.repo.Save("../escape", models.NewState(time.Now()))
	f.repo.Delete("../escape")
	assert.Equal(t, 2, f.logger.Count("error"))

	_, ok := f.repo.Load("../escape")
	assert.False(t, ok)
}
