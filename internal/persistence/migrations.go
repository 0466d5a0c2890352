package persistence

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"streakd/internal/engagement"
	"streakd/internal/models"
)

var (
	ErrUndecodable        = errors.New("state blob matches no known schema")
	ErrUnsupportedVersion = errors.New("state blob written by a newer schema")
)

// VersionError reports a blob tagged with a schema this build cannot read.
type VersionError struct {
	Version int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s: version %d", ErrUnsupportedVersion, e.Version)
}

func (e *VersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// schemaBlob is one decoded generation of the state blob.
type schemaBlob interface {
	version() int
}

type blobV1 struct{ state models.StateV1 }
type blobV2 struct{ state models.StateV2 }
type blobV3 struct{ state models.StateV3 }

func (blobV1) version() int { return 1 }
func (blobV2) version() int { return 2 }
func (blobV3) version() int { return 3 }

func decodeCurrent(data []byte) (schemaBlob, bool) {
	var s models.StateV3
	if err := json.Unmarshal(data, &s); err != nil || s.Version != models.CurrentSchemaVersion {
		return nil, false
	}
	return blobV3{state: s}, true
}

func decodeIntermediate(data []byte) (schemaBlob, bool) {
	var s models.StateV2
	if err := json.Unmarshal(data, &s); err != nil || s.Today == nil {
		return nil, false
	}
	return blobV2{state: s}, true
}

func decodeLegacy(data []byte) (schemaBlob, bool) {
	var s models.StateV1
	if err := json.Unmarshal(data, &s); err != nil || s.CurrentStreak == nil {
		return nil, false
	}
	return blobV1{state: s}, true
}

// decodeBlob tries the generations newest first. A version tag above the
// current one is refused outright so a newer blob is never read as legacy.
func decodeBlob(data []byte) (schemaBlob, error) {
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if header.Version > models.CurrentSchemaVersion {
		return nil, &VersionError{Version: header.Version}
	}

	for _, decode := range []func([]byte) (schemaBlob, bool){decodeCurrent, decodeIntermediate, decodeLegacy} {
		if blob, ok := decode(data); ok {
			return blob, nil
		}
	}
	return nil, ErrUndecodable
}

// upgradeV1 keeps only the coarse counters; the last engaged instant becomes
// the last qualified day.
func upgradeV1(b blobV1, days engagement.DayResolver) blobV2 {
	v1 := b.state
	current := *v1.CurrentStreak
	v2 := models.StateV2{
		CurrentStreak:    current,
		LongestStreak:    max(v1.LongestStreak, current),
		TotalEngagedDays: max(v1.TotalEngagedDays, current),
		LastActivityAt:   v1.LastEngagedAt,
		Today:            &models.DailyCountersV2{},
	}
	if v1.LastEngagedAt != nil {
		day := days.StartOfDay(*v1.LastEngagedAt)
		v2.LastQualifiedDate = &day
	}
	return blobV2{state: v2}
}

// upgradeV2 anchors the carried-over counters to the day of the last
// activity and seeds history from the last qualified day.
func upgradeV2(b blobV2, days engagement.DayResolver) blobV3 {
	v2 := b.state
	v3 := models.StateV3{
		Version:              models.CurrentSchemaVersion,
		CurrentStreak:        v2.CurrentStreak,
		LongestStreak:        v2.LongestStreak,
		TotalEngagedDays:     v2.TotalEngagedDays,
		FirstEngagedAt:       v2.FirstEngagedAt,
		LastQualifiedDate:    v2.LastQualifiedDate,
		LastEngagedSource:    v2.LastEngagedSource,
		LastActivityAt:       v2.LastActivityAt,
		QualifiedDateHistory: []time.Time{},
	}
	if v2.LastActivityAt != nil && v2.Today != nil {
		v3.DayAnchor = days.StartOfDay(*v2.LastActivityAt)
		v3.VerseIDsReadToday = v2.Today.VerseIDs
		v3.ActiveReadingSecondsToday = v2.Today.ActiveReadingSeconds
		v3.ReflectionsToday = v2.Today.Reflections
	}
	if v2.LastQualifiedDate != nil {
		v3.QualifiedDateHistory = append(v3.QualifiedDateHistory, days.StartOfDay(*v2.LastQualifiedDate))
	}
	return blobV3{state: v3}
}

// loadAndUpgrade decodes data and walks it forward to the current schema.
// It returns the generation the blob was stored in.
func loadAndUpgrade(data []byte, days engagement.DayResolver) (*models.State, int, error) {
	blob, err := decodeBlob(data)
	if err != nil {
		return nil, 0, err
	}
	from := blob.version()

	for {
		switch b := blob.(type) {
		case blobV1:
			blob = upgradeV1(b, days)
		case blobV2:
			blob = upgradeV2(b, days)
		case blobV3:
			state := b.state.ToState()
			normalizeDays(state, days)
			return state, from, nil
		default:
			return nil, from, ErrUndecodable
		}
	}
}

// normalizeDays snaps every stored day to local start of day, which matters
// when a blob was written under a different timezone.
func normalizeDays(state *models.State, days engagement.DayResolver) {
	l := &state.Ledger
	if l.LastQualifiedDate != nil {
		day := days.StartOfDay(*l.LastQualifiedDate)
		l.LastQualifiedDate = &day
	}
	history := l.QualifiedDateHistory
	l.QualifiedDateHistory = nil
	for _, d := range history {
		l.AddQualifiedDate(days.StartOfDay(d))
	}
	if !state.Counters.DayAnchor.IsZero() {
		state.Counters.DayAnchor = days.StartOfDay(state.Counters.DayAnchor)
	}
}
