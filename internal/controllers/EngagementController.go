package controllers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/spf13/cast"
	"net/http"
	"streakd/internal/engagement"
	"streakd/internal/providers"
	"streakd/internal/services"
	"streakd/internal/structures"
	"time"
)

const (
	maxRequestBodySize = 64 << 10 // 64 KB
	profileParam       = "p"
)

var errBadInstant = errors.New("unparseable reference instant")

type EngagementController struct {
	logger  providers.Logger
	service services.EngagementServiceInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	debug   bool
	loc     *time.Location
	dedupe  time.Duration
}

type streakResponse struct {
	Profile string `json:"profile"`
	engagement.Snapshot
}

func NewEngagementController(logger providers.Logger, service services.EngagementServiceInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface, days engagement.DayResolver, conf *structures.Config) *EngagementController {
	ec := &EngagementController{
		logger:  logger,
		service: service,
		cache:   cache,
		metrics: metrics,
		debug:   conf.Debug,
		loc:     days.Location(),
		dedupe:  conf.Cache.DedupeWindow,
	}
	service.OnChange(func(profile string, _ engagement.Change) {
		cache.Del(streakCacheKey(profile))
	})
	return ec
}

func streakCacheKey(profile string) string {
	return "streak:" + profile
}

// streakCacheTag prefixes a cached /streak body with the engine revision and
// day it was rendered for; any other pair makes the entry stale.
func streakCacheTag(revision uint64, day time.Time) []byte {
	tag := make([]byte, 0, 16)
	tag = binary.BigEndian.AppendUint64(tag, revision)
	return binary.BigEndian.AppendUint64(tag, uint64(day.Unix()))
}

func eventCacheKey(profile, eventID string) string {
	return "evt:" + profile + ":" + eventID
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (ec *EngagementController) respondSnapshot(w http.ResponseWriter, profile string, snap engagement.Snapshot) ([]byte, bool) {
	gson, err := json.Marshal(streakResponse{Profile: profile, Snapshot: snap})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	writeJSON(w, http.StatusOK, gson)
	return gson, true
}

// parseInstant accepts RFC3339 strings or unix seconds; absent means now.
func (ec *EngagementController) parseInstant(raw any) (time.Time, error) {
	if raw == nil {
		return time.Time{}, nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return time.Time{}, nil
		}
	case float64:
		raw = int64(v)
	}
	at, err := cast.ToTimeInDefaultLocationE(raw, ec.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errBadInstant, err)
	}
	return at, nil
}

func (ec *EngagementController) profileFromQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	profile := r.URL.Query().Get(profileParam)
	v := validate.Map(map[string]any{"profile": profile})
	v.StringRule("profile", "required|regexp:^[A-Za-z0-9_-]+$|maxLen:64")
	if !v.Validate() {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return "", false
	}
	return profile, true
}

func (ec *EngagementController) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload EventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if v := validate.Struct(&payload); !v.Validate() {
		ec.logger.Debugf(providers.TypePost, "Rejected event: %s", v.Errors.One())
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	at, err := ec.parseInstant(payload.At)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if payload.Type == EventContentVisibility && payload.Visible == nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if payload.Type == EventDebugQualify && !ec.debug {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	engine, err := ec.service.Engine(payload.Profile)
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	requestID := providers.RequestIDFromContext(r.Context())
	if payload.EventID != "" {
		key := eventCacheKey(payload.Profile, payload.EventID)
		if _, seen := ec.cache.GetOrSet(key, []byte{1}, ec.dedupe); seen {
			ec.logger.Debugf(providers.TypePost, "[%s] duplicate event %s for %s ignored", requestID, payload.EventID, payload.Profile)
			ec.respondSnapshot(w, payload.Profile, engine.Snapshot(at))
			return
		}
	}

	dispatchEvent(engine, &payload, at)
	ec.cache.Del(streakCacheKey(payload.Profile))
	ec.metrics.IncEventsTotal(payload.Type)
	ec.logger.Debugf(providers.TypePost, "[%s] %s for %s", requestID, payload.Type, payload.Profile)

	ec.respondSnapshot(w, payload.Profile, engine.Snapshot(at))
}

func dispatchEvent(engine *engagement.Engine, payload *EventPayload, at time.Time) {
	switch payload.Type {
	case EventReaderAppeared:
		engine.ReaderDidAppear(at)
	case EventReaderDisappeared:
		engine.ReaderDidDisappear(at)
	case EventContentVisibility:
		engine.SetReaderContentVisible(*payload.Visible, at)
	case EventVerseVisible:
		engine.RecordVerseBecameVisible(payload.VerseID, at)
	case EventVerseHidden:
		engine.RecordVerseNoLongerVisible(payload.VerseID, at)
	case EventVerseInteraction:
		engine.RecordVerseInteraction(payload.VerseID, at)
	case EventNoteCreated:
		engine.RecordNoteCreated(at)
	case EventHighlightCreated:
		engine.RecordHighlightCreated(at)
	case EventReaderInteraction:
		engine.RecordReaderInteraction(at)
	case EventAppActive:
		engine.AppDidBecomeActive(at)
	case EventAppResignActive:
		engine.AppWillResignActive(at)
	case EventAppEnterBackground:
		engine.AppDidEnterBackground(at)
	case EventResync:
		engine.ResyncDay(at)
	case EventDebugQualify:
		engine.DebugQualify(at)
	}
}

func (ec *EngagementController) GetStreak(w http.ResponseWriter, r *http.Request) {
	profile, ok := ec.profileFromQuery(w, r)
	if !ok {
		return
	}
	engine, err := ec.service.Engine(profile)
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	key := streakCacheKey(profile)
	tag := streakCacheTag(engine.Revision(time.Time{}))
	if data, ok := ec.cache.Get(key); ok && bytes.HasPrefix(data, tag) {
		writeJSON(w, http.StatusOK, data[len(tag):])
		return
	}

	// The snapshot is at least as new as tag, so a racing mutation only
	// leaves an entry no later read will match.
	snap := engine.Snapshot(time.Time{})
	gson, ok := ec.respondSnapshot(w, profile, snap)
	if ok && snap.MilestoneCopyText == "" {
		ec.cache.Set(key, append(tag, gson...))
	}
}

func (ec *EngagementController) GetProfiles(w http.ResponseWriter, r *http.Request) {
	gson, err := json.Marshal(ec.service.Profiles())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

// ConsumePrompt reports and clears the one-time first qualification prompt.
func (ec *EngagementController) ConsumePrompt(w http.ResponseWriter, r *http.Request) {
	profile, ok := ec.profileFromQuery(w, r)
	if !ok {
		return
	}
	engine, err := ec.service.Engine(profile)
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	gson, err := json.Marshal(map[string]bool{"pending": engine.ConsumeFirstQualificationPrompt()})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (ec *EngagementController) Reset(w http.ResponseWriter, r *http.Request) {
	profile, ok := ec.profileFromQuery(w, r)
	if !ok {
		return
	}
	if err := ec.service.Reset(profile); err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	ec.cache.Del(streakCacheKey(profile))
	ec.logger.Warnf(providers.TypePost, "[%s] state of %s wiped", providers.RequestIDFromContext(r.Context()), profile)
	w.WriteHeader(http.StatusNoContent)
}
