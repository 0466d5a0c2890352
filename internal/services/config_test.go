package services

import (
	"streakd/internal/engagement"
	"streakd/internal/structures"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDayResolver(t *testing.T) {
	days, err := NewDayResolver(&structures.Config{Engagement: structures.EngagementConfig{Timezone: "Europe/Berlin"}})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", days.Location().String())

	days, err = NewDayResolver(&structures.Config{})
	require.NoError(t, err)
	assert.Equal(t, time.Local, days.Location())

	_, err = NewDayResolver(&structures.Config{Engagement: structures.EngagementConfig{Timezone: "Mars/Olympus_Mons"}})
	assert.Error(t, err)
}

func TestNewThresholds(t *testing.T) {
	assert.Equal(t, engagement.DefaultThresholds(), NewThresholds(&structures.Config{}))

	got := NewThresholds(&structures.Config{Engagement: structures.EngagementConfig{
		VerseGoal:         3,
		ActiveReadingGoal: 2 * time.Minute,
		ReflectionGoal:    2,
		VerseDwell:        5 * time.Second,
		IdleTimeout:       30 * time.Second,
		TickInterval:      time.Second,
		MilestoneWindow:   12 * time.Hour,
	}})
	assert.Equal(t, engagement.Thresholds{
		VerseGoal:         3,
		ActiveReadingGoal: 2 * time.Minute,
		ReflectionGoal:    2,
		VerseDwell:        5 * time.Second,
		IdleTimeout:       30 * time.Second,
		TickInterval:      time.Second,
		MilestoneWindow:   12 * time.Hour,
	}, got)
}
