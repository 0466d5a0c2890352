package providers

import (
	"streakd/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			Dir:           "/tmp/streakd",
			SweepInterval: time.Minute,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Engagement: structures.EngagementConfig{
			Timezone:          "UTC",
			VerseGoal:         5,
			ActiveReadingGoal: 240 * time.Second,
			ReflectionGoal:    1,
			VerseDwell:        8 * time.Second,
			IdleTimeout:       20 * time.Second,
			TickInterval:      5 * time.Second,
			MilestoneWindow:   24 * time.Hour,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyTimezoneAllowed(t *testing.T) {
	c := validConfig()
	c.Engagement.Timezone = ""
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MissingDataDir(t *testing.T) {
	c := validConfig()
	c.Persistence.Dir = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_UnknownTimezone(t *testing.T) {
	c := validConfig()
	c.Engagement.Timezone = "Atlantis/Lost_City"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroVerseGoal(t *testing.T) {
	c := validConfig()
	c.Engagement.VerseGoal = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}
