package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	Dir           string        `yaml:"dir" validate:"required|unixPath"`
	SweepInterval time.Duration `yaml:"sweepInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type EngagementConfig struct {
	Timezone          string        `yaml:"timezone" validate:"timezone"`
	VerseGoal         int           `yaml:"verseGoal" validate:"required|min:1"`
	ActiveReadingGoal time.Duration `yaml:"activeReadingGoal" validate:"required|min:1"`
	ReflectionGoal    int           `yaml:"reflectionGoal" validate:"required|min:1"`
	VerseDwell        time.Duration `yaml:"verseDwell" validate:"required|min:1"`
	IdleTimeout       time.Duration `yaml:"idleTimeout" validate:"required|min:1"`
	TickInterval      time.Duration `yaml:"tickInterval" validate:"required|min:1"`
	MilestoneWindow   time.Duration `yaml:"milestoneWindow" validate:"required|min:1"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
	// DedupeWindow is how long a seen eventId suppresses its replays.
	DedupeWindow time.Duration `yaml:"dedupeWindow"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Engagement  EngagementConfig `yaml:"engagement"`
	WebServer   Server           `yaml:"webServer"`
	Persistence Persistence      `yaml:"persistence"`
	Logger      LoggerConfig     `yaml:"logger"`
	Cache       CacheConfig      `yaml:"cache"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}
