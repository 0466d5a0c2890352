package providers

import (
	"fmt"
	"path/filepath"
	"streakd/internal/structures"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setEngagementDefaults(v *viper.Viper) {
	v.SetDefault("engagement.verseGoal", 5)
	v.SetDefault("engagement.activeReadingGoal", 240*time.Second)
	v.SetDefault("engagement.reflectionGoal", 1)
	v.SetDefault("engagement.verseDwell", 8*time.Second)
	v.SetDefault("engagement.idleTimeout", 20*time.Second)
	v.SetDefault("engagement.tickInterval", 5*time.Second)
	v.SetDefault("engagement.milestoneWindow", 24*time.Hour)
	v.SetDefault("persistence.sweepInterval", time.Minute)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.dedupeWindow", 10*time.Minute)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setEngagementDefaults(v)

	v.BindEnv("logger.level", "STREAKD_LOG_LEVEL")
	v.BindEnv("persistence.dir", "STREAKD_DATA_DIR")
	v.BindEnv("engagement.timezone", "STREAKD_TIMEZONE")
	v.BindEnv("cache.enabled", "STREAKD_CACHE_ENABLED")
	v.BindEnv("cache.size", "STREAKD_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "StreakDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
