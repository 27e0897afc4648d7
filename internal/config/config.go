// Package config loads engine configuration from environment variables via
// viper into one flat Config struct with sane defaults.
package config

import (
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
type Config struct {
	// Server
	Port int

	// Scheduler
	LookaheadWindow  time.Duration
	LookaheadTick    time.Duration
	GainTickInterval time.Duration
	BackpressureSec  float64

	// Caches
	OneshotCacheCapacity int
	MediaCacheCapacity   int

	// Persistence
	DatabasePath string

	// Media resolution (LocalResolver base directory)
	MediaDir string

	// Logging
	LogLevel string

	// Monitor (live preview stream)
	MonitorEnabled bool
}

// Load reads configuration from environment variables with sane defaults.
// Env vars are prefixed ENGINE_ to avoid collisions with the host process.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("ENGINE")
	v.AutomaticEnv()

	const defaultPort = 8090
	v.SetDefault("port", defaultPort)
	v.SetDefault("lookahead_window_ms", 2000)
	v.SetDefault("lookahead_tick_ms", 500)
	v.SetDefault("gain_tick_ms", 100)
	v.SetDefault("backpressure_sec", 1.0)
	v.SetDefault("oneshot_cache_capacity", 256)
	v.SetDefault("media_cache_capacity", 64)
	v.SetDefault("database_path", "engine.db")
	v.SetDefault("media_dir", "./media")
	v.SetDefault("log_level", "info")
	v.SetDefault("monitor_enabled", false)

	// A non-numeric ENGINE_PORT falls back to the default instead of 0.
	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		port = defaultPort
	}

	return Config{
		Port:                 port,
		LookaheadWindow:      time.Duration(v.GetInt("lookahead_window_ms")) * time.Millisecond,
		LookaheadTick:        time.Duration(v.GetInt("lookahead_tick_ms")) * time.Millisecond,
		GainTickInterval:     time.Duration(v.GetInt("gain_tick_ms")) * time.Millisecond,
		BackpressureSec:      v.GetFloat64("backpressure_sec"),
		OneshotCacheCapacity: v.GetInt("oneshot_cache_capacity"),
		MediaCacheCapacity:   v.GetInt("media_cache_capacity"),
		DatabasePath:         v.GetString("database_path"),
		MediaDir:             v.GetString("media_dir"),
		LogLevel:             v.GetString("log_level"),
		MonitorEnabled:       v.GetBool("monitor_enabled"),
	}
}
