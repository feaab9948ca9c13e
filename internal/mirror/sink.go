package mirror

import (
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendInflux = "influx"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend      string        `mapstructure:"backend" toml:"backend"`
	QueueSize    int           `mapstructure:"queue_size" toml:"queue_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" toml:"write_timeout"`
	Influx       InfluxConfig  `mapstructure:"influx" toml:"influx"`
	Redis        RedisConfig   `mapstructure:"redis" toml:"redis"`
	SQLitePath   string        `mapstructure:"sqlite_path" toml:"sqlite_path"`
}

// Open constructs the configured sink. It returns a nil Sink for the "none"
// backend (or an empty one).
func Open(cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendInflux:
		s, err := NewInfluxSink(cfg.Influx)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		s, err := NewRedisSink(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := NewSQLiteSink(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("mirror: unsupported backend %q", cfg.Backend)
	}
}
