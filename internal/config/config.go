// Package config loads the server configuration from defaults, an optional
// TOML file, DATALINK_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/internal/mirror"
	"github.com/signalsfoundry/datalink-fusion/internal/observability"
)

// EnvPrefix prefixes every environment override, e.g. DATALINK_RADAR_ADDRESS.
const EnvPrefix = "DATALINK"

type Config struct {
	Server  ServerConfig                `mapstructure:"server" toml:"server"`
	Radar   RadarConfig                 `mapstructure:"radar" toml:"radar"`
	IFF     IFFConfig                   `mapstructure:"iff" toml:"iff"`
	Ingest  IngestConfig                `mapstructure:"ingest" toml:"ingest"`
	Store   StoreConfig                 `mapstructure:"store" toml:"store"`
	Mirror  mirror.Config               `mapstructure:"mirror" toml:"mirror"`
	Log     LogConfig                   `mapstructure:"log" toml:"log"`
	Tracing observability.TracingConfig `mapstructure:"tracing" toml:"tracing"`
}

type ServerConfig struct {
	GRPCAddr        string        `mapstructure:"grpc_addr" toml:"grpc_addr"`
	HTTPAddr        string        `mapstructure:"http_addr" toml:"http_addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" toml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" toml:"shutdown_timeout"`
}

type RadarConfig struct {
	Address         string        `mapstructure:"address" toml:"address"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" toml:"refresh_interval"`
}

// IFFConfig carries the optional area filter; a zero radius subscribes to
// every contact.
type IFFConfig struct {
	Address  string  `mapstructure:"address" toml:"address"`
	Lat      float64 `mapstructure:"lat" toml:"lat"`
	Lon      float64 `mapstructure:"lon" toml:"lon"`
	RadiusKm float64 `mapstructure:"radius_km" toml:"radius_km"`
}

type IngestConfig struct {
	BackoffInitial time.Duration `mapstructure:"backoff_initial" toml:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max" toml:"backoff_max"`
	QueueSize      int           `mapstructure:"queue_size" toml:"queue_size"`
}

type StoreConfig struct {
	Shards        int           `mapstructure:"shards" toml:"shards"`
	EvictionTTL   time.Duration `mapstructure:"eviction_ttl" toml:"eviction_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" toml:"sweep_interval"`
	EvictManual   bool          `mapstructure:"evict_manual" toml:"evict_manual"`
}

type LogConfig struct {
	Level     string `mapstructure:"level" toml:"level"`
	Format    string `mapstructure:"format" toml:"format"`
	AddSource bool   `mapstructure:"add_source" toml:"add_source"`
}

// Logging converts the log section into a logging.Config.
func (l LogConfig) Logging() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format, AddSource: l.AddSource}
}

// SetDefaults registers a default for every key. Durations are strings so
// the rendered configuration stays readable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_addr", ":50052")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("radar.address", "localhost:50051")
	v.SetDefault("radar.refresh_interval", "1s")

	v.SetDefault("iff.address", "localhost:50053")
	v.SetDefault("iff.lat", 0.0)
	v.SetDefault("iff.lon", 0.0)
	v.SetDefault("iff.radius_km", 0.0)

	v.SetDefault("ingest.backoff_initial", "500ms")
	v.SetDefault("ingest.backoff_max", "30s")
	v.SetDefault("ingest.queue_size", 256)

	v.SetDefault("store.shards", 32)
	v.SetDefault("store.eviction_ttl", "60s")
	v.SetDefault("store.sweep_interval", "5s")
	v.SetDefault("store.evict_manual", true)

	v.SetDefault("mirror.backend", mirror.BackendNone)
	v.SetDefault("mirror.queue_size", 1024)
	v.SetDefault("mirror.write_timeout", "2s")
	v.SetDefault("mirror.influx.url", "http://localhost:8086")
	v.SetDefault("mirror.influx.token", "")
	v.SetDefault("mirror.influx.org", "datalink")
	v.SetDefault("mirror.influx.bucket", "tracks")
	v.SetDefault("mirror.redis.addr", "localhost:6379")
	v.SetDefault("mirror.redis.password", "")
	v.SetDefault("mirror.redis.db", 0)
	v.SetDefault("mirror.redis.stream", mirror.DefaultRedisStream)
	v.SetDefault("mirror.redis.max_len", 100000)
	v.SetDefault("mirror.sqlite_path", "datalink.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "datalink-fusion")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"grpc-addr":  "server.grpc_addr",
	"http-addr":  "server.http_addr",
	"radar-addr": "radar.address",
	"iff-addr":   "iff.address",
	"log-level":  "log.level",
	"mirror":     "mirror.backend",
}

// RegisterFlags adds the overridable flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("grpc-addr", "", "gRPC listen address (server.grpc_addr)")
	fs.String("http-addr", "", "HTTP gateway listen address; empty disables (server.http_addr)")
	fs.String("radar-addr", "", "radar feed address (radar.address)")
	fs.String("iff-addr", "", "IFF feed address (iff.address)")
	fs.String("log-level", "", "debug, info, warn or error (log.level)")
	fs.String("mirror", "", "mirror backend: none, influx, redis or sqlite (mirror.backend)")
}

// BindFlags binds the flags registered by RegisterFlags. Only flags the user
// actually set override lower layers.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load merges the TOML file at path (if any) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.GRPCAddr == "" {
		errs = append(errs, errors.New("server.grpc_addr is required"))
	}
	if c.Radar.Address == "" {
		errs = append(errs, errors.New("radar.address is required"))
	}
	if c.IFF.Address == "" {
		errs = append(errs, errors.New("iff.address is required"))
	}
	if c.Store.Shards <= 0 {
		errs = append(errs, fmt.Errorf("store.shards must be positive, got %d", c.Store.Shards))
	}
	if c.IFF.Lat < -90 || c.IFF.Lat > 90 {
		errs = append(errs, fmt.Errorf("iff.lat %v out of range", c.IFF.Lat))
	}
	if c.IFF.Lon < -180 || c.IFF.Lon > 180 {
		errs = append(errs, fmt.Errorf("iff.lon %v out of range", c.IFF.Lon))
	}
	if c.IFF.RadiusKm < 0 {
		errs = append(errs, fmt.Errorf("iff.radius_km must not be negative"))
	}
	switch strings.ToLower(c.Mirror.Backend) {
	case "", mirror.BackendNone, mirror.BackendInflux, mirror.BackendRedis, mirror.BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("mirror.backend %q is not one of none, influx, redis, sqlite", c.Mirror.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Render prints the effective settings of v as TOML.
func Render(v *viper.Viper) ([]byte, error) {
	out, err := toml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}
