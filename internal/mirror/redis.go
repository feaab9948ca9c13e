package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisStream is the stream key used when none is configured.
const DefaultRedisStream = "datalink:track_updates"

// RedisConfig locates the stream.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" toml:"addr"`
	Password string `mapstructure:"password" toml:"password"`
	DB       int    `mapstructure:"db" toml:"db"`
	Stream   string `mapstructure:"stream" toml:"stream"`
	MaxLen   int64  `mapstructure:"max_len" toml:"max_len"` // approximate cap; 0 leaves the stream uncapped
}

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends each document to a capped stream with XADD.
type RedisSink struct {
	client streamAdder
	closer func() error
	stream string
	maxLen int64
}

// NewRedisSink connects lazily to cfg.Addr.
func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("mirror: redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisSink(client, client.Close, cfg.Stream, cfg.MaxLen), nil
}

func newRedisSink(client streamAdder, closer func() error, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = DefaultRedisStream
	}
	return &RedisSink{client: client, closer: closer, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Write(ctx context.Context, doc Document) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: s.maxLen > 0,
		Values: map[string]any{
			"track_id":     doc.TrackID,
			"kind":         doc.Kind,
			"callsign":     doc.Callsign,
			"affiliation":  doc.Affiliation,
			"source":       doc.Source,
			"lat":          doc.Lat,
			"lon":          doc.Lon,
			"velocity":     doc.Velocity,
			"baroAltitude": doc.BaroAltitude,
			"geoAltitude":  doc.GeoAltitude,
			"timestamp":    doc.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("mirror: redis xadd %s: %w", s.stream, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
