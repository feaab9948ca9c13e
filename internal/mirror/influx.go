package mirror

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// InfluxMeasurement is the measurement every document is written to.
const InfluxMeasurement = "track_updates"

// InfluxConfig locates the bucket.
type InfluxConfig struct {
	URL    string `mapstructure:"url" toml:"url"`
	Token  string `mapstructure:"token" toml:"token"`
	Org    string `mapstructure:"org" toml:"org"`
	Bucket string `mapstructure:"bucket" toml:"bucket"`
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink writes one point per document through the blocking write API.
type InfluxSink struct {
	client influxdb2.Client
	writer pointWriter
}

// NewInfluxSink creates a client for cfg. No connection is made until the
// first write.
func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("mirror: influx url, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func influxPoint(doc Document) *write.Point {
	return influxdb2.NewPointWithMeasurement(InfluxMeasurement).
		AddTag("track_id", doc.TrackID).
		AddTag("affiliation", doc.Affiliation).
		AddTag("source", doc.Source).
		AddTag("kind", doc.Kind).
		AddField("callsign", doc.Callsign).
		AddField("lat", doc.Lat).
		AddField("lon", doc.Lon).
		AddField("velocity", doc.Velocity).
		AddField("baroAltitude", doc.BaroAltitude).
		AddField("geoAltitude", doc.GeoAltitude).
		SetTime(doc.Timestamp)
}

func (s *InfluxSink) Write(ctx context.Context, doc Document) error {
	if err := s.writer.WritePoint(ctx, influxPoint(doc)); err != nil {
		return fmt.Errorf("mirror: influx write %s: %w", doc.TrackID, err)
	}
	return nil
}

func (s *InfluxSink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
