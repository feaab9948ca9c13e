// Package feed dials the upstream radar and IFF producers and opens their
// server streams.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/datalink-fusion/api/iffv1"
	"github.com/signalsfoundry/datalink-fusion/api/radarv1"
)

// Area restricts an IFF subscription to contacts within RadiusKm of a point.
// A zero radius subscribes to everything.
type Area struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// Config describes where the producers live.
type Config struct {
	RadarAddress    string
	RefreshInterval time.Duration
	IFFAddress      string
	IFFArea         Area
}

// Client holds one connection per producer. Connections are lazy: dialing
// never blocks and a producer that is down surfaces as a stream open error.
type Client struct {
	cfg Config

	radarConn *grpc.ClientConn
	iffConn   *grpc.ClientConn

	radar radarv1.RadarServiceClient
	iff   iffv1.IFFServiceClient
}

// DialOptions are the options every feed connection uses. Extra options are
// appended, so callers may override the transport (bufconn in tests).
func DialOptions(extra ...grpc.DialOption) []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	return append(opts, extra...)
}

// Dial creates clients for both producers.
func Dial(cfg Config, opts ...grpc.DialOption) (*Client, error) {
	if cfg.RadarAddress == "" {
		return nil, errors.New("feed: radar address is required")
	}
	if cfg.IFFAddress == "" {
		return nil, errors.New("feed: iff address is required")
	}

	radarConn, err := grpc.NewClient(cfg.RadarAddress, DialOptions(opts...)...)
	if err != nil {
		return nil, fmt.Errorf("feed: dial radar %s: %w", cfg.RadarAddress, err)
	}
	iffConn, err := grpc.NewClient(cfg.IFFAddress, DialOptions(opts...)...)
	if err != nil {
		_ = radarConn.Close()
		return nil, fmt.Errorf("feed: dial iff %s: %w", cfg.IFFAddress, err)
	}

	return &Client{
		cfg:       cfg,
		radarConn: radarConn,
		iffConn:   iffConn,
		radar:     radarv1.NewRadarServiceClient(radarConn),
		iff:       iffv1.NewIFFServiceClient(iffConn),
	}, nil
}

// OpenRadar subscribes to the radar stream. The stream ends when ctx is
// cancelled.
func (c *Client) OpenRadar(ctx context.Context) (grpc.ServerStreamingClient[radarv1.RadarTarget], error) {
	req := &radarv1.StreamRequest{RefreshIntervalMs: int32(c.cfg.RefreshInterval / time.Millisecond)}
	stream, err := c.radar.StreamRadarTargets(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feed: open radar stream: %w", err)
	}
	return stream, nil
}

// OpenIFF subscribes to the IFF stream, passing the configured area filter
// through to the producer.
func (c *Client) OpenIFF(ctx context.Context) (grpc.ServerStreamingClient[iffv1.IFFStreamResponse], error) {
	req := &iffv1.IFFRequest{
		Lat:      c.cfg.IFFArea.Lat,
		Lon:      c.cfg.IFFArea.Lon,
		RadiusKm: c.cfg.IFFArea.RadiusKm,
	}
	stream, err := c.iff.StreamIFFData(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feed: open iff stream: %w", err)
	}
	return stream, nil
}

// Close releases both connections.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.radarConn.Close(), c.iffConn.Close())
}
