package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/datalink-fusion/internal/ingest"
)

// Collector bundles the Prometheus metrics of the fusion service: the
// query/command RPC surface, the track table, both ingestors and the mirror.
// It satisfies fusion.MetricsRecorder, ingest.Metrics and mirror.Metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Tracks           prometheus.Gauge
	Evictions        prometheus.Counter
	IngestEvents     *prometheus.CounterVec
	IngestReconnects *prometheus.CounterVec
	MirrorWrites     *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datalink_requests_total",
		Help: "Total number of handled query/command RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "datalink_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datalink_request_duration_seconds",
		Help:    "Query/command RPC latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"service", "method"}), "datalink_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	tracks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datalink_tracks",
		Help: "Current number of tracks in the fusion store.",
	}), "datalink_tracks")
	if err != nil {
		return nil, err
	}

	evictions, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datalink_store_evictions_total",
		Help: "Tracks removed by the staleness sweep.",
	}), "datalink_store_evictions_total")
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datalink_ingest_events_total",
		Help: "Sensor events consumed, labeled by source and outcome.",
	}, []string{"source", "outcome"}), "datalink_ingest_events_total")
	if err != nil {
		return nil, err
	}

	reconnects, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datalink_ingest_reconnects_total",
		Help: "Upstream stream reconnect attempts, labeled by source.",
	}, []string{"source"}), "datalink_ingest_reconnects_total")
	if err != nil {
		return nil, err
	}

	mirrorWrites, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datalink_mirror_writes_total",
		Help: "Mirror documents handled, labeled by outcome (written, failed, dropped).",
	}, []string{"outcome"}), "datalink_mirror_writes_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		RPCRequests:      requests,
		RPCDurations:     durations,
		Tracks:           tracks,
		Evictions:        evictions,
		IngestEvents:     events,
		IngestReconnects: reconnects,
		MirrorWrites:     mirrorWrites,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetTrackCount updates the track gauge.
func (c *Collector) SetTrackCount(n int) {
	if c == nil || c.Tracks == nil {
		return
	}
	c.Tracks.Set(float64(n))
}

// AddEvictions counts tracks removed by a sweep.
func (c *Collector) AddEvictions(n int) {
	if c == nil || c.Evictions == nil || n <= 0 {
		return
	}
	c.Evictions.Add(float64(n))
}

func (c *Collector) ObserveEvent(source string, outcome ingest.Outcome) {
	if c == nil || c.IngestEvents == nil {
		return
	}
	c.IngestEvents.WithLabelValues(source, string(outcome)).Inc()
}

func (c *Collector) ObserveReconnect(source string) {
	if c == nil || c.IngestReconnects == nil {
		return
	}
	c.IngestReconnects.WithLabelValues(source).Inc()
}

func (c *Collector) ObserveMirrorWrite(outcome string) {
	if c == nil || c.MirrorWrites == nil {
		return
	}
	c.MirrorWrites.WithLabelValues(outcome).Inc()
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

// register adds c to reg, returning the already registered collector of the
// same type when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	return register(reg, vec, name)
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	return register(reg, vec, name)
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	return register(reg, gauge, name)
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	return register(reg, counter, name)
}
