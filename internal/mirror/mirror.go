// Package mirror copies committed track mutations to an external log. It is
// fire-and-forget relative to fusion: enqueueing never blocks, and a slow or
// failing backend only costs dropped documents and log lines.
package mirror

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
)

// Document is the mirrored form of one committed mutation.
type Document struct {
	TrackID      string    `json:"track_id"`
	Kind         string    `json:"kind"`
	Callsign     string    `json:"callsign"`
	Affiliation  string    `json:"affiliation"`
	Source       string    `json:"source"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Velocity     float64   `json:"velocity"`
	BaroAltitude float64   `json:"baroAltitude"`
	GeoAltitude  float64   `json:"geoAltitude"`
	Timestamp    time.Time `json:"timestamp"`
}

// DocumentFromMutation flattens a committed mutation.
func DocumentFromMutation(m fusion.Mutation) Document {
	t := m.Track
	return Document{
		TrackID:      t.ID,
		Kind:         m.Kind.String(),
		Callsign:     t.Callsign,
		Affiliation:  t.Identification.String(),
		Source:       t.IdentificationSource.String(),
		Lat:          t.Position.Latitude,
		Lon:          t.Position.Longitude,
		Velocity:     t.Kinematics.Speed,
		BaroAltitude: t.Position.BaroAltitude,
		GeoAltitude:  t.Position.GeoAltitude,
		Timestamp:    t.UpdatedAt,
	}
}

// Sink persists documents. Implementations need not be safe for concurrent
// use: the Mirror calls Write from a single worker.
type Sink interface {
	Write(ctx context.Context, doc Document) error
	Close() error
}

// Metrics counts mirror outcomes.
type Metrics interface {
	ObserveMirrorWrite(outcome string)
}

const (
	OutcomeWritten = "written"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

const (
	DefaultQueueSize    = 1024
	DefaultWriteTimeout = 2 * time.Second
)

// Options tunes a Mirror.
type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
	Metrics      Metrics
	Logger       logging.Logger
}

// Mirror is a bounded queue in front of a Sink with a single writer.
type Mirror struct {
	sink    Sink
	queue   chan Document
	timeout time.Duration
	metrics Metrics
	log     logging.Logger

	dropLog rate.Sometimes
	failLog rate.Sometimes
}

type noopMetrics struct{}

func (noopMetrics) ObserveMirrorWrite(string) {}

// New wraps sink. The caller keeps ownership of sink and closes it after Run
// returns.
func New(sink Sink, opts Options) *Mirror {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	return &Mirror{
		sink:    sink,
		queue:   make(chan Document, opts.QueueSize),
		timeout: opts.WriteTimeout,
		metrics: opts.Metrics,
		log:     opts.Logger.With(logging.String("component", "mirror")),
		dropLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
		failLog: rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

// Observe is a fusion.Observer. Evictions are not mirrored.
func (m *Mirror) Observe(mu fusion.Mutation) {
	if mu.Kind == fusion.MutationEvicted {
		return
	}
	m.Enqueue(DocumentFromMutation(mu))
}

// Enqueue offers doc to the writer without blocking. It reports false when
// the queue was full and the document was dropped.
func (m *Mirror) Enqueue(doc Document) bool {
	select {
	case m.queue <- doc:
		return true
	default:
		m.metrics.ObserveMirrorWrite(OutcomeDropped)
		m.dropLog.Do(func() {
			m.log.Warn(context.Background(), "mirror queue full, dropping document",
				logging.String("track_id", doc.TrackID),
				logging.Int("capacity", cap(m.queue)),
			)
		})
		return false
	}
}

// Run writes queued documents until ctx is cancelled. Documents still queued
// at cancellation are discarded.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case doc := <-m.queue:
			m.write(ctx, doc)
		}
	}
}

func (m *Mirror) write(ctx context.Context, doc Document) {
	wctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.sink.Write(wctx, doc); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		m.metrics.ObserveMirrorWrite(OutcomeFailed)
		m.failLog.Do(func() {
			m.log.Warn(ctx, "mirror write failed",
				logging.String("track_id", doc.TrackID),
				logging.Err(err),
			)
		})
		return
	}
	m.metrics.ObserveMirrorWrite(OutcomeWritten)
}
