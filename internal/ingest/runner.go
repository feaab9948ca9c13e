// Package ingest consumes the upstream sensor streams and feeds each event
// into the track store.
//
// Each source runs its own Runner. A Runner owns one stream at a time: a
// receive goroutine pulls events off the stream into a bounded queue and the
// Runner applies them strictly in arrival order. When the stream fails the
// Runner reconnects with exponential backoff; the store is never touched by
// a reconnect.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/signalsfoundry/datalink-fusion/internal/logging"
)

// ErrMalformedEvent marks an event that failed validation. Malformed events
// are dropped; they never stop the Runner.
var ErrMalformedEvent = errors.New("malformed event")

// ErrUncorrelated marks an event that refers to a track the store does not
// hold. It is counted and logged at debug level only.
var ErrUncorrelated = errors.New("uncorrelated event")

// Outcome labels what happened to one event.
type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeApplied      Outcome = "applied"
	OutcomeUncorrelated Outcome = "uncorrelated"
	OutcomeMalformed    Outcome = "malformed"
	OutcomeFailed       Outcome = "failed"
)

// Stream is the receive side of an upstream subscription. gRPC
// server-streaming clients satisfy it.
type Stream[E any] interface {
	Recv() (E, error)
}

// Opener subscribes to a source. The returned stream must end once ctx is
// cancelled.
type Opener[E any] func(ctx context.Context) (Stream[E], error)

// Applier turns one event into a store call. Errors wrapping
// ErrMalformedEvent or ErrUncorrelated are expected and only counted.
type Applier[E any] func(ctx context.Context, event E) (Outcome, error)

// Metrics receives per-source ingestion statistics.
type Metrics interface {
	ObserveEvent(source string, outcome Outcome)
	ObserveReconnect(source string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvent(string, Outcome) {}
func (noopMetrics) ObserveReconnect(string)      {}

// Config tunes a Runner. Zero values select defaults.
type Config struct {
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	QueueSize      int
	Metrics        Metrics
	Logger         logging.Logger
}

const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 30 * time.Second
	DefaultQueueSize      = 256
)

func (c Config) withDefaults() Config {
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = DefaultBackoffInitial
	}
	if c.BackoffMax < c.BackoffInitial {
		c.BackoffMax = DefaultBackoffMax
		if c.BackoffMax < c.BackoffInitial {
			c.BackoffMax = c.BackoffInitial
		}
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	if c.Logger == nil {
		c.Logger = logging.Noop()
	}
	return c
}

// Runner is a reconnecting consumer of one source.
type Runner[E any] struct {
	source string
	open   Opener[E]
	apply  Applier[E]
	cfg    Config
	log    logging.Logger

	malformedLog    rate.Sometimes
	uncorrelatedLog rate.Sometimes
}

// NewRunner builds a Runner for the named source.
func NewRunner[E any](source string, open Opener[E], apply Applier[E], cfg Config) *Runner[E] {
	cfg = cfg.withDefaults()
	return &Runner[E]{
		source:          source,
		open:            open,
		apply:           apply,
		cfg:             cfg,
		log:             cfg.Logger.With(logging.String("source", source)),
		malformedLog:    rate.Sometimes{First: 5, Interval: 10 * time.Second},
		uncorrelatedLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// Source returns the name the Runner reports under.
func (r *Runner[E]) Source() string { return r.source }

// Run consumes the source until ctx is cancelled. It returns nil on
// cancellation; stream failures are retried, never returned.
func (r *Runner[E]) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.BackoffInitial
	b.MaxInterval = r.cfg.BackoffMax
	b.Reset()

	r.log.Info(ctx, "ingestor started")
	for {
		err := r.session(ctx, b)
		if ctx.Err() != nil {
			r.log.Info(ctx, "ingestor stopped")
			return nil
		}

		r.cfg.Metrics.ObserveReconnect(r.source)
		wait := b.NextBackOff()
		r.log.Warn(ctx, "stream lost, reconnecting",
			logging.Err(err),
			logging.Duration("backoff", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info(ctx, "ingestor stopped")
			return nil
		case <-timer.C:
		}
	}
}

type received[E any] struct {
	event E
	err   error
}

// session runs one subscription to completion and returns why it ended.
func (r *Runner[E]) session(ctx context.Context, b *backoff.ExponentialBackOff) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := r.open(sctx)
	if err != nil {
		return fmt.Errorf("open %s stream: %w", r.source, err)
	}

	queue := make(chan received[E], r.cfg.QueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, err := stream.Recv()
			select {
			case queue <- received[E]{event: ev, err: err}:
			case <-sctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	// The receiver exits once sctx is cancelled: the stream observes the
	// cancellation and Recv returns.
	defer func() {
		cancel()
		<-done
	}()

	first := true
	for {
		select {
		case <-sctx.Done():
			return sctx.Err()
		case msg := <-queue:
			if msg.err != nil {
				return fmt.Errorf("receive %s: %w", r.source, msg.err)
			}
			if first {
				b.Reset()
				first = false
			}
			r.handle(sctx, msg.event)
		}
	}
}

func (r *Runner[E]) handle(ctx context.Context, event E) {
	outcome, err := r.apply(ctx, event)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedEvent):
		outcome = OutcomeMalformed
		r.malformedLog.Do(func() {
			r.log.Warn(ctx, "dropping malformed event", logging.Err(err))
		})
	case errors.Is(err, ErrUncorrelated):
		outcome = OutcomeUncorrelated
		r.uncorrelatedLog.Do(func() {
			r.log.Debug(ctx, "event did not correlate to a known track", logging.Err(err))
		})
	default:
		outcome = OutcomeFailed
		r.log.Error(ctx, "apply event failed", logging.Err(err))
	}
	r.cfg.Metrics.ObserveEvent(r.source, outcome)
}
