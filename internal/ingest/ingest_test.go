package ingest

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/datalink-fusion/api/iffv1"
	"github.com/signalsfoundry/datalink-fusion/api/radarv1"
	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/model"
	"github.com/signalsfoundry/datalink-fusion/timectrl"
)

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// chanStream yields events from ch, then err once ch is closed. It honours
// cancellation the way a gRPC client stream does.
type chanStream[E any] struct {
	ctx context.Context
	ch  <-chan E
	err error
}

func (s *chanStream[E]) Recv() (E, error) {
	var zero E
	select {
	case <-s.ctx.Done():
		return zero, s.ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return zero, s.err
		}
		return ev, nil
	}
}

func closedWith[E any](events ...E) <-chan E {
	ch := make(chan E, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

type countingMetrics struct {
	mu         sync.Mutex
	events     map[Outcome]int
	reconnects int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{events: make(map[Outcome]int)}
}

func (m *countingMetrics) ObserveEvent(_ string, o Outcome) {
	m.mu.Lock()
	m.events[o]++
	m.mu.Unlock()
}

func (m *countingMetrics) ObserveReconnect(string) {
	m.mu.Lock()
	m.reconnects++
	m.mu.Unlock()
}

func (m *countingMetrics) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.events {
		n += c
	}
	return n
}

func (m *countingMetrics) snapshot() (map[Outcome]int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Outcome]int, len(m.events))
	for k, v := range m.events {
		out[k] = v
	}
	return out, m.reconnects
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func runInBackground(t *testing.T, run func(context.Context) error) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v, want nil", err)
			}
		case <-time.After(3 * time.Second):
			t.Errorf("Run did not return after cancel")
		}
	})
	return cancel
}

func fastConfig(m Metrics) Config {
	return Config{
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		QueueSize:      4,
		Metrics:        m,
		Logger:         logging.Noop(),
	}
}

func TestRadarRunnerAppliesEventsInArrivalOrder(t *testing.T) {
	t.Parallel()
	store := fusion.NewStore(logging.Noop())
	metrics := newCountingMetrics()
	clock := timectrl.NewManualClock(t0)

	events := []*radarv1.RadarTarget{
		{ID: "T1", Lat: 1, Lon: 1, BaroAltitude: 500},
		{ID: "T1", Lat: 91, Lon: 1},
		{ID: "T1", Lat: 10, Lon: 20, BaroAltitude: 0, GeoAltitude: 1000, Velocity: 240, Heading: 90, IsFighter: true},
	}
	var opened atomic.Int32
	open := func(ctx context.Context) (Stream[*radarv1.RadarTarget], error) {
		if opened.Add(1) == 1 {
			ch := make(chan *radarv1.RadarTarget, len(events))
			for _, ev := range events {
				ch <- ev
			}
			return &chanStream[*radarv1.RadarTarget]{ctx: ctx, ch: ch}, nil
		}
		return &chanStream[*radarv1.RadarTarget]{ctx: ctx, ch: make(chan *radarv1.RadarTarget)}, nil
	}

	r := NewRunner(SourceRadar, open, RadarApplier(store, clock), fastConfig(metrics))
	runInBackground(t, r.Run)
	waitFor(t, "three radar events", func() bool { return metrics.total() == 3 })

	got, err := store.Get("T1")
	if err != nil {
		t.Fatalf("Get(T1): %v", err)
	}
	wantPos := model.Position{Latitude: 10, Longitude: 20, Altitude: 1000, GeoAltitude: 1000}
	if diff := cmp.Diff(wantPos, got.Position); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
	if got.PlatformHint != PlatformFighter {
		t.Fatalf("platform hint = %q, want %q", got.PlatformHint, PlatformFighter)
	}

	counts, _ := metrics.snapshot()
	want := map[Outcome]int{OutcomeCreated: 1, OutcomeMalformed: 1, OutcomeApplied: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("outcome counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerReconnectsWithoutTouchingStore(t *testing.T) {
	t.Parallel()
	store := fusion.NewStore(logging.Noop())
	metrics := newCountingMetrics()
	apply := RadarApplier(store, timectrl.NewManualClock(t0))

	var opened atomic.Int32
	open := func(ctx context.Context) (Stream[*radarv1.RadarTarget], error) {
		switch opened.Add(1) {
		case 1:
			return &chanStream[*radarv1.RadarTarget]{
				ctx: ctx,
				ch:  closedWith(&radarv1.RadarTarget{ID: "A", Lat: 1, Lon: 2}),
				err: errors.New("connection reset"),
			}, nil
		case 2:
			return nil, errors.New("connection refused")
		case 3:
			return &chanStream[*radarv1.RadarTarget]{
				ctx: ctx,
				ch:  closedWith(&radarv1.RadarTarget{ID: "B", Lat: 3, Lon: 4}),
				err: errors.New("connection reset"),
			}, nil
		default:
			return &chanStream[*radarv1.RadarTarget]{ctx: ctx, ch: make(chan *radarv1.RadarTarget)}, nil
		}
	}

	r := NewRunner(SourceRadar, open, apply, fastConfig(metrics))
	runInBackground(t, r.Run)
	waitFor(t, "fourth subscription", func() bool { return opened.Load() >= 4 })

	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
	a, err := store.Get("A")
	if err != nil {
		t.Fatalf("track from first session lost across reconnect: %v", err)
	}
	if a.Position.Latitude != 1 || a.Position.Longitude != 2 {
		t.Fatalf("track A changed across reconnect: %+v", a.Position)
	}
	_, reconnects := metrics.snapshot()
	if reconnects != 3 {
		t.Fatalf("reconnects = %d, want 3", reconnects)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	t.Parallel()
	open := func(ctx context.Context) (Stream[*radarv1.RadarTarget], error) {
		return &chanStream[*radarv1.RadarTarget]{ctx: ctx, ch: make(chan *radarv1.RadarTarget)}, nil
	}
	r := NewRunner(SourceRadar, open, RadarApplier(fusion.NewStore(nil), nil), fastConfig(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestRunnerStopsWhileBackingOff(t *testing.T) {
	t.Parallel()
	open := func(context.Context) (Stream[*radarv1.RadarTarget], error) {
		return nil, errors.New("producer down")
	}
	cfg := fastConfig(nil)
	cfg.BackoffInitial = time.Hour
	cfg.BackoffMax = time.Hour
	r := NewRunner(SourceRadar, open, RadarApplier(fusion.NewStore(nil), nil), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("Run stuck in backoff after cancel")
	}
}

func TestRadarApplierRejectsMalformed(t *testing.T) {
	t.Parallel()
	apply := RadarApplier(fusion.NewStore(nil), timectrl.NewManualClock(t0))

	for _, tc := range []struct {
		name string
		in   *radarv1.RadarTarget
	}{
		{name: "nil message", in: nil},
		{name: "empty id", in: &radarv1.RadarTarget{Lat: 1, Lon: 1}},
		{name: "latitude above range", in: &radarv1.RadarTarget{ID: "X", Lat: 90.5}},
		{name: "longitude below range", in: &radarv1.RadarTarget{ID: "X", Lon: -180.1}},
		{name: "nan latitude", in: &radarv1.RadarTarget{ID: "X", Lat: math.NaN()}},
		{name: "infinite baro altitude", in: &radarv1.RadarTarget{ID: "X", BaroAltitude: math.Inf(1)}},
		{name: "negative velocity", in: &radarv1.RadarTarget{ID: "X", Velocity: -1}},
		{name: "heading above range", in: &radarv1.RadarTarget{ID: "X", Heading: 360.5}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			outcome, err := apply(context.Background(), tc.in)
			if !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("err = %v, want ErrMalformedEvent", err)
			}
			if outcome != OutcomeMalformed {
				t.Fatalf("outcome = %q, want %q", outcome, OutcomeMalformed)
			}
		})
	}
}

func TestRadarApplierAcceptsBoundaryValues(t *testing.T) {
	t.Parallel()
	store := fusion.NewStore(nil)
	apply := RadarApplier(store, timectrl.NewManualClock(t0))

	outcome, err := apply(context.Background(), &radarv1.RadarTarget{ID: "edge", Lat: -90, Lon: 180, Heading: 360})
	if err != nil || outcome != OutcomeCreated {
		t.Fatalf("apply = (%q, %v), want (created, nil)", outcome, err)
	}
}

func TestIFFApplierOutcomes(t *testing.T) {
	t.Parallel()
	store := fusion.NewStore(nil)
	clock := timectrl.NewManualClock(t0)
	if _, _, err := store.UpsertRadar(fusion.RadarUpdate{ID: "T1", Latitude: 10, Longitude: 20, BaroAltitude: 1000}, t0); err != nil {
		t.Fatalf("seed radar: %v", err)
	}
	apply := IFFApplier(store, clock)

	outcome, err := apply(context.Background(), &iffv1.IFFStreamResponse{Data: &iffv1.IFFData{ID: "GHOST", Status: "friend"}})
	if !errors.Is(err, ErrUncorrelated) || outcome != OutcomeUncorrelated {
		t.Fatalf("uncorrelated apply = (%q, %v)", outcome, err)
	}
	if _, err := store.Get("GHOST"); !errors.Is(err, fusion.ErrTrackNotFound) {
		t.Fatalf("IFF created a track: %v", err)
	}

	outcome, err = apply(context.Background(), &iffv1.IFFStreamResponse{})
	if !errors.Is(err, ErrMalformedEvent) || outcome != OutcomeMalformed {
		t.Fatalf("empty envelope apply = (%q, %v)", outcome, err)
	}

	clock.Advance(time.Second)
	outcome, err = apply(context.Background(), &iffv1.IFFStreamResponse{Data: &iffv1.IFFData{ID: "T1", Callsign: "AB07", Lat: 10, Lon: 20, Status: "friend"}})
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("correlated apply = (%q, %v)", outcome, err)
	}
	got, _ := store.Get("T1")
	if got.Identification != model.IdentificationFriend || got.IdentificationSource != model.IdentificationSourceIFF || got.Callsign != "AB07" {
		t.Fatalf("fused track = %+v", got)
	}
	if got.Position.Altitude != 1000 {
		t.Fatalf("IFF moved the track: altitude %v", got.Position.Altitude)
	}
}
