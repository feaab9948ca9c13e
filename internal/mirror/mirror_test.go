package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/model"
)

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type memSink struct {
	mu    sync.Mutex
	docs  []Document
	err   error
	block chan struct{}
}

func (s *memSink) Write(ctx context.Context, doc Document) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) written() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Document(nil), s.docs...)
}

type outcomeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *outcomeCounter) ObserveMirrorWrite(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[outcome]++
}

func (c *outcomeCounter) get(outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[outcome]
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

func startMirror(t *testing.T, m *Mirror) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDocumentFromMutation(t *testing.T) {
	t.Parallel()
	m := fusion.Mutation{Kind: fusion.MutationIFF, Track: model.Track{
		ID:                   "T1",
		Callsign:             "AB07",
		Position:             model.Position{Latitude: 10, Longitude: 20, Altitude: 1000, BaroAltitude: 1000, GeoAltitude: 980},
		Kinematics:           model.Kinematics{Speed: 240, Heading: 90},
		Identification:       model.IdentificationFriend,
		IdentificationSource: model.IdentificationSourceIFF,
		UpdatedAt:            t0,
	}}
	want := Document{
		TrackID:      "T1",
		Kind:         "iff",
		Callsign:     "AB07",
		Affiliation:  "FRIEND",
		Source:       "IFF",
		Lat:          10,
		Lon:          20,
		Velocity:     240,
		BaroAltitude: 1000,
		GeoAltitude:  980,
		Timestamp:    t0,
	}
	if diff := cmp.Diff(want, DocumentFromMutation(m)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestMirrorWritesStoreMutations(t *testing.T) {
	t.Parallel()
	sink := &memSink{}
	metrics := &outcomeCounter{}
	m := New(sink, Options{Metrics: metrics, Logger: logging.Noop()})
	startMirror(t, m)

	store := fusion.NewStore(nil, fusion.WithEvictionTTL(time.Second))
	store.Subscribe(m.Observe)

	_, _, _ = store.UpsertRadar(fusion.RadarUpdate{ID: "T1", Latitude: 10, Longitude: 20, BaroAltitude: 1000}, t0)
	_, _ = store.UpsertIFF(fusion.IFFUpdate{ID: "T1", Callsign: "AB07", Latitude: 10, Longitude: 20, Status: "friend"}, t0)
	_ = store.Evict(t0.Add(time.Hour))

	waitFor(t, "two written documents", func() bool { return metrics.get(OutcomeWritten) == 2 })
	docs := sink.written()
	if docs[0].Kind != "created" || docs[1].Kind != "iff" || docs[1].Affiliation != "FRIEND" {
		t.Fatalf("unexpected documents: %+v", docs)
	}

	// Eviction is not mirrored.
	time.Sleep(20 * time.Millisecond)
	if n := len(sink.written()); n != 2 {
		t.Fatalf("mirrored %d documents, want 2", n)
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	t.Parallel()
	sink := &memSink{block: make(chan struct{})}
	metrics := &outcomeCounter{}
	m := New(sink, Options{QueueSize: 2, WriteTimeout: time.Minute, Metrics: metrics})

	// Without a worker the queue fills and further documents are dropped
	// without blocking the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			m.Enqueue(Document{TrackID: "T1"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked on a full queue")
	}
	if got := metrics.get(OutcomeDropped); got != 3 {
		t.Fatalf("dropped = %d, want 3", got)
	}
}

func TestWriteFailuresAreCountedNotFatal(t *testing.T) {
	t.Parallel()
	sink := &memSink{err: errors.New("backend down")}
	metrics := &outcomeCounter{}
	m := New(sink, Options{Metrics: metrics})
	startMirror(t, m)

	m.Enqueue(Document{TrackID: "A"})
	m.Enqueue(Document{TrackID: "B"})
	waitFor(t, "two failures", func() bool { return metrics.get(OutcomeFailed) == 2 })
}

func TestWriteTimeoutBoundsSlowSink(t *testing.T) {
	t.Parallel()
	sink := &memSink{block: make(chan struct{})}
	metrics := &outcomeCounter{}
	m := New(sink, Options{WriteTimeout: 10 * time.Millisecond, Metrics: metrics})
	startMirror(t, m)

	m.Enqueue(Document{TrackID: "slow"})
	waitFor(t, "timed out write", func() bool { return metrics.get(OutcomeFailed) == 1 })
}

func TestOpenBackends(t *testing.T) {
	t.Parallel()

	if s, err := Open(Config{Backend: "none"}); err != nil || s != nil {
		t.Fatalf("Open(none) = (%v, %v), want (nil, nil)", s, err)
	}
	if _, err := Open(Config{Backend: "kafka"}); err == nil {
		t.Fatalf("Open(kafka) should fail")
	}
	if _, err := Open(Config{Backend: BackendInflux}); err == nil {
		t.Fatalf("Open(influx) without url should fail")
	}
	if _, err := Open(Config{Backend: BackendRedis}); err == nil {
		t.Fatalf("Open(redis) without addr should fail")
	}

	s, err := Open(Config{Backend: BackendSQLite, SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	if _, ok := s.(*SQLiteSink); !ok {
		t.Fatalf("Open(sqlite) returned %T", s)
	}
	_ = s.Close()
}
