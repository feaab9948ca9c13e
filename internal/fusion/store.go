// Package fusion holds the authoritative fused track table. It correlates
// radar and IFF observations by track identifier and enforces the
// identification precedence ratchet (MANUAL > IFF > NONE).
package fusion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/model"
)

var (
	// ErrTrackNotFound indicates the requested track is not in the store.
	ErrTrackNotFound = errors.New("track not found")
	// ErrInvalidTrackID indicates an empty track identifier.
	ErrInvalidTrackID = errors.New("invalid track id")
	// ErrInvalidIdentification indicates an identification outside the enum.
	ErrInvalidIdentification = errors.New("invalid identification")
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 32

// MutationKind describes what produced a committed change.
type MutationKind int

const (
	MutationCreated MutationKind = iota
	MutationRadar
	MutationIFF
	MutationManual
	MutationRelease
	MutationEvicted
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreated:
		return "created"
	case MutationRadar:
		return "radar"
	case MutationIFF:
		return "iff"
	case MutationManual:
		return "manual"
	case MutationRelease:
		return "release"
	case MutationEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Mutation is delivered to observers after a change has been committed.
// Track is the committed record (or, for evictions, the last record held).
type Mutation struct {
	Kind  MutationKind
	Track model.Track
}

// Observer receives committed mutations. Observers run on the mutating
// goroutine after the shard lock is released and must not block.
type Observer func(Mutation)

// MetricsRecorder receives track table statistics.
type MetricsRecorder interface {
	SetTrackCount(n int)
	AddEvictions(n int)
}

// Option customises Store construction.
type Option func(*Store)

// WithShards sets the number of lock stripes. Values below 1 fall back to
// DefaultShards.
func WithShards(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// WithEvictionTTL sets how long a track may go without updates before the
// sweep removes it. A TTL <= 0 disables eviction.
func WithEvictionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithEvictManual controls whether tracks under a manual identification are
// eligible for eviction.
func WithEvictManual(evict bool) Option {
	return func(s *Store) {
		s.evictManual = evict
	}
}

// WithMetricsRecorder attaches an optional recorder for track statistics.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

type shard struct {
	mu     sync.RWMutex
	tracks map[string]*model.Track
}

// Store is a lock-striped map from track ID to an immutable track record.
//
// Every mutation of a track happens under its shard's write lock as a
// read-modify-replace of the record pointer, so the precedence check and the
// write are atomic with respect to other writers of the same track. Tracks in
// different shards never contend.
type Store struct {
	shardCount int
	shards     []*shard
	count      atomic.Int64

	ttl         time.Duration
	evictManual bool

	log     logging.Logger
	metrics MetricsRecorder

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObsID int
}

// NewStore constructs an empty Store.
func NewStore(log logging.Logger, opts ...Option) *Store {
	if log == nil {
		log = logging.Noop()
	}
	s := &Store{
		shardCount:  DefaultShards,
		evictManual: true,
		log:         log,
		observers:   make(map[int]Observer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.shardCount < 1 {
		s.shardCount = DefaultShards
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{tracks: make(map[string]*model.Track)}
	}
	s.recordCount(0)
	return s
}

// Subscribe registers an observer for committed mutations. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// UpsertRadar applies a radar observation, creating the track on first
// sight. It reports whether the track was created. The only error is
// ErrInvalidTrackID for an empty ID.
func (s *Store) UpsertRadar(u RadarUpdate, now time.Time) (model.Track, bool, error) {
	if u.ID == "" {
		return model.Track{}, false, ErrInvalidTrackID
	}
	tr, kind, err := s.mutate(u.ID, func(prev *model.Track) (*model.Track, MutationKind, error) {
		if prev == nil {
			return applyRadar(nil, u, now), MutationCreated, nil
		}
		return applyRadar(prev, u, now), MutationRadar, nil
	})
	if err != nil {
		return model.Track{}, false, err
	}
	if kind == MutationCreated {
		s.log.Debug(context.Background(), "track created",
			logging.String("track_id", u.ID),
			logging.String("platform_hint", u.PlatformHint),
		)
	}
	return tr, kind == MutationCreated, nil
}

// UpsertIFF applies an IFF observation to an existing track. IFF never
// creates tracks: an unknown ID yields ErrTrackNotFound and no change. The
// identification is only replaced when the current source does not outrank
// IFF.
func (s *Store) UpsertIFF(u IFFUpdate, now time.Time) (model.Track, error) {
	if u.ID == "" {
		return model.Track{}, ErrInvalidTrackID
	}
	tr, _, err := s.mutate(u.ID, func(prev *model.Track) (*model.Track, MutationKind, error) {
		if prev == nil {
			return nil, 0, ErrTrackNotFound
		}
		return applyIFF(prev, u, now), MutationIFF, nil
	})
	return tr, err
}

// SetManualIdentification applies an operator override. It never creates a
// track.
func (s *Store) SetManualIdentification(id string, ident model.Identification, now time.Time) (model.Track, error) {
	if id == "" {
		return model.Track{}, ErrInvalidTrackID
	}
	if !ident.Valid() {
		return model.Track{}, fmt.Errorf("%w: %d", ErrInvalidIdentification, int(ident))
	}
	tr, _, err := s.mutate(id, func(prev *model.Track) (*model.Track, MutationKind, error) {
		if prev == nil {
			return nil, 0, ErrTrackNotFound
		}
		return applyManual(prev, ident, now), MutationManual, nil
	})
	if err == nil {
		s.log.Info(context.Background(), "manual identification applied",
			logging.String("track_id", id),
			logging.String("identification", ident.String()),
		)
	}
	return tr, err
}

// ReleaseManualIdentification is the explicit re-automation action: a manual
// override is cleared back to UNKNOWN/NONE so IFF may classify the track
// again. Tracks without an override are returned unchanged.
func (s *Store) ReleaseManualIdentification(id string, now time.Time) (model.Track, error) {
	if id == "" {
		return model.Track{}, ErrInvalidTrackID
	}
	tr, _, err := s.mutate(id, func(prev *model.Track) (*model.Track, MutationKind, error) {
		if prev == nil {
			return nil, 0, ErrTrackNotFound
		}
		return applyRelease(prev, now), MutationRelease, nil
	})
	return tr, err
}

// Get returns a point-in-time copy of the track.
func (s *Store) Get(id string) (model.Track, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	tr := sh.tracks[id]
	sh.mu.RUnlock()

	if tr == nil {
		return model.Track{}, ErrTrackNotFound
	}
	return *tr, nil
}

// List returns a copy of every track, sorted by ID. Shards are visited one at
// a time, so the result is not a single atomic cut of the table, but every
// record in it is internally consistent.
func (s *Store) List() []model.Track {
	out := make([]model.Track, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, tr := range sh.tracks {
			out = append(out, *tr)
		}
		sh.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b model.Track) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of live tracks.
func (s *Store) Len() int {
	return int(s.count.Load())
}

// mutate runs fn under the shard lock for id and commits its result as a
// single pointer replacement. Returning prev unchanged commits nothing and
// notifies nobody.
func (s *Store) mutate(id string, fn func(prev *model.Track) (*model.Track, MutationKind, error)) (model.Track, MutationKind, error) {
	sh := s.shardFor(id)

	sh.mu.Lock()
	prev := sh.tracks[id]
	next, kind, err := fn(prev)
	if err != nil {
		sh.mu.Unlock()
		return model.Track{}, kind, err
	}
	changed := next != prev
	if changed {
		sh.tracks[id] = next
	}
	// The count moves with the map under the shard lock; Evict can only
	// remove a track after its increment, so Len never goes negative.
	n := -1
	if prev == nil {
		n = int(s.count.Add(1))
	}
	sh.mu.Unlock()

	if n >= 0 {
		s.recordCount(n)
	}
	if changed {
		s.notify(Mutation{Kind: kind, Track: *next})
	}
	return *next, kind, nil
}

func (s *Store) shardFor(id string) *shard {
	return s.shards[xxhash.Sum64String(id)%uint64(len(s.shards))]
}

func (s *Store) notify(m Mutation) {
	s.obsMu.RLock()
	if len(s.observers) == 0 {
		s.obsMu.RUnlock()
		return
	}
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.obsMu.RUnlock()

	for _, fn := range obs {
		fn(m)
	}
}

func (s *Store) recordCount(n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetTrackCount(n)
}
