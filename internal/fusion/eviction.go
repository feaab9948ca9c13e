package fusion

import (
	"context"
	"slices"
	"time"

	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/model"
	"github.com/signalsfoundry/datalink-fusion/timectrl"
)

// TTL returns the configured eviction TTL.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Evict removes every track that has not been updated for longer than the
// TTL as of now, returning the removed IDs in sorted order. Shards are swept
// one at a time so ingestion into other shards continues meanwhile.
func (s *Store) Evict(now time.Time) []string {
	if s.ttl <= 0 {
		return nil
	}

	var evicted []model.Track
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		removed := 0
		for id, tr := range sh.tracks {
			if !s.expired(tr, now) {
				continue
			}
			delete(sh.tracks, id)
			evicted = append(evicted, *tr)
			removed++
		}
		if removed > 0 {
			n = int(s.count.Add(-int64(removed)))
		}
		sh.mu.Unlock()
	}
	if len(evicted) == 0 {
		return nil
	}

	s.recordCount(n)
	if s.metrics != nil {
		s.metrics.AddEvictions(len(evicted))
	}

	ids := make([]string, 0, len(evicted))
	for _, tr := range evicted {
		ids = append(ids, tr.ID)
		s.notify(Mutation{Kind: MutationEvicted, Track: tr})
	}
	slices.Sort(ids)
	return ids
}

func (s *Store) expired(tr *model.Track, now time.Time) bool {
	if now.Sub(tr.UpdatedAt) <= s.ttl {
		return false
	}
	if !s.evictManual && tr.IdentificationSource == model.IdentificationSourceManual {
		return false
	}
	return true
}

// RunEviction sweeps the store every interval until ctx is cancelled. It is
// a no-op when eviction is disabled.
func (s *Store) RunEviction(ctx context.Context, clock timectrl.Clock, interval time.Duration) {
	if ctx == nil || s.ttl <= 0 {
		return
	}
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	if interval <= 0 {
		interval = s.ttl / 2
		if interval <= 0 {
			interval = time.Second
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info(ctx, "eviction sweep started",
		logging.Duration("ttl", s.ttl),
		logging.Duration("interval", interval),
		logging.Bool("evict_manual", s.evictManual),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := s.Evict(clock.Now()); len(ids) > 0 {
				s.log.Info(ctx, "evicted stale tracks",
					logging.Int("count", len(ids)),
					logging.Int("remaining", s.Len()),
				)
			}
		}
	}
}
