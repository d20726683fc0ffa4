package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/geocoder89/jobtracker/internal/cache"
	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/geocoder89/jobtracker/internal/utils"
)

// Counter is the slice of the job record store the reporter needs.
type Counter interface {
	CountByStatus(ctx context.Context, ownerID string) (map[string]int, error)
}

// Reporter aggregates an owner's job records by status. Results are cached per
// owner under a generation number that every write bumps, so a fill that raced
// a write lands on a key nobody reads. Any cache failure falls through to the store.
type Reporter struct {
	counter Counter
	cache   cache.Store
	prom    *observability.Prom

	mu sync.Mutex
	// owners whose last bump failed; the cache is bypassed for them until a retry succeeds
	pending map[string]struct{}
}

func NewReporter(counter Counter, store cache.Store, prom *observability.Prom) *Reporter {
	return &Reporter{
		counter: counter,
		cache:   store,
		prom:    prom,
		pending: make(map[string]struct{}),
	}
}

func (r *Reporter) CountsByStatus(ctx context.Context, ownerID string) (job.StatusCounts, error) {
	// the generation is read before counting: a write after this point bumps it
	key, cacheable := r.cacheKey(ctx, ownerID)

	if cacheable {
		if counts, ok := r.fromCache(ctx, key); ok {
			return counts, nil
		}
	}

	groups, err := r.counter.CountByStatus(ctx, ownerID)
	if err != nil {
		return job.StatusCounts{}, fmt.Errorf("count by status: %w", err)
	}

	counts := job.CountsFromGroups(groups)

	if cacheable {
		b, _ := json.Marshal(counts)
		if err := r.cache.Set(ctx, key, b); err != nil {
			slog.Default().WarnContext(ctx, "stats.cache_set_failed", "err", err)
		}
	}

	return counts, nil
}

// Invalidate bumps ownerID's generation. When the cache is unreachable the owner
// is remembered and the bump is retried before its counts are read from cache again.
func (r *Reporter) Invalidate(ctx context.Context, ownerID string) {
	if r == nil || r.cache == nil {
		return
	}

	r.bump(ctx, ownerID)
}

func (r *Reporter) bump(ctx context.Context, ownerID string) bool {
	_, err := r.cache.Incr(ctx, utils.StatsGenerationKey(ownerID))

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.pending[ownerID] = struct{}{}
		slog.Default().WarnContext(ctx, "stats.cache_invalidate_failed", "err", err)
		return false
	}

	delete(r.pending, ownerID)
	return true
}

func (r *Reporter) isPending(ownerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[ownerID]
	return ok
}

// cacheKey returns the key for ownerID's current generation, or false when the
// cache must not be used for this read.
func (r *Reporter) cacheKey(ctx context.Context, ownerID string) (string, bool) {
	if r.cache == nil {
		return "", false
	}

	if r.isPending(ownerID) && !r.bump(ctx, ownerID) {
		return "", false
	}

	b, ok, err := r.cache.Get(ctx, utils.StatsGenerationKey(ownerID))
	if err != nil {
		r.prom.RecordStatsCache("error")
		slog.Default().WarnContext(ctx, "stats.cache_get_failed", "err", err)
		return "", false
	}

	var gen int64
	if ok {
		gen, err = strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			r.prom.RecordStatsCache("error")
			return "", false
		}
	}

	return utils.StatsCacheKey(ownerID, gen), true
}

func (r *Reporter) fromCache(ctx context.Context, key string) (job.StatusCounts, bool) {
	b, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.prom.RecordStatsCache("error")
		slog.Default().WarnContext(ctx, "stats.cache_get_failed", "err", err)
		return job.StatusCounts{}, false
	}

	if !ok {
		r.prom.RecordStatsCache("miss")
		return job.StatusCounts{}, false
	}

	var counts job.StatusCounts
	if err := json.Unmarshal(b, &counts); err != nil {
		r.prom.RecordStatsCache("error")
		return job.StatusCounts{}, false
	}

	r.prom.RecordStatsCache("hit")
	return counts, true
}
