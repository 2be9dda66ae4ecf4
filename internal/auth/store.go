package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/metrics"
	"github.com/brimtide/vlesstund/internal/shared/constants"
)

const mergedCacheKey = "merged"

// Store is the tiered UUID authorization cache: L1 (always present), an
// optional L2, and the registered providers behind them. Read order is
// L1 -> L2 -> providers; an L2 hit backfills L1 with the record's
// residual TTL.
type Store struct {
	providers []Provider
	ttl       time.Duration
	logger    *zap.Logger

	l1 *l1Cache
	l2 *l2SQLCache

	mu            sync.Mutex
	l2LastWriteAt map[string]time.Time
}

// NewStore builds a Store over providers, sorted by ascending priority
// once so merge never needs to re-sort per fetch. l2Path == "" disables
// the persistent tier.
func NewStore(providers []Provider, ttl time.Duration, l2Path string, logger *zap.Logger) (*Store, error) {
	sorted := make([]Provider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	s := &Store{
		providers:     sorted,
		ttl:           ttl,
		logger:        logger,
		l1:            newL1Cache(ttl),
		l2LastWriteAt: make(map[string]time.Time),
	}

	if l2Path != "" {
		l2, err := newL2SQLCache(l2Path)
		if err != nil {
			return nil, err
		}
		s.l2 = l2
	}

	return s, nil
}

// Validator returns a UUID -> bool predicate closed over the current
// merged set, per spec.md §4.5 "make_validator". It performs a
// synchronous tiered read; providers are only contacted on a full miss.
func (s *Store) Validator(ctx context.Context) func(uuid string) bool {
	merged := s.readOrFetch(ctx)
	return func(uuid string) bool {
		_, ok := merged[strings.ToLower(uuid)]
		return ok
	}
}

// Refresh clears the merged entry and forces a provider re-fetch.
func (s *Store) Refresh(ctx context.Context) map[string]string {
	s.l1.delete(mergedCacheKey)
	if s.l2 != nil {
		_ = s.l2.delete(mergedCacheKey)
	}
	return s.readOrFetch(ctx)
}

// Snapshot returns the current merged map without forcing a refresh,
// for the /api/uuids admin endpoint.
func (s *Store) Snapshot(ctx context.Context) map[string]string {
	return s.readOrFetch(ctx)
}

func (s *Store) readOrFetch(ctx context.Context) map[string]string {
	if m, ok := s.l1.get(mergedCacheKey); ok {
		metrics.AuthCacheHits.WithLabelValues("l1").Inc()
		return m
	}

	if s.l2 != nil {
		if m, residual, ok := s.l2.get(mergedCacheKey); ok {
			metrics.AuthCacheHits.WithLabelValues("l2").Inc()
			s.l1.set(mergedCacheKey, m, residual)
			return m
		}
	}

	metrics.AuthCacheHits.WithLabelValues("miss").Inc()
	merged := s.fetchAll(ctx)
	s.writeThrough(mergedCacheKey, merged)
	metrics.AuthorizedUUIDCount.Set(float64(len(merged)))
	return merged
}

// fetchAll runs every available provider in parallel (settle-all), then
// folds results in ascending priority order so earlier (lower-priority-
// number) providers win on conflict.
func (s *Store) fetchAll(ctx context.Context) map[string]string {
	type result struct {
		provider Provider
		uuids    []string
	}

	results := make([]result, len(s.providers))
	var wg sync.WaitGroup
	for i, p := range s.providers {
		if !p.IsAvailable() {
			continue
		}
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			uuids, err := p.FetchUUIDs(ctx)
			if err != nil {
				metrics.AuthProviderFailures.WithLabelValues(p.Name()).Inc()
				s.logger.Warn("provider fetch failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				return
			}
			results[i] = result{provider: p, uuids: uuids}
		}(i, p)
	}
	wg.Wait()

	merged := make(map[string]string)
	for _, r := range results {
		if r.provider == nil {
			continue
		}
		for _, u := range r.uuids {
			key := strings.ToLower(u)
			if _, exists := merged[key]; !exists {
				merged[key] = r.provider.Name()
			}
		}
	}
	return merged
}

func (s *Store) writeThrough(key string, value map[string]string) {
	s.l1.set(key, value, s.ttl)

	if s.l2 == nil {
		return
	}

	s.mu.Lock()
	last, ok := s.l2LastWriteAt[key]
	due := !ok || time.Since(last) >= constants.L2WriteInterval
	if due {
		s.l2LastWriteAt[key] = time.Now()
	}
	s.mu.Unlock()

	if !due {
		return
	}
	if err := s.l2.set(key, value, s.ttl); err != nil {
		s.logger.Warn("L2 write failed", zap.Error(err))
	}
}

// Close releases the L2 database handle, if any.
func (s *Store) Close() error {
	if s.l2 != nil {
		return s.l2.close()
	}
	return nil
}
