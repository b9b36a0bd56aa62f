// README: Shared match-and-sample logic: candidate search, uniform sampling, bulk fetch.
package suggest

import (
	"context"
	"math/rand"
	"sync"

	"concierge/internal/catalog"
)

// CandidateSearcher resolves cuisine to an ordered, deduplicated candidate
// ID pool.
type CandidateSearcher interface {
	CandidatesByCuisine(ctx context.Context, cuisine string, size int) ([]string, error)
}

// EntryFetcher bulk-loads full catalog entries for chosen IDs.
type EntryFetcher interface {
	BatchGet(ctx context.Context, ids []string) ([]catalog.Restaurant, error)
}

type Service struct {
	search   CandidateSearcher
	entries  EntryFetcher
	poolSize int
	maxPicks int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService builds the sampler. rng may be nil, in which case the global
// math/rand source seeds selection; tests pass a fixed-seed source.
func NewService(search CandidateSearcher, entries EntryFetcher, poolSize, maxPicks int, rng *rand.Rand) *Service {
	return &Service{
		search:   search,
		entries:  entries,
		poolSize: poolSize,
		maxPicks: maxPicks,
		rng:      rng,
	}
}

// Pick returns up to maxPicks catalog entries for the cuisine: query the
// index for a bounded candidate pool, sample uniformly without replacement,
// fetch the chosen entries. Repeated calls for the same cuisine may return
// different entries; that spread is intentional.
func (s *Service) Pick(ctx context.Context, cuisine string) ([]catalog.Restaurant, error) {
	ids, err := s.search.CandidatesByCuisine(ctx, cuisine, s.poolSize)
	if err != nil {
		return nil, err
	}
	chosen := s.sample(ids, s.maxPicks)
	if len(chosen) == 0 {
		return nil, nil
	}
	return s.entries.BatchGet(ctx, chosen)
}

// sample draws k distinct elements uniformly at random, fewer when the pool
// is smaller. The input slice is not modified.
func (s *Service) sample(ids []string, k int) []string {
	if len(ids) == 0 || k <= 0 {
		return nil
	}
	if k > len(ids) {
		k = len(ids)
	}
	pool := make([]string, len(ids))
	copy(pool, ids)

	s.mu.Lock()
	if s.rng != nil {
		s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	} else {
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	s.mu.Unlock()

	return pool[:k]
}
