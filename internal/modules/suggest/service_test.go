// README: Sampling tests (bounds, uniqueness, deterministic seed behaviour).
package suggest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"concierge/internal/catalog"
)

type fakeSearch struct {
	ids  []string
	err  error
	size int
}

func (f *fakeSearch) CandidatesByCuisine(_ context.Context, _ string, size int) ([]string, error) {
	f.size = size
	return f.ids, f.err
}

type fakeEntries struct {
	gotIDs []string
}

func (f *fakeEntries) BatchGet(_ context.Context, ids []string) ([]catalog.Restaurant, error) {
	f.gotIDs = ids
	out := make([]catalog.Restaurant, len(ids))
	for i, id := range ids {
		out[i] = catalog.Restaurant{BusinessID: id}
	}
	return out, nil
}

func idPool(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("r%02d", i)
	}
	return out
}

func TestPickSamplesAtMostMaxPicks(t *testing.T) {
	search := &fakeSearch{ids: idPool(20)}
	entries := &fakeEntries{}
	svc := NewService(search, entries, 20, 3, rand.New(rand.NewSource(1)))

	got, err := svc.Pick(context.Background(), "japanese")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("picked %d entries, want 3", len(got))
	}
	if search.size != 20 {
		t.Fatalf("pool size requested = %d, want 20", search.size)
	}
}

func TestPickReturnsFewerWhenPoolIsSmall(t *testing.T) {
	svc := NewService(&fakeSearch{ids: idPool(2)}, &fakeEntries{}, 20, 3, rand.New(rand.NewSource(1)))
	got, err := svc.Pick(context.Background(), "japanese")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("picked %d entries, want 2", len(got))
	}
}

func TestPickEmptyPoolIsNotAnError(t *testing.T) {
	entries := &fakeEntries{}
	svc := NewService(&fakeSearch{}, entries, 20, 3, nil)
	got, err := svc.Pick(context.Background(), "japanese")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %v, want nil", got)
	}
	if entries.gotIDs != nil {
		t.Fatal("batch get called for empty pool")
	}
}

func TestPickPropagatesSearchError(t *testing.T) {
	svc := NewService(&fakeSearch{err: errors.New("cluster red")}, &fakeEntries{}, 20, 3, nil)
	if _, err := svc.Pick(context.Background(), "japanese"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSampleDistinctAndWithinPool(t *testing.T) {
	pool := idPool(10)
	inPool := make(map[string]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}

	svc := NewService(nil, nil, 20, 3, rand.New(rand.NewSource(42)))
	for i := 0; i < 50; i++ {
		chosen := svc.sample(pool, 3)
		if len(chosen) != 3 {
			t.Fatalf("round %d: len = %d", i, len(chosen))
		}
		seen := map[string]bool{}
		for _, id := range chosen {
			if !inPool[id] {
				t.Fatalf("round %d: %s not in pool", i, id)
			}
			if seen[id] {
				t.Fatalf("round %d: duplicate %s", i, id)
			}
			seen[id] = true
		}
	}
}

func TestSampleDoesNotModifyInput(t *testing.T) {
	pool := idPool(10)
	orig := make([]string, len(pool))
	copy(orig, pool)

	svc := NewService(nil, nil, 20, 3, rand.New(rand.NewSource(7)))
	svc.sample(pool, 3)

	for i := range pool {
		if pool[i] != orig[i] {
			t.Fatalf("input modified at %d: %s != %s", i, pool[i], orig[i])
		}
	}
}
