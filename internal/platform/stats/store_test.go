package stats

import (
	"reflect"
	"sync"
	"testing"
)

func TestMemoryStoreRegisterKeepsExistingCounts(t *testing.T) {
	store := NewMemoryStore()
	store.Increment(2)
	store.Register(1, 2, 3)

	counts, total := store.Snapshot()
	want := map[int]int{1: 0, 2: 1, 3: 0}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("expected %v, got %v", want, counts)
	}
	if total != 1 {
		t.Fatalf("expected total 1, got %d", total)
	}
	if avg := store.Average(); avg < 0.333 || avg > 0.334 {
		t.Fatalf("expected average 1/3, got %f", avg)
	}
}

func TestMemoryStoreAverageEmpty(t *testing.T) {
	if avg := NewMemoryStore().Average(); avg != 0 {
		t.Fatalf("expected zero average for empty store, got %f", avg)
	}
}

func TestMemoryStoreConcurrentIncrementsAreNotLost(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				store.Increment(7)
			}
		}()
	}
	wg.Wait()
	if got := store.Count(7); got != 1000 {
		t.Fatalf("expected 1000 increments, got %d", got)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()
	store.Increment(1)
	store.Reset()
	counts, total := store.Snapshot()
	if len(counts) != 0 || total != 0 {
		t.Fatalf("expected empty snapshot after reset, got %v total=%d", counts, total)
	}
}
