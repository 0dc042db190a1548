package services

import (
	"errors"
	"math"
	"testing"

	"github.com/jooyeonthemaster/book/internal/catalog"
	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/platform/stats"
)

func newTestCatalog(t *testing.T, pairs ...Pair) *catalog.Catalog {
	t.Helper()
	books := make([]domain.Book, 0, len(pairs))
	fragrances := make([]domain.Fragrance, 0, len(pairs))
	for _, pair := range pairs {
		books = append(books, pair.Book)
		fragrances = append(fragrances, pair.Fragrance)
	}
	c, err := catalog.New(books, fragrances)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func pairOf(id int, category domain.Category, intensity domain.Intensity) Pair {
	return Pair{
		Book:      Book{ID: id, Title: "book"},
		Fragrance: Fragrance{ID: id * 10, BookID: id, LiteraryName: "scent", Category: category, Intensity: intensity},
	}
}

func TestSelectorPicksExampleWinnerAndIncrements(t *testing.T) {
	fb, ff := floralBook()
	wb, wf := woodyBook()
	store := stats.NewMemoryStore()
	selector, err := NewSelector(newTestCatalog(t, Pair{Book: wb, Fragrance: wf}, Pair{Book: fb, Fragrance: ff}), store)
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	selection, err := selector.Select(examplePreferences())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if selection.Winner.Book.ID != fb.ID {
		t.Fatalf("expected floral book to win, got %d", selection.Winner.Book.ID)
	}
	if len(selection.Alternatives) != 1 || selection.Alternatives[0].Book.ID != wb.ID {
		t.Fatalf("expected woody book as the only alternative, got %+v", selection.Alternatives)
	}

	counts, total := store.Snapshot()
	if counts[ff.ID] != 1 || counts[wf.ID] != 0 || total != 1 {
		t.Fatalf("expected only the winner to be counted, got %v", counts)
	}
}

func TestSelectorEmptyCatalogIsConfigurationError(t *testing.T) {
	selector, err := NewSelector(newTestCatalog(t), stats.NewMemoryStore())
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	if _, err := selector.Select(examplePreferences()); !errors.Is(err, ErrRecommendationCatalogEmpty) {
		t.Fatalf("expected ErrRecommendationCatalogEmpty, got %v", err)
	}

	books := []domain.Book{{ID: 1, Title: "lonely"}}
	c, err := catalog.New(books, nil)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	selector, _ = NewSelector(c, stats.NewMemoryStore())
	if _, err := selector.Select(examplePreferences()); !errors.Is(err, ErrRecommendationCatalogEmpty) {
		t.Fatalf("expected ErrRecommendationCatalogEmpty for unpaired books, got %v", err)
	}
}

func TestSelectorTiesKeepCatalogOrder(t *testing.T) {
	c := newTestCatalog(t,
		pairOf(1, domain.CategoryMusk, domain.IntensityMedium),
		pairOf(2, domain.CategoryMusk, domain.IntensityMedium),
		pairOf(3, domain.CategoryMusk, domain.IntensityMedium),
	)
	store := stats.NewMemoryStore()
	selector, _ := NewSelector(c, store)

	first, err := selector.Select(UserPreferences{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if first.Winner.Book.ID != 1 {
		t.Fatalf("expected first catalog entry to win the tie, got %d", first.Winner.Book.ID)
	}

	second, _ := selector.Select(UserPreferences{})
	if second.Winner.Book.ID != 2 {
		t.Fatalf("expected rotation to the next least used pair, got %d", second.Winner.Book.ID)
	}
	third, _ := selector.Select(UserPreferences{})
	if third.Winner.Book.ID != 3 {
		t.Fatalf("expected rotation to the third pair, got %d", third.Winner.Book.ID)
	}
}

func TestSelectorAlternativesUseRawScores(t *testing.T) {
	c := newTestCatalog(t,
		pairOf(1, domain.CategoryWoody, domain.IntensityMedium),
		pairOf(2, domain.CategoryFloral, domain.IntensityLight),
		pairOf(3, domain.CategoryMusk, domain.IntensityMedium),
		pairOf(4, domain.CategoryCitrus, domain.IntensityStrong),
		pairOf(5, domain.CategoryLeather, domain.IntensityStrong),
	)
	store := stats.NewMemoryStore()
	store.Register(10, 20, 30, 40, 50)
	for i := 0; i < 50; i++ {
		store.Increment(10)
	}
	selector, _ := NewSelector(c, store)

	selection, err := selector.Select(UserPreferences{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	// Book 1 leads on raw score (35) but every other fragrance gets a bonus of 20, so book 3 (20 + 20) wins.
	if selection.Winner.Book.ID != 3 {
		t.Fatalf("expected book 3 to win after balancing, got %d", selection.Winner.Book.ID)
	}
	if len(selection.Alternatives) != 3 {
		t.Fatalf("expected three alternatives, got %d", len(selection.Alternatives))
	}
	wantOrder := []int{1, 2, 4}
	for i, alt := range selection.Alternatives {
		if alt.Book.ID != wantOrder[i] {
			t.Fatalf("expected alternative %d to be book %d, got %d", i, wantOrder[i], alt.Book.ID)
		}
	}
	for _, alt := range selection.Alternatives {
		if alt.Book.ID == selection.Winner.Book.ID {
			t.Fatalf("alternatives must not contain the winner")
		}
	}
}

func TestSelectorAveragesOverWholeCatalogAfterExternalIncrement(t *testing.T) {
	c := newTestCatalog(t,
		pairOf(4, domain.CategoryMusk, domain.IntensityMedium),
		pairOf(1, domain.CategoryMusk, domain.IntensityMedium),
		pairOf(2, domain.CategoryMusk, domain.IntensityMedium),
		pairOf(3, domain.CategoryMusk, domain.IntensityMedium),
	)
	store := stats.NewMemoryStore()
	// an external recommendation counted fragrance 40 on an otherwise untouched store
	store.Increment(40)
	selector, _ := NewSelector(c, store)

	selection, err := selector.Select(UserPreferences{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if selection.Winner.Book.ID != 1 {
		t.Fatalf("expected the first unused pair to win, got %d", selection.Winner.Book.ID)
	}
	// average 1/4 over all four catalog fragrances, so an unused one gets (0.25 - 0) * 2
	if bonus := selection.AdjustedScore - selection.RawScore; math.Abs(bonus-0.5) > 1e-9 {
		t.Fatalf("expected bonus 0.5, got %v", bonus)
	}
	counts, total := store.Snapshot()
	if len(counts) != 4 || counts[40] != 1 || counts[10] != 1 || total != 2 {
		t.Fatalf("expected all catalog fragrances tracked, got %v", counts)
	}
}

func TestDistributionBalancerMonotonic(t *testing.T) {
	store := stats.NewMemoryStore()
	store.Register(1, 2, 3)
	store.Increment(2)
	store.Increment(2)
	store.Increment(3)
	balancer := NewDistributionBalancer(store)

	if got := balancer.Bonus(1); got != 2 {
		t.Fatalf("expected bonus 2 for unused fragrance, got %v", got)
	}
	if got := balancer.Bonus(2); got != 0 {
		t.Fatalf("expected no bonus for overused fragrance, got %v", got)
	}
	if balancer.Adjust(1, 50) < balancer.Adjust(3, 50) {
		t.Fatalf("expected less used fragrance to score at least as high")
	}
	if got := NewDistributionBalancer(stats.NewMemoryStore()).Adjust(9, 99.5); got != 99.5 {
		t.Fatalf("expected no adjustment with empty stats, got %v", got)
	}
	if got := balancer.Adjust(1, 99); got != 101 {
		t.Fatalf("expected unclamped adjusted score 101, got %v", got)
	}
}
