package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jooyeonthemaster/book/internal/domain"
)

type stubObjectReader struct {
	data   []byte
	err    error
	bucket string
	object string
}

func (s *stubObjectReader) Read(_ context.Context, bucket, object string) ([]byte, error) {
	s.bucket = bucket
	s.object = object
	return s.data, s.err
}

func TestLoadEmbeddedPairsEveryBook(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	books, fragrances := c.Counts()
	if books == 0 || books != fragrances {
		t.Fatalf("expected matching non-zero counts, got books=%d fragrances=%d", books, fragrances)
	}
	pairs := c.Pairs()
	if len(pairs) != books {
		t.Fatalf("expected %d pairs, got %d", books, len(pairs))
	}
	for i, pair := range pairs {
		if pair.Fragrance.BookID != pair.Book.ID {
			t.Fatalf("pair %d: fragrance %d points at book %d, paired with %d", i, pair.Fragrance.ID, pair.Fragrance.BookID, pair.Book.ID)
		}
		if pair.Book.Quote == "" || len(pair.Book.Keywords) == 0 {
			t.Fatalf("expected quote and keywords for book %d", pair.Book.ID)
		}
	}
	if pairs[0].Book.ID != 1 {
		t.Fatalf("expected book order to be preserved, got first id %d", pairs[0].Book.ID)
	}
}

func TestLoadRejectsBrokenPairing(t *testing.T) {
	doc := `
books:
  - id: 1
    title: "A"
  - id: 1
    title: "B"
fragrances:
  - id: 10
    bookId: 1
    literaryName: "x"
    category: "플로럴"
    intensity: "medium"
  - id: 11
    bookId: 1
    literaryName: "y"
    category: "우디"
    intensity: "loud"
  - id: 12
    bookId: 9
    literaryName: "z"
    category: "우디"
    intensity: "light"
    characteristics: {citrus: 11}
`
	_, err := Load(strings.NewReader(doc))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	joined := strings.Join(verr.Problems(), "\n")
	for _, want := range []string{
		"duplicate book id 1",
		"book 1 is paired with fragrances 10 and 11",
		"unknown intensity",
		"references unknown book 9",
		"outside 0..10",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected problem %q in %s", want, joined)
		}
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("books:\n  - id: 1\n    title: A\n    rating: 4.5\n"))
	if err == nil {
		t.Fatalf("expected decode error for unknown field")
	}
}

func TestLoadEmptyDocumentYieldsEmptyCatalog(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Pairs()) != 0 {
		t.Fatalf("expected no pairs, got %d", len(c.Pairs()))
	}
}

func TestPairsSkipsBooksWithoutFragrance(t *testing.T) {
	c, err := New(
		[]domain.Book{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
		[]domain.Fragrance{{ID: 5, BookID: 2, Category: domain.CategoryMusk, Intensity: domain.IntensityLight}},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	pairs := c.Pairs()
	if len(pairs) != 1 || pairs[0].Book.ID != 2 {
		t.Fatalf("expected only book 2 paired, got %+v", pairs)
	}
	if _, ok := c.FragranceForBook(1); ok {
		t.Fatalf("expected no fragrance for book 1")
	}
	if f, ok := c.Fragrance(5); !ok || f.BookID != 2 {
		t.Fatalf("expected fragrance 5 lookup, got %+v ok=%v", f, ok)
	}
}

func TestLoadFromBucket(t *testing.T) {
	reader := &stubObjectReader{data: []byte("books:\n  - id: 3\n    title: C\n")}
	c, err := LoadFromBucket(context.Background(), reader, "catalogs", "catalog.yaml")
	if err != nil {
		t.Fatalf("load from bucket: %v", err)
	}
	if reader.bucket != "catalogs" || reader.object != "catalog.yaml" {
		t.Fatalf("expected bucket/object to be forwarded, got %s/%s", reader.bucket, reader.object)
	}
	if _, ok := c.Book(3); !ok {
		t.Fatalf("expected book 3 to be loaded")
	}

	failing := &stubObjectReader{err: errors.New("boom")}
	if _, err := LoadFromBucket(context.Background(), failing, "b", "o"); err == nil || !strings.Contains(err.Error(), "gs://b/o") {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
