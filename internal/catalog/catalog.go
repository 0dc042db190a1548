package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jooyeonthemaster/book/internal/domain"
)

//go:embed data/catalog.yaml
var embeddedCatalog []byte

var errNilReader = errors.New("catalog: reader is required")

// ObjectReader fetches raw catalog bytes from an object store.
type ObjectReader interface {
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// ValidationError lists every integrity problem found in a catalog document.
type ValidationError struct {
	problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed: %s", strings.Join(e.problems, "; "))
}

// Problems returns a copy of the reported problems.
func (e *ValidationError) Problems() []string {
	out := make([]string, len(e.problems))
	copy(out, e.problems)
	return out
}

// Catalog is the read-only set of books and their paired fragrances. It is safe for concurrent use.
type Catalog struct {
	books           []domain.Book
	fragrances      []domain.Fragrance
	bookIndex       map[int]int
	fragranceIndex  map[int]int
	fragranceByBook map[int]int
}

type document struct {
	Books      []bookRecord      `yaml:"books"`
	Fragrances []fragranceRecord `yaml:"fragrances"`
}

type bookRecord struct {
	ID          int      `yaml:"id"`
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	Genre       string   `yaml:"genre"`
	Description string   `yaml:"description"`
	Themes      []string `yaml:"themes"`
	Quote       string   `yaml:"quote"`
	Speaker     string   `yaml:"speaker"`
	Keywords    []string `yaml:"keywords"`
}

type fragranceRecord struct {
	ID              int                   `yaml:"id"`
	BookID          int                   `yaml:"bookId"`
	LiteraryName    string                `yaml:"literaryName"`
	BaseScent       string                `yaml:"baseScent"`
	Description     string                `yaml:"description"`
	Category        string                `yaml:"category"`
	Intensity       string                `yaml:"intensity"`
	Mood            []string              `yaml:"mood"`
	Characteristics characteristicsRecord `yaml:"characteristics"`
}

type characteristicsRecord struct {
	Citrus int `yaml:"citrus"`
	Floral int `yaml:"floral"`
	Woody  int `yaml:"woody"`
	Musk   int `yaml:"musk"`
	Fruity int `yaml:"fruity"`
	Spicy  int `yaml:"spicy"`
}

// LoadEmbedded decodes the catalog compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return Load(bytes.NewReader(embeddedCatalog))
}

// LoadFromBucket reads and decodes a catalog document stored as bucket/object.
func LoadFromBucket(ctx context.Context, reader ObjectReader, bucket, object string) (*Catalog, error) {
	if reader == nil {
		return nil, errNilReader
	}
	raw, err := reader.Read(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("catalog: read gs://%s/%s: %w", bucket, object, err)
	}
	return Load(bytes.NewReader(raw))
}

// Load decodes a YAML catalog document and validates its integrity.
func Load(r io.Reader) (*Catalog, error) {
	if r == nil {
		return nil, errNilReader
	}
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	books := make([]domain.Book, 0, len(doc.Books))
	for _, rec := range doc.Books {
		books = append(books, domain.Book{
			ID:          rec.ID,
			Title:       strings.TrimSpace(rec.Title),
			Author:      strings.TrimSpace(rec.Author),
			Genre:       strings.TrimSpace(rec.Genre),
			Description: strings.TrimSpace(rec.Description),
			Themes:      cloneStrings(rec.Themes),
			Quote:       strings.TrimSpace(rec.Quote),
			Speaker:     strings.TrimSpace(rec.Speaker),
			Keywords:    cloneStrings(rec.Keywords),
		})
	}
	fragrances := make([]domain.Fragrance, 0, len(doc.Fragrances))
	for _, rec := range doc.Fragrances {
		fragrances = append(fragrances, domain.Fragrance{
			ID:           rec.ID,
			BookID:       rec.BookID,
			LiteraryName: strings.TrimSpace(rec.LiteraryName),
			BaseScent:    strings.TrimSpace(rec.BaseScent),
			Description:  strings.TrimSpace(rec.Description),
			Category:     domain.Category(strings.TrimSpace(rec.Category)),
			Intensity:    domain.Intensity(strings.ToLower(strings.TrimSpace(rec.Intensity))),
			Mood:         cloneStrings(rec.Mood),
			Characteristics: domain.Characteristics{
				Citrus: rec.Characteristics.Citrus,
				Floral: rec.Characteristics.Floral,
				Woody:  rec.Characteristics.Woody,
				Musk:   rec.Characteristics.Musk,
				Fruity: rec.Characteristics.Fruity,
				Spicy:  rec.Characteristics.Spicy,
			},
		})
	}
	return New(books, fragrances)
}

// New builds a catalog from already-decoded records after validating the one-fragrance-per-book pairing.
func New(books []domain.Book, fragrances []domain.Fragrance) (*Catalog, error) {
	if err := Validate(books, fragrances); err != nil {
		return nil, err
	}
	c := &Catalog{
		books:           append([]domain.Book(nil), books...),
		fragrances:      append([]domain.Fragrance(nil), fragrances...),
		bookIndex:       make(map[int]int, len(books)),
		fragranceIndex:  make(map[int]int, len(fragrances)),
		fragranceByBook: make(map[int]int, len(fragrances)),
	}
	for i, book := range c.books {
		c.bookIndex[book.ID] = i
	}
	for i, fragrance := range c.fragrances {
		c.fragranceIndex[fragrance.ID] = i
		c.fragranceByBook[fragrance.BookID] = i
	}
	return c, nil
}

// Validate reports duplicate ids, out-of-range characteristics, unknown enumerations
// and fragrances that do not pair with exactly one book.
func Validate(books []domain.Book, fragrances []domain.Fragrance) error {
	var problems []string
	bookIDs := make(map[int]struct{}, len(books))
	for _, book := range books {
		if _, dup := bookIDs[book.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate book id %d", book.ID))
			continue
		}
		bookIDs[book.ID] = struct{}{}
		if strings.TrimSpace(book.Title) == "" {
			problems = append(problems, fmt.Sprintf("book %d has no title", book.ID))
		}
	}

	fragranceIDs := make(map[int]struct{}, len(fragrances))
	pairedBooks := make(map[int]int, len(fragrances))
	for _, fragrance := range fragrances {
		if _, dup := fragranceIDs[fragrance.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate fragrance id %d", fragrance.ID))
			continue
		}
		fragranceIDs[fragrance.ID] = struct{}{}
		if _, ok := bookIDs[fragrance.BookID]; !ok {
			problems = append(problems, fmt.Sprintf("fragrance %d references unknown book %d", fragrance.ID, fragrance.BookID))
		}
		if other, taken := pairedBooks[fragrance.BookID]; taken {
			problems = append(problems, fmt.Sprintf("book %d is paired with fragrances %d and %d", fragrance.BookID, other, fragrance.ID))
		} else {
			pairedBooks[fragrance.BookID] = fragrance.ID
		}
		if !fragrance.Intensity.Valid() {
			problems = append(problems, fmt.Sprintf("fragrance %d has unknown intensity %q", fragrance.ID, fragrance.Intensity))
		}
		if !fragrance.Category.Valid() {
			problems = append(problems, fmt.Sprintf("fragrance %d has unknown category %q", fragrance.ID, fragrance.Category))
		}
		for _, value := range fragrance.Characteristics.Values() {
			if value < 0 || value > 10 {
				problems = append(problems, fmt.Sprintf("fragrance %d has characteristic %d outside 0..10", fragrance.ID, value))
				break
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &ValidationError{problems: problems}
	}
	return nil
}

// Books returns the books in catalog order.
func (c *Catalog) Books() []domain.Book {
	if c == nil {
		return nil
	}
	return append([]domain.Book(nil), c.books...)
}

// Fragrances returns the fragrances in catalog order.
func (c *Catalog) Fragrances() []domain.Fragrance {
	if c == nil {
		return nil
	}
	return append([]domain.Fragrance(nil), c.fragrances...)
}

// Pairs yields every book with its paired fragrance in book order. Books without a fragrance are skipped.
func (c *Catalog) Pairs() []domain.Pair {
	if c == nil {
		return nil
	}
	pairs := make([]domain.Pair, 0, len(c.books))
	for _, book := range c.books {
		idx, ok := c.fragranceByBook[book.ID]
		if !ok {
			continue
		}
		pairs = append(pairs, domain.Pair{Book: book, Fragrance: c.fragrances[idx]})
	}
	return pairs
}

// Book looks up a book by id.
func (c *Catalog) Book(id int) (domain.Book, bool) {
	if c == nil {
		return domain.Book{}, false
	}
	idx, ok := c.bookIndex[id]
	if !ok {
		return domain.Book{}, false
	}
	return c.books[idx], true
}

// Fragrance looks up a fragrance by id.
func (c *Catalog) Fragrance(id int) (domain.Fragrance, bool) {
	if c == nil {
		return domain.Fragrance{}, false
	}
	idx, ok := c.fragranceIndex[id]
	if !ok {
		return domain.Fragrance{}, false
	}
	return c.fragrances[idx], true
}

// FragranceForBook returns the fragrance paired with bookID.
func (c *Catalog) FragranceForBook(bookID int) (domain.Fragrance, bool) {
	if c == nil {
		return domain.Fragrance{}, false
	}
	idx, ok := c.fragranceByBook[bookID]
	if !ok {
		return domain.Fragrance{}, false
	}
	return c.fragrances[idx], true
}

// Counts reports the number of books and fragrances.
func (c *Catalog) Counts() (books, fragrances int) {
	if c == nil {
		return 0, 0
	}
	return len(c.books), len(c.fragrances)
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
