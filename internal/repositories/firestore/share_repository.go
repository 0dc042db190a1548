package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/jooyeonthemaster/book/internal/domain"
	pfirestore "github.com/jooyeonthemaster/book/internal/platform/firestore"
	"github.com/jooyeonthemaster/book/internal/repositories"
)

const defaultSharesCollection = "shares"

// ShareRepository persists shared recommendation snapshots in Firestore.
type ShareRepository struct {
	provider *pfirestore.Provider
	shares   *pfirestore.Collection[domain.Share]
}

var _ repositories.ShareRepository = (*ShareRepository)(nil)

// NewShareRepository constructs a Firestore-backed share repository. An empty collection uses "shares".
func NewShareRepository(provider *pfirestore.Provider, collection string) (*ShareRepository, error) {
	if provider == nil {
		return nil, errors.New("share repository: firestore provider is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultSharesCollection
	}

	encode := func(share domain.Share) (any, error) {
		return encodeShareDocument(share), nil
	}
	return &ShareRepository{
		provider: provider,
		shares:   pfirestore.NewCollection[domain.Share](provider, collection, encode),
	}, nil
}

// Insert stores a new share document.
func (r *ShareRepository) Insert(ctx context.Context, share domain.Share) error {
	if r == nil || r.shares == nil {
		return errors.New("share repository not initialised")
	}
	share.ID = strings.TrimSpace(share.ID)
	if share.ID == "" {
		return errors.New("share repository: id is required")
	}
	return r.shares.Create(ctx, share.ID, share)
}

// Open reads the share and bumps its view counter inside one transaction.
func (r *ShareRepository) Open(ctx context.Context, shareID string, now time.Time) (domain.Share, error) {
	if r == nil || r.shares == nil {
		return domain.Share{}, errors.New("share repository not initialised")
	}
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return domain.Share{}, errors.New("share repository: id is required")
	}

	ref, err := r.shares.Doc(ctx, shareID)
	if err != nil {
		return domain.Share{}, err
	}

	var share domain.Share
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return pfirestore.WrapError("shares.open", err)
		}
		decoded, err := decodeShareSnapshot(snap)
		if err != nil {
			return err
		}
		share = decoded
		if share.Expired(now) {
			return nil
		}
		share.ViewCount++
		return tx.Update(ref, []firestore.Update{{Path: "viewCount", Value: firestore.Increment(1)}})
	})
	if err != nil {
		return domain.Share{}, err
	}
	return share, nil
}

// DeleteExpired removes up to limit shares whose expiry is at or before now.
func (r *ShareRepository) DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if r == nil || r.shares == nil {
		return 0, errors.New("share repository not initialised")
	}
	if limit <= 0 {
		return 0, nil
	}

	ids, err := r.shares.IDs(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("expiresAt", "<=", now.UTC()).Limit(limit)
	})
	if err != nil {
		return 0, err
	}
	return r.shares.DeleteAll(ctx, ids)
}

// Ping checks the shares collection is reachable.
func (r *ShareRepository) Ping(ctx context.Context) error {
	if r == nil || r.shares == nil {
		return errors.New("share repository not initialised")
	}
	return r.shares.Ping(ctx)
}

type shareDocument struct {
	Result    resultDocument `firestore:"result"`
	Version   string         `firestore:"version"`
	ViewCount int            `firestore:"viewCount"`
	CreatedAt time.Time      `firestore:"createdAt"`
	ExpiresAt time.Time      `firestore:"expiresAt"`
}

type resultDocument struct {
	Book         bookDocument          `firestore:"book"`
	Fragrance    fragranceDocument     `firestore:"fragrance"`
	MatchReason  string                `firestore:"matchReason"`
	Confidence   int                   `firestore:"confidence"`
	Source       string                `firestore:"source,omitempty"`
	DeepAnalysis *deepAnalysisDocument `firestore:"deepAnalysis,omitempty"`
}

type bookDocument struct {
	ID          int      `firestore:"id"`
	Title       string   `firestore:"title"`
	Author      string   `firestore:"author"`
	Genre       string   `firestore:"genre"`
	Description string   `firestore:"description"`
	Themes      []string `firestore:"themes"`
	Quote       string   `firestore:"quote,omitempty"`
	Speaker     string   `firestore:"speaker,omitempty"`
	Keywords    []string `firestore:"keywords,omitempty"`
}

type fragranceDocument struct {
	ID              int            `firestore:"id"`
	BookID          int            `firestore:"bookId"`
	LiteraryName    string         `firestore:"literaryName"`
	BaseScent       string         `firestore:"baseScent"`
	Description     string         `firestore:"description"`
	Category        string         `firestore:"category"`
	Intensity       string         `firestore:"intensity"`
	Mood            []string       `firestore:"mood"`
	Characteristics map[string]int `firestore:"characteristics"`
}

type deepAnalysisDocument struct {
	UserPsychology     string   `firestore:"userPsychology"`
	EmotionalResonance string   `firestore:"emotionalResonance"`
	HiddenNeeds        string   `firestore:"hiddenNeeds"`
	PersonalKeywords   []string `firestore:"personalKeywords"`
}

func encodeShareDocument(share domain.Share) shareDocument {
	result := share.Result
	doc := shareDocument{
		Result: resultDocument{
			Book:        encodeBookDocument(result.Book),
			Fragrance:   encodeFragranceDocument(result.Fragrance),
			MatchReason: result.MatchReason,
			Confidence:  result.Confidence,
			Source:      string(result.Source),
		},
		Version:   share.Version,
		ViewCount: share.ViewCount,
		CreatedAt: share.CreatedAt.UTC(),
		ExpiresAt: share.ExpiresAt.UTC(),
	}
	if analysis := result.DeepAnalysis; analysis != nil {
		doc.Result.DeepAnalysis = &deepAnalysisDocument{
			UserPsychology:     analysis.UserPsychology,
			EmotionalResonance: analysis.EmotionalResonance,
			HiddenNeeds:        analysis.HiddenNeeds,
			PersonalKeywords:   analysis.PersonalKeywords,
		}
	}
	return doc
}

func encodeBookDocument(book domain.Book) bookDocument {
	return bookDocument{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Genre:       book.Genre,
		Description: book.Description,
		Themes:      book.Themes,
		Quote:       book.Quote,
		Speaker:     book.Speaker,
		Keywords:    book.Keywords,
	}
}

func encodeFragranceDocument(fragrance domain.Fragrance) fragranceDocument {
	c := fragrance.Characteristics
	return fragranceDocument{
		ID:           fragrance.ID,
		BookID:       fragrance.BookID,
		LiteraryName: fragrance.LiteraryName,
		BaseScent:    fragrance.BaseScent,
		Description:  fragrance.Description,
		Category:     string(fragrance.Category),
		Intensity:    string(fragrance.Intensity),
		Mood:         fragrance.Mood,
		Characteristics: map[string]int{
			"citrus": c.Citrus,
			"floral": c.Floral,
			"woody":  c.Woody,
			"musk":   c.Musk,
			"fruity": c.Fruity,
			"spicy":  c.Spicy,
		},
	}
}

func decodeShareSnapshot(snap *firestore.DocumentSnapshot) (domain.Share, error) {
	var doc shareDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Share{}, err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = snap.CreateTime
	}
	return decodeShareDocument(snap.Ref.ID, doc), nil
}

func decodeShareDocument(id string, doc shareDocument) domain.Share {
	r := doc.Result
	f := r.Fragrance
	result := domain.RecommendationResult{
		Book: domain.Book{
			ID:          r.Book.ID,
			Title:       r.Book.Title,
			Author:      r.Book.Author,
			Genre:       r.Book.Genre,
			Description: r.Book.Description,
			Themes:      r.Book.Themes,
			Quote:       r.Book.Quote,
			Speaker:     r.Book.Speaker,
			Keywords:    r.Book.Keywords,
		},
		Fragrance: domain.Fragrance{
			ID:           f.ID,
			BookID:       f.BookID,
			LiteraryName: f.LiteraryName,
			BaseScent:    f.BaseScent,
			Description:  f.Description,
			Category:     domain.Category(f.Category),
			Intensity:    domain.Intensity(f.Intensity),
			Mood:         f.Mood,
			Characteristics: domain.Characteristics{
				Citrus: f.Characteristics["citrus"],
				Floral: f.Characteristics["floral"],
				Woody:  f.Characteristics["woody"],
				Musk:   f.Characteristics["musk"],
				Fruity: f.Characteristics["fruity"],
				Spicy:  f.Characteristics["spicy"],
			},
		},
		MatchReason: r.MatchReason,
		Confidence:  r.Confidence,
		Source:      domain.RecommendationSource(r.Source),
	}
	if a := r.DeepAnalysis; a != nil {
		result.DeepAnalysis = &domain.DeepAnalysis{
			UserPsychology:     a.UserPsychology,
			EmotionalResonance: a.EmotionalResonance,
			HiddenNeeds:        a.HiddenNeeds,
			PersonalKeywords:   a.PersonalKeywords,
		}
	}
	return domain.Share{
		ID:        id,
		Result:    result,
		Version:   doc.Version,
		ViewCount: doc.ViewCount,
		CreatedAt: doc.CreatedAt.UTC(),
		ExpiresAt: doc.ExpiresAt.UTC(),
	}
}
