package services

import (
	"errors"
	"sort"
)

const maxAlternatives = 3

// Selection is the outcome of ranking every catalog pair against one preference record.
type Selection struct {
	Winner        Pair
	Breakdown     ScoreBreakdown
	RawScore      float64
	AdjustedScore float64
	Alternatives  []Pair
}

// Selector ranks catalog pairs, picks the winner by adjusted score and lists runners-up by raw score.
type Selector struct {
	catalog  CatalogReader
	stats    StatsStore
	balancer *DistributionBalancer
}

// NewSelector wires a selector to the catalog and the shared usage counters.
func NewSelector(catalog CatalogReader, stats StatsStore) (*Selector, error) {
	if catalog == nil {
		return nil, errors.New("selector: catalog is required")
	}
	if stats == nil {
		return nil, errors.New("selector: stats store is required")
	}
	return &Selector{
		catalog:  catalog,
		stats:    stats,
		balancer: NewDistributionBalancer(stats),
	}, nil
}

type rankedPair struct {
	pair      Pair
	breakdown ScoreBreakdown
	raw       float64
}

// Select returns the best pair for prefs and records it in the usage counters.
// Ties on the adjusted score keep the pair that appears first in the catalog.
func (s *Selector) Select(prefs UserPreferences) (Selection, error) {
	pairs := s.catalog.Pairs()
	if len(pairs) == 0 {
		return Selection{}, ErrRecommendationCatalogEmpty
	}

	ids := make([]int, 0, len(pairs))
	for _, pair := range pairs {
		ids = append(ids, pair.Fragrance.ID)
	}
	s.stats.Register(ids...)

	ranked := make([]rankedPair, 0, len(pairs))
	winner := -1
	bestAdjusted := 0.0
	for i, pair := range pairs {
		breakdown := ScoreBreakdownFor(pair.Book, pair.Fragrance, prefs)
		raw := breakdown.Total()
		adjusted := s.balancer.Adjust(pair.Fragrance.ID, raw)
		ranked = append(ranked, rankedPair{pair: pair, breakdown: breakdown, raw: raw})
		if winner < 0 || adjusted > bestAdjusted {
			winner = i
			bestAdjusted = adjusted
		}
	}

	best := ranked[winner]
	s.stats.Increment(best.pair.Fragrance.ID)

	return Selection{
		Winner:        best.pair,
		Breakdown:     best.breakdown,
		RawScore:      best.raw,
		AdjustedScore: bestAdjusted,
		Alternatives:  rankAlternatives(ranked, best.pair.Book.ID),
	}, nil
}

func rankAlternatives(ranked []rankedPair, winnerBookID int) []Pair {
	rest := make([]rankedPair, 0, len(ranked))
	for _, candidate := range ranked {
		if candidate.pair.Book.ID == winnerBookID {
			continue
		}
		rest = append(rest, candidate)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].raw > rest[j].raw
	})
	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}
	out := make([]Pair, 0, len(rest))
	for _, candidate := range rest {
		out = append(out, candidate.pair)
	}
	return out
}
