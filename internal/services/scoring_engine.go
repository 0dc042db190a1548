package services

import (
	"math"
	"slices"

	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/platform/textutil"
)

const (
	ageIntensityWeight   = 20.0
	genderCategoryWeight = 15.0
	genreWeight          = 25.0
	traitWeight          = 20.0
	moodWeight           = 10.0
	themeOverlapPoints   = 2.0
	themeOverlapCap      = 10.0
	maxScore             = 100.0
)

// ScoreBreakdown keeps each weighted factor so the total and the explanation come from the same numbers.
type ScoreBreakdown struct {
	AgeIntensity   float64
	GenderCategory float64
	Genre          float64
	Trait          float64
	Mood           float64
	ThemeOverlap   float64
}

// Total sums the factors and clamps the result to 100.
func (b ScoreBreakdown) Total() float64 {
	total := b.AgeIntensity + b.GenderCategory + b.Genre + b.Trait + b.Mood + b.ThemeOverlap
	return math.Min(total, maxScore)
}

// ScoreBreakdownFor computes every compatibility factor for one book and fragrance. It is pure.
func ScoreBreakdownFor(book Book, fragrance Fragrance, prefs UserPreferences) ScoreBreakdown {
	var b ScoreBreakdown

	if slices.Contains(IntensitiesForAge(prefs.Age), fragrance.Intensity) {
		b.AgeIntensity = ageIntensityWeight
	}

	if slices.Contains(CategoriesForGender(prefs.Gender), fragrance.Category) {
		b.GenderCategory = genderCategoryWeight
	}

	if n := len(prefs.FavoriteGenres); n > 0 {
		share := genreWeight / float64(n)
		for _, genre := range prefs.FavoriteGenres {
			if slices.Contains(CategoriesForGenre(genre), fragrance.Category) {
				b.Genre += share
			}
		}
	}

	if n := len(prefs.PersonalityTraits); n > 0 {
		share := traitWeight / float64(n)
		for _, trait := range prefs.PersonalityTraits {
			if slices.Contains(CategoriesForTrait(trait), fragrance.Category) {
				b.Trait += share
			}
		}
	}

	if slices.Contains(CategoriesForMood(prefs.CurrentMood), fragrance.Category) {
		b.Mood = moodWeight
	}

	overlap := 0.0
	for _, theme := range book.Themes {
		for _, mood := range fragrance.Mood {
			if textutil.OverlapsFold(theme, mood) {
				overlap += themeOverlapPoints
			}
		}
	}
	b.ThemeOverlap = math.Min(overlap, themeOverlapCap)

	return b
}

// RawScore is the unrounded compatibility score used for ranking.
func RawScore(book Book, fragrance Fragrance, prefs UserPreferences) float64 {
	return ScoreBreakdownFor(book, fragrance, prefs).Total()
}

// Score returns the compatibility of a book and fragrance with the preferences as an integer in [0, 100].
func Score(book Book, fragrance Fragrance, prefs UserPreferences) int {
	return clampPercent(RawScore(book, fragrance, prefs))
}

func clampPercent(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// IntensitiesForAge lists the intensities suited to an age band.
func IntensitiesForAge(age domain.AgeBand) []domain.Intensity {
	switch age {
	case domain.AgeTeens:
		return []domain.Intensity{domain.IntensityLight, domain.IntensityMedium}
	case domain.AgeTwenties, domain.AgeThirties, domain.AgeForties:
		return []domain.Intensity{domain.IntensityMedium, domain.IntensityStrong}
	case domain.AgeFiftiesUp:
		return []domain.Intensity{domain.IntensityStrong}
	default:
		return []domain.Intensity{domain.IntensityMedium}
	}
}

// CategoriesForGender lists the categories preferred for a gender label.
func CategoriesForGender(gender domain.Gender) []domain.Category {
	switch gender {
	case domain.GenderFemale:
		return []domain.Category{domain.CategoryFloral, domain.CategoryFruity, domain.CategoryMusk}
	case domain.GenderMale:
		return []domain.Category{domain.CategoryWoody, domain.CategorySpicy, domain.CategoryCitrus}
	default:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryFloral, domain.CategoryWoody}
	}
}

// CategoriesForGenre lists the categories compatible with a genre. Unknown genres match nothing.
func CategoriesForGenre(genre domain.Genre) []domain.Category {
	switch genre {
	case domain.GenreFiction, domain.GenrePsychology:
		return []domain.Category{domain.CategoryFloral, domain.CategoryMusk, domain.CategoryWoody}
	case domain.GenreEssay:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryHerbal, domain.CategoryWoody}
	case domain.GenrePoetry:
		return []domain.Category{domain.CategoryFloral, domain.CategoryFruity, domain.CategoryHerbal}
	case domain.GenreSelfHelp:
		return []domain.Category{domain.CategoryCitrus, domain.CategorySpicy, domain.CategoryWoody}
	case domain.GenreBusiness, domain.GenreHistory, domain.GenreMystery:
		return []domain.Category{domain.CategoryWoody, domain.CategoryLeather, domain.CategorySpicy}
	case domain.GenreHealth:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryHerbal, domain.CategoryAquatic}
	case domain.GenreHumanities:
		return []domain.Category{domain.CategoryWoody, domain.CategoryHerbal, domain.CategoryMusk}
	case domain.GenreScience:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryWoody, domain.CategorySpicy}
	case domain.GenrePhilosophy:
		return []domain.Category{domain.CategoryWoody, domain.CategoryMusk, domain.CategoryHerbal}
	case domain.GenreArt:
		return []domain.Category{domain.CategoryFloral, domain.CategoryFruity, domain.CategorySpicy}
	case domain.GenreTravel:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryAquatic, domain.CategoryFruity}
	case domain.GenreCooking:
		return []domain.Category{domain.CategorySpicy, domain.CategoryFruity, domain.CategoryHerbal}
	case domain.GenreSFFantasy:
		return []domain.Category{domain.CategorySpicy, domain.CategoryWoody, domain.CategoryCitrus}
	case domain.GenreRomance:
		return []domain.Category{domain.CategoryFloral, domain.CategoryFruity, domain.CategoryMusk}
	case domain.GenreReligion:
		return []domain.Category{domain.CategoryHerbal, domain.CategoryWoody, domain.CategoryMusk}
	default:
		return nil
	}
}

// CategoriesForTrait lists the categories compatible with a personality trait. Unknown traits match nothing.
func CategoriesForTrait(trait domain.Trait) []domain.Category {
	switch trait {
	case domain.TraitIntroverted, domain.TraitStable:
		return []domain.Category{domain.CategoryMusk, domain.CategoryWoody, domain.CategoryHerbal}
	case domain.TraitExtroverted, domain.TraitSpontaneous:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryFruity, domain.CategorySpicy}
	case domain.TraitEmotional:
		return []domain.Category{domain.CategoryFloral, domain.CategoryMusk, domain.CategoryFruity}
	case domain.TraitRational:
		return []domain.Category{domain.CategoryWoody, domain.CategoryCitrus, domain.CategorySpicy}
	case domain.TraitAdventurous:
		return []domain.Category{domain.CategorySpicy, domain.CategoryCitrus, domain.CategoryWoody}
	case domain.TraitCreative:
		return []domain.Category{domain.CategoryFloral, domain.CategoryFruity, domain.CategorySpicy}
	case domain.TraitPractical:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryWoody, domain.CategoryLeather}
	case domain.TraitPerfectionist:
		return []domain.Category{domain.CategoryWoody, domain.CategoryMusk, domain.CategoryLeather}
	case domain.TraitFree:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryAquatic, domain.CategoryFruity}
	case domain.TraitPlanned:
		return []domain.Category{domain.CategoryWoody, domain.CategoryLeather, domain.CategoryMusk}
	default:
		return nil
	}
}

// CategoriesForMood lists the categories that suit the current mood. Unknown moods match nothing.
func CategoriesForMood(mood domain.Mood) []domain.Category {
	switch mood {
	case domain.MoodPeaceful:
		return []domain.Category{domain.CategoryMusk, domain.CategoryHerbal, domain.CategoryWoody}
	case domain.MoodEnergetic:
		return []domain.Category{domain.CategoryCitrus, domain.CategoryFruity, domain.CategorySpicy}
	case domain.MoodGloomy:
		return []domain.Category{domain.CategoryFloral, domain.CategoryMusk, domain.CategoryWoody}
	case domain.MoodStressed:
		return []domain.Category{domain.CategoryHerbal, domain.CategoryCitrus, domain.CategoryAquatic}
	case domain.MoodExcited:
		return []domain.Category{domain.CategoryFloral, domain.CategoryFruity, domain.CategoryCitrus}
	case domain.MoodPensive:
		return []domain.Category{domain.CategoryWoody, domain.CategoryMusk, domain.CategoryHerbal}
	default:
		return nil
	}
}
